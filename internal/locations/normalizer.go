// Package locations normalizes free-text location strings from crawled
// listings into canonical locations, learning aliases as it goes.
package locations

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/agext/levenshtein"

	"uppdragsradarn-crawler/internal/cache"
	"uppdragsradarn-crawler/internal/config"
	"uppdragsradarn-crawler/internal/logging"
	"uppdragsradarn-crawler/internal/storage"
	"uppdragsradarn-crawler/pkg/models"
)

// Aliases learned from split matches carry this confidence.
const splitAliasConfidence = 0.8

// Fuzzy alias matches must clear this similarity to count.
const fuzzyThreshold = 0.7

var splitPattern = regexp.MustCompile(`[,;/]`)

// Normalizer resolves raw location text to canonical locations.
type Normalizer struct {
	locations          storage.LocationStore
	aliases            storage.AliasStore
	cache              *cache.AliasCache
	remote             *RemoteDetector
	defaultCountryCode string
	defaultCountryName string
	logger             logging.Logger
}

// NewNormalizer creates a normalizer backed by the given stores. The alias
// cache may be nil. Remote detection uses the configured keyword list.
func NewNormalizer(locations storage.LocationStore, aliases storage.AliasStore, aliasCache *cache.AliasCache, cfg *config.Config) *Normalizer {
	return &Normalizer{
		locations:          locations,
		aliases:            aliases,
		cache:              aliasCache,
		remote:             NewRemoteDetector(cfg.Locations.RemoteKeywords),
		defaultCountryCode: cfg.Locations.DefaultCountryCode,
		defaultCountryName: cfg.Locations.DefaultCountryName,
		logger:             logging.GetGlobalLogger(),
	}
}

// Normalize resolves raw location text to a canonical location. Resolution
// order: provider-specific learned alias, exact alias, fuzzy alias, first
// segment of a delimited list, then direct city match. Returns (nil, nil)
// when nothing matches; callers decide the fallback.
func (n *Normalizer) Normalize(ctx context.Context, rawText, sourceProvider string) (*models.Location, error) {
	trimmed := strings.TrimSpace(rawText)
	if trimmed == "" {
		return nil, nil
	}

	if loc, err := n.cache.Get(ctx, trimmed); err == nil {
		return loc, nil
	}

	if sourceProvider != "" {
		alias, err := n.aliases.FindBySourceTextAndProvider(ctx, trimmed, sourceProvider)
		if err == nil {
			return n.resolveAlias(ctx, trimmed, alias)
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
	}

	if loc, err := n.findByAlias(ctx, trimmed); err != nil {
		return nil, err
	} else if loc != nil {
		n.cache.Set(ctx, trimmed, loc)
		return loc, nil
	}

	if splitPattern.MatchString(trimmed) {
		primary := strings.TrimSpace(splitPattern.Split(trimmed, -1)[0])
		loc, err := n.normalizePart(ctx, primary)
		if err != nil {
			return nil, err
		}
		if loc != nil {
			n.recordAlias(ctx, loc, trimmed, sourceProvider)
			n.cache.Set(ctx, trimmed, loc)
			return loc, nil
		}
	}

	loc, err := n.normalizePart(ctx, trimmed)
	if err != nil {
		return nil, err
	}
	if loc != nil {
		n.cache.Set(ctx, trimmed, loc)
	}
	return loc, nil
}

// findByAlias tries an exact alias match, then the closest fuzzy match above
// the similarity threshold.
func (n *Normalizer) findByAlias(ctx context.Context, text string) (*models.Location, error) {
	alias, err := n.aliases.FindByAliasText(ctx, text)
	if err == nil {
		return n.resolveAlias(ctx, text, alias)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	active, err := n.aliases.FindAllActive(ctx)
	if err != nil {
		return nil, err
	}

	var best *models.LocationAlias
	bestScore := fuzzyThreshold
	lower := strings.ToLower(text)
	for _, candidate := range active {
		score := levenshtein.Match(lower, strings.ToLower(candidate.AliasText), nil)
		if score > bestScore {
			bestScore = score
			best = candidate
		}
	}
	if best == nil {
		return nil, nil
	}
	return n.resolveAlias(ctx, text, best)
}

func (n *Normalizer) resolveAlias(ctx context.Context, text string, alias *models.LocationAlias) (*models.Location, error) {
	loc, err := n.locations.FindByID(ctx, alias.LocationID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			n.logger.Warn("Alias points at missing location", map[string]interface{}{
				"alias":       alias.AliasText,
				"location_id": alias.LocationID.String(),
			})
			return nil, nil
		}
		return nil, err
	}
	n.cache.Set(ctx, text, loc)
	return loc, nil
}

// normalizePart matches one location fragment: the shared remote location
// for remote indicators, otherwise the most populous city containing the
// fragment.
func (n *Normalizer) normalizePart(ctx context.Context, part string) (*models.Location, error) {
	part = strings.TrimSpace(part)
	if part == "" {
		return nil, nil
	}

	if n.remote.IsRemote(part) {
		loc, err := n.locations.FindByCityAndCountry(ctx, "Remote", n.defaultCountryCode)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, nil
			}
			return nil, err
		}
		return loc, nil
	}

	matches, err := n.locations.FindByCityContaining(ctx, part)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	// Matches arrive ordered by population, largest first.
	return matches[0], nil
}

// recordAlias remembers that a full raw string resolved to a location so the
// next crawl takes the fast path. Failures are logged, not propagated.
func (n *Normalizer) recordAlias(ctx context.Context, loc *models.Location, rawText, sourceProvider string) {
	err := n.aliases.Create(ctx, &models.LocationAlias{
		LocationID:      loc.ID,
		AliasText:       rawText,
		SourceText:      rawText,
		SourceProvider:  sourceProvider,
		MatchConfidence: splitAliasConfidence,
		ManualMatch:     false,
		Active:          true,
	})
	if err != nil {
		n.logger.Warn("Failed to record location alias", map[string]interface{}{
			"alias": rawText,
			"error": err.Error(),
		})
	}
}

// Enrich fills in the location fields of an assignment from its raw location
// text: remote flags, percentage, and the normalized canonical location with
// a remote fallback.
func (n *Normalizer) Enrich(ctx context.Context, assignment *models.Assignment, sourceProvider string) {
	rawText := strings.TrimSpace(assignment.LocationText)
	if rawText == "" {
		return
	}

	assignment.Remote = n.remote.IsRemote(rawText)
	assignment.RemotePercentage = n.remote.ExtractRemotePercentage(rawText)

	loc, err := n.Normalize(ctx, rawText, sourceProvider)
	if err != nil {
		n.logger.Error("Location normalization failed", map[string]interface{}{
			"location": rawText,
			"error":    err.Error(),
		})
		return
	}

	if loc == nil && assignment.Remote {
		if remote, ferr := n.locations.FindByCityAndCountry(ctx, "Remote", n.defaultCountryCode); ferr == nil {
			loc = remote
		}
	}

	if loc == nil {
		n.logger.Debug("Could not normalize location", map[string]interface{}{
			"location": rawText,
		})
		return
	}

	assignment.Location = loc
}
