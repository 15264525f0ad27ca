package locations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uppdragsradarn-crawler/internal/config"
	"uppdragsradarn-crawler/internal/storage/memory"
	"uppdragsradarn-crawler/pkg/models"
)

func int64ptr(v int64) *int64 { return &v }

func testNormalizer(t *testing.T) (*Normalizer, *memory.LocationStore, *memory.AliasStore) {
	t.Helper()
	locs := memory.NewLocationStore()
	aliases := memory.NewAliasStore()

	cfg := &config.Config{}
	cfg.Locations.DefaultCountryCode = "SE"
	cfg.Locations.DefaultCountryName = "Sweden"

	seed := []*models.Location{
		{City: "Stockholm", CountryCode: "SE", Population: int64ptr(975_000), Active: true},
		{City: "Göteborg", CountryCode: "SE", Population: int64ptr(580_000), Active: true},
		{City: "Lidingö", CountryCode: "SE", Population: int64ptr(48_000), Active: true},
		{City: "Remote", CountryCode: "SE", Active: true},
	}
	for _, loc := range seed {
		require.NoError(t, locs.Create(context.Background(), loc))
	}

	return NewNormalizer(locs, aliases, nil, cfg), locs, aliases
}

func TestNormalize_DirectCityMatch(t *testing.T) {
	n, _, _ := testNormalizer(t)

	loc, err := n.Normalize(context.Background(), "Stockholm", "emagine")
	require.NoError(t, err)
	require.NotNil(t, loc)
	assert.Equal(t, "Stockholm", loc.City)
}

func TestNormalize_EmptyInput(t *testing.T) {
	n, _, _ := testNormalizer(t)

	loc, err := n.Normalize(context.Background(), "   ", "emagine")
	require.NoError(t, err)
	assert.Nil(t, loc)
}

func TestNormalize_ProviderAliasFastPath(t *testing.T) {
	n, locs, aliases := testNormalizer(t)
	ctx := context.Background()

	gbg, err := locs.FindByCityAndCountry(ctx, "Göteborg", "SE")
	require.NoError(t, err)

	require.NoError(t, aliases.Create(ctx, &models.LocationAlias{
		LocationID:      gbg.ID,
		AliasText:       "GBG area",
		SourceText:      "GBG area",
		SourceProvider:  "emagine",
		MatchConfidence: 1.0,
		ManualMatch:     true,
		Active:          true,
	}))

	loc, err := n.Normalize(ctx, "GBG area", "emagine")
	require.NoError(t, err)
	require.NotNil(t, loc)
	assert.Equal(t, "Göteborg", loc.City)
}

func TestNormalize_FuzzyAliasMatch(t *testing.T) {
	n, locs, aliases := testNormalizer(t)
	ctx := context.Background()

	sthlm, err := locs.FindByCityAndCountry(ctx, "Stockholm", "SE")
	require.NoError(t, err)

	require.NoError(t, aliases.Create(ctx, &models.LocationAlias{
		LocationID:      sthlm.ID,
		AliasText:       "Stockholm City",
		MatchConfidence: 1.0,
		Active:          true,
	}))

	// One character off from the stored alias.
	loc, err := n.Normalize(ctx, "Stockholm Cty", "")
	require.NoError(t, err)
	require.NotNil(t, loc)
	assert.Equal(t, "Stockholm", loc.City)
}

func TestNormalize_SplitRecordsAlias(t *testing.T) {
	n, _, aliases := testNormalizer(t)
	ctx := context.Background()

	loc, err := n.Normalize(ctx, "Stockholm, Sverige", "emagine")
	require.NoError(t, err)
	require.NotNil(t, loc)
	assert.Equal(t, "Stockholm", loc.City)

	// The full raw string is now a learned alias for the provider.
	alias, err := aliases.FindBySourceTextAndProvider(ctx, "Stockholm, Sverige", "emagine")
	require.NoError(t, err)
	assert.Equal(t, loc.ID, alias.LocationID)
	assert.InDelta(t, 0.8, alias.MatchConfidence, 0.001)
	assert.False(t, alias.ManualMatch)

	// A second normalization takes the recorded alias path.
	again, err := n.Normalize(ctx, "Stockholm, Sverige", "emagine")
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.Equal(t, loc.ID, again.ID)
}

func TestNormalize_RemoteKeyword(t *testing.T) {
	n, _, _ := testNormalizer(t)

	loc, err := n.Normalize(context.Background(), "På distans", "")
	require.NoError(t, err)
	require.NotNil(t, loc)
	assert.Equal(t, "Remote", loc.City)
}

func TestNormalize_PopulationTieBreak(t *testing.T) {
	n, _, _ := testNormalizer(t)

	// The fragment matches both Göteborg and Lidingö; the bigger city wins.
	loc, err := n.Normalize(context.Background(), "ö", "")
	require.NoError(t, err)
	require.NotNil(t, loc)
	assert.Equal(t, "Göteborg", loc.City)
}

func TestNormalize_NoMatch(t *testing.T) {
	n, _, _ := testNormalizer(t)

	loc, err := n.Normalize(context.Background(), "Atlantis", "")
	require.NoError(t, err)
	assert.Nil(t, loc)
}

func TestEnrich_SetsRemoteAndLocation(t *testing.T) {
	n, _, _ := testNormalizer(t)

	a := &models.Assignment{LocationText: "Stockholm, 50% remote"}
	n.Enrich(context.Background(), a, "emagine")

	assert.True(t, a.Remote)
	require.NotNil(t, a.RemotePercentage)
	assert.Equal(t, 50, *a.RemotePercentage)
	require.NotNil(t, a.Location)
	assert.Equal(t, "Stockholm", a.Location.City)
}

func TestEnrich_RemoteFallback(t *testing.T) {
	n, _, _ := testNormalizer(t)

	a := &models.Assignment{LocationText: "Fully remote"}
	n.Enrich(context.Background(), a, "")

	assert.True(t, a.Remote)
	require.NotNil(t, a.Location)
	assert.Equal(t, "Remote", a.Location.City)
}

func TestEnrich_ConfiguredRemoteKeyword(t *testing.T) {
	locs := memory.NewLocationStore()
	aliases := memory.NewAliasStore()

	cfg := &config.Config{}
	cfg.Locations.DefaultCountryCode = "SE"
	cfg.Locations.DefaultCountryName = "Sweden"
	cfg.Locations.RemoteKeywords = []string{"hemmakontor"}

	require.NoError(t, locs.Create(context.Background(), &models.Location{
		City: "Remote", CountryCode: "SE", Active: true,
	}))
	n := NewNormalizer(locs, aliases, nil, cfg)

	a := &models.Assignment{LocationText: "Hemmakontor"}
	n.Enrich(context.Background(), a, "")

	assert.True(t, a.Remote)
	require.NotNil(t, a.Location)
	assert.Equal(t, "Remote", a.Location.City)
}

func TestEnrich_UnknownLocationLeavesNil(t *testing.T) {
	n, _, _ := testNormalizer(t)

	a := &models.Assignment{LocationText: "Narnia"}
	n.Enrich(context.Background(), a, "")

	assert.False(t, a.Remote)
	assert.Nil(t, a.Location)
	assert.Nil(t, a.RemotePercentage)
}
