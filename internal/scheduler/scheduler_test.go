package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uppdragsradarn-crawler/internal/config"
	"uppdragsradarn-crawler/internal/locations"
	"uppdragsradarn-crawler/internal/orchestrator"
	"uppdragsradarn-crawler/internal/providers"
	"uppdragsradarn-crawler/internal/storage/memory"
)

func newTestScheduler(t *testing.T, cfg *config.Config) *Scheduler {
	t.Helper()

	stores := memory.NewStores()
	normalizer := locations.NewNormalizer(stores.Locations, stores.Aliases, nil, cfg)
	o := orchestrator.New(stores, providers.NewRegistry(), normalizer, orchestrator.NewRunner(cfg), cfg)
	require.NoError(t, o.Start(context.Background()))
	t.Cleanup(func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = o.Stop(stopCtx)
	})

	return New(o, cfg)
}

func TestStart_Disabled(t *testing.T) {
	cfg := &config.Config{}
	cfg.Scheduler.Enabled = false

	s := newTestScheduler(t, cfg)
	require.NoError(t, s.Start(context.Background()))
	s.Stop()
}

func TestStart_InvalidSchedule(t *testing.T) {
	cfg := &config.Config{}
	cfg.Scheduler.Enabled = true
	cfg.Scheduler.Schedule = "not a cron expression"

	s := newTestScheduler(t, cfg)
	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cron schedule")
}

func TestStart_ValidSchedule(t *testing.T) {
	cfg := &config.Config{}
	cfg.Scheduler.Enabled = true
	cfg.Scheduler.Schedule = "0 */6 * * *"

	s := newTestScheduler(t, cfg)
	require.NoError(t, s.Start(context.Background()))
	s.Stop()
}
