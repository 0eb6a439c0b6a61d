package status

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evanmoran/ganttd/internal/calendar"
	"github.com/evanmoran/ganttd/internal/domain"
	"github.com/evanmoran/ganttd/internal/testutil"
)

func trackingConfig(t *testing.T) *calendar.Config {
	t.Helper()
	cfg, err := calendar.NewConfig(testutil.NewTestOrg("Acme"), nil)
	require.NoError(t, err)
	return cfg
}

func TestDeriveTrackingFixedMappings(t *testing.T) {
	cfg := trackingConfig(t)
	start := time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.January, 9, 18, 0, 0, 0, time.UTC)
	now := start.Add(24 * time.Hour)

	got, reason := DeriveTracking(cfg, domain.StatusOnHold, start, end, 50, now)
	assert.Equal(t, domain.TrackingAtRisk, got)
	assert.NotEmpty(t, reason)

	for _, st := range []domain.Status{domain.StatusNotStarted, domain.StatusCompleted, domain.StatusVerified} {
		got, _ := DeriveTracking(cfg, st, start, end, 0, now)
		assert.Equal(t, domain.TrackingOnTrack, got, "status %s", st)
	}
}

func TestDeriveTrackingPastDue(t *testing.T) {
	cfg := trackingConfig(t)
	start := time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.January, 9, 18, 0, 0, 0, time.UTC)

	got, reason := DeriveTracking(cfg, domain.StatusInProgress, start, end, 90, end.Add(time.Hour))
	assert.Equal(t, domain.TrackingOffTrack, got)
	assert.Equal(t, "past due", reason)
}

func TestDeriveTrackingLaggingProgress(t *testing.T) {
	cfg := trackingConfig(t)
	// Monday to Friday, 40 working hours total; by Wednesday evening 24h
	// have elapsed, so expected progress is 60%.
	start := time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.January, 9, 18, 0, 0, 0, time.UTC)
	now := time.Date(2026, time.January, 7, 18, 0, 0, 0, time.UTC)

	got, _ := DeriveTracking(cfg, domain.StatusInProgress, start, end, 30, now)
	assert.Equal(t, domain.TrackingAtRisk, got)

	// Within the grace band progress counts as on track.
	got, _ = DeriveTracking(cfg, domain.StatusInProgress, start, end, 58, now)
	assert.Equal(t, domain.TrackingOnTrack, got)
}

func TestDeriveTrackingMinimalProgress(t *testing.T) {
	cfg := trackingConfig(t)
	start := time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.March, 27, 18, 0, 0, 0, time.UTC)
	// Barely into a long window expected progress is tiny, but near-zero
	// actual progress with elapsed working time still flags.
	now := time.Date(2026, time.January, 6, 18, 0, 0, 0, time.UTC)

	got, reason := DeriveTracking(cfg, domain.StatusInProgress, start, end, 5, now)
	assert.Equal(t, domain.TrackingAtRisk, got)
	assert.Equal(t, "minimal progress since start", reason)

	got, _ = DeriveTracking(cfg, domain.StatusInProgress, start, end, 15, now)
	assert.Equal(t, domain.TrackingOnTrack, got)
}

func TestDeriveTrackingBeforeStart(t *testing.T) {
	cfg := trackingConfig(t)
	start := time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.January, 9, 18, 0, 0, 0, time.UTC)

	// No working time elapsed yet: zero progress is fine.
	got, _ := DeriveTracking(cfg, domain.StatusInProgress, start, end, 0, start)
	assert.Equal(t, domain.TrackingOnTrack, got)
}
