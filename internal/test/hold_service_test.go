package test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TahlesAi/tahles-sub000/internal/clock"
	"github.com/TahlesAi/tahles-sub000/internal/models"
	"github.com/TahlesAi/tahles-sub000/internal/service"
)

func newHoldFixture(t *testing.T) (*service.HoldService, *service.AvailabilityService, *clock.Fixed) {
	t.Helper()

	clk := fixedClock()
	availability := service.NewAvailabilityService(clk)
	holds, err := service.NewHoldService(availability, clk, service.HoldConfig{
		HoldTTL:       15 * time.Minute,
		SweepInterval: time.Minute,
	})
	require.NoError(t, err)
	return holds, availability, clk
}

func TestHoldConfig_Validate(t *testing.T) {
	clk := fixedClock()
	availability := service.NewAvailabilityService(clk)

	_, err := service.NewHoldService(availability, clk, service.HoldConfig{
		HoldTTL:       time.Second,
		SweepInterval: time.Minute,
	})
	assert.Error(t, err, "sub-minute hold TTL must be rejected")

	_, err = service.NewHoldService(availability, clk, service.HoldConfig{
		HoldTTL:       15 * time.Minute,
		SweepInterval: 0,
	})
	assert.Error(t, err)
}

func TestHold_CreateAndExpiryMetadata(t *testing.T) {
	holds, availability, clk := newHoldFixture(t)
	availability.Register("svc-1", "prov-1", bookableConfig())

	hold := holds.CreateSoftHold("svc-1", "prov-1", "user-42")
	require.NotNil(t, hold)

	assert.NotEmpty(t, hold.ID)
	assert.True(t, hold.IsActive)
	assert.Equal(t, clk.Now(), hold.CreatedAt)
	assert.Equal(t, clk.Now().Add(15*time.Minute), hold.ExpiresAt)

	rec, _ := availability.Get("svc-1")
	assert.Equal(t, 1, rec.CurrentBookings)
}

func TestHold_NotGrantedWhenUnavailable(t *testing.T) {
	holds, availability, _ := newHoldFixture(t)

	// Unknown service.
	assert.Nil(t, holds.CreateSoftHold("missing", "prov-1", "user-1"))

	// Known but calendar-less service.
	availability.Register("svc-1", "prov-1", models.AvailabilityConfig{IsAvailable: true})
	assert.Nil(t, holds.CreateSoftHold("svc-1", "prov-1", "user-1"))

	rec, _ := availability.Get("svc-1")
	assert.Equal(t, 0, rec.CurrentBookings, "denied hold must not increment")
}

func TestHold_CapacityCap(t *testing.T) {
	holds, availability, _ := newHoldFixture(t)
	availability.Register("svc-1", "prov-1", bookableConfig()) // capacity 1

	first := holds.CreateSoftHold("svc-1", "prov-1", "user-1")
	require.NotNil(t, first)

	second := holds.CreateSoftHold("svc-1", "prov-1", "user-2")
	assert.Nil(t, second, "hold at capacity must not be granted")

	rec, _ := availability.Get("svc-1")
	assert.Equal(t, 1, rec.CurrentBookings)
}

func TestHold_ReleaseIsIdempotent(t *testing.T) {
	holds, availability, _ := newHoldFixture(t)
	availability.Register("svc-1", "prov-1", bookableConfig())

	hold := holds.CreateSoftHold("svc-1", "prov-1", "user-1")
	require.NotNil(t, hold)

	assert.True(t, holds.ReleaseSoftHold(hold.ID))
	assert.False(t, holds.ReleaseSoftHold(hold.ID), "second release reports false")
	assert.False(t, holds.ReleaseSoftHold("never-existed"))

	rec, _ := availability.Get("svc-1")
	assert.Equal(t, 0, rec.CurrentBookings, "counter decremented exactly once")

	// History survives release.
	stored, ok := holds.GetHold(hold.ID)
	assert.True(t, ok)
	assert.False(t, stored.IsActive)
}

func TestHold_SweepReleasesExpired(t *testing.T) {
	holds, availability, clk := newHoldFixture(t)
	availability.Register("svc-1", "prov-1", bookableConfig())

	hold := holds.CreateSoftHold("svc-1", "prov-1", "user-1")
	require.NotNil(t, hold)
	assert.Equal(t, 1, holds.ActiveHolds())

	// Not yet expired: sweep is a no-op.
	clk.Advance(14 * time.Minute)
	holds.Sweep()
	assert.Equal(t, 1, holds.ActiveHolds())

	clk.Advance(2 * time.Minute)
	holds.Sweep()

	assert.Equal(t, 0, holds.ActiveHolds())
	rec, _ := availability.Get("svc-1")
	assert.Equal(t, 0, rec.CurrentBookings, "capacity returns to pre-hold value")

	stored, _ := holds.GetHold(hold.ID)
	assert.False(t, stored.IsActive)
}

func TestHold_SweepClearsExpiredProviderLocks(t *testing.T) {
	holds, availability, clk := newHoldFixture(t)
	availability.Register("svc-1", "prov-1", bookableConfig())

	availability.LockProvider("prov-1", "operator-1", 5*time.Minute)
	clk.Advance(6 * time.Minute)

	holds.Sweep()

	rec, _ := availability.Get("svc-1")
	assert.Nil(t, rec.LockUntil)
}

func TestHold_GrantedAgainAfterExpiry(t *testing.T) {
	holds, availability, clk := newHoldFixture(t)
	availability.Register("svc-1", "prov-1", bookableConfig())

	first := holds.CreateSoftHold("svc-1", "prov-1", "user-1")
	require.NotNil(t, first)
	assert.Nil(t, holds.CreateSoftHold("svc-1", "prov-1", "user-2"))

	clk.Advance(20 * time.Minute)
	holds.Sweep()

	second := holds.CreateSoftHold("svc-1", "prov-1", "user-2")
	assert.NotNil(t, second, "capacity freed by sweep is grantable again")
}

func TestHold_Stats(t *testing.T) {
	holds, availability, _ := newHoldFixture(t)
	availability.Register("svc-1", "prov-1", bookableConfig())
	cfg := bookableConfig()
	cfg.MaxConcurrentBookings = 3
	availability.Register("svc-2", "prov-2", cfg)

	require.NotNil(t, holds.CreateSoftHold("svc-2", "prov-2", "user-1"))
	require.NotNil(t, holds.CreateSoftHold("svc-2", "prov-2", "user-2"))

	stats := holds.Stats()
	assert.Equal(t, 2, stats.TotalServices)
	assert.Equal(t, 2, stats.ActiveHolds)
	assert.Equal(t, 2, stats.AvailableServices)
}
