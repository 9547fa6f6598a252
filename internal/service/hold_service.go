package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/TahlesAi/tahles-sub000/internal/clock"
	"github.com/TahlesAi/tahles-sub000/internal/models"
)

// HoldConfig holds the tunables of the soft-hold manager.
type HoldConfig struct {
	HoldTTL       time.Duration // lifetime of a granted hold
	SweepInterval time.Duration // how often expired holds are reaped
}

// Validate validates the hold configuration
func (c HoldConfig) Validate() error {
	if c.HoldTTL < time.Minute {
		return fmt.Errorf("hold TTL must be at least 1 minute, got %v", c.HoldTTL)
	}
	if c.SweepInterval < time.Second {
		return fmt.Errorf("sweep interval must be at least 1 second, got %v", c.SweepInterval)
	}
	return nil
}

// HoldService grants and revokes time-boxed soft holds against the
// availability registry. Holds move created → active → released/expired;
// terminal states are final and the hold record is kept as history.
type HoldService struct {
	mu           sync.Mutex
	holds        map[string]*models.SoftHold
	availability *AvailabilityService
	clock        clock.Clock
	config       HoldConfig
}

// NewHoldService creates a hold manager bound to one availability
// registry.
func NewHoldService(availability *AvailabilityService, clk clock.Clock, config HoldConfig) (*HoldService, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid hold configuration: %w", err)
	}
	return &HoldService{
		holds:        make(map[string]*models.SoftHold),
		availability: availability,
		clock:        clk,
		config:       config,
	}, nil
}

// CreateSoftHold reserves one booking slot on the service and returns
// the active hold, or nil when the service cannot accept a booking.
// A nil result means "not granted", not an error.
func (s *HoldService) CreateSoftHold(serviceID, providerID, holderID string) *models.SoftHold {
	if !s.availability.Reserve(serviceID) {
		log.Debug().
			Str("service_id", serviceID).
			Str("holder_id", holderID).
			Msg("Soft hold not granted, service unavailable")
		return nil
	}

	now := s.clock.Now()
	hold := &models.SoftHold{
		ID:         uuid.New().String(),
		ServiceID:  serviceID,
		ProviderID: providerID,
		HolderID:   holderID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.config.HoldTTL),
		IsActive:   true,
	}

	s.mu.Lock()
	s.holds[hold.ID] = hold
	s.mu.Unlock()

	log.Info().
		Str("hold_id", hold.ID).
		Str("service_id", serviceID).
		Str("holder_id", holderID).
		Time("expires_at", hold.ExpiresAt).
		Msg("Soft hold created")

	copied := *hold
	return &copied
}

// ReleaseSoftHold frees the hold's capacity slot and marks it inactive.
// Releasing a missing or already-inactive hold returns false and does
// nothing, so double releases are safe.
func (s *HoldService) ReleaseSoftHold(holdID string) bool {
	s.mu.Lock()
	hold, ok := s.holds[holdID]
	if !ok || !hold.IsActive {
		s.mu.Unlock()
		return false
	}
	hold.IsActive = false
	serviceID := hold.ServiceID
	s.mu.Unlock()

	s.availability.Release(serviceID)

	log.Info().Str("hold_id", holdID).Str("service_id", serviceID).Msg("Soft hold released")
	return true
}

// GetHold returns a copy of the hold record, if known.
func (s *HoldService) GetHold(holdID string) (models.SoftHold, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hold, ok := s.holds[holdID]
	if !ok {
		return models.SoftHold{}, false
	}
	return *hold, true
}

// ActiveHolds counts holds that have not been released or expired.
func (s *HoldService) ActiveHolds() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, hold := range s.holds {
		if hold.IsActive {
			count++
		}
	}
	return count
}

// Stats merges the registry totals with the active-hold count.
func (s *HoldService) Stats() models.AvailabilityStats {
	stats := s.availability.Stats()
	stats.ActiveHolds = s.ActiveHolds()
	return stats
}

// Run sweeps expired holds and provider locks until ctx is cancelled.
// A failing sweep iteration is logged and retried on the next tick.
func (s *HoldService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.config.SweepInterval)
	defer ticker.Stop()

	log.Info().Dur("interval", s.config.SweepInterval).Msg("Starting hold expiration sweeper")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Stopping hold expiration sweeper")
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep releases every active hold whose deadline has passed and clears
// expired provider freezes. Panics are contained so one bad tick never
// takes down the host process.
func (s *HoldService) sweep() {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Hold sweep failed")
		}
	}()

	now := s.clock.Now()

	s.mu.Lock()
	var expired []string
	for id, hold := range s.holds {
		if hold.IsActive && !hold.ExpiresAt.After(now) {
			expired = append(expired, id)
		}
	}
	s.mu.Unlock()

	for _, id := range expired {
		if s.ReleaseSoftHold(id) {
			log.Info().Str("hold_id", id).Msg("Expired soft hold swept")
		}
	}

	if cleared := s.availability.ClearExpiredLocks(); cleared > 0 {
		log.Info().Int("count", cleared).Msg("Expired provider locks cleared")
	}

	if len(expired) > 0 {
		log.Info().Int("count", len(expired)).Msg("Swept expired holds")
	}
}

// Sweep runs one sweep iteration immediately. Exposed for callers that
// manage their own scheduling.
func (s *HoldService) Sweep() {
	s.sweep()
}
