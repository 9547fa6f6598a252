package service

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/TahlesAi/tahles-sub000/internal/clock"
	"github.com/TahlesAi/tahles-sub000/internal/models"
)

const DefaultProviderLockDuration = 15 * time.Minute

// AvailabilityService is the in-memory registry of per-service
// bookability. It owns the capacity counters and the provider freeze
// state; every check-and-mutate sequence runs inside one critical
// section so concurrent holders cannot exceed MaxConcurrentBookings.
type AvailabilityService struct {
	mu       sync.RWMutex
	services map[string]*models.ServiceAvailability
	clock    clock.Clock
}

// NewAvailabilityService creates an empty registry.
func NewAvailabilityService(clk clock.Clock) *AvailabilityService {
	return &AvailabilityService{
		services: make(map[string]*models.ServiceAvailability),
		clock:    clk,
	}
}

// Register inserts or overwrites the availability record for a service.
// Zero-value config fields fall back to defaults: available, no
// calendar, capacity 1.
func (s *AvailabilityService) Register(serviceID, providerID string, cfg models.AvailabilityConfig) {
	maxConcurrent := cfg.MaxConcurrentBookings
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.services[serviceID] = &models.ServiceAvailability{
		ServiceID:             serviceID,
		ProviderID:            providerID,
		IsAvailable:           cfg.IsAvailable,
		HasCalendar:           cfg.HasCalendar,
		MaxConcurrentBookings: maxConcurrent,
		CurrentBookings:       0,
	}
}

// IsAvailable reports whether the service can accept a booking right
// now. Unknown services, services without a calendar, frozen providers
// and services at capacity are all "not available". There is no error
// path, only a fail-closed answer.
func (s *AvailabilityService) IsAvailable(serviceID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isAvailableLocked(serviceID)
}

func (s *AvailabilityService) isAvailableLocked(serviceID string) bool {
	rec, ok := s.services[serviceID]
	if !ok {
		log.Warn().Str("service_id", serviceID).Msg("Availability check for unknown service")
		return false
	}
	if !rec.HasCalendar {
		return false
	}
	if rec.LockUntil != nil && rec.LockUntil.After(s.clock.Now()) {
		return false
	}
	if rec.CurrentBookings >= rec.MaxConcurrentBookings {
		return false
	}
	return rec.IsAvailable
}

// Get returns a copy of the availability record.
func (s *AvailabilityService) Get(serviceID string) (models.ServiceAvailability, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.services[serviceID]
	if !ok {
		return models.ServiceAvailability{}, false
	}
	return *rec, true
}

// AttachCalendar marks every service of the provider as having a
// connected calendar.
func (s *AvailabilityService) AttachCalendar(providerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, rec := range s.services {
		if rec.ProviderID == providerID {
			rec.HasCalendar = true
			count++
		}
	}
	log.Info().Str("provider_id", providerID).Int("services", count).Msg("Calendar attached")
}

// Reserve atomically checks availability and increments the booking
// counter. Returns false without side effects when the service cannot
// accept another booking.
func (s *AvailabilityService) Reserve(serviceID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isAvailableLocked(serviceID) {
		return false
	}
	s.services[serviceID].CurrentBookings++
	return true
}

// Release decrements the booking counter, never below zero.
func (s *AvailabilityService) Release(serviceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.services[serviceID]
	if !ok {
		return
	}
	if rec.CurrentBookings > 0 {
		rec.CurrentBookings--
	}
}

// LockProvider freezes every service of the provider until now+duration.
// An existing freeze is overwritten (last writer wins).
func (s *AvailabilityService) LockProvider(providerID, lockedBy string, duration time.Duration) {
	if duration <= 0 {
		duration = DefaultProviderLockDuration
	}
	until := s.clock.Now().Add(duration)

	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, rec := range s.services {
		if rec.ProviderID == providerID {
			u := until
			rec.LockUntil = &u
			rec.LockedBy = lockedBy
			count++
		}
	}

	log.Info().
		Str("provider_id", providerID).
		Str("locked_by", lockedBy).
		Time("lock_until", until).
		Int("services", count).
		Msg("Provider services locked")
}

// UnlockProvider clears the freeze on all of the provider's services,
// whether or not it already expired.
func (s *AvailabilityService) UnlockProvider(providerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, rec := range s.services {
		if rec.ProviderID == providerID && rec.LockUntil != nil {
			rec.LockUntil = nil
			rec.LockedBy = ""
			count++
		}
	}

	log.Info().Str("provider_id", providerID).Int("services", count).Msg("Provider services unlocked")
}

// ClearExpiredLocks removes freezes whose deadline has passed and
// returns how many were cleared. Called by the hold sweeper.
func (s *AvailabilityService) ClearExpiredLocks() int {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	cleared := 0
	for _, rec := range s.services {
		if rec.LockUntil != nil && !rec.LockUntil.After(now) {
			rec.LockUntil = nil
			rec.LockedBy = ""
			cleared++
		}
	}
	return cleared
}

// Stats summarizes the registry. ActiveHolds is filled in by the hold
// manager, which owns that count.
func (s *AvailabilityService) Stats() models.AvailabilityStats {
	now := s.clock.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := models.AvailabilityStats{TotalServices: len(s.services)}
	for id, rec := range s.services {
		if rec.HasCalendar {
			stats.ServicesWithCalendar++
		}
		if rec.LockUntil != nil && rec.LockUntil.After(now) {
			stats.LockedServices++
		}
		if s.isAvailableLocked(id) {
			stats.AvailableServices++
		}
	}
	return stats
}
