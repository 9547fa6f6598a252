package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/TahlesAi/tahles-sub000/internal/clock"
	"github.com/TahlesAi/tahles-sub000/internal/interfaces"
	"github.com/TahlesAi/tahles-sub000/internal/models"
)

const DefaultCatalogTTL = 5 * time.Minute

// CatalogService lazily builds the category → provider → service graph
// from a CatalogSource and memoizes the snapshot with a TTL. Concurrent
// cold callers share a single build; nobody ever receives a stale
// snapshot.
type CatalogService struct {
	source       interfaces.CatalogSource
	availability *AvailabilityService
	clock        clock.Clock
	ttl          time.Duration

	group singleflight.Group

	mu           sync.RWMutex
	snapshot     *models.Catalog
	onInvalidate []func()
}

// NewCatalogService creates a catalog cache over the given source.
// Every built service is registered with the availability registry.
func NewCatalogService(source interfaces.CatalogSource, availability *AvailabilityService, clk clock.Clock, ttl time.Duration) *CatalogService {
	if ttl <= 0 {
		ttl = DefaultCatalogTTL
	}
	return &CatalogService{
		source:       source,
		availability: availability,
		clock:        clk,
		ttl:          ttl,
	}
}

// OnInvalidate registers a hook fired whenever the cache is cleared.
// The search index uses this to drop its memoized results.
func (s *CatalogService) OnInvalidate(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onInvalidate = append(s.onInvalidate, fn)
}

// GetCatalog returns the current snapshot, rebuilding it when absent or
// older than the TTL. Under concurrent cold callers exactly one build
// runs; the rest wait and share its result.
func (s *CatalogService) GetCatalog(ctx context.Context) (*models.Catalog, error) {
	if snap := s.freshSnapshot(); snap != nil {
		return snap, nil
	}

	result, err, _ := s.group.Do("catalog", func() (interface{}, error) {
		// Another caller may have finished the build while we queued.
		if snap := s.freshSnapshot(); snap != nil {
			return snap, nil
		}
		return s.build(ctx)
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.Catalog), nil
}

func (s *CatalogService) freshSnapshot() *models.Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.snapshot == nil {
		return nil
	}
	if s.clock.Now().Sub(s.snapshot.BuiltAt) >= s.ttl {
		return nil
	}
	return s.snapshot
}

// build walks the source, repairs orphaned provider↔service links,
// registers everything with the availability registry and stores the
// snapshot.
func (s *CatalogService) build(ctx context.Context) (*models.Catalog, error) {
	started := s.clock.Now()
	log.Info().Msg("Building catalog snapshot")

	categories, err := s.source.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}

	providers := make(map[string]*models.Provider)
	var services []models.Service

	for _, category := range categories {
		for _, sub := range category.Subcategories {
			subProviders, err := s.source.Providers(ctx, sub.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to load providers for subcategory %s: %w", sub.ID, err)
			}
			for i := range subProviders {
				provider := subProviders[i]
				// A provider listed under several subcategories is
				// walked once; re-walking would duplicate its services.
				if _, ok := providers[provider.ID]; ok {
					continue
				}
				providers[provider.ID] = &provider

				provServices, err := s.source.Services(ctx, provider.ID)
				if err != nil {
					return nil, fmt.Errorf("failed to load services for provider %s: %w", provider.ID, err)
				}
				for _, svc := range provServices {
					if svc.ProviderID == "" {
						svc.ProviderID = provider.ID
					}
					if svc.CategoryID == "" {
						svc.CategoryID = category.ID
					}
					if svc.SubcategoryID == "" {
						svc.SubcategoryID = sub.ID
					}
					services = append(services, svc)
				}
			}
		}
	}

	// Repair pass: drop services whose provider link resolves nowhere.
	repaired := services[:0]
	orphans := 0
	for _, svc := range services {
		if _, ok := providers[svc.ProviderID]; !ok {
			orphans++
			log.Warn().
				Str("service_id", svc.ID).
				Str("provider_id", svc.ProviderID).
				Msg("Dropping orphaned service during catalog build")
			continue
		}
		repaired = append(repaired, svc)
	}

	for _, svc := range repaired {
		s.availability.Register(svc.ID, svc.ProviderID, models.AvailabilityConfig{
			IsAvailable:           svc.Available,
			HasCalendar:           svc.HasCalendar,
			MaxConcurrentBookings: svc.MaxConcurrentBookings,
		})
	}

	snapshot := &models.Catalog{
		BuiltAt:   s.clock.Now(),
		Hierarchy: categories,
		Providers: providers,
		Services:  repaired,
	}

	s.mu.Lock()
	s.snapshot = snapshot
	s.mu.Unlock()

	log.Info().
		Int("categories", len(categories)).
		Int("providers", len(providers)).
		Int("services", len(repaired)).
		Int("orphans_dropped", orphans).
		Dur("took", s.clock.Now().Sub(started)).
		Msg("Catalog snapshot built")

	return snapshot, nil
}

// Invalidate clears the cache unconditionally; the next GetCatalog call
// rebuilds. Registered hooks fire after the snapshot is dropped.
func (s *CatalogService) Invalidate() {
	s.mu.Lock()
	s.snapshot = nil
	hooks := make([]func(), len(s.onInvalidate))
	copy(hooks, s.onInvalidate)
	s.mu.Unlock()

	log.Info().Msg("Catalog cache invalidated")

	for _, fn := range hooks {
		fn()
	}
}

// DiagnoseIntegrity reports on provider/service link health. It is a
// read-only diagnostic: orphans surface as counts and recommendations,
// never as errors.
func (s *CatalogService) DiagnoseIntegrity(ctx context.Context) (models.IntegrityReport, error) {
	catalog, err := s.GetCatalog(ctx)
	if err != nil {
		return models.IntegrityReport{}, err
	}

	servicesByProvider := make(map[string]int, len(catalog.Providers))
	orphans := 0
	for _, svc := range catalog.Services {
		if _, ok := catalog.Providers[svc.ProviderID]; !ok {
			orphans++
			continue
		}
		servicesByProvider[svc.ProviderID]++
	}

	empty := 0
	for id := range catalog.Providers {
		if servicesByProvider[id] == 0 {
			empty++
		}
	}

	report := models.IntegrityReport{
		Stats: models.IntegrityStats{
			Categories:       len(catalog.Hierarchy),
			Providers:        len(catalog.Providers),
			Services:         len(catalog.Services),
			OrphanedServices: orphans,
			EmptyProviders:   empty,
		},
		Recommendations: []string{},
	}

	if orphans > 0 {
		report.Recommendations = append(report.Recommendations,
			fmt.Sprintf("%d services reference missing providers; re-sync the catalog source", orphans))
	}
	if empty > 0 {
		report.Recommendations = append(report.Recommendations,
			fmt.Sprintf("%d providers have no services; hide them from listings or add offerings", empty))
	}
	report.IsHealthy = orphans == 0 && empty == 0

	return report, nil
}
