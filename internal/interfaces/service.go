package interfaces

import (
	"context"
	"time"

	"github.com/TahlesAi/tahles-sub000/internal/models"
)

// AvailabilityRegistry is the source of truth for whether a service can
// currently accept a booking. All mutations stay inside the registry;
// missing data always degrades to "not available".
type AvailabilityRegistry interface {
	Register(serviceID, providerID string, cfg models.AvailabilityConfig)
	IsAvailable(serviceID string) bool
	Get(serviceID string) (models.ServiceAvailability, bool)
	AttachCalendar(providerID string)
	LockProvider(providerID, lockedBy string, duration time.Duration)
	UnlockProvider(providerID string)
}

// HoldManager grants and revokes time-boxed soft holds.
type HoldManager interface {
	CreateSoftHold(serviceID, providerID, holderID string) *models.SoftHold
	ReleaseSoftHold(holdID string) bool
	Stats() models.AvailabilityStats
}

// PricingEngine evaluates a variant plus situational parameters into a
// final quote. Implementations must be pure and deterministic.
type PricingEngine interface {
	Calculate(variant models.ProductVariant, params models.PricingParams) models.PriceQuote
}

// CatalogProvider exposes the memoized catalog snapshot.
type CatalogProvider interface {
	GetCatalog(ctx context.Context) (*models.Catalog, error)
	Invalidate()
	DiagnoseIntegrity(ctx context.Context) (models.IntegrityReport, error)
}

// SearchProvider filters and ranks catalog services.
type SearchProvider interface {
	Search(ctx context.Context, query string, filters models.SearchFilters) ([]models.Service, error)
	Clear()
}
