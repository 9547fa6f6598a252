package interfaces

import (
	"context"

	"github.com/TahlesAi/tahles-sub000/internal/models"
)

// CatalogSource supplies the raw catalog content the cache builds from.
// The core does not generate content itself; sources may be static
// fixtures, a BaaS client, or anything else that can enumerate the
// hierarchy.
type CatalogSource interface {
	Categories(ctx context.Context) ([]models.Category, error)
	Providers(ctx context.Context, subcategoryID string) ([]models.Provider, error)
	Services(ctx context.Context, providerID string) ([]models.Service, error)
}
