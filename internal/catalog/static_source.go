package catalog

import (
	"context"

	"github.com/TahlesAi/tahles-sub000/internal/models"
)

// StaticSource serves catalog content from fixed in-memory data. The
// core treats content generation as an external concern; this source is
// the deterministic stand-in the server binary ships with.
type StaticSource struct {
	categories []models.Category
	providers  map[string][]models.Provider // keyed by subcategory ID
	services   map[string][]models.Service  // keyed by provider ID
}

// NewStaticSource builds a source from explicit content.
func NewStaticSource(categories []models.Category, providers map[string][]models.Provider, services map[string][]models.Service) *StaticSource {
	return &StaticSource{
		categories: categories,
		providers:  providers,
		services:   services,
	}
}

func (s *StaticSource) Categories(_ context.Context) ([]models.Category, error) {
	return s.categories, nil
}

func (s *StaticSource) Providers(_ context.Context, subcategoryID string) ([]models.Provider, error) {
	return s.providers[subcategoryID], nil
}

func (s *StaticSource) Services(_ context.Context, providerID string) ([]models.Service, error) {
	return s.services[providerID], nil
}

// NewDemoSource returns a small event-services catalog for local runs.
func NewDemoSource() *StaticSource {
	categories := []models.Category{
		{
			ID:   "cat-music",
			Name: "Music & Performance",
			Subcategories: []models.Subcategory{
				{ID: "sub-bands", CategoryID: "cat-music", Name: "Live Bands"},
				{ID: "sub-djs", CategoryID: "cat-music", Name: "DJs"},
			},
		},
		{
			ID:   "cat-food",
			Name: "Food & Catering",
			Subcategories: []models.Subcategory{
				{ID: "sub-catering", CategoryID: "cat-food", Name: "Catering"},
			},
		},
	}

	providers := map[string][]models.Provider{
		"sub-bands": {
			{ID: "prov-galil", SubcategoryID: "sub-bands", Name: "Galil Groove", City: "Haifa", Rating: 4.7, Verified: true},
		},
		"sub-djs": {
			{ID: "prov-negev", SubcategoryID: "sub-djs", Name: "Negev Beats", City: "Beer Sheva", Rating: 4.3, Verified: true},
		},
		"sub-catering": {
			{ID: "prov-carmel", SubcategoryID: "sub-catering", Name: "Carmel Catering", City: "Tel Aviv", Rating: 4.9, Verified: true},
		},
	}

	services := map[string][]models.Service{
		"prov-galil": {
			{
				ID: "svc-galil-quartet", ProviderID: "prov-galil", Name: "Jazz Quartet",
				Description: "Four-piece jazz ensemble for receptions", Price: 6500,
				Rating: 4.7, Featured: true, Available: true, HasCalendar: true,
				MaxConcurrentBookings: 1,
				Tags:                  []string{"jazz", "live"},
				ConceptTags:           []string{"wedding", "corporate"},
			},
		},
		"prov-negev": {
			{
				ID: "svc-negev-dj", ProviderID: "prov-negev", Name: "Club DJ Set",
				Description: "High-energy DJ set with full rig", Price: 3200,
				Rating: 4.3, Available: true, HasCalendar: true,
				MaxConcurrentBookings: 2,
				Tags:                  []string{"dj", "party"},
				ConceptTags:           []string{"birthday", "club"},
			},
		},
		"prov-carmel": {
			{
				ID: "svc-carmel-buffet", ProviderID: "prov-carmel", Name: "Mediterranean Buffet",
				Description: "Kosher Mediterranean buffet per guest", Price: 180,
				Rating: 4.9, Featured: true, Available: true, HasCalendar: true,
				MaxConcurrentBookings: 3,
				Tags:                  []string{"kosher", "buffet"},
				ConceptTags:           []string{"wedding", "bar mitzvah"},
			},
		},
	}

	return NewStaticSource(categories, providers, services)
}
