package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/TahlesAi/tahles-sub000/internal/models"
)

const (
	DefaultSearchCacheSize = 100

	scoreFeatured  = 10.0
	scoreRating    = 2.0
	scoreAvailable = 5.0
)

// SearchService filters and ranks catalog services and memoizes query
// results. The memo is read-mostly; staleness is bounded by Clear,
// which the catalog cache triggers on invalidation.
type SearchService struct {
	catalog      *CatalogService
	availability *AvailabilityService
	maxEntries   int

	mu    sync.RWMutex
	cache map[string][]models.Service
	order []string
}

// NewSearchService creates a search index over the catalog cache.
func NewSearchService(catalog *CatalogService, availability *AvailabilityService, maxEntries int) *SearchService {
	if maxEntries <= 0 {
		maxEntries = DefaultSearchCacheSize
	}
	s := &SearchService{
		catalog:      catalog,
		availability: availability,
		maxEntries:   maxEntries,
		cache:        make(map[string][]models.Service),
	}
	catalog.OnInvalidate(s.Clear)
	return s
}

// Search returns services matching the query and filters, ranked by
// relevance. Results are memoized per (query, filters) fingerprint.
func (s *SearchService) Search(ctx context.Context, query string, filters models.SearchFilters) ([]models.Service, error) {
	key := cacheKey(query, filters)

	s.mu.RLock()
	cached, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		log.Debug().Str("key", key).Msg("Search cache hit")
		return cached, nil
	}

	catalog, err := s.catalog.GetCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve catalog for search: %w", err)
	}

	results := s.rank(s.filter(catalog.Services, query, filters))
	s.store(key, results)
	return results, nil
}

// filter applies the cheapest predicates first, then the available
// flag, then the registry check, then free text, then concept-tag
// overlap. Services flagged unavailable never surface, regardless of
// filters.
func (s *SearchService) filter(services []models.Service, query string, filters models.SearchFilters) []models.Service {
	out := make([]models.Service, 0, len(services))

	words := strings.Fields(strings.ToLower(query))

	for _, svc := range services {
		if filters.CategoryID != "" && svc.CategoryID != filters.CategoryID {
			continue
		}
		if filters.SubcategoryID != "" && svc.SubcategoryID != filters.SubcategoryID {
			continue
		}
		if filters.MinPrice != nil && svc.Price < *filters.MinPrice {
			continue
		}
		if filters.MaxPrice != nil && svc.Price > *filters.MaxPrice {
			continue
		}
		if !svc.Available {
			continue
		}
		if filters.OnlyAvailable && !s.availability.IsAvailable(svc.ID) {
			continue
		}
		if len(words) > 0 && !matchesAllWords(svc, words) {
			continue
		}
		if len(filters.ConceptTags) > 0 && !conceptTagsOverlap(svc.ConceptTags, filters.ConceptTags) {
			continue
		}
		out = append(out, svc)
	}
	return out
}

// rank sorts descending by score with ties broken by catalog order.
func (s *SearchService) rank(services []models.Service) []models.Service {
	scores := make([]float64, len(services))
	for i, svc := range services {
		score := scoreRating * svc.Rating
		if svc.Featured {
			score += scoreFeatured
		}
		if s.availability.IsAvailable(svc.ID) {
			score += scoreAvailable
		}
		scores[i] = score
	}

	indexes := make([]int, len(services))
	for i := range indexes {
		indexes[i] = i
	}
	sort.SliceStable(indexes, func(a, b int) bool {
		return scores[indexes[a]] > scores[indexes[b]]
	})

	ranked := make([]models.Service, len(services))
	for i, idx := range indexes {
		ranked[i] = services[idx]
	}
	return ranked
}

// store memoizes a result, evicting the oldest half of the index when
// the bound is exceeded.
func (s *SearchService) store(key string, results []models.Service) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.cache[key]; !exists {
		s.order = append(s.order, key)
	}
	s.cache[key] = results

	if len(s.cache) > s.maxEntries {
		evict := len(s.order) / 2
		for _, old := range s.order[:evict] {
			delete(s.cache, old)
		}
		s.order = append([]string(nil), s.order[evict:]...)
		log.Debug().Int("evicted", evict).Msg("Search cache evicted oldest entries")
	}
}

// Clear drops all memoized results.
func (s *SearchService) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache = make(map[string][]models.Service)
	s.order = nil
	log.Debug().Msg("Search cache cleared")
}

// CacheSize reports the number of memoized queries.
func (s *SearchService) CacheSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}

// matchesAllWords requires every query word to appear in the service's
// searchable text.
func matchesAllWords(svc models.Service, words []string) bool {
	var b strings.Builder
	b.WriteString(svc.Name)
	b.WriteByte(' ')
	b.WriteString(svc.Description)
	for _, tag := range svc.Tags {
		b.WriteByte(' ')
		b.WriteString(tag)
	}
	for _, tag := range svc.ConceptTags {
		b.WriteByte(' ')
		b.WriteString(tag)
	}
	haystack := strings.ToLower(b.String())

	for _, word := range words {
		if !strings.Contains(haystack, word) {
			return false
		}
	}
	return true
}

// conceptTagsOverlap matches case-insensitively by substring in either
// direction.
func conceptTagsOverlap(serviceTags, queryTags []string) bool {
	for _, st := range serviceTags {
		lowered := strings.ToLower(st)
		for _, qt := range queryTags {
			q := strings.ToLower(qt)
			if strings.Contains(lowered, q) || strings.Contains(q, lowered) {
				return true
			}
		}
	}
	return false
}

// cacheKey fingerprints a query plus its filters.
func cacheKey(query string, f models.SearchFilters) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(strings.TrimSpace(query)))
	b.WriteByte('|')
	b.WriteString(f.CategoryID)
	b.WriteByte('|')
	b.WriteString(f.SubcategoryID)
	b.WriteByte('|')
	if f.MinPrice != nil {
		fmt.Fprintf(&b, "%g", *f.MinPrice)
	}
	b.WriteByte('|')
	if f.MaxPrice != nil {
		fmt.Fprintf(&b, "%g", *f.MaxPrice)
	}
	b.WriteByte('|')
	if f.OnlyAvailable {
		b.WriteByte('1')
	}
	b.WriteByte('|')
	b.WriteString(strings.ToLower(strings.Join(f.ConceptTags, ",")))
	return b.String()
}
