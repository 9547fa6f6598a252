package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/TahlesAi/tahles-sub000/internal/interfaces"
	"github.com/TahlesAi/tahles-sub000/internal/models"
	"github.com/TahlesAi/tahles-sub000/internal/service"
)

// MarketplaceHandler exposes the booking core's boundary operations
// over HTTP for the UI layer.
type MarketplaceHandler struct {
	availability *service.AvailabilityService
	holds        *service.HoldService
	pricing      interfaces.PricingEngine
	catalog      interfaces.CatalogProvider
	search       interfaces.SearchProvider
	lockDuration time.Duration
}

// NewMarketplaceHandler creates the API handler over the core services.
func NewMarketplaceHandler(
	availability *service.AvailabilityService,
	holds *service.HoldService,
	pricing interfaces.PricingEngine,
	catalog interfaces.CatalogProvider,
	search interfaces.SearchProvider,
	lockDuration time.Duration,
) *MarketplaceHandler {
	return &MarketplaceHandler{
		availability: availability,
		holds:        holds,
		pricing:      pricing,
		catalog:      catalog,
		search:       search,
		lockDuration: lockDuration,
	}
}

// SetupRoutes sets up the HTTP routes for the marketplace core.
func (h *MarketplaceHandler) SetupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(CORSMiddleware())

	r.GET("/health", h.healthCheck)

	api := r.Group("/api/v1")
	{
		api.POST("/services", h.registerService)
		api.GET("/services/:id/availability", h.serviceAvailability)
		api.POST("/providers/:id/calendar", h.attachCalendar)

		api.POST("/holds", h.createHold)
		api.POST("/holds/:id/release", h.releaseHold)

		api.POST("/providers/:id/lock", h.lockProvider)
		api.DELETE("/providers/:id/lock", h.unlockProvider)

		api.GET("/availability/stats", h.availabilityStats)

		api.POST("/pricing/quote", h.priceQuote)

		api.GET("/search", h.searchServices)

		api.POST("/catalog/invalidate", h.invalidateCatalog)
		api.GET("/catalog/diagnostics", h.catalogDiagnostics)
	}

	return r
}

// registerService handles service registration requests
func (h *MarketplaceHandler) registerService(c *gin.Context) {
	var req models.RegisterServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Response.BindError(c, err)
		return
	}

	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}

	h.availability.Register(req.ServiceID, req.ProviderID, models.AvailabilityConfig{
		IsAvailable:           available,
		HasCalendar:           req.HasCalendar,
		MaxConcurrentBookings: req.MaxConcurrentBookings,
	})

	Response.Created(c, gin.H{
		"service_id":  req.ServiceID,
		"provider_id": req.ProviderID,
	})
}

// serviceAvailability reports bookability for one service
func (h *MarketplaceHandler) serviceAvailability(c *gin.Context) {
	serviceID := c.Param("id")

	rec, found := h.availability.Get(serviceID)
	if !found {
		// Unknown services are "not available", never an error.
		Response.Success(c, models.ServiceAvailabilityResponse{
			ServiceID: serviceID,
			Available: false,
		})
		return
	}

	Response.Success(c, models.ServiceAvailabilityResponse{
		ServiceID:       serviceID,
		Available:       h.availability.IsAvailable(serviceID),
		CurrentBookings: rec.CurrentBookings,
		MaxConcurrent:   rec.MaxConcurrentBookings,
		LockUntil:       rec.LockUntil,
	})
}

// attachCalendar connects a calendar to all of a provider's services
func (h *MarketplaceHandler) attachCalendar(c *gin.Context) {
	providerID := c.Param("id")
	h.availability.AttachCalendar(providerID)
	Response.NoContent(c)
}

// createHold attempts to grant a soft hold
func (h *MarketplaceHandler) createHold(c *gin.Context) {
	var req models.CreateHoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Response.BindError(c, err)
		return
	}

	hold := h.holds.CreateSoftHold(req.ServiceID, req.ProviderID, req.HolderID)
	if hold == nil {
		Response.BusinessError(c, http.StatusConflict,
			"Service Not Available",
			"The service cannot accept a booking right now",
			models.ErrorCodeHoldNotGranted)
		return
	}

	Response.Created(c, models.HoldResponse{
		HoldID:    hold.ID,
		ServiceID: hold.ServiceID,
		HolderID:  hold.HolderID,
		ExpiresAt: hold.ExpiresAt,
		Message:   "Soft hold created",
	})
}

// releaseHold releases a soft hold; double releases report released=false
func (h *MarketplaceHandler) releaseHold(c *gin.Context) {
	holdID := c.Param("id")
	released := h.holds.ReleaseSoftHold(holdID)
	Response.Success(c, models.ReleaseResponse{HoldID: holdID, Released: released})
}

// lockProvider freezes all services of one provider
func (h *MarketplaceHandler) lockProvider(c *gin.Context) {
	providerID := c.Param("id")

	var req models.LockProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Response.BindError(c, err)
		return
	}

	duration := h.lockDuration
	if req.DurationMinutes > 0 {
		duration = time.Duration(req.DurationMinutes) * time.Minute
	}

	h.availability.LockProvider(providerID, req.LockedBy, duration)
	Response.NoContent(c)
}

// unlockProvider clears a provider freeze
func (h *MarketplaceHandler) unlockProvider(c *gin.Context) {
	h.availability.UnlockProvider(c.Param("id"))
	Response.NoContent(c)
}

// availabilityStats returns registry-wide counters
func (h *MarketplaceHandler) availabilityStats(c *gin.Context) {
	Response.Success(c, h.holds.Stats())
}

// priceQuote calculates a price for a variant and parameters
func (h *MarketplaceHandler) priceQuote(c *gin.Context) {
	var req models.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Response.BindError(c, err)
		return
	}

	if req.Variant.BasePrice < 0 {
		Response.ValidationError(c, "variant.base_price", "Base price cannot be negative")
		return
	}

	Response.Success(c, h.pricing.Calculate(req.Variant, req.Params))
}

// searchServices runs a ranked catalog search
func (h *MarketplaceHandler) searchServices(c *gin.Context) {
	query := c.Query("q")

	filters := models.SearchFilters{
		CategoryID:    c.Query("category_id"),
		SubcategoryID: c.Query("subcategory_id"),
		OnlyAvailable: c.Query("only_available") == "true",
	}
	if raw := c.Query("min_price"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			filters.MinPrice = &v
		} else {
			Response.ValidationError(c, "min_price", "Must be a number")
			return
		}
	}
	if raw := c.Query("max_price"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			filters.MaxPrice = &v
		} else {
			Response.ValidationError(c, "max_price", "Must be a number")
			return
		}
	}
	if tags, ok := c.GetQueryArray("concept_tag"); ok {
		filters.ConceptTags = tags
	}

	results, err := h.search.Search(c.Request.Context(), query, filters)
	if err != nil {
		log.Error().Err(err).Str("query", query).Msg("Search failed")
		Response.InternalError(c, err.Error())
		return
	}

	Response.Success(c, models.SearchResponse{
		Query:   query,
		Count:   len(results),
		Results: results,
	})
}

// invalidateCatalog clears the catalog cache
func (h *MarketplaceHandler) invalidateCatalog(c *gin.Context) {
	h.catalog.Invalidate()
	Response.NoContent(c)
}

// catalogDiagnostics reports provider/service link health
func (h *MarketplaceHandler) catalogDiagnostics(c *gin.Context) {
	report, err := h.catalog.DiagnoseIntegrity(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("Catalog diagnostics failed")
		Response.InternalError(c, err.Error())
		return
	}
	Response.Success(c, report)
}

// healthCheck handles health check requests
func (h *MarketplaceHandler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "marketplace-core",
	})
}
