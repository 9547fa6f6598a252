package test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TahlesAi/tahles-sub000/internal/api"
	"github.com/TahlesAi/tahles-sub000/internal/catalog"
	"github.com/TahlesAi/tahles-sub000/internal/models"
	"github.com/TahlesAi/tahles-sub000/internal/service"
)

func newAPIFixture(t *testing.T) (*gin.Engine, *service.AvailabilityService) {
	t.Helper()

	clk := fixedClock()
	availability := service.NewAvailabilityService(clk)
	holds, err := service.NewHoldService(availability, clk, service.HoldConfig{
		HoldTTL:       15 * time.Minute,
		SweepInterval: time.Minute,
	})
	require.NoError(t, err)

	pricing := service.NewPricingService(models.Commission{
		Rate:                   0.05,
		Type:                   models.CommissionTypePercentage,
		IncludesProcessingFees: true,
	})

	cats, provs, svcs := searchCatalogContent()
	cat := service.NewCatalogService(catalog.NewStaticSource(cats, provs, svcs), availability, clk, 5*time.Minute)
	search := service.NewSearchService(cat, availability, 100)

	handler := api.NewMarketplaceHandler(availability, holds, pricing, cat, search, 15*time.Minute)
	return handler.SetupRoutes(), availability
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAPI_HealthCheck(t *testing.T) {
	router, _ := newAPIFixture(t)

	w := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPI_RegisterAndCheckAvailability(t *testing.T) {
	router, _ := newAPIFixture(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/services", models.RegisterServiceRequest{
		ServiceID:             "svc-api",
		ProviderID:            "prov-api",
		HasCalendar:           true,
		MaxConcurrentBookings: 2,
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/services/svc-api/availability", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.ServiceAvailabilityResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Available)
	assert.Equal(t, 2, resp.MaxConcurrent)
}

func TestAPI_UnknownServiceIsNotAvailable(t *testing.T) {
	router, _ := newAPIFixture(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/services/ghost/availability", nil)
	require.Equal(t, http.StatusOK, w.Code, "missing data degrades, never errors")

	var resp models.ServiceAvailabilityResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Available)
}

func TestAPI_RegisterValidation(t *testing.T) {
	router, _ := newAPIFixture(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/services", map[string]any{
		"provider_id": "prov-only",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var problem models.ProblemDetails
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
	assert.Equal(t, models.ProblemTypeValidationError, problem.Type)
}

func TestAPI_HoldLifecycle(t *testing.T) {
	router, _ := newAPIFixture(t)

	doJSON(t, router, http.MethodPost, "/api/v1/services", models.RegisterServiceRequest{
		ServiceID:   "svc-hold",
		ProviderID:  "prov-hold",
		HasCalendar: true,
	})

	// Grant.
	w := doJSON(t, router, http.MethodPost, "/api/v1/holds", models.CreateHoldRequest{
		ServiceID:  "svc-hold",
		ProviderID: "prov-hold",
		HolderID:   "user-1",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var hold models.HoldResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &hold))
	assert.NotEmpty(t, hold.HoldID)

	// Capacity 1: second hold is refused with a business problem.
	w = doJSON(t, router, http.MethodPost, "/api/v1/holds", models.CreateHoldRequest{
		ServiceID:  "svc-hold",
		ProviderID: "prov-hold",
		HolderID:   "user-2",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	var problem models.ProblemDetails
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
	assert.Equal(t, string(models.ErrorCodeHoldNotGranted), problem.Code)

	// Release, then double release reports released=false.
	w = doJSON(t, router, http.MethodPost, "/api/v1/holds/"+hold.HoldID+"/release", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var released models.ReleaseResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &released))
	assert.True(t, released.Released)

	w = doJSON(t, router, http.MethodPost, "/api/v1/holds/"+hold.HoldID+"/release", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &released))
	assert.False(t, released.Released)
}

func TestAPI_ProviderLockFlow(t *testing.T) {
	router, _ := newAPIFixture(t)

	doJSON(t, router, http.MethodPost, "/api/v1/services", models.RegisterServiceRequest{
		ServiceID:   "svc-lockable",
		ProviderID:  "prov-lockable",
		HasCalendar: true,
	})

	w := doJSON(t, router, http.MethodPost, "/api/v1/providers/prov-lockable/lock", models.LockProviderRequest{
		LockedBy:        "operator-9",
		DurationMinutes: 10,
	})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/services/svc-lockable/availability", nil)
	var resp models.ServiceAvailabilityResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Available)
	assert.NotNil(t, resp.LockUntil)

	w = doJSON(t, router, http.MethodDelete, "/api/v1/providers/prov-lockable/lock", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/services/svc-lockable/availability", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Available)
}

func TestAPI_AvailabilityStats(t *testing.T) {
	router, _ := newAPIFixture(t)

	doJSON(t, router, http.MethodPost, "/api/v1/services", models.RegisterServiceRequest{
		ServiceID:   "svc-stats",
		ProviderID:  "prov-stats",
		HasCalendar: true,
	})
	doJSON(t, router, http.MethodPost, "/api/v1/holds", models.CreateHoldRequest{
		ServiceID:  "svc-stats",
		ProviderID: "prov-stats",
		HolderID:   "user-1",
	})

	w := doJSON(t, router, http.MethodGet, "/api/v1/availability/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stats models.AvailabilityStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalServices)
	assert.Equal(t, 1, stats.ActiveHolds)
}

func TestAPI_PriceQuote(t *testing.T) {
	router, _ := newAPIFixture(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/pricing/quote", models.QuoteRequest{
		Variant: models.ProductVariant{
			ID:        "var-1",
			Name:      "Evening show",
			BasePrice: 5000,
			PriceUnit: models.PriceUnitPerEvent,
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var quote models.PriceQuote
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &quote))
	assert.Equal(t, 5250.0, quote.FinalPrice)
	assert.Equal(t, "ILS", quote.Currency)
}

func TestAPI_Search(t *testing.T) {
	router, _ := newAPIFixture(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/search?q=jazz&category_id=cat-music", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "svc-jazz", resp.Results[0].ID)

	w = doJSON(t, router, http.MethodGet, "/api/v1/search?min_price=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPI_CatalogDiagnosticsAndInvalidate(t *testing.T) {
	router, _ := newAPIFixture(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/catalog/diagnostics", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var report models.IntegrityReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.True(t, report.IsHealthy)

	w = doJSON(t, router, http.MethodPost, "/api/v1/catalog/invalidate", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
