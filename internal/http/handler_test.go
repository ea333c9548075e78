package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/listing-carts/internal/auth"
	"github.com/nurpe/listing-carts/internal/excel"
	"github.com/nurpe/listing-carts/internal/http/middleware"
	"github.com/nurpe/listing-carts/internal/metrics"
	"github.com/nurpe/listing-carts/internal/model"
	"github.com/nurpe/listing-carts/internal/notification"
	"github.com/nurpe/listing-carts/internal/pdf"
	"github.com/nurpe/listing-carts/internal/repository"
	"github.com/nurpe/listing-carts/internal/service"
	"github.com/nurpe/listing-carts/internal/testutil"
)

const baseURL = "https://carts.example.com"

type apiHarness struct {
	router http.Handler
	token  string
	agent  model.Principal
}

func newAPI(t *testing.T) *apiHarness {
	t.Helper()

	db := testutil.NewDB(t)
	testutil.SeedCatalog(t, db,
		model.CatalogService{Key: "photos", Name: "Photography", SupplierType: "photographer"},
		model.CatalogService{Key: "copy", Name: "Listing copy", SupplierType: "writer"},
	)
	testutil.SeedVendor(t, db, "Vivid Media", "v@example.com", "photos", 100000, 0)

	registry := prometheus.NewRegistry()
	store := repository.NewStore(db)
	composer := notification.NewComposer(baseURL, "USD")
	commission := decimal.NewFromInt(10)

	handler := NewHandler(
		service.NewCartService(store, composer, nil, metrics.NewCartMetrics(registry), zerolog.Nop(), commission),
		service.NewVendorService(store),
		service.NewSettingsService(store, commission),
		service.NewReportService(store, composer, pdf.NewGenerator("USD"), excel.NewGenerator()),
		composer,
		zerolog.Nop(),
	)

	parser := auth.NewParser("test-secret")
	agent := model.Principal{AgentID: uuid.New(), Name: "Alex Agent", Email: "alex@agency.test"}
	token, err := parser.Sign(agent, time.Now(), time.Hour)
	require.NoError(t, err)

	router := NewRouter(handler, middleware.Auth(parser), RouterConfig{
		Environment: "test",
		Gatherer:    registry,
		Health:      store,
		Log:         zerolog.Nop(),
	})
	return &apiHarness{router: router, token: token, agent: agent}
}

func (a *apiHarness) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
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
	req.Header.Set("Authorization", "Bearer "+a.token)
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
}

func (a *apiHarness) createCart(t *testing.T) cartResponse {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/carts", map[string]interface{}{
		"property_address": "12 Harbor Lane",
		"owner_name":       "Dana Owner",
		"owner_email":      "dana@example.com",
		"payment_timing":   "at_closing",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var cart cartResponse
	decode(t, rec, &cart)
	return cart
}

func TestNegotiatedFlowOverHTTP(t *testing.T) {
	api := newAPI(t)
	cart := api.createCart(t)

	assert.Equal(t, model.CartStatusDraft, cart.Status)
	assert.Equal(t, "Alex Agent", cart.AgentName)
	assert.Equal(t, model.PaymentTimingAtClosing, cart.PaymentTiming)
	assert.True(t, strings.HasPrefix(cart.ReviewURL, baseURL+"/owner/carts/"))
	require.Len(t, cart.Items, 2)

	cartPath := "/carts/" + cart.ID.String()

	rec := api.do(t, http.MethodPut, cartPath+"/items/photos/selection", map[string]bool{"selected": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &cart)
	photos := cart.Items[0]
	assert.Equal(t, int64(110000), photos.PriceCents)
	require.NotNil(t, photos.Vendor)
	assert.Equal(t, "Vivid Media", photos.Vendor.Name)

	rec = api.do(t, http.MethodPost, cartPath+"/send", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &cart)
	assert.Equal(t, model.CartStatusSent, cart.Status)

	rec = api.do(t, http.MethodGet, cartPath+"/messages", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var messages struct {
		Messages []messageResponse `json:"messages"`
	}
	decode(t, rec, &messages)
	require.Len(t, messages.Messages, 1)
	assert.Equal(t, model.MessageWorkOrder, messages.Messages[0].TargetType)

	rec = api.do(t, http.MethodGet, cartPath+"/invoice.pdf", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	for i := 0; i < 2; i++ {
		rec = api.do(t, http.MethodPost, cartPath+"/items/photos/advance", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	decode(t, rec, &cart)
	assert.Equal(t, model.CartStatusVendorApproved, cart.Status)
	assert.Equal(t, int64(110000), cart.TotalCents)
	require.NotNil(t, cart.Items[0].AvailableOn)
	require.NotNil(t, cart.Items[0].CounterQuoteCents)
	assert.Equal(t, int64(104500), *cart.Items[0].CounterQuoteCents)

	rec = api.do(t, http.MethodPost, cartPath+"/send", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	var failure map[string]interface{}
	decode(t, rec, &failure)
	assert.Equal(t, string(service.KindInvalidState), failure["code"])

	rec = api.do(t, http.MethodGet, cartPath+"/invoice.pdf", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}

func TestOwnerApprovalOverHTTP(t *testing.T) {
	api := newAPI(t)
	cart := api.createCart(t)
	token := strings.TrimPrefix(cart.ReviewURL, baseURL+"/owner/carts/")
	require.NotEmpty(t, token)

	rec := api.do(t, http.MethodGet, "/owner/carts/"+token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), token)
	assert.NotContains(t, rec.Body.String(), "review_url")

	rec = api.do(t, http.MethodPost, "/owner/carts/"+token+"/approve", map[string][]string{"service_keys": {"copy"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var approved cartResponse
	decode(t, rec, &approved)
	assert.Equal(t, model.CartStatusApproved, approved.Status)
	require.NotNil(t, approved.FinalizationMode)
	assert.Equal(t, model.FinalizationDirect, *approved.FinalizationMode)

	rec = api.do(t, http.MethodPost, "/owner/carts/"+token+"/approve", map[string][]string{"service_keys": {"copy"}})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(t, http.MethodPost, "/owner/carts/"+token+"x/approve", map[string][]string{"service_keys": {}})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodPost, "/reports/margin", map[string]string{
		"period_start": "2020-01-01",
		"period_end":   "2100-01-01",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")
}

func TestErrorMapping(t *testing.T) {
	api := newAPI(t)

	rec := api.do(t, http.MethodGet, "/carts/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodGet, "/carts/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	cart := api.createCart(t)
	rec = api.do(t, http.MethodPut, "/carts/"+cart.ID.String()+"/items/unknown/selection", map[string]bool{"selected": true})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodPut, "/carts/"+cart.ID.String()+"/items/photos/selection", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPost, "/carts/"+cart.ID.String()+"/paid", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSettingsAndCatalogOverHTTP(t *testing.T) {
	api := newAPI(t)
	settingsPath := "/agents/" + api.agent.AgentID.String() + "/settings"

	rec := api.do(t, http.MethodGet, settingsPath, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var settings settingsResponse
	decode(t, rec, &settings)
	assert.Equal(t, "10", settings.CommissionPercent.String())
	assert.True(t, settings.AutoApply)

	rec = api.do(t, http.MethodPut, settingsPath, map[string]interface{}{"commission_percent": "12.5", "auto_apply": false})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &settings)
	assert.Equal(t, "12.5", settings.CommissionPercent.String())
	assert.False(t, settings.AutoApply)

	rec = api.do(t, http.MethodPut, settingsPath, map[string]interface{}{"commission_percent": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPost, "/vendors", map[string]string{
		"name": "Pixel Pros", "email": "pixel@example.com", "supplier_type": "photographer",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var vendor vendorResponse
	decode(t, rec, &vendor)

	rec = api.do(t, http.MethodPost, "/services/photos/vendors", map[string]interface{}{
		"vendor_id": vendor.ID.String(), "quote_cents": 90000,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var listed struct {
		Vendors []serviceVendorResponse `json:"vendors"`
	}
	decode(t, rec, &listed)
	require.Len(t, listed.Vendors, 2)
	assert.Equal(t, "Vivid Media", listed.Vendors[0].Name)

	rec = api.do(t, http.MethodPut, "/services/photos/vendors/order", map[string][]string{
		"vendor_ids": {vendor.ID.String(), listed.Vendors[0].VendorID.String()},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &listed)
	assert.Equal(t, "Pixel Pros", listed.Vendors[0].Name)

	rec = api.do(t, http.MethodGet, "/services", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"key":"photos"`)
}

func TestOperationalEndpoints(t *testing.T) {
	api := newAPI(t)
	api.createCart(t)

	rec := api.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cart_operation_duration_seconds")

	req := httptest.NewRequest(http.MethodGet, "/carts/"+uuid.NewString(), nil)
	req.Header.Set("Authorization", "Bearer forged")
	out := httptest.NewRecorder()
	api.router.ServeHTTP(out, req)
	assert.Equal(t, http.StatusUnauthorized, out.Code)
}
