package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/PixelCodeeee/arroyo-seco-marketplace/internal/domain"
	"github.com/PixelCodeeee/arroyo-seco-marketplace/internal/event"
	"github.com/PixelCodeeee/arroyo-seco-marketplace/internal/service"
	apperrors "github.com/PixelCodeeee/arroyo-seco-marketplace/pkg/errors"
	pkgkafka "github.com/PixelCodeeee/arroyo-seco-marketplace/pkg/kafka"
)

// ============================================================================
// Mock CartRepository
// ============================================================================

type mockCartRepository struct {
	mock.Mock
}

func (m *mockCartRepository) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *mockCartRepository) Save(ctx context.Context, userID string, cart *domain.Cart) error {
	args := m.Called(ctx, userID, cart)
	return args.Error(0)
}

func (m *mockCartRepository) Delete(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockCartRepository) GetPending(ctx context.Context, userID string) (*domain.PendingItem, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PendingItem), args.Error(1)
}

func (m *mockCartRepository) SavePending(ctx context.Context, userID string, item *domain.PendingItem) error {
	args := m.Called(ctx, userID, item)
	return args.Error(0)
}

func (m *mockCartRepository) DeletePending(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// ============================================================================
// Test helpers
// ============================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// testEventProducer builds a real producer against an unreachable broker.
// Publish failures are logged by the services, never surfaced, so handler
// tests run without Kafka.
func testEventProducer() *event.Producer {
	logger := testLogger()
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:19092"})
	kafkaProducer := pkgkafka.NewProducer(kafkaCfg, logger)
	return event.NewProducer(kafkaProducer, logger)
}

func testCartHandler(repo *mockCartRepository) *CartHandler {
	svc := service.NewCartService(repo, testEventProducer(), testLogger())
	return NewCartHandler(svc, testLogger())
}

// setupCartRouter creates a chi router matching the production route layout,
// including the UserIDFromHeader and ContentTypeJSON middleware so auth
// behavior is tested end-to-end.
func setupCartRouter(handler *CartHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(UserIDFromHeader)

		r.Get("/", handler.GetCart)
		r.Delete("/", handler.ClearCart)
		r.Get("/summary", handler.GetSummary)

		r.Post("/items", handler.AddItem)
		r.Put("/items/{productId}", handler.UpdateQuantity)
		r.Delete("/items/{productId}", handler.RemoveItem)

		r.Get("/conflict", handler.GetPendingConflict)
		r.Post("/conflict", handler.ResolveConflict)
	})
	return r
}

// decodeResponse reads the response body into the standard envelope.
func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) response {
	t.Helper()
	var resp response
	err := json.NewDecoder(rec.Body).Decode(&resp)
	require.NoError(t, err)
	return resp
}

// sampleCart returns a single-vendor cart with one line.
func sampleCart() *domain.Cart {
	return &domain.Cart{
		VendorID:   5,
		VendorName: "Taco Shop",
		Items: []domain.CartLine{
			{
				ProductID: 1,
				VendorID:  5,
				Name:      "Taco al pastor",
				UnitPrice: 10.00,
				Quantity:  1,
			},
		},
	}
}

// ============================================================================
// GET /api/v1/cart - GetCart
// ============================================================================

func TestGetCart_Success(t *testing.T) {
	repo := new(mockCartRepository)
	handler := testCartHandler(repo)
	router := setupCartRouter(handler)

	repo.On("Get", mock.Anything, "user-123").Return(sampleCart(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("X-User-ID", "user-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)
	assert.NotNil(t, resp.Data)
	repo.AssertExpectations(t)
}

func TestGetCart_Absent_ReturnsNullData(t *testing.T) {
	repo := new(mockCartRepository)
	handler := testCartHandler(repo)
	router := setupCartRouter(handler)

	// No stored cart is data: null with 200, never a 404.
	repo.On("Get", mock.Anything, "user-123").Return(nil, apperrors.NotFound("cart", "user-123"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("X-User-ID", "user-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)
	assert.Nil(t, resp.Data)
	repo.AssertExpectations(t)
}

func TestGetCart_MissingUserID_Returns401(t *testing.T) {
	repo := new(mockCartRepository)
	handler := testCartHandler(repo)
	router := setupCartRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	// No X-User-ID header.
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "UNAUTHORIZED", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "authentication required")
}

func TestGetCart_ServiceError(t *testing.T) {
	repo := new(mockCartRepository)
	handler := testCartHandler(repo)
	router := setupCartRouter(handler)

	repo.On("Get", mock.Anything, "user-123").Return(nil, fmt.Errorf("redis connection refused"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("X-User-ID", "user-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	repo.AssertExpectations(t)
}

// ============================================================================
// GET /api/v1/cart/summary - GetSummary
// ============================================================================

func TestGetSummary_Success(t *testing.T) {
	repo := new(mockCartRepository)
	handler := testCartHandler(repo)
	router := setupCartRouter(handler)

	repo.On("Get", mock.Anything, "user-123").Return(sampleCart(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart/summary", nil)
	req.Header.Set("X-User-ID", "user-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Data)

	summary, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), summary["totalItems"])
	assert.Equal(t, 10.00, summary["totalPrice"])
	repo.AssertExpectations(t)
}

// ============================================================================
// POST /api/v1/cart/items - AddItem
// ============================================================================

func validAddItemJSON() []byte {
	body := AddItemRequest{
		ProductID:  1,
		VendorID:   5,
		VendorName: "Taco Shop",
		Name:       "Taco al pastor",
		Price:      "10.00",
	}
	b, _ := json.Marshal(body)
	return b
}

func TestAddItem_Success(t *testing.T) {
	repo := new(mockCartRepository)
	handler := testCartHandler(repo)
	router := setupCartRouter(handler)

	repo.On("Get", mock.Anything, "user-123").Return(nil, apperrors.NotFound("cart", "user-123"))
	repo.On("Save", mock.Anything, "user-123", mock.AnythingOfType("*domain.Cart")).Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewReader(validAddItemJSON()))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "user-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)
	require.NotNil(t, resp.Data)

	cart, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Taco Shop", cart["vendorName"])
	repo.AssertExpectations(t)
}

func TestAddItem_VendorConflict_Returns409WithVendorNames(t *testing.T) {
	repo := new(mockCartRepository)
	handler := testCartHandler(repo)
	router := setupCartRouter(handler)

	repo.On("Get", mock.Anything, "user-123").Return(sampleCart(), nil)
	repo.On("SavePending", mock.Anything, "user-123", mock.AnythingOfType("*domain.PendingItem")).Return(nil)

	body := AddItemRequest{
		ProductID:  9,
		VendorID:   8,
		VendorName: "Burger Joint",
		Name:       "Cheeseburger",
		Price:      "12.50",
	}
	b, _ := json.Marshal(body)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "user-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error, "a vendor conflict is an outcome, not an error")
	require.NotNil(t, resp.Data)

	payload, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, service.OutcomeConflict, payload["outcome"])
	assert.Equal(t, "Taco Shop", payload["currentVendorName"])
	assert.Equal(t, "Burger Joint", payload["newVendorName"])

	// The cart itself is never mutated on conflict.
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestAddItem_InvalidJSON(t *testing.T) {
	repo := new(mockCartRepository)
	handler := testCartHandler(repo)
	router := setupCartRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewReader([]byte(`{invalid json`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "user-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_INPUT", resp.Error.Code)
}

func TestAddItem_ValidationError_MissingFields(t *testing.T) {
	repo := new(mockCartRepository)
	handler := testCartHandler(repo)
	router := setupCartRouter(handler)

	body := map[string]any{
		"productId":  0,  // required gt=0
		"vendorId":   0,  // required gt=0
		"vendorName": "", // required
		"name":       "", // required
		"price":      "", // required
	}
	b, _ := json.Marshal(body)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "user-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}

func TestAddItem_UnparseablePrice_Returns400(t *testing.T) {
	repo := new(mockCartRepository)
	handler := testCartHandler(repo)
	router := setupCartRouter(handler)

	body := AddItemRequest{
		ProductID:  1,
		VendorID:   5,
		VendorName: "Taco Shop",
		Name:       "Taco al pastor",
		Price:      "diez pesos",
	}
	b, _ := json.Marshal(body)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "user-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
}

// ============================================================================
// POST /api/v1/cart/conflict - ResolveConflict
// ============================================================================

func pendingBurger() *domain.PendingItem {
	return &domain.PendingItem{
		Line: domain.CartLine{
			ProductID: 9,
			VendorID:  8,
			Name:      "Cheeseburger",
			UnitPrice: 12.50,
			Quantity:  1,
		},
		VendorID:          8,
		VendorName:        "Burger Joint",
		CurrentVendorName: "Taco Shop",
	}
}

func TestResolveConflict_Replace(t *testing.T) {
	repo := new(mockCartRepository)
	handler := testCartHandler(repo)
	router := setupCartRouter(handler)

	repo.On("GetPending", mock.Anything, "user-123").Return(pendingBurger(), nil)
	repo.On("DeletePending", mock.Anything, "user-123").Return(nil)
	repo.On("Save", mock.Anything, "user-123", mock.AnythingOfType("*domain.Cart")).Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/conflict", bytes.NewReader([]byte(`{"action":"replace"}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "user-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)
	require.NotNil(t, resp.Data)

	cart, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Burger Joint", cart["vendorName"])
	repo.AssertExpectations(t)
}

func TestResolveConflict_Cancel_CartUntouched(t *testing.T) {
	repo := new(mockCartRepository)
	handler := testCartHandler(repo)
	router := setupCartRouter(handler)

	repo.On("GetPending", mock.Anything, "user-123").Return(pendingBurger(), nil)
	repo.On("DeletePending", mock.Anything, "user-123").Return(nil)
	repo.On("Get", mock.Anything, "user-123").Return(sampleCart(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/conflict", bytes.NewReader([]byte(`{"action":"cancel"}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "user-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)

	cart, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Taco Shop", cart["vendorName"])
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestResolveConflict_InvalidAction(t *testing.T) {
	repo := new(mockCartRepository)
	handler := testCartHandler(repo)
	router := setupCartRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/conflict", bytes.NewReader([]byte(`{"action":"merge"}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "user-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}

func TestResolveConflict_NoPending_Returns404(t *testing.T) {
	repo := new(mockCartRepository)
	handler := testCartHandler(repo)
	router := setupCartRouter(handler)

	repo.On("GetPending", mock.Anything, "user-123").Return(nil, apperrors.NotFound("pending conflict", "user-123"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/conflict", bytes.NewReader([]byte(`{"action":"replace"}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "user-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	repo.AssertExpectations(t)
}

// ============================================================================
// PUT /api/v1/cart/items/{productId} - UpdateQuantity
// ============================================================================

func TestUpdateQuantity_Success(t *testing.T) {
	repo := new(mockCartRepository)
	handler := testCartHandler(repo)
	router := setupCartRouter(handler)

	repo.On("Get", mock.Anything, "user-123").Return(sampleCart(), nil)
	repo.On("Save", mock.Anything, "user-123", mock.AnythingOfType("*domain.Cart")).Return(nil)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/cart/items/1", bytes.NewReader([]byte(`{"quantity":3}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "user-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)

	payload, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, payload["updated"])
	repo.AssertExpectations(t)
}

func TestUpdateQuantity_ZeroDestroysLastLine(t *testing.T) {
	repo := new(mockCartRepository)
	handler := testCartHandler(repo)
	router := setupCartRouter(handler)

	repo.On("Get", mock.Anything, "user-123").Return(sampleCart(), nil)
	repo.On("Delete", mock.Anything, "user-123").Return(nil)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/cart/items/1", bytes.NewReader([]byte(`{"quantity":0}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "user-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)

	payload, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, payload["updated"])
	assert.Nil(t, payload["cart"], "an emptied cart is destroyed, not kept as a shell")
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestUpdateQuantity_InvalidProductID(t *testing.T) {
	repo := new(mockCartRepository)
	handler := testCartHandler(repo)
	router := setupCartRouter(handler)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/cart/items/abc", bytes.NewReader([]byte(`{"quantity":3}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "user-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_INPUT", resp.Error.Code)
}

func TestUpdateQuantity_UnknownProduct_NoOp(t *testing.T) {
	repo := new(mockCartRepository)
	handler := testCartHandler(repo)
	router := setupCartRouter(handler)

	repo.On("Get", mock.Anything, "user-123").Return(sampleCart(), nil)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/cart/items/999", bytes.NewReader([]byte(`{"quantity":3}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "user-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)

	payload, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, payload["updated"])
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

// ============================================================================
// DELETE /api/v1/cart/items/{productId} - RemoveItem
// ============================================================================

func TestRemoveItem_LastLineDestroysCart(t *testing.T) {
	repo := new(mockCartRepository)
	handler := testCartHandler(repo)
	router := setupCartRouter(handler)

	repo.On("Get", mock.Anything, "user-123").Return(sampleCart(), nil)
	repo.On("Delete", mock.Anything, "user-123").Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart/items/1", nil)
	req.Header.Set("X-User-ID", "user-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)

	payload, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, payload["updated"])
	assert.Nil(t, payload["cart"])
	repo.AssertExpectations(t)
}

func TestRemoveItem_MissingUserID_Returns401(t *testing.T) {
	repo := new(mockCartRepository)
	handler := testCartHandler(repo)
	router := setupCartRouter(handler)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart/items/1", nil)
	// No X-User-ID header.
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "UNAUTHORIZED", resp.Error.Code)
}

// ============================================================================
// DELETE /api/v1/cart - ClearCart
// ============================================================================

func TestClearCart_Success(t *testing.T) {
	repo := new(mockCartRepository)
	handler := testCartHandler(repo)
	router := setupCartRouter(handler)

	repo.On("Delete", mock.Anything, "user-123").Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart", nil)
	req.Header.Set("X-User-ID", "user-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)
	assert.NotNil(t, resp.Data)
	repo.AssertExpectations(t)
}

func TestClearCart_ServiceError(t *testing.T) {
	repo := new(mockCartRepository)
	handler := testCartHandler(repo)
	router := setupCartRouter(handler)

	repo.On("Delete", mock.Anything, "user-123").Return(fmt.Errorf("redis connection lost"))

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart", nil)
	req.Header.Set("X-User-ID", "user-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	repo.AssertExpectations(t)
}

// ============================================================================
// Middleware tests
// ============================================================================

func TestUserIDFromHeader_Middleware_SetsContext(t *testing.T) {
	var capturedUID string
	handler := UserIDFromHeader(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, ok := userIDFromContext(r.Context())
		if ok {
			capturedUID = uid
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User-ID", "user-abc")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-abc", capturedUID)
}

func TestUserIDFromHeader_Middleware_MissingHeader(t *testing.T) {
	called := false
	handler := UserIDFromHeader(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	// No X-User-ID header.
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called, "handler should not have been called")
}

func TestContentTypeJSON_Middleware_RejectsNonJSON(t *testing.T) {
	called := false
	handler := ContentTypeJSON(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("data")))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.False(t, called, "handler should not have been called")
}

func TestContentTypeJSON_Middleware_AcceptsJSON(t *testing.T) {
	called := false
	handler := ContentTypeJSON(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called, "handler should have been called")
}

// ============================================================================
// Table-driven: all cart endpoints reject missing X-User-ID with 401
// ============================================================================

func TestCartEndpoints_RejectMissingUserID(t *testing.T) {
	endpoints := []struct {
		method string
		path   string
		body   []byte
	}{
		{http.MethodGet, "/api/v1/cart", nil},
		{http.MethodGet, "/api/v1/cart/summary", nil},
		{http.MethodPost, "/api/v1/cart/items", validAddItemJSON()},
		{http.MethodPut, "/api/v1/cart/items/1", []byte(`{"quantity":2}`)},
		{http.MethodDelete, "/api/v1/cart/items/1", nil},
		{http.MethodDelete, "/api/v1/cart", nil},
		{http.MethodGet, "/api/v1/cart/conflict", nil},
		{http.MethodPost, "/api/v1/cart/conflict", []byte(`{"action":"cancel"}`)},
	}

	for _, ep := range endpoints {
		name := fmt.Sprintf("%s %s", ep.method, ep.path)
		t.Run(name, func(t *testing.T) {
			repo := new(mockCartRepository)
			handler := testCartHandler(repo)
			router := setupCartRouter(handler)

			req := httptest.NewRequest(ep.method, ep.path, bytes.NewReader(ep.body))
			if ep.body != nil {
				req.Header.Set("Content-Type", "application/json")
			}
			// No X-User-ID header.
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code, "expected 401 for missing X-User-ID on %s", name)
			resp := decodeResponse(t, rec)
			require.NotNil(t, resp.Error)
			assert.Equal(t, "UNAUTHORIZED", resp.Error.Code)
		})
	}
}
