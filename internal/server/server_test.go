package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cake-marketplace/internal/apperr"
	"cake-marketplace/internal/client"
	"cake-marketplace/internal/dto"
	"cake-marketplace/internal/middleware"
	"cake-marketplace/internal/model"
	"cake-marketplace/internal/repository"
	"cake-marketplace/internal/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-secret"

var (
	ada    = model.Principal{ID: "customer-1", Role: model.RoleCustomer, Name: "Ada", Email: "ada@example.com"}
	bola   = model.Principal{ID: "seller-1", Role: model.RoleSeller, Name: "Bola"}
	chidi  = model.Principal{ID: "seller-2", Role: model.RoleSeller, Name: "Chidi"}
	admin  = model.Principal{ID: "admin-1", Role: model.RoleAdmin}
	nobody = model.Principal{}
)

type stubGateway struct{}

func (stubGateway) Name() string { return "stub" }

func (stubGateway) Initialize(_ context.Context, req *client.InitializeRequest) (*client.InitializeResponse, error) {
	return &client.InitializeResponse{
		AuthorizationURL: "https://pay.example/" + req.Reference,
		Reference:        req.Reference,
	}, nil
}

func (stubGateway) Verify(_ context.Context, req *client.VerifyRequest) (*client.Verification, error) {
	return &client.Verification{Status: client.VerificationSuccess, TransactionID: "txn-" + req.Reference}, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, client.Migrate(db))

	log := zap.NewNop()
	cakes := repository.NewCakeRepository(db)
	carts := repository.NewCartRepository(db)
	orders := repository.NewOrderRepository(db)
	payments := repository.NewPaymentRepository(db)
	reviews := repository.NewReviewRepository(db)

	notifications := service.NewNotificationService(repository.NewNotificationRepository(db), log)
	cart := service.NewCartService(db, cakes, carts, log)
	order := service.NewOrderService(db, "USD", cakes, carts, orders, payments, reviews, notifications, log)
	payment := service.NewPaymentService(db, stubGateway{}, service.NewStaticRateProvider(), 0, "",
		orders, payments, carts, repository.NewWebhookEventRepository(db), notifications, log)

	return NewServer(Services{
		Catalog:      service.NewCatalogService(cakes, notifications, log),
		Cart:         cart,
		Wishlist:     service.NewWishlistService(cakes, repository.NewWishlistRepository(db)),
		Order:        order,
		Payment:      payment,
		Checkout:     service.NewCheckoutService("stub", cart, order, payment, log),
		Review:       service.NewReviewService(db, cakes, orders, reviews, notifications, log),
		Notification: notifications,
	}, testSecret, log)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Kind      string `json:"kind"`
		Message   string `json:"message"`
		Retryable bool   `json:"retryable"`
	} `json:"error"`
	PaymentStatus string `json:"paymentStatus"`
	NextStep      string `json:"nextStep"`
}

func do(t *testing.T, s *Server, as model.Principal, method, path string, body any) (int, envelope) {
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
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if as.ID != "" {
		token, err := middleware.IssueToken(testSecret, as, time.Hour)
		require.NoError(t, err)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func createCake(t *testing.T, s *Server, seller model.Principal, name string) *model.Cake {
	t.Helper()

	code, env := do(t, s, seller, http.MethodPost, "/api/cakes", map[string]any{
		"name":     name,
		"price":    "12.50",
		"stock":    4,
		"category": "Birthday",
	})
	require.Equal(t, http.StatusCreated, code, env.Error.Message)
	return decode[*model.Cake](t, env.Data)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	code, _ := do(t, s, nobody, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestAuthErrors(t *testing.T) {
	s := newTestServer(t)

	code, env := do(t, s, nobody, http.MethodGet, "/api/cart", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, env.Success)
	assert.Equal(t, "unauthorized", env.Error.Kind)

	code, env = do(t, s, ada, http.MethodPost, "/api/cakes", map[string]any{"name": "x", "price": "1"})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "forbidden", env.Error.Kind)

	code, env = do(t, s, admin, http.MethodGet, "/api/admin/orders", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
}

func TestCartSingleSellerConflict(t *testing.T) {
	s := newTestServer(t)
	a := createCake(t, s, bola, "Vanilla")
	b := createCake(t, s, chidi, "Lemon")

	code, _ := do(t, s, ada, http.MethodPost, "/api/cart/items", map[string]string{"cakeId": a.ID})
	require.Equal(t, http.StatusOK, code)

	code, env := do(t, s, ada, http.MethodPost, "/api/cart/items", map[string]string{"cakeId": b.ID})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "conflict", env.Error.Kind)
	assert.False(t, env.Error.Retryable)

	code, env = do(t, s, ada, http.MethodGet, "/api/cart", nil)
	require.Equal(t, http.StatusOK, code)
	cart := decode[model.Cart](t, env.Data)
	assert.Len(t, cart.Items, 1)
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	a := createCake(t, s, bola, "Vanilla")

	code, _ := do(t, s, ada, http.MethodPost, "/api/cart/items", map[string]string{"cakeId": a.ID})
	require.Equal(t, http.StatusOK, code)

	code, env := do(t, s, ada, http.MethodPost, "/api/checkout", map[string]string{
		"shippingAddress": "12 Baker Street",
		"paymentMethod":   "cash_on_delivery",
	})
	require.Equal(t, http.StatusCreated, code, env.Error.Message)
	result := decode[service.CheckoutResult](t, env.Data)
	assert.Equal(t, service.NextStepOrderConfirmed, result.NextStep)
	orderID := result.Order.ID

	statusPath := "/api/orders/" + orderID + "/status"

	code, env = do(t, s, chidi, http.MethodPatch, statusPath, map[string]string{"status": "accepted"})
	assert.Equal(t, http.StatusForbidden, code)

	code, env = do(t, s, bola, http.MethodPatch, statusPath, map[string]string{"status": "ready"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "state", env.Error.Kind)

	code, env = do(t, s, bola, http.MethodPatch, statusPath, map[string]string{"status": "accepted"})
	require.Equal(t, http.StatusOK, code, env.Error.Message)
	order := decode[model.Order](t, env.Data)
	assert.Equal(t, model.StatusAccepted, order.Status)

	code, env = do(t, s, ada, http.MethodPost, "/api/reviews", map[string]any{"orderId": orderID, "rating": 5})
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, _ = do(t, s, chidi, http.MethodGet, "/api/orders/"+orderID, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, env = do(t, s, ada, http.MethodGet, "/api/notifications", nil)
	require.Equal(t, http.StatusOK, code)
	notes := decode[[]model.Notification](t, env.Data)
	assert.Len(t, notes, 2)
}

func TestOnlineCheckoutAndVerify(t *testing.T) {
	s := newTestServer(t)
	a := createCake(t, s, bola, "Vanilla")

	code, _ := do(t, s, ada, http.MethodPost, "/api/cart/items", map[string]string{"cakeId": a.ID})
	require.Equal(t, http.StatusOK, code)

	code, env := do(t, s, ada, http.MethodPost, "/api/checkout", map[string]string{
		"address":        "12 Baker Street",
		"paymentMethod":  "online_payment",
		"paymentCountry": "Ghana",
	})
	require.Equal(t, http.StatusCreated, code, env.Error.Message)
	result := decode[service.CheckoutResult](t, env.Data)
	assert.Equal(t, service.NextStepPaymentNeeded, result.NextStep)
	require.NotEmpty(t, result.Reference)
	assert.Equal(t, "https://pay.example/"+result.Reference, result.AuthorizationURL)

	for range 2 {
		code, env = do(t, s, nobody, http.MethodGet, "/api/checkout/verify/"+result.Reference, nil)
		require.Equal(t, http.StatusOK, code, env.Error.Message)
		assert.True(t, env.Success)
		assert.Equal(t, string(model.PaymentPaid), env.PaymentStatus)
		assert.Equal(t, service.NextStepOrderConfirmed, env.NextStep)

		summary := decode[dto.PaymentSummary](t, env.Data)
		assert.Equal(t, result.Reference, summary.Reference)
		assert.Equal(t, result.Order.ID, summary.OrderID)
		assert.Equal(t, model.PaymentPaid, summary.PaymentStatus)
		assert.NotContains(t, string(env.Data), "12 Baker Street")
		assert.NotContains(t, string(env.Data), "address")
		assert.NotContains(t, string(env.Data), "email")
	}

	code, _ = do(t, s, nobody, http.MethodGet, "/api/checkout/verify/cake_missing", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestWebhookNeedsSigningGateway(t *testing.T) {
	s := newTestServer(t)

	code, env := do(t, s, nobody, http.MethodPost, "/api/payments/webhook", map[string]any{"event": "charge.success"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "validation", env.Error.Kind)
}

func TestRenderError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		status    int
		kind      string
		retryable bool
		message   string
	}{
		{"validation", apperr.Validation("address is required"), http.StatusBadRequest, "validation", false, "address is required"},
		{"gateway", fmt.Errorf("verify: %w", apperr.Gateway("payment provider unavailable", errors.New("timeout"))), http.StatusBadGateway, "gateway", true, "payment provider unavailable"},
		{"internal", errors.New("sql: database is locked"), http.StatusInternalServerError, "internal", false, "internal server error"},
		{"echo not found", echo.ErrNotFound, http.StatusNotFound, "not_found", false, "Not Found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := renderError(tt.err)
			assert.Equal(t, tt.status, status)
			assert.False(t, body.Success)
			assert.Equal(t, tt.kind, body.Error.Kind)
			assert.Equal(t, tt.retryable, body.Error.Retryable)
			assert.Equal(t, tt.message, body.Error.Message)
		})
	}
}
