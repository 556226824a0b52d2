package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"cake-marketplace/internal/client"
	"cake-marketplace/internal/model"
	"cake-marketplace/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
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
	return db
}

type sentNotification struct {
	UserID  string
	Type    model.NotificationType
	Message string
	Data    map[string]any
}

type recordingEmitter struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (e *recordingEmitter) Emit(_ context.Context, userID string, typ model.NotificationType, message string, data map[string]any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sent = append(e.sent, sentNotification{UserID: userID, Type: typ, Message: message, Data: data})
}

func (e *recordingEmitter) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sent)
}

func (e *recordingEmitter) to(userID string) []sentNotification {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []sentNotification
	for _, n := range e.sent {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

func (e *recordingEmitter) reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sent = nil
}

type fakeGateway struct {
	mu          sync.Mutex
	initErr     error
	verifyErr   error
	status      client.VerificationStatus
	amountMinor int64
	initCalls   int
	verifyCalls int
	chargeCalls int
	lastInit    *client.InitializeRequest
}

func (g *fakeGateway) Name() string {
	return "fake"
}

func (g *fakeGateway) Initialize(_ context.Context, req *client.InitializeRequest) (*client.InitializeResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.initCalls++
	g.lastInit = req
	if g.initErr != nil {
		return nil, g.initErr
	}
	return &client.InitializeResponse{
		AuthorizationURL: "https://pay.example/" + req.Reference,
		AccessCode:       "code-" + req.Reference,
		Reference:        req.Reference,
	}, nil
}

func (g *fakeGateway) Verify(_ context.Context, req *client.VerifyRequest) (*client.Verification, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.verifyCalls++
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	return &client.Verification{
		Status:        g.status,
		TransactionID: "txn-" + req.Reference,
		AmountMinor:   g.amountMinor,
		Raw:           []byte(`{"status":"` + string(g.status) + `"}`),
	}, nil
}

func (g *fakeGateway) ChargeNonce(_ context.Context, req *client.ChargeRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.chargeCalls++
	return "charge-" + req.Reference, nil
}

type testEnv struct {
	db       *gorm.DB
	emitter  *recordingEmitter
	gateway  *fakeGateway
	cakes    repository.CakeRepository
	carts    repository.CartRepository
	orders   repository.OrderRepository
	payments repository.PaymentRepository
	reviews  repository.ReviewRepository
	webhooks repository.WebhookEventRepository

	catalog  CatalogService
	cart     CartService
	order    OrderService
	payment  PaymentService
	review   ReviewService
	checkout CheckoutService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := setupTestDB(t)
	log := zap.NewNop()
	env := &testEnv{
		db:       db,
		emitter:  &recordingEmitter{},
		gateway:  &fakeGateway{status: client.VerificationSuccess},
		cakes:    repository.NewCakeRepository(db),
		carts:    repository.NewCartRepository(db),
		orders:   repository.NewOrderRepository(db),
		payments: repository.NewPaymentRepository(db),
		reviews:  repository.NewReviewRepository(db),
		webhooks: repository.NewWebhookEventRepository(db),
	}

	env.catalog = NewCatalogService(env.cakes, env.emitter, log)
	env.cart = NewCartService(db, env.cakes, env.carts, log)
	env.order = NewOrderService(db, "USD", env.cakes, env.carts, env.orders, env.payments, env.reviews, env.emitter, log)
	env.payment = NewPaymentService(db, env.gateway, NewStaticRateProvider(), 0, "",
		env.orders, env.payments, env.carts, env.webhooks, env.emitter, log)
	env.review = NewReviewService(db, env.cakes, env.orders, env.reviews, env.emitter, log)
	env.checkout = NewCheckoutService(env.gateway.Name(), env.cart, env.order, env.payment, log)

	return env
}

func (e *testEnv) seedCake(t *testing.T, sellerID, name, price string) *model.Cake {
	t.Helper()

	cake := &model.Cake{
		ID:          uuid.NewString(),
		Name:        name,
		Category:    model.CategoryBirthday,
		Price:       decimal.RequireFromString(price),
		Stock:       5,
		IsAvailable: true,
		SellerID:    sellerID,
	}
	require.NoError(t, e.cakes.Create(context.Background(), cake))
	return cake
}

// deliveredOrder places a cash-on-delivery order and walks it to delivered.
func (e *testEnv) deliveredOrder(t *testing.T, customer model.Principal, cakes ...*model.Cake) *model.Order {
	t.Helper()

	order := e.placeOrder(t, customer, model.PaymentCashOnDelivery, cakes...)
	return e.advanceTo(t, order, model.StatusDelivered)
}

func (e *testEnv) placeOrder(t *testing.T, customer model.Principal, method model.PaymentMethod, cakes ...*model.Cake) *model.Order {
	t.Helper()

	items := make([]OrderItemInput, len(cakes))
	for i, c := range cakes {
		items[i] = OrderItemInput{CakeID: c.ID, Quantity: 1}
	}
	order, err := e.order.PlaceOrder(context.Background(), customer, PlaceOrderInput{
		Items:          items,
		Address:        "12 Baker Street",
		PaymentMethod:  method,
		PaymentCountry: "Nigeria",
	})
	require.NoError(t, err)
	return order
}

func (e *testEnv) advanceTo(t *testing.T, order *model.Order, target model.OrderStatus) *model.Order {
	t.Helper()

	seller := model.Principal{ID: order.Items[0].SellerID, Role: model.RoleSeller}
	for order.Status != target {
		next, ok := order.Status.Next()
		require.True(t, ok)
		var err error
		order, err = e.order.UpdateOrderStatus(context.Background(), seller, order.ID, next)
		require.NoError(t, err)
	}
	return order
}
