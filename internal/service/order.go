package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"cake-marketplace/internal/apperr"
	"cake-marketplace/internal/model"
	"cake-marketplace/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type OrderItemInput struct {
	CakeID   string
	Quantity int
}

type PlaceOrderInput struct {
	Items          []OrderItemInput
	Address        string
	PaymentMethod  model.PaymentMethod
	PaymentCountry string
	// KeepCart leaves the cart in place; checkout sets it for online payments
	// so the cart survives until the payment is verified.
	KeepCart bool
}

type CakeSales struct {
	CakeID   string          `json:"cakeId"`
	CakeName string          `json:"cakeName"`
	Quantity int             `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// SalesStats counts only the seller's own lines; delivered figures use status == delivered.
type SalesStats struct {
	TotalOrders      int             `json:"totalOrders"`
	TotalRevenue     decimal.Decimal `json:"totalRevenue"`
	DeliveredOrders  int             `json:"deliveredOrders"`
	DeliveredRevenue decimal.Decimal `json:"deliveredRevenue"`
	CakesSold        int             `json:"cakesSold"`
	PerCake          []CakeSales     `json:"perCake"`
}

type OrderService interface {
	PlaceOrder(ctx context.Context, customer model.Principal, in PlaceOrderInput) (*model.Order, error)
	// UpdateOrderStatus trusts the caller to have authorized actor for the order.
	UpdateOrderStatus(ctx context.Context, actor model.Principal, orderID string, status model.OrderStatus) (*model.Order, error)
	FindOrder(ctx context.Context, orderID string) (*model.Order, error)
	GetOrder(ctx context.Context, customerID, orderID string) (*model.Order, error)
	ListCustomerOrders(ctx context.Context, customerID string) ([]*model.Order, error)
	ListSellerOrders(ctx context.Context, sellerID string) ([]*model.Order, error)
	ListAllOrders(ctx context.Context) ([]*model.Order, error)
	SellerSalesStats(ctx context.Context, sellerID string) (*SalesStats, error)
	DeleteOrder(ctx context.Context, orderID string) error
}

type orderServiceImpl struct {
	db          *gorm.DB
	currency    string
	cakeRepo    repository.CakeRepository
	cartRepo    repository.CartRepository
	orderRepo   repository.OrderRepository
	paymentRepo repository.PaymentRepository
	reviewRepo  repository.ReviewRepository
	notifier    Emitter
	logger      *zap.Logger
}

func NewOrderService(
	db *gorm.DB,
	currency string,
	cakeRepo repository.CakeRepository,
	cartRepo repository.CartRepository,
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentRepository,
	reviewRepo repository.ReviewRepository,
	notifier Emitter,
	logger *zap.Logger,
) OrderService {
	return &orderServiceImpl{
		db:          db,
		currency:    currency,
		cakeRepo:    cakeRepo,
		cartRepo:    cartRepo,
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		reviewRepo:  reviewRepo,
		notifier:    notifier,
		logger:      logger,
	}
}

// mergeItems folds repeated cakes into one line, keeping first-seen order.
func mergeItems(items []OrderItemInput) ([]OrderItemInput, error) {
	merged := make([]OrderItemInput, 0, len(items))
	index := make(map[string]int, len(items))
	for _, it := range items {
		if it.CakeID == "" {
			return nil, apperr.Validation("cake id is required")
		}
		if it.Quantity < 1 {
			return nil, apperr.Validation("quantity must be at least 1")
		}
		if i, ok := index[it.CakeID]; ok {
			merged[i].Quantity += it.Quantity
			continue
		}
		index[it.CakeID] = len(merged)
		merged = append(merged, it)
	}
	return merged, nil
}

func (s *orderServiceImpl) PlaceOrder(ctx context.Context, customer model.Principal, in PlaceOrderInput) (*model.Order, error) {
	in.Address = strings.TrimSpace(in.Address)
	if in.Address == "" || in.PaymentMethod == "" {
		return nil, apperr.Validation("address and payment method are required")
	}
	if !in.PaymentMethod.Valid() {
		return nil, apperr.Validation("unsupported payment method %q", in.PaymentMethod)
	}
	if len(in.Items) == 0 {
		return nil, apperr.Validation("order must contain at least one item")
	}

	items, err := mergeItems(in.Items)
	if err != nil {
		return nil, err
	}

	paymentStatus := model.PaymentUnpaid
	if in.PaymentMethod == model.PaymentOnline {
		paymentStatus = model.PaymentPending
	}

	now := time.Now()
	order := &model.Order{
		ID:             uuid.NewString(),
		CustomerID:     customer.ID,
		Currency:       s.currency,
		Status:         model.StatusPending,
		Address:        in.Address,
		PaymentMethod:  in.PaymentMethod,
		PaymentStatus:  paymentStatus,
		PaymentCountry: in.PaymentCountry,
		History: []model.OrderStatusEvent{{
			Status:    model.StatusPending,
			ChangedBy: customer.ID,
			At:        now,
		}},
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := make([]string, len(items))
		for i, it := range items {
			ids[i] = it.CakeID
		}
		cakes, err := s.cakeRepo.FindMany(ctx, tx, ids)
		if err != nil {
			return fmt.Errorf("get cakes: %w", err)
		}
		byID := make(map[string]*model.Cake, len(cakes))
		for _, c := range cakes {
			byID[c.ID] = c
		}

		order.Items = make([]model.OrderItem, len(items))
		for i, it := range items {
			cake, ok := byID[it.CakeID]
			if !ok {
				return apperr.Validation("cake with id %s not found", it.CakeID)
			}
			order.Items[i] = model.OrderItem{
				CakeID:    cake.ID,
				CakeName:  cake.Name,
				SellerID:  cake.SellerID,
				Quantity:  it.Quantity,
				UnitPrice: cake.Price,
			}
		}
		order.TotalAmount = model.TotalOf(order.Items)

		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			return fmt.Errorf("store order: %w", err)
		}
		if in.KeepCart {
			return nil
		}
		if err := s.cartRepo.DeleteByCustomer(ctx, tx, customer.ID); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("customer_id", customer.ID),
		zap.String("total", order.TotalAmount.StringFixed(2)))

	data := map[string]any{"orderId": order.ID}
	s.notifier.Emit(ctx, customer.ID, model.NotifyOrder,
		fmt.Sprintf("%s, your order has been placed. Total amount: %s", customer.DisplayName(), order.TotalAmount.StringFixed(2)),
		data)
	for _, sellerID := range order.SellerIDs() {
		if sellerID == customer.ID {
			continue
		}
		s.notifier.Emit(ctx, sellerID, model.NotifyOrder,
			fmt.Sprintf("%s has placed an order", customer.DisplayName()),
			data)
	}

	return order, nil
}

func (s *orderServiceImpl) UpdateOrderStatus(ctx context.Context, actor model.Principal, orderID string, status model.OrderStatus) (*model.Order, error) {
	if !status.Valid() {
		return nil, apperr.Validation("unknown order status %q", status)
	}

	var order *model.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.orderRepo.FindByID(ctx, tx, orderID)
		if err != nil {
			if repository.IsNotFound(err) {
				return apperr.NotFound("order not found")
			}
			return fmt.Errorf("find order: %w", err)
		}

		if !current.Status.CanTransitionTo(status) {
			if next, ok := current.Status.Next(); ok {
				return apperr.State("cannot move order from %s to %s, next status is %s", current.Status, status, next)
			}
			return apperr.State("order is already %s", current.Status)
		}
		if current.PaymentMethod == model.PaymentOnline && current.PaymentStatus != model.PaymentPaid {
			return apperr.State("order is awaiting payment")
		}

		if err := s.orderRepo.TransitionStatus(ctx, tx, orderID, current.Status, status, actor.ID); err != nil {
			if errors.Is(err, repository.ErrStaleStatus) {
				return apperr.Conflict("order status was changed by another request")
			}
			return fmt.Errorf("update order status: %w", err)
		}

		order, err = s.orderRepo.FindByID(ctx, tx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order status updated",
		zap.String("order_id", order.ID),
		zap.String("status", string(order.Status)),
		zap.String("changed_by", actor.ID))

	s.notifyStatusChange(ctx, order)
	return order, nil
}

func (s *orderServiceImpl) notifyStatusChange(ctx context.Context, order *model.Order) {
	data := map[string]any{"orderId": order.ID, "status": string(order.Status)}
	s.notifier.Emit(ctx, order.CustomerID, model.NotifyOrder,
		fmt.Sprintf("Your order has been updated to %s", order.Status), data)

	if order.Status != model.StatusDelivered {
		return
	}

	s.notifier.Emit(ctx, order.CustomerID, model.NotifyReview,
		"Your order has been delivered successfully! You can now review it.", data)
	for _, sellerID := range order.SellerIDs() {
		if sellerID == order.CustomerID {
			continue
		}
		s.notifier.Emit(ctx, sellerID, model.NotifyOrder,
			"An order with your cakes has been delivered successfully!", data)
	}
}

func (s *orderServiceImpl) FindOrder(ctx context.Context, orderID string) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, nil, orderID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.NotFound("order not found")
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	return order, nil
}

func (s *orderServiceImpl) GetOrder(ctx context.Context, customerID, orderID string) (*model.Order, error) {
	order, err := s.orderRepo.FindForCustomer(ctx, nil, customerID, orderID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.NotFound("order not found")
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	return order, nil
}

func (s *orderServiceImpl) ListCustomerOrders(ctx context.Context, customerID string) ([]*model.Order, error) {
	return s.orderRepo.ListByCustomer(ctx, customerID)
}

func (s *orderServiceImpl) ListSellerOrders(ctx context.Context, sellerID string) ([]*model.Order, error) {
	return s.orderRepo.ListBySeller(ctx, sellerID)
}

func (s *orderServiceImpl) ListAllOrders(ctx context.Context) ([]*model.Order, error) {
	return s.orderRepo.ListAll(ctx)
}

func (s *orderServiceImpl) SellerSalesStats(ctx context.Context, sellerID string) (*SalesStats, error) {
	orders, err := s.orderRepo.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("list seller orders: %w", err)
	}

	stats := &SalesStats{
		TotalRevenue:     decimal.Zero,
		DeliveredRevenue: decimal.Zero,
		PerCake:          []CakeSales{},
	}
	perCake := map[string]*CakeSales{}

	for _, order := range orders {
		delivered := order.Status == model.StatusDelivered
		stats.TotalOrders++
		if delivered {
			stats.DeliveredOrders++
		}

		for _, it := range order.Items {
			if it.SellerID != sellerID {
				continue
			}
			line := it.LineTotal()
			stats.TotalRevenue = stats.TotalRevenue.Add(line)
			if !delivered {
				continue
			}

			stats.DeliveredRevenue = stats.DeliveredRevenue.Add(line)
			stats.CakesSold += it.Quantity

			cs, ok := perCake[it.CakeID]
			if !ok {
				cs = &CakeSales{CakeID: it.CakeID, CakeName: it.CakeName, Revenue: decimal.Zero}
				perCake[it.CakeID] = cs
			}
			cs.Quantity += it.Quantity
			cs.Revenue = cs.Revenue.Add(line)
		}
	}

	for _, cs := range perCake {
		stats.PerCake = append(stats.PerCake, *cs)
	}
	sort.Slice(stats.PerCake, func(i, j int) bool {
		if stats.PerCake[i].Quantity != stats.PerCake[j].Quantity {
			return stats.PerCake[i].Quantity > stats.PerCake[j].Quantity
		}
		return stats.PerCake[i].CakeID < stats.PerCake[j].CakeID
	})

	return stats, nil
}

// DeleteOrder hard-deletes the order with its lines, history, payment and reviews.
func (s *orderServiceImpl) DeleteOrder(ctx context.Context, orderID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.reviewRepo.DeleteByOrder(ctx, tx, orderID); err != nil {
			return fmt.Errorf("delete order reviews: %w", err)
		}
		if err := s.paymentRepo.DeleteByOrder(ctx, tx, orderID); err != nil {
			return fmt.Errorf("delete order payment: %w", err)
		}
		if err := s.orderRepo.Delete(ctx, tx, orderID); err != nil {
			if repository.IsNotFound(err) {
				return apperr.NotFound("order not found")
			}
			return fmt.Errorf("delete order: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("order deleted", zap.String("order_id", orderID))
	return nil
}
