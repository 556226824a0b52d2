package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"cake-marketplace/internal/apperr"
	"cake-marketplace/internal/dto"
	"cake-marketplace/internal/handler"
	appmw "cake-marketplace/internal/middleware"
	"cake-marketplace/internal/model"
	"cake-marketplace/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

type Services struct {
	Catalog      service.CatalogService
	Cart         service.CartService
	Wishlist     service.WishlistService
	Order        service.OrderService
	Payment      service.PaymentService
	Checkout     service.CheckoutService
	Review       service.ReviewService
	Notification service.NotificationService
}

type Server struct {
	echo   *echo.Echo
	logger *zap.Logger
	auth   echo.MiddlewareFunc

	cakeHandler         *handler.CakeHandler
	cartHandler         *handler.CartHandler
	orderHandler        *handler.OrderHandler
	checkoutHandler     *handler.CheckoutHandler
	paymentHandler      *handler.PaymentHandler
	reviewHandler       *handler.ReviewHandler
	notificationHandler *handler.NotificationHandler
}

func NewServer(svc Services, jwtSecret string, logger *zap.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(logger)

	e.Use(requestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		echo:   e,
		logger: logger,
		auth:   appmw.AuthMiddleware(jwtSecret),

		cakeHandler:         handler.NewCakeHandler(svc.Catalog, svc.Review),
		cartHandler:         handler.NewCartHandler(svc.Cart, svc.Wishlist),
		orderHandler:        handler.NewOrderHandler(svc.Order),
		checkoutHandler:     handler.NewCheckoutHandler(svc.Checkout, svc.Payment),
		paymentHandler:      handler.NewPaymentHandler(svc.Payment, logger),
		reviewHandler:       handler.NewReviewHandler(svc.Review),
		notificationHandler: handler.NewNotificationHandler(svc.Notification),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")
	auth := s.auth
	customer := appmw.RequireRole(model.RoleCustomer, model.RoleAdmin)
	seller := appmw.RequireRole(model.RoleSeller, model.RoleAdmin)

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// -------- catalog --------
	api.GET("/cakes", s.cakeHandler.ListCakes)
	api.GET("/cakes/mine", s.cakeHandler.ListMyCakes, auth, seller)
	api.GET("/cakes/:id", s.cakeHandler.GetCake)
	api.GET("/cakes/:id/reviews", s.cakeHandler.GetCakeReviews)
	api.POST("/cakes", s.cakeHandler.CreateCake, auth, seller)
	api.PUT("/cakes/:id", s.cakeHandler.UpdateCake, auth, seller)
	api.DELETE("/cakes/:id", s.cakeHandler.DeleteCake, auth, seller)

	// -------- cart / wishlist --------
	cart := api.Group("/cart", auth, customer)
	cart.GET("", s.cartHandler.GetCart)
	cart.POST("/items", s.cartHandler.AddItem)
	cart.DELETE("/items/:cakeId", s.cartHandler.RemoveItem)
	cart.DELETE("", s.cartHandler.Clear)

	wishlist := api.Group("/wishlist", auth)
	wishlist.GET("", s.cartHandler.GetWishlist)
	wishlist.POST("/items", s.cartHandler.AddToWishlist)
	wishlist.DELETE("/items/:cakeId", s.cartHandler.RemoveFromWishlist)

	// -------- orders --------
	orders := api.Group("/orders", auth)
	orders.POST("", s.orderHandler.PlaceOrder, customer)
	orders.GET("/mine", s.orderHandler.ListMyOrders)
	orders.GET("/seller", s.orderHandler.ListSellerOrders, seller)
	orders.GET("/seller/stats", s.orderHandler.SellerStats, seller)
	orders.GET("/:id", s.orderHandler.GetOrder)
	orders.PATCH("/:id/status", s.orderHandler.UpdateStatus, seller)

	admin := api.Group("/admin", auth, appmw.RequireRole(model.RoleAdmin))
	admin.GET("/orders", s.orderHandler.ListAllOrders)
	admin.DELETE("/orders/:id", s.orderHandler.DeleteOrder)

	// -------- checkout --------
	api.GET("/checkout/payment-options", s.checkoutHandler.PaymentOptions)
	api.GET("/checkout/verify/:reference", s.checkoutHandler.Verify)
	api.GET("/checkout/cart-summary", s.checkoutHandler.CartSummary, auth, customer)
	api.POST("/checkout", s.checkoutHandler.Checkout, auth, customer)
	api.GET("/checkout/orders/:id/status", s.checkoutHandler.OrderStatus, auth)
	api.POST("/checkout/orders/:id/pay", s.checkoutHandler.RetryPayment, auth, customer)

	// -------- payments --------
	api.POST("/payments/webhook", s.paymentHandler.Webhook)
	api.POST("/payments/braintree/charge", s.paymentHandler.ChargeNonce, auth, customer)
	api.GET("/payments/:id", s.paymentHandler.GetPayment, auth)

	// -------- reviews --------
	api.GET("/reviews", s.reviewHandler.ListRecent)
	api.POST("/reviews", s.reviewHandler.AddReview, auth, customer)
	api.GET("/reviews/mine", s.reviewHandler.ListMine, auth)
	api.GET("/reviews/seller", s.reviewHandler.ListSeller, auth, seller)
	api.GET("/reviews/seller-orders", s.reviewHandler.ListSellerOrders, auth, seller)
	api.DELETE("/reviews/:id", s.reviewHandler.DeleteReview, auth)

	// -------- notifications --------
	notifications := api.Group("/notifications", auth)
	notifications.GET("", s.notificationHandler.List)
	notifications.PATCH("/read-all", s.notificationHandler.MarkAllRead)
	notifications.PATCH("/:id/read", s.notificationHandler.MarkRead)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

var statusByKind = map[apperr.Kind]int{
	apperr.KindValidation:   http.StatusBadRequest,
	apperr.KindConflict:     http.StatusConflict,
	apperr.KindNotFound:     http.StatusNotFound,
	apperr.KindGateway:      http.StatusBadGateway,
	apperr.KindState:        http.StatusUnprocessableEntity,
	apperr.KindForbidden:    http.StatusForbidden,
	apperr.KindUnauthorized: http.StatusUnauthorized,
}

var kindByStatus = map[int]apperr.Kind{
	http.StatusBadRequest:          apperr.KindValidation,
	http.StatusNotFound:            apperr.KindNotFound,
	http.StatusMethodNotAllowed:    apperr.KindNotFound,
	http.StatusUnauthorized:        apperr.KindUnauthorized,
	http.StatusForbidden:           apperr.KindForbidden,
	http.StatusConflict:            apperr.KindConflict,
	http.StatusUnprocessableEntity: apperr.KindState,
}

func errorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := renderError(err)
		if status >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", status),
				zap.Error(err))
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			logger.Warn("write error response", zap.Error(err))
		}
	}
}

func renderError(err error) (int, dto.ErrorResponse) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		kind, ok := kindByStatus[he.Code]
		if !ok {
			kind = apperr.KindInternal
		}
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok && m != "" {
			msg = m
		} else if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
		return he.Code, dto.ErrorResponse{Error: dto.ErrorBody{Kind: string(kind), Message: msg}}
	}

	kind := apperr.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	return status, dto.ErrorResponse{
		Error: dto.ErrorBody{
			Kind:      string(kind),
			Message:   apperr.Message(err),
			Retryable: apperr.IsRetryable(err),
		},
	}
}

func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
			}
			if v.RequestID != "" {
				fields = append(fields, zap.String("request_id", v.RequestID))
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
				logger.Warn("request", fields...)
				return nil
			}
			logger.Info("request", fields...)
			return nil
		},
	})
}
