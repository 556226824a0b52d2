package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cake-marketplace/internal/client"
	"cake-marketplace/internal/config"
	"cake-marketplace/internal/logger"
	"cake-marketplace/internal/repository"
	"cake-marketplace/internal/server"
	"cake-marketplace/internal/service"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Printf("Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	db, err := client.InitDBClient(cfg.Database)
	if err != nil {
		return err
	}

	gateway, callbackURL, err := newGateway(cfg)
	if err != nil {
		return err
	}

	sinks, closeSinks, err := newSinks(cfg, log)
	if err != nil {
		return err
	}
	defer closeSinks()

	cakeRepo := repository.NewCakeRepository(db)
	cartRepo := repository.NewCartRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	wishlistRepo := repository.NewWishlistRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)

	notificationService := service.NewNotificationService(notificationRepo, log, sinks...)
	catalogService := service.NewCatalogService(cakeRepo, notificationService, log)
	cartService := service.NewCartService(db, cakeRepo, cartRepo, log)
	wishlistService := service.NewWishlistService(cakeRepo, wishlistRepo)
	orderService := service.NewOrderService(
		db, cfg.Store.Currency,
		cakeRepo, cartRepo, orderRepo, paymentRepo, reviewRepo,
		notificationService, log,
	)
	paymentService := service.NewPaymentService(
		db, gateway, service.NewStaticRateProvider(),
		cfg.Payment.Timeout, callbackURL,
		orderRepo, paymentRepo, cartRepo, webhookEventRepo,
		notificationService, log,
	)
	reviewService := service.NewReviewService(db, cakeRepo, orderRepo, reviewRepo, notificationService, log)
	checkoutService := service.NewCheckoutService(gateway.Name(), cartService, orderService, paymentService, log)

	srv := server.NewServer(server.Services{
		Catalog:      catalogService,
		Cart:         cartService,
		Wishlist:     wishlistService,
		Order:        orderService,
		Payment:      paymentService,
		Checkout:     checkoutService,
		Review:       reviewService,
		Notification: notificationService,
	}, cfg.JWT.Secret, log)

	serverAddr := cfg.HTTP.Addr()
	errCh := make(chan error, 1)

	log.Info("starting HTTP server",
		zap.String("addr", serverAddr),
		zap.String("environment", cfg.Environment.Name),
		zap.String("gateway", gateway.Name()))
	go func() {
		if err := srv.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-sigChan:
		log.Info("signal received, starting graceful shutdown", zap.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

func newGateway(cfg *config.Config) (client.PaymentGateway, string, error) {
	switch cfg.Payment.Gateway {
	case "paystack", "":
		callbackURL := cfg.Paystack.CallbackURL
		if callbackURL == "" {
			callbackURL = cfg.BaseURL + "/checkout/verify"
		}
		return client.NewPaystackClient(&cfg.Paystack, cfg.Payment.Timeout), callbackURL, nil
	case "braintree":
		return client.NewBraintreeClient(&cfg.BrainTree, cfg.BaseURL+"/checkout/braintree"), "", nil
	default:
		return nil, "", fmt.Errorf("unsupported payment gateway %q", cfg.Payment.Gateway)
	}
}

// newSinks connects the optional Redis and RabbitMQ notification sinks.
func newSinks(cfg *config.Config, log *zap.Logger) ([]service.NotificationSink, func(), error) {
	var (
		sinks   []service.NotificationSink
		closers []func() error
	)
	closeAll := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				log.Warn("close notification sink", zap.Error(err))
			}
		}
	}

	if cfg.Redis.Addr != "" {
		rc, err := client.InitRedisClient(&cfg.Redis)
		if err != nil {
			return nil, closeAll, err
		}
		closers = append(closers, rc.Close)
		sinks = append(sinks, service.NewRedisSink(rc, cfg.Redis.Channel))
		log.Info("redis notification sink enabled", zap.String("channel", cfg.Redis.Channel))
	}

	if cfg.RabbitMQ.URL != "" {
		conn, err := client.InitRabbitMQClient(&cfg.RabbitMQ)
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		closers = append(closers, conn.Close)
		sink, err := service.NewAMQPSink(conn, cfg.RabbitMQ.Exchange)
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		sinks = append(sinks, sink)
		log.Info("rabbitmq notification sink enabled", zap.String("exchange", cfg.RabbitMQ.Exchange))
	}

	return sinks, closeAll, nil
}
