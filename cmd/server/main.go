package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coderkeshav-yt/naturalpuff/config"
	"github.com/coderkeshav-yt/naturalpuff/internal/api"
	"github.com/coderkeshav-yt/naturalpuff/internal/broker"
	"github.com/coderkeshav-yt/naturalpuff/internal/payment"
	"github.com/coderkeshav-yt/naturalpuff/internal/redisclient"
	"github.com/coderkeshav-yt/naturalpuff/internal/service"
	"github.com/coderkeshav-yt/naturalpuff/internal/shipping"
	"github.com/coderkeshav-yt/naturalpuff/internal/store"
	"github.com/coderkeshav-yt/naturalpuff/internal/util"
	"github.com/coderkeshav-yt/naturalpuff/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting checkout service")

	tp, err := util.InitTracer("naturalpuff-checkout", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Error("Error shutting down tracer", zap.Error(err))
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.Migrate(migrateCtx); err != nil {
		migrateCancel()
		log.Fatalf("Failed to migrate database: %v", err)
	}
	migrateCancel()
	logger.Info("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	logger.Info("Redis connected")

	orderProducer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder)
	defer orderProducer.Close()
	paymentProducer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicPayment)
	defer paymentProducer.Close()
	deadLetterProducer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicDLQ)
	defer deadLetterProducer.Close()
	logger.Info("Kafka producers initialized",
		zap.String("order_topic", cfg.Kafka.TopicOrder),
		zap.String("payment_topic", cfg.Kafka.TopicPayment))

	eventPublisher := broker.NewEventPublisher(orderProducer, paymentProducer)

	httpClient := &http.Client{Timeout: time.Duration(cfg.Business.HTTPClientTimeoutSeconds) * time.Second}

	razorpay := payment.NewRazorpayClient(cfg.Razorpay.APIBaseURL, cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret, httpClient)
	var orderCreator payment.RemoteOrderCreator = razorpay
	if cfg.Razorpay.FunctionURL != "" {
		orderCreator = payment.NewFunctionClient(cfg.Razorpay.FunctionURL, httpClient)
		logger.Info("Gateway orders routed through function", zap.String("url", cfg.Razorpay.FunctionURL))
	}

	gateway := payment.NewGateway(
		payment.NewScriptLoader(payment.HTTPScriptSource(httpClient, cfg.Razorpay.ScriptURL)),
		orderCreator,
		payment.GatewayConfig{
			KeyID:           cfg.Razorpay.KeyID,
			StoreName:       cfg.Business.StoreName,
			ThemeColor:      cfg.Razorpay.ThemeColor,
			ScriptURL:       cfg.Razorpay.ScriptURL,
			CheckoutTimeout: time.Duration(cfg.Business.PaymentTimeoutSeconds) * time.Second,
		},
	)

	shipper := shipping.NewClient(cfg.Shipping.BaseURL, cfg.Shipping.APIToken, cfg.Shipping.PickupPincode, httpClient)

	reconciler := service.NewPaymentReconciler(db, gateway, eventPublisher)
	checkout := service.NewCheckoutOrchestrator(
		redisClient,
		db,
		db,
		service.NewCouponValidator(db),
		gateway,
		shipper,
		eventPublisher,
		reconciler,
		service.CheckoutConfig{
			Currency:              cfg.Business.Currency,
			KeySecret:             cfg.Razorpay.KeySecret,
			SessionTTL:            time.Duration(cfg.Business.CheckoutSessionTTLSeconds) * time.Second,
			LockTTL:               time.Minute,
			PickupLocation:        cfg.Shipping.PickupLocation,
			PackageWeight:         cfg.Shipping.PackageWeight,
			RollbackOnItemFailure: cfg.Business.RollbackOrderOnItemFailure,
		},
	)
	webhooks := service.NewWebhookService(cfg.Razorpay.WebhookSecret, redisClient, 24*time.Hour, eventPublisher)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	// Warm the checkout script so the first shopper does not wait for it
	go gateway.Initialize(workerCtx)

	paymentConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicPayment, cfg.Kafka.ConsumerGroup)
	paymentWorker := worker.NewPaymentWorker(paymentConsumer, reconciler, deadLetterProducer, broker.DefaultRetryPolicy)
	go func() {
		if err := paymentWorker.Start(workerCtx); err != nil && err != context.Canceled {
			logger.Error("Payment worker error", zap.Error(err))
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(api.Options{
		Checkout:     checkout,
		Orders:       service.NewOrderService(db),
		Coupons:      service.NewCouponAdmin(db),
		Products:     service.NewProductAdmin(db),
		Webhooks:     webhooks,
		Script:       gateway,
		OrderCreator: razorpay,
		Checks: map[string]api.ReadinessCheck{
			"postgres": db.Ping,
			"redis":    redisClient.Ping,
		},
		AdminToken: cfg.Admin.APIToken,
	})
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if err := paymentWorker.Stop(); err != nil {
		logger.Error("Error stopping payment worker", zap.Error(err))
	}
	if pending := gateway.Pending(); pending > 0 {
		logger.Warn("Exiting with checkouts still open", zap.Int("pending", pending))
	}

	logger.Info("Server exited")
}
