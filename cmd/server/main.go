package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"maillot-be/internal/asset"
	"maillot-be/internal/category"
	"maillot-be/internal/config"
	"maillot-be/internal/db"
	"maillot-be/internal/logger"
	"maillot-be/internal/metrics"
	"maillot-be/internal/middleware"
	"maillot-be/internal/notification"
	"maillot-be/internal/order"
	"maillot-be/internal/product"
	"maillot-be/internal/user"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

var (
	initDBFunc      = db.InitDB
	startServerFunc = startServer
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := initDBFunc(cfg)
	defer database.Close()

	handler, shutdown := newServer(cfg, database)
	defer shutdown()

	logger.L().Info("server starting", zap.String("port", cfg.AppPort), zap.String("env", cfg.AppEnv))
	return startServerFunc(":"+cfg.AppPort, handler)
}

type handlers struct {
	order    *order.Handler
	product  *product.Handler
	category *category.Handler
	user     *user.Handler
	asset    *asset.Handler
	metrics  http.Handler
}

// newServer wires the storefront. The returned func drains in-flight
// notifications and releases the broker connection.
func newServer(cfg *config.Config, database *sql.DB) (http.Handler, func()) {
	registry := metrics.NewRegistry()
	notifier, publisher := newNotifier(cfg)
	dispatcher := notification.NewDispatcher(notifier, publisher, notification.DispatcherConfig{
		AdminEmail: cfg.AdminEmail,
		Timeout:    cfg.NotifyTimeout,
		Metrics:    registry,
	})

	productSvc := product.NewService(product.NewRepository(database))
	userSvc := user.NewService(user.NewRepository(database))
	orderSvc := order.NewService(order.NewRepository(database), dispatcher)

	var store asset.Store
	if cfg.CloudinaryURL != "" {
		s, err := asset.NewCloudinaryStore(cfg.CloudinaryURL, cfg.CloudinaryFolder)
		if err != nil {
			logger.L().Warn("image uploads disabled", zap.Error(err))
		} else {
			store = s
		}
	}

	limiter := middleware.NewRateLimiter()
	stop := make(chan struct{})
	go limiter.RunCleanup(time.Minute, stop)

	router := setupRouter(cfg, handlers{
		order:    order.NewHandler(orderSvc),
		product:  product.NewHandler(productSvc),
		category: category.NewHandler(category.NewService(category.NewRepository(database))),
		user:     user.NewHandler(userSvc),
		asset:    asset.NewHandler(store),
		metrics:  registry.Handler(),
	}, limiter)

	return router, func() {
		close(stop)
		dispatcher.Wait()

		snap := registry.Snapshot()
		fields := make([]zap.Field, 0, len(snap))
		for _, name := range registry.Names() {
			fields = append(fields, zap.Uint64(name, snap[name]))
		}
		logger.L().Info("notification totals", fields...)

		if kp, ok := publisher.(*notification.KafkaPublisher); ok {
			if err := kp.Close(); err != nil {
				logger.L().Warn("failed to close kafka producer", zap.Error(err))
			}
		}
	}
}

func newNotifier(cfg *config.Config) (notification.Notifier, notification.Publisher) {
	smtpNotifier := notification.NewSMTPNotifier(notification.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		FromName: cfg.MailFromName,
	})

	var notifier notification.Notifier = notification.NewBreakerNotifier(smtpNotifier, notification.BreakerConfig{
		Name:        "smtp",
		MaxFailures: 5,
		OpenTimeout: 30 * time.Second,
	})
	if cfg.AppEnv != "production" {
		notifier = notification.MultiNotifier{notification.LogNotifier{}, notifier}
	}

	if len(cfg.KafkaBrokers) == 0 {
		return notifier, nil
	}
	kp, err := notification.NewKafkaPublisher(cfg.KafkaBrokers)
	if err != nil {
		logger.L().Warn("order events disabled", zap.Strings("brokers", cfg.KafkaBrokers), zap.Error(err))
		return notifier, nil
	}
	return notifier, kp
}

func setupRouter(cfg *config.Config, h handlers, limiter *middleware.RateLimiter) *mux.Router {
	r := mux.NewRouter()
	r.Use(
		logger.RequestIDMiddleware,
		logger.LoggingMiddleware,
		middleware.CORS(cfg.CORSOrigin),
		middleware.AuthMiddleware,
		limiter.Middleware,
	)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	h.user.RegisterRoutes(api)
	h.product.RegisterRoutes(api, middleware.RequireAdmin)
	h.category.RegisterRoutes(api)
	h.order.RegisterRoutes(api, middleware.RequireAdmin)
	h.asset.RegisterRoutes(api, middleware.RequireAdmin)
	api.Handle("/metrics", middleware.RequireAdmin(h.metrics)).Methods(http.MethodGet)

	// let CORS answer preflights for any API path
	api.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	return r
}

func startServer(addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	logger.L().Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
