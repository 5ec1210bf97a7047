package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Skotchmaster/art_shop/internal/cart"
	"github.com/Skotchmaster/art_shop/internal/events"
	"github.com/Skotchmaster/art_shop/internal/httpserver"
	"github.com/Skotchmaster/art_shop/internal/models"
	"github.com/Skotchmaster/art_shop/internal/payment"
	"github.com/Skotchmaster/art_shop/internal/repo"
	"github.com/Skotchmaster/art_shop/internal/search"
	"github.com/Skotchmaster/art_shop/internal/service"
	"github.com/Skotchmaster/art_shop/internal/storage"
	"github.com/Skotchmaster/art_shop/pkg/config"
	pkgdb "github.com/Skotchmaster/art_shop/pkg/db"
	"github.com/Skotchmaster/art_shop/pkg/logging"
	"github.com/Skotchmaster/art_shop/pkg/metrics"
	middleware "github.com/Skotchmaster/art_shop/pkg/middleware/auth"
	"github.com/Skotchmaster/art_shop/pkg/middleware/csrf"
	loggingmw "github.com/Skotchmaster/art_shop/pkg/middleware/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTSecret, "JWT_SECRET")
	cfg.MustProvider()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewServerMetrics(reg, strings.ReplaceAll(cfg.ServiceName, "-", "_"))

	gw, err := payment.New(cfg)
	if err != nil {
		log.Fatalf("payment: %v", err)
	}
	if cfg.PaymentProvider == "stripe" && cfg.StripeWebhookSecret == "" {
		logger.Warn("webhook_signature_disabled", "insecure", true, "reason", "STRIPE_WEBHOOK_SECRET is empty")
	}

	var media service.MediaStore = storage.Disabled{}
	bootCtx, bootCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if s3store, err := storage.NewS3(bootCtx, cfg); err == nil {
		media = s3store
	} else if !errors.Is(err, storage.ErrDisabled) {
		log.Fatalf("s3: %v", err)
	} else {
		logger.Info("object_storage_disabled")
	}

	var (
		indexer  search.Indexer = search.Nop{}
		searcher search.Searcher
	)
	if es, err := search.NewClient(cfg); err == nil {
		idx := search.New(es, cfg.ESIndex)
		if err := idx.EnsureIndex(bootCtx); err != nil {
			logger.Error("search_index_error", "error", err)
		}
		indexer, searcher = idx, idx
	} else if !errors.Is(err, search.ErrDisabled) {
		log.Fatalf("elasticsearch: %v", err)
	} else {
		logger.Info("search_disabled")
	}
	bootCancel()

	pub := events.NewPublisher(cfg.KafkaBrokers)

	r := repo.New(db)
	hub := cart.NewHub(db)
	access := service.NewAccessService(r)
	catalog := service.NewCatalogService(r, media, pub, indexer)
	checkout := service.NewCheckoutService(r, catalog, gw, pub, m, cfg.SiteURL, cfg.PaymentCurrency)
	fulfill := service.NewFulfillmentService(r, pub, indexer, hub, m)

	var csrfCfg *csrf.Config
	if cfg.CSRFEnabled {
		c := csrf.DefaultConfig()
		c.Secure = cfg.SecureCookie
		csrfCfg = &c
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger, m))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{cfg.SiteURL},
		AllowCredentials: true,
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, "X-CSRF-Token", "Idempotency-Key"},
	}))

	httpserver.Register(e, &httpserver.Deps{
		ProductHandler:  &httpserver.ProductHTTP{Svc: catalog, Search: searcher, Currency: cfg.PaymentCurrency},
		CheckoutHandler: &httpserver.CheckoutHTTP{Svc: checkout},
		WebhookHandler:  &httpserver.WebhookHTTP{Svc: service.NewWebhookService(r, gw, fulfill, m)},
		OrderHandler:    &httpserver.OrderHTTP{Svc: service.NewOrderService(r), Currency: cfg.PaymentCurrency},
		CartHandler:     &httpserver.CartHTTP{Hub: hub, Catalog: catalog},
		AuthHandler:     &httpserver.AuthHTTP{Svc: service.NewAuthService(r, access, cfg.JWTSecret, cfg.TokenTTL), SecureCookie: cfg.SecureCookie},
		AdminHandler:    &httpserver.AdminHTTP{Access: access},
		Auth:            middleware.NewAuthenticator(cfg.JWTSecret, cfg.SecureCookie),
		CSRF:            csrfCfg,
		Ready: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		Metrics: metrics.Handler(reg),
	})

	bg, stopBg := context.WithCancel(logging.IntoContext(context.Background(), logger))
	if searcher != nil {
		go func() {
			n, err := catalog.IndexAll(bg)
			if err != nil {
				logger.Error("search_reindex_error", "error", err)
				return
			}
			logger.Info("search_reindexed", "products", n)
		}()
	}
	if cfg.ReconcileInterval > 0 {
		go checkout.RunReconciler(bg, fulfill, cfg.ReconcileInterval, cfg.ReconcileAfter)
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("storefront listening", "addr", srv.Addr, "provider", gw.Name())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	stopBg()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_error", "error", err)
	}
	if err := pub.Close(); err != nil {
		logger.Error("kafka_close_error", "error", err)
	}
	if err := pkgdb.Close(db); err != nil {
		logger.Error("db_close_error", "error", err)
	}

	logger.Info("storefront stopped")
}
