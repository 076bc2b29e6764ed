package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/cave-storefront/config"
	"github.com/fekuna/cave-storefront/internal/auth"
	"github.com/fekuna/cave-storefront/internal/feed"
	"github.com/fekuna/cave-storefront/internal/middleware"
	"github.com/fekuna/cave-storefront/internal/notification"
	"github.com/fekuna/cave-storefront/internal/product"
	"github.com/fekuna/cave-storefront/internal/synclog"
	"github.com/fekuna/cave-storefront/internal/vat"
	"github.com/fekuna/cave-storefront/pkg/broker"
	"github.com/fekuna/cave-storefront/pkg/cache"
	"github.com/fekuna/cave-storefront/pkg/database/postgres"
	"github.com/fekuna/cave-storefront/pkg/i18n"
	"github.com/fekuna/cave-storefront/pkg/logger"
	"github.com/fekuna/cave-storefront/pkg/mail"
	"github.com/fekuna/cave-storefront/pkg/merchant"
	"github.com/fekuna/cave-storefront/pkg/meta"
	"github.com/fekuna/cave-storefront/pkg/payment"
	"github.com/fekuna/cave-storefront/pkg/search"
	"github.com/fekuna/cave-storefront/pkg/storage"

	cartH "github.com/fekuna/cave-storefront/internal/cart/handler"
	cartRepoPkg "github.com/fekuna/cave-storefront/internal/cart/repository"
	cartUCPkg "github.com/fekuna/cave-storefront/internal/cart/usecase"

	feedH "github.com/fekuna/cave-storefront/internal/feed/handler"
	feedUCPkg "github.com/fekuna/cave-storefront/internal/feed/usecase"

	inqH "github.com/fekuna/cave-storefront/internal/inquiry/handler"
	inqRepoPkg "github.com/fekuna/cave-storefront/internal/inquiry/repository"
	inqUCPkg "github.com/fekuna/cave-storefront/internal/inquiry/usecase"

	invH "github.com/fekuna/cave-storefront/internal/inventory/handler"
	invRepoPkg "github.com/fekuna/cave-storefront/internal/inventory/repository"
	invUCPkg "github.com/fekuna/cave-storefront/internal/inventory/usecase"

	notifListenerPkg "github.com/fekuna/cave-storefront/internal/notification/listener"

	orderH "github.com/fekuna/cave-storefront/internal/order/handler"
	orderRepoPkg "github.com/fekuna/cave-storefront/internal/order/repository"
	orderUCPkg "github.com/fekuna/cave-storefront/internal/order/usecase"

	prodH "github.com/fekuna/cave-storefront/internal/product/handler"
	prodRepoPkg "github.com/fekuna/cave-storefront/internal/product/repository"
	prodUCPkg "github.com/fekuna/cave-storefront/internal/product/usecase"

	siteH "github.com/fekuna/cave-storefront/internal/site/handler"
	syncRepoPkg "github.com/fekuna/cave-storefront/internal/synclog/repository"
	vatH "github.com/fekuna/cave-storefront/internal/vat/handler"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()

	// 1.5 Initialize i18n
	translator := i18n.MustNew()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             "info",
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.Server.AppEnv == "development" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = cfg.Logger.Encoding
		logConfig.Level = cfg.Logger.Level
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Connect to Database
	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	// 4. Initialize Repositories
	prodRepo := prodRepoPkg.NewPGRepository(db)
	invRepo := invRepoPkg.NewPGRepository(db)
	cartRepo := cartRepoPkg.NewPGRepository(db)
	orderRepo := orderRepoPkg.NewPGRepository(db)
	inqRepo := inqRepoPkg.NewPGRepository(db)
	profiles := auth.NewProfileRepository(db)
	syncLogs := synclog.NewRecorder(syncRepoPkg.NewPGRepository(db), appLogger)

	// 5. Initialize Redis
	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))

	// 5.5 Initialize Kafka
	kafkaCfg := &broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
		GroupID: cfg.Kafka.GroupID,
	}
	kafkaProducer := broker.NewProducer(kafkaCfg)
	defer kafkaProducer.Close()
	kafkaConsumer := broker.NewConsumer(kafkaCfg)
	defer kafkaConsumer.Close()
	appLogger.Info("Connected to Kafka", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))

	// 5.8 Initialize Elasticsearch
	var searcher prodUCPkg.Searcher
	esClient, err := search.NewClient(&search.Config{
		Addresses: cfg.Elastic.Addresses,
		Username:  cfg.Elastic.Username,
		Password:  cfg.Elastic.Password,
	})
	if err != nil {
		appLogger.Warn("Could not connect to Elasticsearch (search falls back to Postgres)", zap.Error(err))
	} else {
		searcher = esClient
		appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
	}

	// 5.9 Initialize third-party clients
	imageStore := newImageStore(ctx, cfg, appLogger)

	var payments orderUCPkg.PaymentProvider
	if cfg.Payment.MollieAPIKey != "" {
		payments = payment.NewMollieClient(&payment.Config{
			APIKey:  cfg.Payment.MollieAPIKey,
			BaseURL: cfg.Payment.MollieBaseURL,
		})
	} else {
		appLogger.Warn("Mollie API key not set, orders are created without payment")
	}

	var emailClient notification.EmailClient = mail.NewLogClient(appLogger)
	if cfg.Mail.SendGridAPIKey != "" {
		emailClient = mail.NewSendGridClient(cfg.Mail.SendGridAPIKey, cfg.Mail.FromAddress, cfg.Mail.FromName)
	} else {
		appLogger.Warn("SendGrid API key not set, emails are only logged")
	}
	mailer := notification.NewMailer(emailClient, translator, cfg.Shop.Name, cfg.Mail.StaffInbox, syncLogs, appLogger)

	metaClient := meta.NewCatalogClient(&meta.Config{
		GraphBaseURL: cfg.Meta.GraphBaseURL,
		APIVersion:   cfg.Meta.APIVersion,
		CatalogID:    cfg.Meta.CatalogID,
		AccessToken:  cfg.Meta.AccessToken,
	})

	var merchantCenter feedUCPkg.MerchantCenter
	if cfg.Google.MerchantID != 0 {
		contentClient, err := merchant.NewContentClient(ctx, &merchant.Config{
			MerchantID:      cfg.Google.MerchantID,
			CredentialsFile: cfg.Google.CredentialsFile,
			TargetCountry:   cfg.Google.TargetCountry,
			ContentLanguage: cfg.Google.ContentLanguage,
		})
		if err != nil {
			appLogger.Warn("Could not create Content API client (Google Shopping sync disabled)", zap.Error(err))
		} else {
			merchantCenter = contentClient
		}
	}

	shipping := vat.ShippingRules{
		HomeCountry:        cfg.Shop.DefaultCountry,
		DomesticCents:      cfg.Shop.ShippingDomesticCents,
		EUCents:            cfg.Shop.ShippingEUCents,
		FreeThresholdCents: cfg.Shop.FreeShippingThresholdCents,
	}

	// 6. Initialize UseCases
	invUC := invUCPkg.NewInventoryUseCase(invRepo, redisClient, redisClient, appLogger)
	prodUC := prodUCPkg.NewProductUseCase(prodRepo, redisClient, searcher, cfg.Elastic.Index, invUC, imageStore, cfg.Shop.VendorBaseURL, appLogger)
	cartUC := cartUCPkg.NewCartUseCase(cartRepo, prodRepo, appLogger)
	orderUC := orderUCPkg.NewOrderUseCase(orderRepo, cartRepo, payments, kafkaProducer, syncLogs, orderUCPkg.Config{
		Shipping:    shipping,
		ShopName:    cfg.Shop.Name,
		RedirectURL: cfg.Payment.RedirectURL,
		WebhookURL:  cfg.Payment.WebhookURL,
	}, appLogger)
	inqUC := inqUCPkg.NewInquiryUseCase(inqRepo, mailer, appLogger)
	feedUC := feedUCPkg.NewFeedUseCase(prodRepo, metaClient, merchantCenter, syncLogs, feedUCPkg.Config{
		Builder: feed.Builder{
			PublicBaseURL: cfg.Server.PublicBaseURL,
			ShopName:      cfg.Shop.Name,
			ImageBaseURL:  cfg.Shop.VendorBaseURL,
		},
		MetaLocale:      i18n.DefaultLocale,
		ContentLanguage: cfg.Google.ContentLanguage,
		TargetCountry:   cfg.Google.TargetCountry,
	}, appLogger)

	// 6.5 Initialize Listeners
	orderListener := notifListenerPkg.NewOrderListener(kafkaConsumer, mailer, appLogger)
	go orderListener.Start(ctx)

	// 7. Initialize Handlers
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.Recovery(appLogger), middleware.CORS(cfg.Server.AllowedOrigins))

	verifier := auth.NewVerifier(cfg.JWT.SecretKey)
	api := router.Group("/api", middleware.RequestLogger(appLogger), middleware.Locale(translator))
	customer := api.Group("", middleware.Authenticate(verifier, true))
	adminGuard := []gin.HandlerFunc{middleware.Authenticate(verifier, true), middleware.RequireAdmin(profiles, appLogger)}
	admin := api.Group("/admin", adminGuard...)
	feedAdmin := api.Group("", adminGuard...)
	contactGuard := middleware.RateLimit(redisClient, "contact", 5, 10*time.Minute, appLogger)

	siteH.NewSiteHandler(cfg.Server.PublicBaseURL, cfg.IsProduction(), map[string]siteH.Check{
		"postgres": db.PingContext,
		"redis":    redisClient.Ping,
	}, appLogger).RegisterRoutes(router, api)
	prodH.NewProductHandler(prodUC, appLogger).RegisterRoutes(api, admin)
	invH.NewInventoryHandler(invUC, appLogger).RegisterRoutes(admin)
	cartH.NewCartHandler(cartUC, appLogger).RegisterRoutes(customer)
	orderH.NewOrderHandler(orderUC, appLogger).RegisterRoutes(api, customer)
	vatH.NewVATHandler(shipping).RegisterRoutes(api)
	inqH.NewInquiryHandler(inqUC, appLogger).RegisterRoutes(api, admin, contactGuard)
	feedH.NewFeedHandler(feedUC, appLogger).RegisterRoutes(api, feedAdmin)

	httpServer := &http.Server{
		Addr:              listenAddr(cfg.Server.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 8. Start gRPC health server
	lis, err := net.Listen("tcp", listenAddr(cfg.Server.GRPCPort))
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)
	go watchReadiness(ctx, healthServer, db.PingContext, redisClient.Ping)

	go func() {
		appLogger.Info("Starting gRPC health server", zap.String("addr", lis.Addr().String()))
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve gRPC", zap.Error(err))
		}
	}()

	go func() {
		appLogger.Info("Starting HTTP server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("failed to serve HTTP", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	healthServer.Shutdown()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP shutdown failed", zap.Error(err))
	}
	grpcServer.GracefulStop()
	appLogger.Info("Server stopped")
}

func listenAddr(port string) string {
	if !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}

// newImageStore returns nil when no bucket is configured; uploads then fail
// with an internal error while the rest of the admin keeps working.
func newImageStore(ctx context.Context, cfg *config.Config, log logger.ZapLogger) product.ImageStore {
	if cfg.Storage.Bucket == "" {
		log.Warn("GCS bucket not set, image upload disabled")
		return nil
	}
	store, err := storage.NewGCSStore(ctx, &storage.Config{
		Bucket:          cfg.Storage.Bucket,
		PublicBaseURL:   cfg.Storage.PublicBaseURL,
		CredentialsFile: cfg.Google.CredentialsFile,
	})
	if err != nil {
		log.Warn("Could not create GCS client, image upload disabled", zap.Error(err))
		return nil
	}
	return store
}

// watchReadiness flips the gRPC health status with the database and Redis.
func watchReadiness(ctx context.Context, hs *health.Server, checks ...siteH.Check) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		status := healthpb.HealthCheckResponse_SERVING
		for _, check := range checks {
			checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			err := check(checkCtx)
			cancel()
			if err != nil {
				status = healthpb.HealthCheckResponse_NOT_SERVING
				break
			}
		}
		hs.SetServingStatus("", status)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
