package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"cadastre-backend-go/internal/api"
	"cadastre-backend-go/internal/config"
	"cadastre-backend-go/internal/core"
	"cadastre-backend-go/internal/db"
	"cadastre-backend-go/internal/documents"
	"cadastre-backend-go/internal/geoserver"
	"cadastre-backend-go/internal/identity"
	"cadastre-backend-go/internal/middleware"
	"cadastre-backend-go/internal/popup"
	"cadastre-backend-go/internal/search"
	"cadastre-backend-go/pkg/cache"
	"cadastre-backend-go/pkg/mailer"
	"cadastre-backend-go/pkg/messagequeue"
)

func main() {
	// --- 1. Load Application Configuration ---
	appConfig, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to load application configuration: %v", err)
	}

	// --- 2. Initialize Logger (Zap) ---
	zapLogger, err := newLogger(appConfig)
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()
	zapLogger.Info("Application configuration loaded successfully.")

	// --- 3. Initialize Firebase Admin SDK (Firestore and Auth clients) ---
	initCtx, cancelInitCtx := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInitCtx()
	if err := db.InitFirestore(initCtx, appConfig, zapLogger); err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize Firestore and Firebase Admin SDK", zap.Error(err))
	}
	defer db.Close()

	firestoreClient := db.GetFirestoreClient()
	firebaseAuthClient := db.GetFirebaseAuthClient()
	if firestoreClient == nil || firebaseAuthClient == nil {
		zapLogger.Fatal("CRITICAL_ERROR: Firebase clients are nil after initialization. Application cannot start.")
	}

	// --- 4. Initialize Repositories ---
	userRepo := db.NewFirestoreUserRepository(firestoreClient, zapLogger)
	prefsRepo := db.NewFirestorePreferencesRepository(firestoreClient)
	auditRepo := db.NewFirestoreAuditRepository(firestoreClient)

	// --- 5. Initialize Infrastructure ---
	catalogCache := newCache(initCtx, appConfig, zapLogger)

	var publisher messagequeue.Publisher = messagequeue.NopPublisher{}
	if appConfig.AMQPURL != "" {
		rabbit, err := messagequeue.NewRabbitMQService(messagequeue.NewRabbitMQServiceConfig{URL: appConfig.AMQPURL}, zapLogger)
		if err != nil {
			zapLogger.Warn("RabbitMQ unavailable, audit fan-out disabled", zap.Error(err))
		} else {
			publisher = rabbit
		}
	}

	mail := mailer.New(mailer.Config{
		Host:   appConfig.SMTPHost,
		Port:   appConfig.SMTPPort,
		User:   appConfig.SMTPUser,
		Pass:   appConfig.SMTPPass,
		Sender: appConfig.MailSender,
	})
	if !mail.Enabled() {
		zapLogger.Warn("SMTP_HOST not configured, provisioning mail disabled")
	}

	geo := geoserver.NewClient(geoserver.Config{
		Base:        appConfig.GeoServerBase,
		Workspace:   appConfig.GeoServerWorkspace,
		LayerPrefix: appConfig.GeoServerLayerPrefix,
	}, nil, zapLogger)

	fields := popup.DefaultCatalog()
	if appConfig.FieldCatalogPath != "" {
		fields, err = popup.LoadCatalog(appConfig.FieldCatalogPath)
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Failed to load field catalog", zap.String("path", appConfig.FieldCatalogPath), zap.Error(err))
		}
	}
	renderer := popup.NewRenderer(fields)

	var geocoder search.Geocoder
	if appConfig.MapboxToken != "" {
		geocoder = search.NewMapboxGeocoder(search.MapboxConfig{
			Token:    appConfig.MapboxToken,
			Language: appConfig.GeocoderLanguage,
		}, nil, zapLogger)
	} else {
		zapLogger.Warn("MAPBOX_TOKEN not configured, address search disabled")
	}
	suggester := search.NewSuggester(geocoder, search.DefaultDebounce, zapLogger)

	resolver := documents.NewResolver(appConfig.ExpedienteBase, nil, zapLogger)
	proxy := documents.NewProxy(appConfig.AllowedProxyHosts(), nil)

	// --- 6. Initialize Services ---
	auditService := core.NewAuditService(auditRepo, publisher, appConfig.AuditQueue, zapLogger)
	sessionService := core.NewSessionService(userRepo, zapLogger)
	permService := core.NewPermissionService(appConfig.GeoServerWorkspace)
	prefsService := core.NewPreferencesService(prefsRepo, zapLogger)
	catalogService := core.NewCatalogService(geo, catalogCache, appConfig.CatalogCacheTTL, zapLogger)
	mapService := core.NewMapService(geo, catalogService, permService, prefsService, renderer, zapLogger)
	searchService := core.NewSearchService(catalogService, permService, prefsService, suggester, geocoder, renderer, zapLogger)
	streetViewService := core.NewStreetViewService(appConfig.GoogleMapsAPIKey)
	documentService := core.NewDocumentService(resolver, permService, zapLogger)
	adminService := core.NewAdminService(core.AdminDeps{
		Users:     userRepo,
		Prefs:     prefsRepo,
		Directory: identity.NewFirebaseDirectory(firebaseAuthClient),
		Audit:     auditService,
		Notifier:  mail,
		Fields:    fields,
		ClientURL: appConfig.ClientURL,
	}, zapLogger)
	zapLogger.Info("Core services initialized successfully.")

	// Warm the catalog so the first viewer does not pay for it.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := catalogService.FeatureIndex(ctx); err != nil {
			zapLogger.Warn("Initial feature index load failed", zap.Error(err))
		}
	}()

	// --- 7. Setup Gin HTTP Engine ---
	if appConfig.IsRelease() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()

	// --- 8. Apply Global Middleware (Order is important) ---
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(zapLogger))
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	router.Use(middleware.CORSMiddleware(appConfig))

	// --- 9. Setup API Routes ---
	api.SetupRoutes(
		router,
		middleware.NewAuthMiddleware(firebaseAuthClient, zapLogger),
		middleware.SessionGate(sessionService, zapLogger),
		api.Handlers{
			Session:     api.NewSessionHandler(permService, zapLogger),
			Preferences: api.NewPreferencesHandler(prefsService, permService, catalogService, zapLogger),
			Map:         api.NewMapHandler(catalogService, permService, mapService, appConfig.GeoServerWorkspace, zapLogger),
			Search:      api.NewSearchHandler(searchService, zapLogger),
			StreetView:  api.NewStreetViewHandler(streetViewService, zapLogger),
			Documents:   api.NewDocumentHandler(documentService, proxy, zapLogger),
			Admin:       api.NewAdminHandler(adminService, zapLogger),
		},
		zapLogger,
	)

	// --- 10. Configure and Start HTTP Server ---
	serverAddr := fmt.Sprintf(":%s", appConfig.Port)
	httpServer := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	zapLogger.Info("Starting HTTP server...", zap.String("address", serverAddr), zap.String("ginMode", gin.Mode()))
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// --- 11. Graceful Shutdown Handling ---
	quitChannel := make(chan os.Signal, 1)
	signal.Notify(quitChannel, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quitChannel
	zapLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	closeResources(zapLogger, catalogCache, publisher)
	zapLogger.Info("Server exiting gracefully.")
}

// newLogger builds a development logger in debug mode and a JSON production
// logger otherwise, both at LOG_LEVEL.
func newLogger(appConfig *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(appConfig.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", appConfig.LogLevel, err)
	}
	zapConfig := zap.NewDevelopmentConfig()
	if appConfig.IsRelease() {
		zapConfig = zap.NewProductionConfig()
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)
	return zapConfig.Build()
}

// closeResources closes every resource that holds a connection. Values that are
// not io.Closers, such as the in-memory cache, are skipped.
func closeResources(logger *zap.Logger, resources ...interface{}) {
	for _, r := range resources {
		c, ok := r.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			logger.Warn("Failed to close resource", zap.String("type", fmt.Sprintf("%T", r)), zap.Error(err))
		}
	}
}

// newCache returns a Redis cache when REDIS_ADDR is set and reachable, and an
// in-process cache otherwise.
func newCache(ctx context.Context, appConfig *config.Config, logger *zap.Logger) cache.Cache {
	if appConfig.RedisAddr == "" {
		logger.Info("REDIS_ADDR not configured, using in-memory catalog cache")
		return cache.NewMemoryCache()
	}
	rc, err := cache.NewRedisCache(ctx, cache.NewRedisCacheConfig{
		Address:  appConfig.RedisAddr,
		Password: appConfig.RedisPassword,
		DB:       appConfig.RedisDB,
		Prefix:   "cadastre:",
	}, logger)
	if err != nil {
		logger.Warn("Redis unavailable, using in-memory catalog cache", zap.Error(err))
		return cache.NewMemoryCache()
	}
	return rc
}
