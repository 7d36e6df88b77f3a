package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"orbid_backend/api"
	"orbid_backend/internal/client"
	"orbid_backend/internal/config"
	"orbid_backend/internal/pkg/utils"
	"orbid_backend/internal/repository"
	"orbid_backend/internal/service"
	"orbid_backend/pkg/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(logrus.InfoLevel)

	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize zap logger: %v", err)
	}
	defer zapLogger.Sync()

	slogHandler := zapslog.NewHandler(zapLogger.Core())
	slog.SetDefault(slog.New(slogHandler))

	cfgPath := utils.GetEnv("CONFIG_PATH", "config/config.yaml")
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		log.Warnf("Invalid log level in config: %s. Defaulting to Info.", cfg.Logging.Level)
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	if cfg.Logging.File != "" {
		file, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err == nil {
			log.SetOutput(file)
		} else {
			log.Infof("Failed to log to file, using default stdout: %v", err)
		}
	}

	zapLogger.Info("Configuration loaded", zap.String("path", cfgPath))

	metrics.MustRegisterMetrics()

	// Upstream clients.
	chainClient, err := client.NewChainClient(cfg.Chain.RPCURL,
		time.Duration(cfg.Chain.RPCTimeoutMs)*time.Millisecond, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize chain client", zap.Error(err))
	}
	defer chainClient.Close()

	dexScreenerClient := client.NewDEXScreenerClient(
		cfg.DEXScreener.BaseURL,
		time.Duration(cfg.DEXScreener.RequestTimeoutMillis)*time.Millisecond,
		zapLogger,
		cfg.PriceSvc.MaxTokensPerBatchRequest,
	)
	coinGeckoClient := client.NewCoinGeckoClient(
		cfg.CoinGecko.BaseURL,
		time.Duration(cfg.CoinGecko.RequestTimeoutMillis)*time.Millisecond,
		zapLogger,
	)
	geckoTerminalClient := client.NewGeckoTerminalClient(
		cfg.GeckoTerminal.BaseURL,
		time.Duration(cfg.GeckoTerminal.RequestTimeoutMillis)*time.Millisecond,
		zapLogger,
	)
	worldAppClient := client.NewWorldAppClient(
		cfg.WorldApp.BaseURL,
		cfg.Secrets.WorldAppAPIKey,
		time.Duration(cfg.WorldApp.RequestTimeoutMillis)*time.Millisecond,
		zapLogger,
	)
	brevoClient := client.NewBrevoClient(
		cfg.Brevo.BaseURL,
		cfg.Secrets.BrevoAPIKey,
		cfg.Brevo.SenderName,
		cfg.Brevo.SenderEmail,
		time.Duration(cfg.Brevo.RequestTimeoutMillis)*time.Millisecond,
		zapLogger,
	)
	zapLogger.Info("Upstream clients initialized")

	// Persistence is optional: without DATABASE_URL the ticket and analytics
	// endpoints answer 503 while the read paths keep serving.
	var (
		ticketRepo    repository.TicketRepository
		analyticsRepo repository.AnalyticsRepository
	)
	if cfg.Secrets.DatabaseURL != "" {
		pool, err := repository.NewPool(context.Background(), cfg.Secrets.DatabaseURL, zapLogger)
		if err != nil {
			zapLogger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer pool.Close()
		ticketRepo = repository.NewTicketRepository(pool, zapLogger)
		analyticsRepo = repository.NewAnalyticsRepository(pool, zapLogger)
	} else {
		zapLogger.Warn("DATABASE_URL not set; ticket and analytics endpoints will be unavailable")
	}

	// Services.
	priceService := service.NewPriceService(zapLogger, cfg, dexScreenerClient, coinGeckoClient)
	portfolioService, err := service.NewPortfolioService(zapLogger, cfg, chainClient, priceService)
	if err != nil {
		zapLogger.Fatal("Failed to initialize portfolio service", zap.Error(err))
	}
	historyService := service.NewHistoryService(zapLogger, cfg, chainClient, portfolioService.TrackedTokens())
	marketService := service.NewMarketService(zapLogger, cfg, coinGeckoClient, geckoTerminalClient)
	swapService, err := service.NewSwapService(zapLogger, cfg, priceService)
	if err != nil {
		zapLogger.Fatal("Failed to initialize swap service", zap.Error(err))
	}
	ticketService := service.NewTicketService(zapLogger, ticketRepo, brevoClient)
	analyticsService := service.NewAnalyticsService(zapLogger, analyticsRepo)
	notificationService := service.NewNotificationService(zapLogger, cfg, worldAppClient)
	zapLogger.Info("Services initialized")

	router := gin.New()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Accept-Language", "Authorization"}
	router.Use(cors.New(corsConfig))

	router.Use(api.ZapLoggerMiddleware(zapLogger))
	router.Use(gin.Recovery())

	api.RegisterRoutes(router, api.Handlers{
		Wallet:       api.NewWalletHandler(portfolioService, historyService, zapLogger),
		Market:       api.NewMarketHandler(marketService, portfolioService, zapLogger),
		Swap:         api.NewSwapHandler(swapService, portfolioService, zapLogger),
		Support:      api.NewSupportHandler(ticketService, zapLogger),
		Analytics:    api.NewAnalyticsHandler(analyticsService, zapLogger),
		Notification: api.NewNotificationHandler(notificationService, worldAppClient, cfg, zapLogger),
	}, cfg)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	zapLogger.Info("Prometheus metrics endpoint enabled", zap.String("path", "/metrics"))

	pprofRouter := router.Group("/debug/pprof")
	{
		pprofRouter.GET("/", gin.WrapF(pprof.Index))
		pprofRouter.GET("/cmdline", gin.WrapF(pprof.Cmdline))
		pprofRouter.GET("/profile", gin.WrapF(pprof.Profile))
		pprofRouter.GET("/symbol", gin.WrapF(pprof.Symbol))
		pprofRouter.GET("/trace", gin.WrapF(pprof.Trace))
		pprofRouter.GET("/allocs", gin.WrapH(pprof.Handler("allocs")))
		pprofRouter.GET("/goroutine", gin.WrapH(pprof.Handler("goroutine")))
		pprofRouter.GET("/heap", gin.WrapH(pprof.Handler("heap")))
	}

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		zapLogger.Info(fmt.Sprintf("Server starting on %s", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	zapLogger.Info("Server exited")
}
