package main

import (
	"log"
	"time"

	"github.com/fasthttp/router"
	"github.com/joho/godotenv"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"eventpulse/internal/analytics"
	"eventpulse/internal/cache"
	"eventpulse/internal/config"
	"eventpulse/internal/db"
	"eventpulse/internal/http/handlers"
	appmw "eventpulse/internal/http/middleware"
	"eventpulse/internal/keys"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	gdb, err := db.Connect(cfg)
	if err != nil {
		logger.Fatal("failed to connect database", zap.Error(err))
	}

	db.StartRetentionWorker(gdb, cfg.RetentionDays, logger)

	summaryCache, err := cache.New(cfg.RedisURL, logger)
	if err != nil {
		logger.Fatal("failed to initialize summary cache", zap.Error(err))
	}
	defer summaryCache.Close()

	keySvc := keys.NewService(gdb, keys.NewValidationCache(cfg.KeyCacheTTL), logger)
	engine := analytics.NewEngine(gdb, summaryCache, cfg.SummaryCacheTTL, logger)

	handlers.RegisterMetrics()
	analytics.RegisterMetrics()

	r := router.New()

	r.GET("/api/health", handlers.Health())
	r.GET("/metrics", handlers.Metrics())

	// Rate limits mirror the public surface: a general budget for the
	// management API and a tighter one for the high-volume collector.
	authLimit := appmw.RateLimit(rate.Every(15*time.Minute/100), 100,
		"Too many requests from this IP, please try again after 15 minutes")
	collectLimit := appmw.RateLimit(rate.Every(time.Minute/60), 60,
		"Too many events from this IP, please try again after a minute")

	session := appmw.SessionAuth(gdb, cfg)
	apiKey := appmw.APIKeyAuth(keySvc)

	r.POST("/api/analytics/collect", collectLimit(apiKey(handlers.Collect(gdb))))

	r.GET("/api/auth/google", authLimit(handlers.GoogleLogin(cfg)))
	r.GET("/api/auth/google/callback", authLimit(handlers.GoogleCallback(gdb, cfg)))
	r.POST("/api/auth/login", authLimit(handlers.Login(gdb, cfg)))
	r.POST("/api/auth/logout", authLimit(handlers.Logout(cfg)))
	r.GET("/api/auth/profile", authLimit(session(handlers.Profile())))

	r.POST("/api/auth/register", authLimit(session(handlers.Register(keySvc))))
	r.GET("/api/auth/api-key", authLimit(session(handlers.ListAPIKeys(keySvc))))
	r.POST("/api/auth/revoke", authLimit(session(handlers.Revoke(keySvc))))

	r.GET("/api/auth/event-summary", authLimit(session(handlers.EventSummary(engine))))
	r.GET("/api/auth/user-stats", authLimit(session(handlers.UserStats(engine))))

	handler := appmw.RequestLogger(logger)(r.Handler)

	logger.Info("eventpulse listening", zap.String("addr", cfg.ListenAddr))
	if err := fasthttp.ListenAndServe(cfg.ListenAddr, handler); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
