package main

import (
	"context"
	"crypto/rsa"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/edurun/lti-gateway/internal/handler"
	"github.com/edurun/lti-gateway/internal/lms"
	"github.com/edurun/lti-gateway/internal/lti"
	internalmiddleware "github.com/edurun/lti-gateway/internal/middleware"
	"github.com/edurun/lti-gateway/internal/models"
	"github.com/edurun/lti-gateway/internal/repository"
	"github.com/edurun/lti-gateway/internal/service"
	"github.com/edurun/lti-gateway/pkg/cache"
	"github.com/edurun/lti-gateway/pkg/config"
	"github.com/edurun/lti-gateway/pkg/database"
	"github.com/edurun/lti-gateway/pkg/export"
	"github.com/edurun/lti-gateway/pkg/logger"
	corsmiddleware "github.com/edurun/lti-gateway/pkg/middleware/cors"
	reqidmiddleware "github.com/edurun/lti-gateway/pkg/middleware/requestid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("postgres connection failed", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("redis connection failed", "error", err)
	}
	defer redisClient.Close()

	platforms := repository.NewPlatformRepository(db)
	if err := seedPlatforms(platforms, cfg.Platforms); err != nil {
		logr.Sugar().Fatalw("platform seeding failed", "error", err)
	}

	toolKey := loadToolKey(cfg, logr)

	sessions := repository.NewRedisSessionStore(redisClient)
	validator := lti.NewJWTValidator(platforms, logr)
	tokens := lms.NewOAuthTokenSource(platforms, toolKey, cfg.Tool.KeyID, cfg.LMS.HTTPTimeout, logr)
	ags := lms.NewAGSClient(cfg.LMS.HTTPTimeout, tokens, logr)
	nrps := lms.NewNRPSClient(cfg.LMS.HTTPTimeout, tokens, logr)
	signer := lms.NewDeepLinkSigner(toolKey, cfg.Tool.KeyID)

	metrics := service.NewMetricsService()
	roles := service.NewRoleResolver()
	dispatcher := service.NewLaunchService(cfg.Frontend, logr)
	lineItems := service.NewLineItemService(ags, metrics, logr)
	grades := service.NewGradeService(ags, lineItems, metrics, logr)
	deeplinks := service.NewDeepLinkService(signer, logr)
	members := service.NewMemberService(nrps, export.NewCSVExporter(), export.NewPDFExporter(), metrics, logr)

	launchHandler := handler.NewLaunchHandler(validator, sessions, dispatcher, roles, metrics, cfg.LMS.SessionTTL, logr)
	gradeHandler := handler.NewGradeHandler(grades)
	memberHandler := handler.NewMemberHandler(members)
	deeplinkHandler := handler.NewDeepLinkHandler(deeplinks, cfg.Resources)
	infoHandler := handler.NewInfoHandler()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unavailable"})
			return
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "redis unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	r.POST("/launch", launchHandler.Launch)
	r.POST("/deeplaunch", launchHandler.DeepLaunch)

	session := internalmiddleware.Session(sessions)
	r.POST("/grade", session, gradeHandler.Submit)
	r.GET("/members", session, memberHandler.List)
	r.GET("/members/export", session, memberHandler.Export)
	r.POST("/deeplink", session, deeplinkHandler.Respond)
	r.GET("/resources", session, deeplinkHandler.Resources)

	info := r.Group("/info", session)
	info.GET("/user", infoHandler.User)
	info.GET("/course", infoHandler.Course)
	info.GET("/platform", infoHandler.Platform)
	info.GET("/assignment", infoHandler.Assignment)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

// seedPlatforms applies the boot-time registrations from config. Existing
// rows with the same issuer/client pair are refreshed.
func seedPlatforms(repo *repository.PlatformRepository, seeds []config.PlatformSeed) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, seed := range seeds {
		registration := &models.PlatformRegistration{
			Issuer:        seed.Issuer,
			Name:          seed.Name,
			ClientID:      seed.ClientID,
			AuthEndpoint:  seed.AuthEndpoint,
			TokenEndpoint: seed.TokenEndpoint,
			KeysetURL:     seed.KeysetURL,
			PublicKeyPEM:  seed.PublicKeyPEM,
		}
		if err := repo.Upsert(ctx, registration); err != nil {
			return err
		}
	}
	return nil
}

// loadToolKey parses the tool's signing key. A gateway without one can still
// dispatch launches; deep linking and service calls will fail until it is
// configured.
func loadToolKey(cfg *config.Config, logr *zap.Logger) *rsa.PrivateKey {
	if cfg.Tool.PrivateKeyPEM == "" {
		logr.Warn("TOOL_PRIVATE_KEY not set, deep linking and grade passback disabled")
		return nil
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(cfg.Tool.PrivateKeyPEM))
	if err != nil {
		logr.Sugar().Fatalw("invalid TOOL_PRIVATE_KEY", "error", err)
	}
	return key
}
