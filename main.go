package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tejaspatil7903/backend/cache"
	"github.com/tejaspatil7903/backend/config"
	"github.com/tejaspatil7903/backend/controllers"
	"github.com/tejaspatil7903/backend/database"
	"github.com/tejaspatil7903/backend/logger"
	"github.com/tejaspatil7903/backend/middleware"
	"github.com/tejaspatil7903/backend/services"
	"github.com/tejaspatil7903/backend/utils"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger config is part of what failed to load
		panic(err)
	}

	log, flush := logger.New(logger.Options{
		Level:      cfg.Log.Level,
		JSON:       cfg.Log.JSON || cfg.IsProduction(),
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	defer flush()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx := context.Background()

	client, err := database.Connect(ctx, cfg.Mongo.URI)
	if err != nil {
		return err
	}
	defer func() { _ = client.Disconnect(context.Background()) }()
	log.Info("mongodb connected", zap.String("database", cfg.Mongo.Database))

	db := client.Database(cfg.Mongo.Database)
	if err := database.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	uploader, err := newUploader(ctx, cfg)
	if err != nil {
		return err
	}
	if c, ok := uploader.(io.Closer); ok {
		defer c.Close()
	}

	var profileCache *cache.Cache
	if cfg.Redis.Addr != "" {
		profileCache = cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer profileCache.Close()
		if err := profileCache.Ping(ctx); err != nil {
			log.Warn("redis unreachable, channel cache disabled", zap.Error(err))
			profileCache = nil
		}
	}

	tokens := &utils.TokenIssuer{
		AccessSecret:  []byte(cfg.Auth.AccessTokenSecret),
		AccessTTL:     cfg.Auth.AccessTokenExpiry,
		RefreshSecret: []byte(cfg.Auth.RefreshTokenSecret),
		RefreshTTL:    cfg.Auth.RefreshTokenExpiry,
	}
	users := database.NewUserStore(db)
	channels := services.NewChannelService(database.NewChannelStore(db), users, profileCache, cfg.Redis.ChannelCacheTTL, log.Named("channels"))
	accounts := services.NewAccountService(
		users,
		utils.NewPasswordHasher(cfg.Auth.BcryptCost),
		tokens,
		uploader,
		log.Named("accounts"),
		services.AccountOptions{
			RevokeSessionsOnPasswordChange: cfg.Auth.RevokeSessionsOnPasswordChange,
			WriteTimeout:                   cfg.Mongo.WriteTimeout,
			ChannelCache:                   channels,
		},
	)
	if !cfg.Auth.RevokeSessionsOnPasswordChange {
		log.Warn("password changes keep existing refresh tokens valid; set AUTH_REVOKE_SESSIONS_ON_PASSWORD_CHANGE=true to revoke them")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		ginzap.Ginzap(log, time.RFC3339, true),
		ginzap.RecoveryWithZap(log, true),
		cors.New(corsConfig(cfg.HTTP.AllowedOrigins)),
		middleware.MaxBodyBytes(cfg.HTTP.MaxBodyBytes),
		middleware.Timeout(cfg.HTTP.RequestTimeout),
		middleware.Metrics(),
	)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	controllers.RegisterRoutes(r, controllers.Deps{
		Accounts:  accounts,
		Channels:  channels,
		Tokens:    tokens,
		Validator: utils.NewImageValidator(cfg.Storage.MaxUploadSizeMB, cfg.Storage.AllowedExtensions, cfg.Storage.AllowedMimeTypes),
		Cookies: controllers.SessionCookies{
			Secure:        cfg.Cookie.Secure,
			Domain:        cfg.Cookie.Domain,
			AccessMaxAge:  cfg.Auth.AccessTokenExpiry,
			RefreshMaxAge: cfg.Auth.RefreshTokenExpiry,
		},
		AuthRateLimit: rate.Limit(cfg.HTTP.RateLimitRPS),
		AuthBurst:     cfg.HTTP.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("server stopped gracefully")
	return nil
}

func newUploader(ctx context.Context, cfg *config.Config) (utils.Uploader, error) {
	if cfg.Storage.Provider == "gcs" {
		return utils.NewGCSUploader(ctx, utils.GCSConfig{
			Bucket:          cfg.Storage.GCSBucket,
			CredentialsFile: cfg.Storage.GCSCredentialsFile,
		})
	}
	return utils.NewR2Client(ctx, utils.R2Config{
		Bucket:       cfg.Storage.R2Bucket,
		AccessKey:    cfg.Storage.R2AccessKey,
		SecretKey:    cfg.Storage.R2SecretKey,
		Endpoint:     cfg.Storage.R2Endpoint,
		PublicDomain: cfg.Storage.R2PublicDomain,
	})
}

func corsConfig(origins []string) cors.Config {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return cors.Config{
		AllowOriginFunc:  func(origin string) bool { return allowed[origin] },
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}
