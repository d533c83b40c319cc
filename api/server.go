package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bugscan/config"
	_ "bugscan/docs"
	"bugscan/logging"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const shutdownTimeout = 10 * time.Second

// Run initializes dependencies and serves the API until SIGINT/SIGTERM.
func Run() error {
	cfg, err := config.LoadAPI()
	if err != nil {
		return err
	}
	logger := logging.Logger()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
	}

	store := NewRedisStore(redisClient)
	workers := StartWorkers(ctx, store, cfg.Workers, cfg.Threads)
	defer func() {
		stop()
		workers.Wait()
	}()

	gin.SetMode(gin.ReleaseMode)
	router := NewRouter(store, redisClient, cfg)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting bugscan API server", "addr", cfg.Addr, "workers", cfg.Workers, "threads", cfg.Threads)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// NewRouter builds the gin engine. A nil redis client disables rate limiting.
func NewRouter(store JobStore, redisClient *redis.Client, cfg config.API) *gin.Engine {
	logger := logging.Logger()

	router := gin.New()
	router.Use(gin.Recovery(), RequestIDMiddleware(), RequestLoggingMiddleware(logger), SecurityHeadersMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := router.Group("/api/v1")
	v1.Use(AuthMiddleware(cfg.APIKey, logger))
	if redisClient != nil {
		v1.Use(RateLimitMiddleware(redisClient, cfg.RateLimit, cfg.RateWindow, logger))
	}

	NewServer(store, cfg.MinPrefix).RegisterRoutes(v1)
	return router
}
