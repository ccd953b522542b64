package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"hospital-app-server/internal/cache"
	"hospital-app-server/internal/clock"
	"hospital-app-server/internal/logger"
	"hospital-app-server/internal/metrics"
	"hospital-app-server/internal/middleware"
	"hospital-app-server/internal/models"
	"hospital-app-server/internal/routes"
)

func newServeCommand() *cobra.Command {
	var shutdownTimeout time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			log := logger.New(cfg)
			metrics.Register()

			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			if cfg.Database.AutoMigrate {
				if err := models.Migrate(db); err != nil {
					return fmt.Errorf("failed to run migrations: %w", err)
				}
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rdb, err := cache.NewClient(ctx, cfg.Redis)
			if err != nil {
				return fmt.Errorf("error connecting to redis: %w", err)
			}
			if rdb != nil {
				defer rdb.Close()
			} else {
				log.Warn().Msg("REDIS_ADDR not set, slot cache disabled")
			}

			if !cfg.IsDevelopment() {
				gin.SetMode(gin.ReleaseMode)
			}
			router := gin.New()
			router.Use(gin.Recovery())
			router.Use(middleware.RequestLogger(log))

			// Configure CORS
			corsConfig := cors.DefaultConfig()
			corsConfig.AllowOrigins = []string{cfg.Origin}
			corsConfig.AllowCredentials = true
			corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
			corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"}
			router.Use(cors.New(corsConfig))

			if err := routes.SetupRoutes(router, routes.Dependencies{
				DB:     db,
				Config: cfg,
				Redis:  rdb,
				Clock:  clock.System{},
				Log:    log,
			}); err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              ":" + cfg.Port,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("port", cfg.Port).Str("environment", cfg.Environment).Msg("server running")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("failed to start server: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			log.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 15*time.Second, "maximum time to wait for in-flight requests")

	return cmd
}
