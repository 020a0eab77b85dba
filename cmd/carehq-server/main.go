package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/carehq/carehq/internal/assessment"
	"github.com/carehq/carehq/internal/config"
	"github.com/carehq/carehq/internal/domain/resident"
	"github.com/carehq/carehq/internal/forms/admission"
	"github.com/carehq/carehq/internal/forms/dnacpr"
	"github.com/carehq/carehq/internal/forms/incident"
	"github.com/carehq/carehq/internal/forms/infectionprevention"
	"github.com/carehq/carehq/internal/forms/movinghandling"
	"github.com/carehq/carehq/internal/forms/peep"
	"github.com/carehq/carehq/internal/forms/photoconsent"
	"github.com/carehq/carehq/internal/forms/skinintegrity"
	"github.com/carehq/carehq/internal/platform/auth"
	"github.com/carehq/carehq/internal/platform/blobstore"
	"github.com/carehq/carehq/internal/platform/db"
	"github.com/carehq/carehq/internal/platform/metrics"
	"github.com/carehq/carehq/internal/platform/middleware"
	"github.com/carehq/carehq/internal/platform/renderer"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "carehq-server",
		Short: "CareHQ care-home management API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(tenantCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			fmt.Printf("Running migrations on schema: %s\n", schema)

			count, err := migrator.Up(ctx, schema)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("schema", "tenant_default", "Target schema for migrations")
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx, schema)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("Migration status for schema: %s\n", schema)
			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("schema", "tenant_default", "Target schema for migrations")
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func tenantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Manage care organization tenants",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a tenant schema and run migrations against it",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			dir, _ := cmd.Flags().GetString("dir")
			if name == "" {
				return fmt.Errorf("--name is required")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			fmt.Printf("Creating tenant schema: tenant_%s\n", name)
			if err := db.CreateTenantSchema(ctx, pool, name, dir); err != nil {
				return err
			}
			fmt.Println("Tenant created successfully.")
			return nil
		},
	}
	createCmd.Flags().String("name", "", "Tenant identifier (alphanumeric)")
	createCmd.Flags().String("dir", "./migrations", "Path to migrations directory")

	cmd.AddCommand(createCmd)
	return cmd
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	blobs, err := buildBlobStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize blob storage")
	}

	rc := renderer.NewClient(cfg.RendererURL, cfg.RendererToken)
	if rc.Configured() {
		logger.Info().Msg("pdf renderer configured")
	} else {
		logger.Warn().Msg("pdf renderer not configured; document generation disabled")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID", "X-Tenant-ID"},
	}))

	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:   cfg.AuthIssuer,
			Audience: cfg.AuthAudience,
			JWKSURL:  cfg.AuthJWKSURL,
		}))
	}

	e.Use(db.TenantMiddleware(pool, cfg.DefaultTenant))
	e.Use(middleware.Audit(logger))

	apiV1 := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	// Residents.
	residentSvc := resident.NewService(resident.NewResidentRepoPG(pool))
	resident.NewHandler(residentSvc).RegisterRoutes(apiV1)
	directory := resident.NewDirectory(residentSvc)

	// Assessment engine shared infrastructure.
	store := assessment.NewPGStore(pool)
	dispatchMetrics := metrics.NewDispatchMetrics()
	dispatcher := assessment.NewDispatcher(assessment.DispatcherConfig{
		Store:     store,
		Residents: directory,
		Renderer:  rc,
		Blobs:     blobs,
		Metrics:   dispatchMetrics,
		Scope:     db.TenantScope(pool),
		Delay:     time.Duration(cfg.DispatchDelayMS) * time.Millisecond,
		Logger:    logger,
	})

	// One engine + route set per form kind.
	registerForm[admission.Payload](apiV1, admission.Kind, store, directory, dispatcher, blobs, logger)
	registerForm[dnacpr.Payload](apiV1, dnacpr.Kind, store, directory, dispatcher, blobs, logger)
	registerForm[skinintegrity.Payload](apiV1, skinintegrity.Kind, store, directory, dispatcher, blobs, logger)
	registerForm[movinghandling.Payload](apiV1, movinghandling.Kind, store, directory, dispatcher, blobs, logger)
	registerForm[infectionprevention.Payload](apiV1, infectionprevention.Kind, store, directory, dispatcher, blobs, logger)
	registerForm[incident.Payload](apiV1, incident.Kind, store, directory, dispatcher, blobs, logger)
	registerForm[peep.Payload](apiV1, peep.Kind, store, directory, dispatcher, blobs, logger)
	registerForm[photoconsent.Payload](apiV1, photoconsent.Kind, store, directory, dispatcher, blobs, logger)

	// Document download for backends without presigned URLs.
	apiV1.GET("/documents/:id", documentHandler(blobs),
		auth.RequireRole("admin", "manager", "nurse", "carer"))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))
	e.GET("/metrics", dispatchMetrics.Handler())

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}

	// Let in-flight document generation finish before the pool closes.
	if err := dispatcher.Drain(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("document jobs still pending at shutdown")
	}

	logger.Info().Msg("server stopped")
	return nil
}

func registerForm[P assessment.Payload](api *echo.Group, kind assessment.Kind,
	store assessment.Store, residents assessment.ResidentDirectory,
	dispatcher *assessment.Dispatcher, blobs blobstore.BlobStore, logger zerolog.Logger) {
	engine := assessment.NewEngine[P](kind, store, residents, dispatcher, blobs, logger)
	assessment.NewHandler(engine).RegisterRoutes(api)
}

func buildBlobStore(ctx context.Context, cfg *config.Config) (blobstore.BlobStore, error) {
	switch cfg.BlobDriver {
	case "s3":
		return blobstore.NewS3BlobStore(ctx, blobstore.S3Config{
			Region:    cfg.BlobS3Region,
			Bucket:    cfg.BlobS3Bucket,
			Endpoint:  cfg.BlobS3Endpoint,
			PathStyle: cfg.BlobS3PathStyle,
		})
	default:
		return blobstore.NewInMemoryBlobStore("/api/v1/documents"), nil
	}
}

func documentHandler(blobs blobstore.BlobStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		body, meta, err := blobs.Open(c.Request().Context(), c.Param("id"))
		if errors.Is(err, blobstore.ErrBlobNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "document not found")
		}
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		defer body.Close()

		c.Response().Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", meta.FileName))
		return c.Stream(http.StatusOK, meta.ContentType, body)
	}
}
