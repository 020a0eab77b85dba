package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string   `mapstructure:"PORT"`
	Env            string   `mapstructure:"ENV"`
	DatabaseURL    string   `mapstructure:"DATABASE_URL"`
	DBMaxConns     int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns     int32    `mapstructure:"DB_MIN_CONNS"`
	AuthIssuer     string   `mapstructure:"AUTH_ISSUER"`
	AuthJWKSURL    string   `mapstructure:"AUTH_JWKS_URL"`
	AuthAudience   string   `mapstructure:"AUTH_AUDIENCE"`
	DefaultTenant  string   `mapstructure:"DEFAULT_TENANT"`
	CORSOrigins    []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS   float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int      `mapstructure:"RATE_LIMIT_BURST"`

	// PDF renderer service. Generation is disabled unless RendererURL is a
	// valid https:// URL.
	RendererURL     string `mapstructure:"PDF_RENDERER_URL"`
	RendererToken   string `mapstructure:"PDF_RENDERER_TOKEN"`
	DispatchDelayMS int    `mapstructure:"PDF_DISPATCH_DELAY_MS"`

	// Blob storage for generated documents.
	BlobDriver      string `mapstructure:"BLOB_DRIVER"`
	BlobS3Bucket    string `mapstructure:"BLOB_S3_BUCKET"`
	BlobS3Region    string `mapstructure:"BLOB_S3_REGION"`
	BlobS3Endpoint  string `mapstructure:"BLOB_S3_ENDPOINT"`
	BlobS3PathStyle bool   `mapstructure:"BLOB_S3_PATH_STYLE"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("DEFAULT_TENANT", "default")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("PDF_DISPATCH_DELAY_MS", 500)
	v.SetDefault("BLOB_DRIVER", "memory")
	v.SetDefault("BLOB_S3_REGION", "eu-west-2")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("AUTH_ISSUER")
	v.BindEnv("AUTH_JWKS_URL")
	v.BindEnv("AUTH_AUDIENCE")
	v.BindEnv("DEFAULT_TENANT")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("PDF_RENDERER_URL")
	v.BindEnv("PDF_RENDERER_TOKEN")
	v.BindEnv("PDF_DISPATCH_DELAY_MS")
	v.BindEnv("BLOB_DRIVER")
	v.BindEnv("BLOB_S3_BUCKET")
	v.BindEnv("BLOB_S3_REGION")
	v.BindEnv("BLOB_S3_ENDPOINT")
	v.BindEnv("BLOB_S3_PATH_STYLE")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() {
		log.Println("WARNING: ============================================================")
		log.Println("WARNING: Server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: DevAuthMiddleware is active — all requests get admin access.")
		log.Println("WARNING: Do NOT use this configuration in production.")
		log.Println("WARNING: Set ENV=production and configure AUTH_ISSUER for production.")
		log.Println("WARNING: ============================================================")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// RendererEnabled reports whether document generation is configured. The
// renderer endpoint must be HTTPS; anything else disables generation rather
// than failing submits.
func (c *Config) RendererEnabled() bool {
	return strings.HasPrefix(c.RendererURL, "https://")
}

// Validate checks that the configuration is safe to run. In production
// AUTH_ISSUER must be set so that real JWT authentication is enforced, and the
// s3 blob driver requires a bucket.
func (c *Config) Validate() error {
	if c.IsProduction() && c.AuthIssuer == "" {
		return fmt.Errorf("AUTH_ISSUER must be set in production. " +
			"Refusing to start without authentication configuration")
	}

	switch c.BlobDriver {
	case "memory", "s3":
	default:
		return fmt.Errorf("BLOB_DRIVER must be \"memory\" or \"s3\", got %q", c.BlobDriver)
	}
	if c.BlobDriver == "s3" && c.BlobS3Bucket == "" {
		return fmt.Errorf("BLOB_S3_BUCKET is required when BLOB_DRIVER is \"s3\"")
	}

	if c.RendererURL != "" && !c.RendererEnabled() {
		log.Printf("WARNING: PDF_RENDERER_URL %q is not HTTPS; document generation is disabled", c.RendererURL)
	}

	if c.DispatchDelayMS < 0 {
		return fmt.Errorf("PDF_DISPATCH_DELAY_MS must not be negative, got %d", c.DispatchDelayMS)
	}

	return nil
}
