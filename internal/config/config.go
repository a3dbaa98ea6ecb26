package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config contains server configuration parameters, sourced from the
// environment.
type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	Env         string `env:"APP_ENV" envDefault:"development"`
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
	DatabaseDSN string `env:"DATABASE_DSN"`

	JWT        JWT
	Cron       Cron
	Seed       Seed
	OpenRouter OpenRouter `envPrefix:"OPENROUTER_"`
	Storage    Storage    `envPrefix:"MINIO_"`
}

// JWT contains token signing parameters. Access and refresh secrets must
// differ; the refresh TTL also bounds the refresh cookie's max-age.
type JWT struct {
	AccessSecret  string        `env:"JWT_ACCESS_SECRET" envDefault:"dev-access-secret"`
	RefreshSecret string        `env:"JWT_REFRESH_SECRET" envDefault:"dev-refresh-secret"`
	AccessTTL     time.Duration `env:"ACCESS_TOKEN_EXPIRY" envDefault:"15m"`
	RefreshTTL    time.Duration `env:"REFRESH_TOKEN_EXPIRY" envDefault:"168h"`
}

// Cron contains the seeding schedule parameters.
type Cron struct {
	Enabled  bool   `env:"CRON_ENABLED" envDefault:"false"`
	Schedule string `env:"CRON_SCHEDULE" envDefault:"0 12 * * *"`
}

// Seed bounds the synthetic data job.
type Seed struct {
	MinUsers        int           `env:"MIN_USERS" envDefault:"5"`
	MinPosts        int           `env:"MIN_POSTS" envDefault:"10"`
	DefaultPassword string        `env:"DEFAULT_PASSWORD" envDefault:"changeme123"`
	PostInterval    time.Duration `env:"SEED_POST_INTERVAL" envDefault:"1s"`
}

// OpenRouter contains chat-completion API parameters for the seeder.
type OpenRouter struct {
	APIKey  string `env:"API_KEY"`
	Model   string `env:"MODEL" envDefault:"x-ai/grok-4-fast:free"`
	BaseURL string `env:"BASE_URL" envDefault:"https://openrouter.ai/api/v1"`
}

// Storage contains object storage parameters for uploaded post images.
type Storage struct {
	Endpoint  string `env:"ENDPOINT" envDefault:"localhost:9000"`
	AccessKey string `env:"ACCESS_KEY" envDefault:"vistagram-access-key"`
	SecretKey string `env:"SECRET_KEY" envDefault:"vistagram-secret-key"`
	Bucket    string `env:"BUCKET_NAME" envDefault:"vistagram-posts"`
	UseSSL    bool   `env:"USE_SSL" envDefault:"false"`
}

// New loads configuration from environment variables.
func New() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.JWT.AccessSecret == cfg.JWT.RefreshSecret {
		return nil, fmt.Errorf("access and refresh secrets must differ")
	}
	return &cfg, nil
}

// IsDevelopment reports whether the service runs in a development
// environment. Refresh cookies skip the Secure attribute there.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
