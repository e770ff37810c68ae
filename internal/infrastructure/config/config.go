package config

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Auth  AuthConfig
	Store StoreConfig
	Stub  StubConfig
}

// AuthConfig points the client at the auth service.
type AuthConfig struct {
	BaseURL string        `env:"AUTH_BASE_URL, default=http://localhost:8080"`
	Timeout time.Duration `env:"AUTH_TIMEOUT,  default=10s"`
	// StrictValidation forces logout when startup validation fails at the
	// transport level instead of trusting the persisted session.
	StrictValidation bool `env:"AUTH_STRICT_VALIDATION, default=false"`
}

// StoreConfig selects the credential store backend.
type StoreConfig struct {
	// Backend is "file" or "redis".
	Backend string `env:"STORE_BACKEND, default=file"`
	// Path overrides the file backend's snapshot location.
	Path string `env:"STORE_PATH"`

	Redis RedisConfig
}

type RedisConfig struct {
	Addr   string `env:"REDIS_ADDR,   default=localhost:6379"`
	DB     int    `env:"REDIS_DB,     default=0"`
	Prefix string `env:"REDIS_PREFIX, default=opsdesk"`
}

// StubConfig configures the development auth service.
type StubConfig struct {
	Port      string        `env:"STUB_PORT,       default=8080"`
	JWTSecret string        `env:"STUB_JWT_SECRET, default=dev-secret"`
	TokenTTL  time.Duration `env:"STUB_TOKEN_TTL,  default=24h"`

	Mongo MongoConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=opsdesk"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
