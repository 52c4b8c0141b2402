package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const (
	EnvProduction = "production"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"

	defaultSQLitePath = "notes.db"
)

type Config struct {
	Port      string `env:"PORT,      default=8000"`
	Env       string `env:"ENV,       default=development"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`

	// JWTSecret signs and verifies access tokens. Read once at startup.
	JWTSecret string `env:"JWT_SECRET_KEY, required"`

	// EnforceNoteOwnership scopes by-id note and category operations to the caller.
	EnforceNoteOwnership bool `env:"ENFORCE_NOTE_OWNERSHIP, default=false"`

	SSMParameterPrefix string `env:"SSM_PARAMETER_PREFIX"`

	Database DatabaseConfig
	Mongo    MongoConfig
	Redis    RedisConfig
}

// DatabaseConfig selects the note store. URL falls back to a local file only
// for sqlite; postgres must be given DATABASE_URL explicitly.
type DatabaseConfig struct {
	Driver string `env:"DB_DRIVER,    default=sqlite"`
	URL    string `env:"DATABASE_URL"`
	Debug  bool   `env:"DB_DEBUG,     default=false"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI,     default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,      default=notes"`
	NodeID   int64  `env:"MONGO_NODE_ID, default=1"`
}

// RedisConfig is optional: an empty Addr disables idempotent note creation.
type RedisConfig struct {
	Addr           string        `env:"REDIS_ADDR"`
	Password       string        `env:"REDIS_PASSWORD"`
	DB             int           `env:"REDIS_DB,        default=0"`
	PoolSize       int           `env:"REDIS_POOL_SIZE, default=10"`
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL, default=24h"`
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Load builds the configuration from the process environment. Outside
// production a .env file is merged in first when present. In production with
// SSM_PARAMETER_PREFIX set, Parameter Store values are exported beforehand.
func Load(ctx context.Context) (*Config, error) {
	if os.Getenv("ENV") == EnvProduction {
		if prefix := os.Getenv("SSM_PARAMETER_PREFIX"); prefix != "" {
			if _, err := loadParameterStore(ctx, prefix); err != nil {
				return nil, err
			}
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	return loadFrom(ctx, envconfig.OsLookuper())
}

func loadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	switch cfg.Database.Driver {
	case DriverSQLite:
		if cfg.Database.URL == "" {
			cfg.Database.URL = defaultSQLitePath
		}
	case DriverPostgres, DriverMongo:
	default:
		return nil, fmt.Errorf("config: unsupported DB_DRIVER %q", cfg.Database.Driver)
	}

	return &cfg, nil
}
