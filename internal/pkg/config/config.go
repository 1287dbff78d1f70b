package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port       string        `env:"PORT,        default=8080"`
	Env        string        `env:"ENV,         default=development"`
	JWTSecret  string        `env:"JWT_SECRET,  required"`
	LogLevel   string        `env:"LOG_LEVEL,   default=info"`
	SessionTTL time.Duration `env:"SESSION_TTL, default=24h"`

	Mongo MongoConfig
	Redis RedisConfig
	Media MediaConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=customer_profile"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type MediaConfig struct {
	Root           string `env:"MEDIA_ROOT,             default=./pub/media"`
	BaseURL        string `env:"BASE_URL,               default=http://localhost:8080/"`
	PlaceholderURL string `env:"AVATAR_PLACEHOLDER_URL, default=http://localhost:8080/static/images/no-profile-photo.jpg"`
	GridFSBucket   string `env:"MEDIA_GRIDFS_BUCKET,    default=media"`
	MirrorWorkers  int    `env:"MEDIA_MIRROR_WORKERS,   default=4"`
}

// IsDevelopment reports whether the service runs in the development environment.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from the environment using go-envconfig. Variables
// from the given .env files are loaded first without overriding variables
// that are already set; missing files are skipped.
func Load(ctx context.Context, envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	return &cfg, nil
}

// MustLoad is Load for process start-up; it panics on error.
func MustLoad(envFiles ...string) *Config {
	cfg, err := Load(context.Background(), envFiles...)
	if err != nil {
		panic(err.Error())
	}
	return cfg
}
