package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
	EnvProvision   = "provision"
)

type Config struct {
	Port        string `mapstructure:"PORT" validate:"required,numeric"`
	Environment string `mapstructure:"ENVIRONMENT" validate:"oneof=development production test provision"`

	DatabaseURL string `mapstructure:"DATABASE_URL" validate:"required"`

	JWTSecret    string        `mapstructure:"JWT_SECRET" validate:"required"`
	JWTExpiresIn time.Duration `mapstructure:"JWT_EXPIRES_IN" validate:"gt=0"`

	S3Endpoint   string        `mapstructure:"S3_ENDPOINT" validate:"required"`
	S3Port       int           `mapstructure:"S3_PORT" validate:"required,gt=0,lt=65536"`
	S3AccessKey  string        `mapstructure:"S3_ACCESS_KEY" validate:"required"`
	S3SecretKey  string        `mapstructure:"S3_SECRET_KEY" validate:"required"`
	S3Bucket     string        `mapstructure:"S3_BUCKET" validate:"required"`
	S3UseSSL     bool          `mapstructure:"S3_USE_SSL"`
	S3Region     string        `mapstructure:"S3_REGION" validate:"required"`
	S3PresignTTL time.Duration `mapstructure:"S3_PRESIGN_TTL" validate:"gt=0"`

	// Пустой адрес: события живут в памяти процесса
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB" validate:"gte=0"`

	MaxFileSize int64 `mapstructure:"MAX_FILE_SIZE" validate:"gt=0"`
	MaxFiles    int   `mapstructure:"MAX_FILES" validate:"gt=0"`

	CORSAllowedOrigins      []string `mapstructure:"CORS_ALLOWED_ORIGINS" validate:"min=1"`
	WSMaxConnectionsPerUser int      `mapstructure:"WS_MAX_CONNECTIONS_PER_USER" validate:"gt=0"`
}

var defaults = map[string]any{
	"PORT":                        "3000",
	"ENVIRONMENT":                 EnvDevelopment,
	"DATABASE_URL":                "",
	"JWT_SECRET":                  "",
	"JWT_EXPIRES_IN":              "24h",
	"S3_ENDPOINT":                 "",
	"S3_PORT":                     0,
	"S3_ACCESS_KEY":               "",
	"S3_SECRET_KEY":               "",
	"S3_BUCKET":                   "uploads",
	"S3_USE_SSL":                  false,
	"S3_REGION":                   "us-east-1",
	"S3_PRESIGN_TTL":              "15m",
	"REDIS_ADDR":                  "",
	"REDIS_PASSWORD":              "",
	"REDIS_DB":                    0,
	"MAX_FILE_SIZE":               10000000,
	"MAX_FILES":                   10,
	"CORS_ALLOWED_ORIGINS":        "*",
	"WS_MAX_CONNECTIONS_PER_USER": 10,
}

// Load reads ./.env (optional) and the process environment.
func Load() (*Config, error) {
	return LoadFile(".env")
}

func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.CORSAllowedOrigins = splitOrigins(cfg.CORSAllowedOrigins)

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func splitOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, origin := range strings.Split(item, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				out = append(out, origin)
			}
		}
	}
	return out
}

func (c *Config) Addr() string {
	return ":" + c.Port
}

func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// S3URL is the base endpoint handed to the S3 client.
func (c *Config) S3URL() string {
	scheme := "http"
	if c.S3UseSSL {
		scheme = "https"
	}
	return scheme + "://" + net.JoinHostPort(c.S3Endpoint, strconv.Itoa(c.S3Port))
}
