package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DevJWTSecret is the default signing secret. It is rejected in release mode.
const DevJWTSecret = "dev-only-secret-change-me"

// Config holds all configuration for the application
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Storage       StorageConfig       `mapstructure:"storage"`
	MongoDB       MongoDBConfig       `mapstructure:"mongodb"`
	Redis         RedisConfig         `mapstructure:"redis"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	SMS           SMSConfig           `mapstructure:"sms"`
	Payments      PaymentsConfig      `mapstructure:"payments"`
	Admin         AdminConfig         `mapstructure:"admin"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Log           LogConfig           `mapstructure:"log"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // debug, release, test
	PublicBaseURL   string        `mapstructure:"public_base_url"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StorageConfig selects the repository implementation.
type StorageConfig struct {
	Driver string `mapstructure:"driver"` // mongo, memory
}

// MongoDBConfig holds MongoDB-specific configuration
type MongoDBConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// JWTConfig holds JWT-specific configuration
type JWTConfig struct {
	Secret    string        `mapstructure:"secret"`
	ExpiresIn time.Duration `mapstructure:"expires_in"`
	Issuer    string        `mapstructure:"issuer"`
}

// SMSConfig holds the messaging provider configuration
type SMSConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	APIKey     string        `mapstructure:"api_key"`
	PlatformID string        `mapstructure:"platform_id"`
	Sender     string        `mapstructure:"sender"`
	Timeout    time.Duration `mapstructure:"timeout"`
	BulkDelay  time.Duration `mapstructure:"bulk_delay"`
	Mock       bool          `mapstructure:"mock"`
}

type PaymentsConfig struct {
	WebhookSecret string `mapstructure:"webhook_secret"`
}

// AdminConfig describes the bootstrap admin created at startup when the
// email is set.
type AdminConfig struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
	Phone    string `mapstructure:"phone"`
}

type NotificationsConfig struct {
	MaxAttempts   int    `mapstructure:"max_attempts"`
	RetrySchedule string `mapstructure:"retry_schedule"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// envBindings maps config keys to the flat environment names used in
// deployment.
var envBindings = map[string]string{
	"server.port":                  "PORT",
	"server.mode":                  "GIN_MODE",
	"server.public_base_url":       "PUBLIC_BASE_URL",
	"server.allowed_origins":       "CORS_ALLOWED_ORIGINS",
	"storage.driver":               "STORAGE_DRIVER",
	"mongodb.uri":                  "MONGODB_URI",
	"mongodb.database":             "MONGODB_DATABASE",
	"redis.addr":                   "REDIS_ADDR",
	"redis.password":               "REDIS_PASSWORD",
	"redis.db":                     "REDIS_DB",
	"jwt.secret":                   "JWT_SECRET",
	"jwt.expires_in":               "JWT_EXPIRES_IN",
	"jwt.issuer":                   "JWT_ISSUER",
	"sms.base_url":                 "SMS_BASE_URL",
	"sms.api_key":                  "SMS_API_KEY",
	"sms.platform_id":              "SMS_PLATFORM_ID",
	"sms.sender":                   "SMS_SENDER",
	"sms.timeout":                  "SMS_TIMEOUT",
	"sms.bulk_delay":               "SMS_BULK_DELAY",
	"sms.mock":                     "SMS_MOCK",
	"payments.webhook_secret":      "PAYMENTS_WEBHOOK_SECRET",
	"admin.email":                  "ADMIN_EMAIL",
	"admin.password":               "ADMIN_PASSWORD",
	"admin.phone":                  "ADMIN_PHONE",
	"notifications.max_attempts":   "NOTIFY_MAX_ATTEMPTS",
	"notifications.retry_schedule": "NOTIFY_RETRY_SCHEDULE",
	"log.level":                    "LOG_LEVEL",
	"log.pretty":                   "LOG_PRETTY",
}

// Load reads configuration from an optional .env file, an optional YAML
// file and the environment, in increasing order of precedence.
func Load(path string) (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file is not found, we'll use environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("config: JWT_SECRET must be set")
	}
	if c.Server.Mode == "release" && c.JWT.Secret == DevJWTSecret {
		return errors.New("config: JWT_SECRET must be changed in release mode")
	}
	switch c.Storage.Driver {
	case "mongo", "memory":
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	if c.Notifications.MaxAttempts < 1 {
		return errors.New("config: notifications.max_attempts must be at least 1")
	}
	return nil
}

// setDefaults sets default values suitable for local development
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.public_base_url", "http://localhost:8080")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("storage.driver", "mongo")
	v.SetDefault("mongodb.uri", "mongodb://localhost:27017")
	v.SetDefault("mongodb.database", "triple_digit")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("jwt.secret", DevJWTSecret)
	v.SetDefault("jwt.expires_in", "24h")
	v.SetDefault("jwt.issuer", "tripledigit-backend")
	v.SetDefault("sms.base_url", "https://api.sms-provider.example/v1")
	v.SetDefault("sms.api_key", "")
	v.SetDefault("sms.platform_id", "")
	v.SetDefault("sms.sender", "TripleDigit")
	v.SetDefault("sms.timeout", "10s")
	v.SetDefault("sms.bulk_delay", "250ms")
	v.SetDefault("sms.mock", true)
	v.SetDefault("payments.webhook_secret", "")
	v.SetDefault("admin.email", "")
	v.SetDefault("admin.password", "")
	v.SetDefault("admin.phone", "")
	v.SetDefault("notifications.max_attempts", 3)
	v.SetDefault("notifications.retry_schedule", "@every 1m")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}
