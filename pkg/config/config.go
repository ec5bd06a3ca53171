package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "FARMDESK"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv               = "FARMDESK_APP_ENV"
	EnvPort                 = "FARMDESK_APP_PORT"
	EnvDBDSN                = "FARMDESK_DB_DSN"
	EnvDBHost               = "FARMDESK_DB_HOST"
	EnvDBUser               = "FARMDESK_DB_USER"
	EnvDBName               = "FARMDESK_DB_NAME"
	EnvRedisURL             = "FARMDESK_REDIS_URL"
	EnvJWTSecret            = "FARMDESK_JWT_SECRET"
	EnvJWTIssuer            = "FARMDESK_JWT_ISSUER"
	EnvGCPProjectID         = "FARMDESK_GCP_PROJECT_ID"
	EnvPubSubOrdersTopic    = "FARMDESK_PUBSUB_ORDERS_TOPIC"
	EnvPubSubInventoryTopic = "FARMDESK_PUBSUB_INVENTORY_TOPIC"
	EnvStrictTransitions    = "FARMDESK_ORDERS_STRICT_TRANSITIONS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Orders       OrdersConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if !cfg.FeatureFlags.UseSQLite {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FARMDESK_APP_ENV" required:"true"`
	Port         string `envconfig:"FARMDESK_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"FARMDESK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FARMDESK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev) || strings.EqualFold(a.Env, "development")
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type DBConfig struct {
	DSN        string `envconfig:"FARMDESK_DB_DSN"`
	Driver     string `envconfig:"FARMDESK_DB_DRIVER" default:"postgres"`
	SQLitePath string `envconfig:"FARMDESK_SQLITE_PATH" default:"file:farmdesk.db?cache=shared"`

	LegacyHost     string `envconfig:"FARMDESK_DB_HOST"`
	LegacyPort     int    `envconfig:"FARMDESK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FARMDESK_DB_USER"`
	LegacyPassword string `envconfig:"FARMDESK_DB_PASSWORD"`
	LegacyName     string `envconfig:"FARMDESK_DB_NAME"`
	LegacySSLMode  string `envconfig:"FARMDESK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FARMDESK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FARMDESK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FARMDESK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FARMDESK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FARMDESK_REDIS_URL"`
	Address      string        `envconfig:"FARMDESK_REDIS_ADDR"`
	Password     string        `envconfig:"FARMDESK_REDIS_PASSWORD"`
	DB           int           `envconfig:"FARMDESK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FARMDESK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FARMDESK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FARMDESK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FARMDESK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FARMDESK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

// JWTConfig holds the verification settings for tokens minted by the identity service.
type JWTConfig struct {
	Secret            string `envconfig:"FARMDESK_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"FARMDESK_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"FARMDESK_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"FARMDESK_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"FARMDESK_AUTO_MIGRATE" default:"false"`
}

type OrdersConfig struct {
	StrictTransitions  bool          `envconfig:"FARMDESK_ORDERS_STRICT_TRANSITIONS" default:"false"`
	PlacementWindow    time.Duration `envconfig:"FARMDESK_ORDERS_PLACEMENT_WINDOW" default:"1m"`
	PlacementUserLimit int           `envconfig:"FARMDESK_ORDERS_PLACEMENT_USER_LIMIT" default:"10"`
	RecentLimit        int           `envconfig:"FARMDESK_ORDERS_RECENT_LIMIT" default:"5"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"FARMDESK_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"FARMDESK_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	OrdersTopic    string `envconfig:"FARMDESK_PUBSUB_ORDERS_TOPIC" default:"farmdesk-order-events"`
	InventoryTopic string `envconfig:"FARMDESK_PUBSUB_INVENTORY_TOPIC" default:"farmdesk-inventory-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"FARMDESK_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"FARMDESK_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"FARMDESK_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
