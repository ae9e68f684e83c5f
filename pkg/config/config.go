package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App         AppConfig
	DB          DBConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Orders      OrdersConfig
	Feed        FeedConfig
	GCP         GCPConfig
	GCS         GCSConfig
	PubSub      PubSubConfig
	WooCommerce WooCommerceConfig
	Outbox      OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PRINTDESK_APP_ENV" required:"true"`
	Port         string `envconfig:"PRINTDESK_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"PRINTDESK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PRINTDESK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PRINTDESK_DB_DSN"`
	Driver string `envconfig:"PRINTDESK_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"PRINTDESK_DB_HOST"`
	Port     int    `envconfig:"PRINTDESK_DB_PORT" default:"5432"`
	User     string `envconfig:"PRINTDESK_DB_USER"`
	Password string `envconfig:"PRINTDESK_DB_PASSWORD"`
	Name     string `envconfig:"PRINTDESK_DB_NAME"`
	SSLMode  string `envconfig:"PRINTDESK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PRINTDESK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PRINTDESK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PRINTDESK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PRINTDESK_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	AutoMigrate bool `envconfig:"PRINTDESK_DB_AUTO_MIGRATE" default:"false"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PRINTDESK_REDIS_URL"`
	Address      string        `envconfig:"PRINTDESK_REDIS_ADDR"`
	Password     string        `envconfig:"PRINTDESK_REDIS_PASSWORD"`
	DB           int           `envconfig:"PRINTDESK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PRINTDESK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PRINTDESK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PRINTDESK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PRINTDESK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PRINTDESK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"PRINTDESK_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PRINTDESK_JWT_ISSUER" default:"printdesk"`
	ExpirationMinutes int    `envconfig:"PRINTDESK_JWT_EXPIRATION_MINUTES" default:"720"`
}

// AccessTokenTTL returns the configured access token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type OrdersConfig struct {
	// ListCacheTTL bounds how long a visibility-filtered order list may be
	// served from cache before a refetch.
	ListCacheTTL time.Duration `envconfig:"PRINTDESK_ORDERS_LIST_CACHE_TTL" default:"30s"`
	// FetchGuardTTL bounds the in-flight duplicate-fetch guard.
	FetchGuardTTL time.Duration `envconfig:"PRINTDESK_ORDERS_FETCH_GUARD_TTL" default:"10s"`
	// PurgeConfirmation is the phrase required by the destructive bulk wipe.
	PurgeConfirmation string `envconfig:"PRINTDESK_ORDERS_PURGE_CONFIRMATION" default:"DELETE ALL ORDERS"`
}

type FeedConfig struct {
	// DebounceWindow coalesces bursts of change-feed events before the cached
	// order lists are invalidated.
	DebounceWindow time.Duration `envconfig:"PRINTDESK_FEED_DEBOUNCE_WINDOW" default:"500ms"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"PRINTDESK_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"PRINTDESK_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"PRINTDESK_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName string `envconfig:"PRINTDESK_GCS_BUCKET_NAME"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"PRINTDESK_PUBSUB_ORDERS_TOPIC" default:"printdesk-order-events"`
	OrdersSubscription string `envconfig:"PRINTDESK_PUBSUB_ORDERS_SUBSCRIPTION"`
}

type WooCommerceConfig struct {
	BaseURL        string        `envconfig:"PRINTDESK_WC_BASE_URL"`
	ConsumerKey    string        `envconfig:"PRINTDESK_WC_CONSUMER_KEY"`
	ConsumerSecret string        `envconfig:"PRINTDESK_WC_CONSUMER_SECRET"`
	Timeout        time.Duration `envconfig:"PRINTDESK_WC_TIMEOUT" default:"15s"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"PRINTDESK_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"PRINTDESK_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"PRINTDESK_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	required := map[string]string{
		"PRINTDESK_DB_HOST": db.Host,
		"PRINTDESK_DB_USER": db.User,
		"PRINTDESK_DB_NAME": db.Name,
	}
	for _, key := range []string{"PRINTDESK_DB_HOST", "PRINTDESK_DB_USER", "PRINTDESK_DB_NAME"} {
		if required[key] == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either PRINTDESK_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
