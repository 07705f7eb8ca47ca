package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "momtaz"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "MOMTAZ_DB_DSN"
	EnvDBHost = "MOMTAZ_DB_HOST"
	EnvDBUser = "MOMTAZ_DB_USER"
	EnvDBName = "MOMTAZ_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Recon        ReconConfig
	Grace        GraceConfig
	Carts        CartConfig
	SafetyNet    SafetyNetConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
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
	Env          string `envconfig:"MOMTAZ_APP_ENV" required:"true"`
	Port         string `envconfig:"MOMTAZ_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MOMTAZ_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MOMTAZ_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MOMTAZ_DB_DSN"`
	Driver string `envconfig:"MOMTAZ_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MOMTAZ_DB_HOST"`
	LegacyPort     int    `envconfig:"MOMTAZ_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MOMTAZ_DB_USER"`
	LegacyPassword string `envconfig:"MOMTAZ_DB_PASSWORD"`
	LegacyName     string `envconfig:"MOMTAZ_DB_NAME"`
	LegacySSLMode  string `envconfig:"MOMTAZ_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MOMTAZ_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MOMTAZ_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MOMTAZ_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MOMTAZ_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MOMTAZ_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MOMTAZ_REDIS_ADDR"`
	Password     string        `envconfig:"MOMTAZ_REDIS_PASSWORD"`
	DB           int           `envconfig:"MOMTAZ_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MOMTAZ_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MOMTAZ_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MOMTAZ_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MOMTAZ_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MOMTAZ_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// ReconConfig holds the tick intervals for the scheduled reconciliation
// passes. Defaults follow the production cadence.
type ReconConfig struct {
	GracePeriodInterval   time.Duration `envconfig:"MOMTAZ_RECON_GRACE_PERIOD_INTERVAL" default:"1h"`
	CartCleanupInterval   time.Duration `envconfig:"MOMTAZ_RECON_CART_CLEANUP_INTERVAL" default:"30m"`
	AutoRefundInterval    time.Duration `envconfig:"MOMTAZ_RECON_AUTO_REFUND_INTERVAL" default:"15m"`
	ExpiredOrdersInterval time.Duration `envconfig:"MOMTAZ_RECON_EXPIRED_ORDERS_INTERVAL" default:"1h"`
	LockTTL               time.Duration `envconfig:"MOMTAZ_RECON_LOCK_TTL" default:"10m"`
	BatchSize             int           `envconfig:"MOMTAZ_RECON_BATCH_SIZE" default:"200"`
}

// GraceConfig defines the payment grace windows. The extended window
// applies to the bank_transfer_grace method only.
type GraceConfig struct {
	ExtendedWindow time.Duration `envconfig:"MOMTAZ_GRACE_EXTENDED_WINDOW" default:"72h"`
	ExtendedBuffer time.Duration `envconfig:"MOMTAZ_GRACE_EXTENDED_BUFFER" default:"6h"`
	StandardWindow time.Duration `envconfig:"MOMTAZ_GRACE_STANDARD_WINDOW" default:"24h"`
	StandardBuffer time.Duration `envconfig:"MOMTAZ_GRACE_STANDARD_BUFFER" default:"1h"`
	UrgentWindow   time.Duration `envconfig:"MOMTAZ_GRACE_URGENT_WINDOW" default:"24h"`
	AutoRefundAge  time.Duration `envconfig:"MOMTAZ_AUTO_REFUND_AGE" default:"10m"`
}

// CartConfig defines the idle thresholds for staged cart cleanup.
type CartConfig struct {
	AbandonAfter    time.Duration `envconfig:"MOMTAZ_CART_ABANDON_AFTER" default:"1h"`
	SecondReminder  time.Duration `envconfig:"MOMTAZ_CART_SECOND_REMINDER_AFTER" default:"3h"`
	DeactivateAfter time.Duration `envconfig:"MOMTAZ_CART_DEACTIVATE_AFTER" default:"4h"`
}

// SafetyNetConfig holds the two thresholds for rescuing stuck paid
// orders. Both must hold for an order to be force-advanced.
type SafetyNetConfig struct {
	StuckOrderAge  time.Duration `envconfig:"MOMTAZ_SAFETY_NET_STUCK_ORDER_AGE" default:"24h"`
	StaleUpdateAge time.Duration `envconfig:"MOMTAZ_SAFETY_NET_STALE_UPDATE_AGE" default:"12h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"MOMTAZ_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"MOMTAZ_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"MOMTAZ_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"MOMTAZ_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"MOMTAZ_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	NotificationTopic string `envconfig:"MOMTAZ_PUBSUB_NOTIFICATION_TOPIC" default:"momtaz-notification-events"`
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
