package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "MEDSTOCK"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv     = "MEDSTOCK_APP_ENV"
	EnvPort       = "MEDSTOCK_APP_PORT"
	EnvDBDSN      = "MEDSTOCK_DB_DSN"
	EnvDBHost     = "MEDSTOCK_DB_HOST"
	EnvDBUser     = "MEDSTOCK_DB_USER"
	EnvDBName     = "MEDSTOCK_DB_NAME"
	EnvRedisURL   = "MEDSTOCK_REDIS_URL"
	EnvJWTSecret  = "MEDSTOCK_JWT_SECRET"
	EnvJWTIssuer  = "MEDSTOCK_JWT_ISSUER"
	EnvJWTExpMins = "MEDSTOCK_JWT_EXPIRATION_MINUTES"
)

var requiredDBPartEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Kafka         KafkaConfig
	Outbox        OutboxConfig
	Cron          CronConfig
	Bootstrap     BootstrapConfig
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
	Env          string `envconfig:"MEDSTOCK_APP_ENV" required:"true"`
	Port         string `envconfig:"MEDSTOCK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MEDSTOCK_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"MEDSTOCK_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"MEDSTOCK_LOG_WARN_STACK" default:"false"`

	CORSAllowedOrigins []string `envconfig:"MEDSTOCK_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"MEDSTOCK_DB_DSN"`

	Host     string `envconfig:"MEDSTOCK_DB_HOST"`
	Port     int    `envconfig:"MEDSTOCK_DB_PORT" default:"5432"`
	User     string `envconfig:"MEDSTOCK_DB_USER"`
	Password string `envconfig:"MEDSTOCK_DB_PASSWORD"`
	Name     string `envconfig:"MEDSTOCK_DB_NAME"`
	SSLMode  string `envconfig:"MEDSTOCK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MEDSTOCK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MEDSTOCK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MEDSTOCK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MEDSTOCK_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"MEDSTOCK_DB_SLOW_QUERY_THRESHOLD" default:"200ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MEDSTOCK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MEDSTOCK_REDIS_ADDR"`
	Password     string        `envconfig:"MEDSTOCK_REDIS_PASSWORD"`
	DB           int           `envconfig:"MEDSTOCK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MEDSTOCK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MEDSTOCK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MEDSTOCK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MEDSTOCK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MEDSTOCK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"MEDSTOCK_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"MEDSTOCK_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"MEDSTOCK_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"MEDSTOCK_REFRESH_TOKEN_TTL_MINUTES" default:"720"`
}

// RefreshTokenTTL returns how long a login session survives without a refresh.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

// AccessTokenTTL returns the configured access token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"MEDSTOCK_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"MEDSTOCK_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"MEDSTOCK_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"MEDSTOCK_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"MEDSTOCK_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"MEDSTOCK_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginUsernameLimit int           `envconfig:"MEDSTOCK_AUTH_RATE_LIMIT_LOGIN_USERNAME_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"MEDSTOCK_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MEDSTOCK_AUTO_MIGRATE" default:"false"`
	AutoSeed    bool `envconfig:"MEDSTOCK_AUTO_SEED" default:"false"`
}

type KafkaConfig struct {
	Brokers      []string      `envconfig:"MEDSTOCK_KAFKA_BROKERS" default:"localhost:9092"`
	AlertsTopic  string        `envconfig:"MEDSTOCK_KAFKA_ALERTS_TOPIC" default:"inventory-alerts"`
	BatchTimeout time.Duration `envconfig:"MEDSTOCK_KAFKA_BATCH_TIMEOUT" default:"10ms"`
	WriteTimeout time.Duration `envconfig:"MEDSTOCK_KAFKA_WRITE_TIMEOUT" default:"10s"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"MEDSTOCK_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"MEDSTOCK_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"MEDSTOCK_OUTBOX_MAX_ATTEMPTS" default:"10"`
	Retention      time.Duration `envconfig:"MEDSTOCK_OUTBOX_RETENTION" default:"720h"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"MEDSTOCK_CRON_INTERVAL" default:"24h"`
	LockTTL  time.Duration `envconfig:"MEDSTOCK_CRON_LOCK_TTL" default:"30m"`
}

// BootstrapConfig drives the explicit seeding routine; nothing here runs on startup
// unless FeatureFlags.AutoSeed is set in dev.
type BootstrapConfig struct {
	AdminUsername string `envconfig:"MEDSTOCK_SEED_ADMIN_USERNAME" default:"admin"`
	AdminPassword string `envconfig:"MEDSTOCK_SEED_ADMIN_PASSWORD"`
	StaffUsername string `envconfig:"MEDSTOCK_SEED_STAFF_USERNAME" default:"staff"`
	StaffPassword string `envconfig:"MEDSTOCK_SEED_STAFF_PASSWORD"`
	DemoInventory bool   `envconfig:"MEDSTOCK_SEED_DEMO_INVENTORY" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	partValues := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBPartEnvVars {
		if partValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
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
