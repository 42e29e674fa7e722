package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	Store         StoreConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Marketplace   MarketplaceConfig
	Cron          CronConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Store.validate(); err != nil {
		return nil, err
	}
	if cfg.Store.UsesSQL() {
		if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FARMCONNECT_APP_ENV" required:"true"`
	Port         string `envconfig:"FARMCONNECT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"FARMCONNECT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FARMCONNECT_LOG_WARN_STACK" default:"false"`

	CORSAllowedOrigins []string `envconfig:"FARMCONNECT_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"FARMCONNECT_SERVICE_KIND" default:"api"`
}

// StoreConfig selects where the marketplace snapshot document lives.
type StoreConfig struct {
	Driver           string `envconfig:"FARMCONNECT_STORE_DRIVER" default:"redis"`
	Key              string `envconfig:"FARMCONNECT_STORE_KEY" default:"farmconnect_data"`
	Dir              string `envconfig:"FARMCONNECT_STORE_DIR" default:"data"`
	SeedSampleData   bool   `envconfig:"FARMCONNECT_STORE_SEED_SAMPLE_DATA" default:"false"`
	MaxWriteAttempts int    `envconfig:"FARMCONNECT_STORE_MAX_WRITE_ATTEMPTS" default:"5"`
}

// UsesSQL reports whether the snapshot is kept in the kv_documents table.
func (s StoreConfig) UsesSQL() bool {
	return strings.EqualFold(s.Driver, StoreDriverSQL)
}

func (s StoreConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(s.Driver)) {
	case StoreDriverRedis, StoreDriverSQL, StoreDriverMemory:
	case StoreDriverFile:
		if strings.TrimSpace(s.Dir) == "" {
			return fmt.Errorf("%s is required when %s=%s", EnvStoreDir, EnvStoreDriver, StoreDriverFile)
		}
	default:
		return fmt.Errorf("unsupported %s %q", EnvStoreDriver, s.Driver)
	}
	if strings.TrimSpace(s.Key) == "" {
		return fmt.Errorf("%s must not be empty", EnvStoreKey)
	}
	return nil
}

type DBConfig struct {
	DSN    string `envconfig:"FARMCONNECT_DB_DSN"`
	Driver string `envconfig:"FARMCONNECT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FARMCONNECT_DB_HOST"`
	LegacyPort     int    `envconfig:"FARMCONNECT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FARMCONNECT_DB_USER"`
	LegacyPassword string `envconfig:"FARMCONNECT_DB_PASSWORD"`
	LegacyName     string `envconfig:"FARMCONNECT_DB_NAME"`
	LegacySSLMode  string `envconfig:"FARMCONNECT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FARMCONNECT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FARMCONNECT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FARMCONNECT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FARMCONNECT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FARMCONNECT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FARMCONNECT_REDIS_ADDR"`
	Password     string        `envconfig:"FARMCONNECT_REDIS_PASSWORD"`
	DB           int           `envconfig:"FARMCONNECT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FARMCONNECT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FARMCONNECT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FARMCONNECT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FARMCONNECT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FARMCONNECT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"FARMCONNECT_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"FARMCONNECT_JWT_ISSUER" default:"farmconnect"`
	ExpirationMinutes      int    `envconfig:"FARMCONNECT_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"FARMCONNECT_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// AccessTokenTTL returns the access token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"FARMCONNECT_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"FARMCONNECT_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"FARMCONNECT_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"FARMCONNECT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"FARMCONNECT_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"FARMCONNECT_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"FARMCONNECT_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"FARMCONNECT_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"FARMCONNECT_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"FARMCONNECT_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"FARMCONNECT_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
	// RegisterFarmerIPLimit is a separate per-address budget for farmer sign-ups.
	RegisterFarmerIPLimit int `envconfig:"FARMCONNECT_AUTH_RATE_LIMIT_REGISTER_FARMER_IP_LIMIT" default:"5"`
}

// MarketplaceConfig holds the business knobs the storefront shows to buyers.
type MarketplaceConfig struct {
	FreeDeliveryThreshold  decimal.Decimal `envconfig:"FARMCONNECT_FREE_DELIVERY_THRESHOLD" default:"500"`
	DeliveryFee            decimal.Decimal `envconfig:"FARMCONNECT_DELIVERY_FEE" default:"50"`
	SubscriptionPeriodDays int             `envconfig:"FARMCONNECT_SUBSCRIPTION_PERIOD_DAYS" default:"30"`
	NotificationRetention  time.Duration   `envconfig:"FARMCONNECT_NOTIFICATION_RETENTION" default:"720h"`
}

// SubscriptionPeriod is how long an activation lasts when no end date is supplied.
func (m MarketplaceConfig) SubscriptionPeriod() time.Duration {
	if m.SubscriptionPeriodDays <= 0 {
		return 30 * 24 * time.Hour
	}
	return time.Duration(m.SubscriptionPeriodDays) * 24 * time.Hour
}

type CronConfig struct {
	Interval time.Duration `envconfig:"FARMCONNECT_CRON_INTERVAL" default:"1h"`
	LockTTL  time.Duration `envconfig:"FARMCONNECT_CRON_LOCK_TTL" default:"10m"`
	// DisabledJobs lists job names to skip, comma separated.
	DisabledJobs []string `envconfig:"FARMCONNECT_CRON_DISABLED_JOBS"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"FARMCONNECT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"FARMCONNECT_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" {
		return nil
	}
	if useSQLite {
		db.DSN = defaultSQLiteDSN
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
