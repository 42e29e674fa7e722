package config

const EnvPrefix = "FARMCONNECT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	StoreDriverRedis  = "redis"
	StoreDriverSQL    = "sql"
	StoreDriverFile   = "file"
	StoreDriverMemory = "memory"
)

const defaultSQLiteDSN = "file:farmconnect.db?cache=shared&_busy_timeout=5000"

const (
	EnvAppEnv      = "FARMCONNECT_APP_ENV"
	EnvPort        = "FARMCONNECT_APP_PORT"
	EnvLogLevel    = "FARMCONNECT_LOG_LEVEL"
	EnvStoreDriver = "FARMCONNECT_STORE_DRIVER"
	EnvStoreKey    = "FARMCONNECT_STORE_KEY"
	EnvStoreDir    = "FARMCONNECT_STORE_DIR"
	EnvDBDSN       = "FARMCONNECT_DB_DSN"
	EnvDBHost      = "FARMCONNECT_DB_HOST"
	EnvDBUser      = "FARMCONNECT_DB_USER"
	EnvDBPassword  = "FARMCONNECT_DB_PASSWORD"
	EnvDBName      = "FARMCONNECT_DB_NAME"
	EnvRedisURL    = "FARMCONNECT_REDIS_URL"
	EnvJWTSecret   = "FARMCONNECT_JWT_SECRET"
	EnvUseSQLite   = "FARMCONNECT_USE_SQLITE"
	EnvDeliveryFee = "FARMCONNECT_DELIVERY_FEE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
