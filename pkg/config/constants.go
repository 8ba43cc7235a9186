package config

const (
	EnvPrefix = "CARTSYNC"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	DefaultSQLiteDSN = "file:cartsync.db?cache=shared&_foreign_keys=on"
)

const (
	EnvAppEnv    = "CARTSYNC_APP_ENV"
	EnvPort      = "CARTSYNC_APP_PORT"
	EnvDBDSN     = "CARTSYNC_DB_DSN"
	EnvDBDriver  = "CARTSYNC_DB_DRIVER"
	EnvDBHost    = "CARTSYNC_DB_HOST"
	EnvDBUser    = "CARTSYNC_DB_USER"
	EnvDBName    = "CARTSYNC_DB_NAME"
	EnvRedisURL  = "CARTSYNC_REDIS_URL"
	EnvUseSQLite = "CARTSYNC_USE_SQLITE"

	EnvBackendBaseURL    = "CARTSYNC_BACKEND_BASE_URL"
	EnvBackendCustomerID = "CARTSYNC_BACKEND_CUSTOMER_ID"
	EnvBackendTimeout    = "CARTSYNC_BACKEND_TIMEOUT"
	EnvCatalogCacheTTL   = "CARTSYNC_CATALOG_CACHE_TTL"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
