package config

const (
	EnvPrefix = "ECOMMERCE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "ECOMMERCE_APP_ENV"
	EnvPort     = "ECOMMERCE_APP_PORT"
	EnvLogLevel = "ECOMMERCE_LOG_LEVEL"

	EnvDBDSN  = "ECOMMERCE_DB_DSN"
	EnvDBHost = "ECOMMERCE_DB_HOST"
	EnvDBUser = "ECOMMERCE_DB_USER"
	EnvDBName = "ECOMMERCE_DB_NAME"

	EnvRedisURL = "ECOMMERCE_REDIS_URL"

	EnvJWTSecret              = "ECOMMERCE_JWT_SECRET"
	EnvJWTIssuer              = "ECOMMERCE_JWT_ISSUER"
	EnvJWTExpMins             = "ECOMMERCE_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "ECOMMERCE_REFRESH_TOKEN_TTL_MINUTES"

	EnvCartConflictRetries = "ECOMMERCE_CART_CONFLICT_RETRIES"
	EnvUseSQLite           = "ECOMMERCE_USE_SQLITE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
