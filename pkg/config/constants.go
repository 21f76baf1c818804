package config

// EnvPrefix scopes envconfig processing; individual fields carry explicit
// SHOPYARD_ names so the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv   = "SHOPYARD_APP_ENV"
	EnvPort     = "SHOPYARD_APP_PORT"
	EnvDBDSN    = "SHOPYARD_DB_DSN"
	EnvDBHost   = "SHOPYARD_DB_HOST"
	EnvDBUser   = "SHOPYARD_DB_USER"
	EnvDBName   = "SHOPYARD_DB_NAME"
	EnvRedisURL = "SHOPYARD_REDIS_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
