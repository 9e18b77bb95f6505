package config

// EnvPrefix is the envconfig prefix shared by every variable.
const EnvPrefix = "LEXORA"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv     = "LEXORA_APP_ENV"
	EnvPort       = "LEXORA_APP_PORT"
	EnvDBDSN      = "LEXORA_DB_DSN"
	EnvDBHost     = "LEXORA_DB_HOST"
	EnvDBUser     = "LEXORA_DB_USER"
	EnvDBName     = "LEXORA_DB_NAME"
	EnvRedisURL   = "LEXORA_REDIS_URL"
	EnvJWTSecret  = "LEXORA_JWT_SECRET"
	EnvJWTIssuer  = "LEXORA_JWT_ISSUER"
	EnvJWTExpMins = "LEXORA_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
