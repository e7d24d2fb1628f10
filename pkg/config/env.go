package config

const (
	EnvPrefix = "LARDER"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "LARDER_APP_ENV"
	EnvPort     = "LARDER_APP_PORT"
	EnvLogLevel = "LARDER_LOG_LEVEL"

	EnvDBDSN  = "LARDER_DB_DSN"
	EnvDBHost = "LARDER_DB_HOST"
	EnvDBUser = "LARDER_DB_USER"
	EnvDBName = "LARDER_DB_NAME"

	EnvRedisURL = "LARDER_REDIS_URL"

	EnvJWTSecret = "LARDER_JWT_SECRET"
	EnvJWTIssuer = "LARDER_JWT_ISSUER"

	EnvCategoryRulesFile = "LARDER_SHOPPING_CATEGORY_RULES_FILE"
)
