package config

const (
	EnvPrefix = "QRMENU"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "QRMENU_APP_ENV"
	EnvPort     = "QRMENU_APP_PORT"
	EnvLogLevel = "QRMENU_LOG_LEVEL"

	EnvDBDSN  = "QRMENU_DB_DSN"
	EnvDBHost = "QRMENU_DB_HOST"
	EnvDBUser = "QRMENU_DB_USER"
	EnvDBName = "QRMENU_DB_NAME"

	EnvRedisURL = "QRMENU_REDIS_URL"

	EnvJWTSecret = "QRMENU_JWT_SECRET"
	EnvJWTTTL    = "QRMENU_JWT_TTL"

	EnvMenuBaseURL         = "QRMENU_MENU_PUBLIC_BASE_URL"
	EnvMenuRefreshInterval = "QRMENU_MENU_REFRESH_INTERVAL"
	EnvMenuTimezone        = "QRMENU_MENU_TIMEZONE"

	EnvCORSAllowedOrigins = "QRMENU_CORS_ALLOWED_ORIGINS"
)
