package config

const (
	EnvPrefix = "ZM"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv                 = "ZM_APP_ENV"
	EnvPort                   = "ZM_APP_PORT"
	EnvLogLevel               = "ZM_LOG_LEVEL"
	EnvDBDSN                  = "ZM_DB_DSN"
	EnvDBHost                 = "ZM_DB_HOST"
	EnvDBPort                 = "ZM_DB_PORT"
	EnvDBUser                 = "ZM_DB_USER"
	EnvDBPassword             = "ZM_DB_PASSWORD"
	EnvDBName                 = "ZM_DB_NAME"
	EnvRedisURL               = "ZM_REDIS_URL"
	EnvJWTSecret              = "ZM_JWT_SECRET"
	EnvJWTIssuer              = "ZM_JWT_ISSUER"
	EnvJWTExpMins             = "ZM_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "ZM_REFRESH_TOKEN_TTL_MINUTES"
	EnvOrdersTaxRate          = "ZM_ORDERS_TAX_RATE"
	EnvOrdersFlatShipping     = "ZM_ORDERS_FLAT_SHIPPING"
	EnvOrdersFreeShippingFrom = "ZM_ORDERS_FREE_SHIPPING_THRESHOLD"
	EnvOrdersReturnWindowDays = "ZM_ORDERS_RETURN_WINDOW_DAYS"
	EnvGCPProjectID           = "ZM_GCP_PROJECT_ID"
	EnvPubSubOrdersTopic      = "ZM_PUBSUB_ORDERS_TOPIC"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
