package config

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv                = "STOREFRONT_APP_ENV"
	EnvPort                  = "STOREFRONT_APP_PORT"
	EnvLogLevel              = "STOREFRONT_LOG_LEVEL"
	EnvAPIBaseURL            = "STOREFRONT_API_BASE_URL"
	EnvAPITimeout            = "STOREFRONT_API_TIMEOUT"
	EnvAPIAccessToken        = "STOREFRONT_API_ACCESS_TOKEN"
	EnvGatewayHandoffTimeout = "STOREFRONT_GATEWAY_HANDOFF_TIMEOUT"
	EnvRedisURL              = "STOREFRONT_REDIS_URL"
	EnvReconcileInterval     = "STOREFRONT_RECONCILE_INTERVAL"
)
