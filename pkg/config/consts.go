package config

// EnvPrefix is passed to envconfig; all variables carry the explicit
// PETVERSE_ prefix in their tags so the prefix itself stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv         = "PETVERSE_APP_ENV"
	EnvPort           = "PETVERSE_APP_PORT"
	EnvDBDSN          = "PETVERSE_DB_DSN"
	EnvDBHost         = "PETVERSE_DB_HOST"
	EnvDBUser         = "PETVERSE_DB_USER"
	EnvDBName         = "PETVERSE_DB_NAME"
	EnvRedisURL       = "PETVERSE_REDIS_URL"
	EnvJWTSecret      = "PETVERSE_JWT_SECRET"
	EnvJWTIssuer      = "PETVERSE_JWT_ISSUER"
	EnvJWTExpMins     = "PETVERSE_JWT_EXPIRATION_MINUTES"
	EnvTaxRate        = "PETVERSE_PRICING_TAX_RATE"
	EnvCommissionRate = "PETVERSE_SETTLEMENT_COMMISSION_RATE"
	EnvPlatformUserID = "PETVERSE_WALLET_PLATFORM_USER_ID"
)

var componentDBEnvVars = []string{
	EnvDBHost,
	EnvDBUser,
	EnvDBName,
}
