package config

// EnvPrefix scopes every environment variable consumed by envconfig.
const EnvPrefix = "DRIFTKINGS"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "DRIFTKINGS_DB_DSN"
	EnvDBHost = "DRIFTKINGS_DB_HOST"
	EnvDBUser = "DRIFTKINGS_DB_USER"
	EnvDBName = "DRIFTKINGS_DB_NAME"
)

var componentDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
