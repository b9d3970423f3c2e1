package config

const (
	EnvPrefix = "convoy"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "CONVOY_DB_DSN"
	EnvDBHost = "CONVOY_DB_HOST"
	EnvDBUser = "CONVOY_DB_USER"
	EnvDBName = "CONVOY_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
