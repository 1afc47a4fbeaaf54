package config

// EnvPrefix is passed to envconfig when parsing the environment.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Names of the database variables referenced in error messages when no
// usable connection settings are present.
const (
	EnvDBDSN  = "EVENTMANAGER_DB_DSN"
	EnvDBHost = "EVENTMANAGER_DB_HOST"
	EnvDBUser = "EVENTMANAGER_DB_USER"
	EnvDBName = "EVENTMANAGER_DB_NAME"
)
