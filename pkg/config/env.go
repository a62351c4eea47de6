package config

// EnvPrefix is passed to envconfig; individual fields carry explicit
// FERRETERIA_* names so the prefix mainly documents intent.
const EnvPrefix = "FERRETERIA"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "FERRETERIA_DB_DSN"
	EnvDBHost = "FERRETERIA_DB_HOST"
	EnvDBUser = "FERRETERIA_DB_USER"
	EnvDBName = "FERRETERIA_DB_NAME"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
