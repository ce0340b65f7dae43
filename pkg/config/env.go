package config

// EnvPrefix is passed to envconfig; every variable carries the full
// GATEPASS_ name in its tag, so the prefix itself stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "GATEPASS_DB_DSN"
	EnvDBHost = "GATEPASS_DB_HOST"
	EnvDBUser = "GATEPASS_DB_USER"
	EnvDBName = "GATEPASS_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
