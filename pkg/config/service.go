package config

// Persistence types understood by identity.NewRepository
const (
	PersistenceMemory   = "memory"
	PersistenceFile     = "file"
	PersistencePostgres = "postgres"
	PersistenceMongo    = "mongo"
)

// PersistenceTypes lists the accepted PERSISTENCE_TYPE values
var PersistenceTypes = []string{PersistenceMemory, PersistenceFile, PersistencePostgres, PersistenceMongo}

// ServiceConfig holds the device-idm service settings
type ServiceConfig struct {
	Persistence    string   `env:"PERSISTENCE_TYPE" env-default:"memory"`
	DataDir        string   `env:"DATA_DIR" env-default:"./data"`
	TreePath       string   `env:"TREE_PATH" env-default:"config/tree.yaml"`
	LogLevel       string   `env:"LOG_LEVEL" env-default:"info"`
	BootstrapUsers []string `env:"BOOTSTRAP_USERS" env-separator:","`
}

func (s ServiceConfig) Validate() ValidationErrors {
	errs := CollectErrors(
		RequireOneOf("PERSISTENCE_TYPE", s.Persistence, PersistenceTypes),
		RequireNonEmpty("TREE_PATH", s.TreePath),
		RequireOneOf("LOG_LEVEL", s.LogLevel, []string{"debug", "info", "warn", "error"}),
	)
	if s.Persistence == PersistenceFile {
		errs = append(errs, CollectErrors(RequireNonEmpty("DATA_DIR", s.DataDir))...)
	}
	return errs
}
