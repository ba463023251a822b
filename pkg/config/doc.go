// Package config holds the env-driven configuration structs of device-idm.
//
// Each struct carries cleanenv `env` / `env-default` tags and is read by the
// binary with cleanenv.ReadEnv. Every struct also has a Validate method
// returning ValidationErrors, so the binary can check all of them at once:
//
//	if err := config.Validate(cfg.Service.Validate, cfg.Jwt.Validate); err != nil {
//		slog.Error("Invalid configuration", "error", err)
//		os.Exit(1)
//	}
//
// # Environment Variables
//
//	PERSISTENCE_TYPE  memory | file | postgres | mongo (default memory)
//	DATA_DIR          directory for the file repository (default ./data)
//	TREE_PATH         authentication tree YAML (default config/tree.yaml)
//	LOG_LEVEL         debug | info | warn | error (default info)
//	BOOTSTRAP_USERS   comma-separated usernames created at startup
//	IDM_PG_*          PostgreSQL connection settings
//	MONGO_URI         MongoDB connection string
//	MONGO_DATABASE    MongoDB database name
//	REDIS_URL         Redis URL for suspended attempts; empty keeps them in memory
//	ATTEMPT_TTL       how long a suspended attempt may wait (default 5m)
//	JWT_SECRET        HS256 secret for the device-management API
//	RATE_LIMIT_*      token bucket sizes for /authenticate and the device API
//	CORS_ALLOWED_ORIGINS  comma-separated browser origins allowed to call the API
package config
