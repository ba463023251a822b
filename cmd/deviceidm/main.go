package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/tendant/chi-demo/app"
	"github.com/tendant/device-idm/pkg/authflow"
	authflowapi "github.com/tendant/device-idm/pkg/authflow/api"
	"github.com/tendant/device-idm/pkg/bootstrap"
	pkgconfig "github.com/tendant/device-idm/pkg/config"
	"github.com/tendant/device-idm/pkg/device"
	deviceapi "github.com/tendant/device-idm/pkg/device/api"
	"github.com/tendant/device-idm/pkg/deviceattr"
	"github.com/tendant/device-idm/pkg/identity"
	"github.com/tendant/device-idm/pkg/ratelimit"
	"github.com/tendant/device-idm/pkg/session"
)

type Config struct {
	AppConfig     app.AppConfig
	ServiceConfig pkgconfig.ServiceConfig
	IdmDbConfig   pkgconfig.DatabaseConfig
	MongoConfig   pkgconfig.MongoConfig
	RedisConfig   pkgconfig.RedisConfig
	JwtConfig     pkgconfig.JWTConfig
	RateLimit     pkgconfig.RateLimitConfig
	CORS          pkgconfig.CORSConfig
}

// validate checks the sections the selected backends actually use
func (c Config) validate() error {
	validators := []pkgconfig.Validator{
		c.ServiceConfig.Validate,
		c.RedisConfig.Validate,
		c.JwtConfig.Validate,
		c.RateLimit.Validate,
	}
	switch c.ServiceConfig.Persistence {
	case pkgconfig.PersistencePostgres:
		validators = append(validators, c.IdmDbConfig.Validate)
	case pkgconfig.PersistenceMongo:
		validators = append(validators, c.MongoConfig.Validate)
	}
	return pkgconfig.Validate(validators...)
}

// loadEnvFile loads a .env file from the executable directory or the working directory
func loadEnvFile() {
	candidates := []string{}
	if execPath, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(execPath), ".env"))
	}
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, ".env"))
	}

	for _, envFile := range candidates {
		if _, err := os.Stat(envFile); err != nil {
			continue
		}
		if err := godotenv.Load(envFile); err != nil {
			slog.Error("Failed to load .env file", "error", err, "path", envFile)
			return
		}
		slog.Info("Configuration loaded from .env file", "path", envFile)
		return
	}
	slog.Debug("No .env file found, using environment only")
}

func parseLogLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func main() {
	loadEnvFile()

	config := Config{}
	if err := cleanenv.ReadEnv(&config); err != nil {
		slog.Error("Failed to read configuration", "error", err)
		os.Exit(-1)
	}

	pflag.StringVar(&config.ServiceConfig.Persistence, "persistence", config.ServiceConfig.Persistence, "identity persistence: memory, file, postgres or mongo")
	pflag.StringVar(&config.ServiceConfig.TreePath, "tree", config.ServiceConfig.TreePath, "authentication tree YAML file")
	pflag.StringVar(&config.ServiceConfig.DataDir, "data-dir", config.ServiceConfig.DataDir, "data directory for file persistence")
	pflag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
		Level:     parseLogLevel(config.ServiceConfig.LogLevel),
	}))
	slog.SetDefault(logger)

	if err := config.validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(-1)
	}

	ctx := context.Background()

	repoConfig := identity.RepositoryConfig{DataDir: config.ServiceConfig.DataDir}
	switch config.ServiceConfig.Persistence {
	case pkgconfig.PersistencePostgres:
		pool, err := pgxpool.New(ctx, config.IdmDbConfig.ToDatabaseURL())
		if err != nil {
			slog.Error("Failed creating dbpool", "db", config.IdmDbConfig.Database, "host", config.IdmDbConfig.Host, "port", config.IdmDbConfig.Port, "error", err)
			os.Exit(-1)
		}
		defer pool.Close()
		repoConfig.DB = pool
	case pkgconfig.PersistenceMongo:
		client, err := identity.ConnectMongo(ctx, config.MongoConfig.URI)
		if err != nil {
			slog.Error("Failed connecting to mongo", "error", err)
			os.Exit(-1)
		}
		defer client.Disconnect(ctx)
		repoConfig.Mongo = client.Database(config.MongoConfig.Database)
	}

	identityRepo, err := identity.NewRepository(config.ServiceConfig.Persistence, repoConfig)
	if err != nil {
		slog.Error("Failed to create identity repository", "persistence", config.ServiceConfig.Persistence, "error", err)
		os.Exit(-1)
	}
	if mongoRepo, ok := identityRepo.(*identity.MongoRepository); ok {
		if err := mongoRepo.EnsureIndexes(ctx); err != nil {
			slog.Error("Failed to create mongo indexes", "error", err)
			os.Exit(-1)
		}
	}
	slog.Info("Identity repository ready", "persistence", config.ServiceConfig.Persistence)

	if len(config.ServiceConfig.BootstrapUsers) > 0 {
		result, err := bootstrap.EnsureUsers(ctx, identityRepo, config.ServiceConfig.BootstrapUsers)
		if err != nil {
			slog.Error("Failed to bootstrap users", "error", err)
			os.Exit(-1)
		}
		bootstrap.PrintUsersResult(os.Stdout, result)
		bootstrap.LogUsersSummary(result)
	}

	var attempts session.Store
	if config.RedisConfig.Enabled() {
		client, err := session.ConnectRedis(ctx, config.RedisConfig.URL)
		if err != nil {
			slog.Error("Failed connecting to redis", "error", err)
			os.Exit(-1)
		}
		defer client.Close()
		attempts = session.NewRedisStore(client, config.RedisConfig.AttemptTTL)
		slog.Info("Suspended attempts stored in redis")
	} else {
		attempts = session.NewInMemStore(config.RedisConfig.AttemptTTL)
		slog.Info("Suspended attempts stored in memory")
	}

	tree, err := authflow.LoadTree(config.ServiceConfig.TreePath)
	if err != nil {
		slog.Error("Failed to load authentication tree", "path", config.ServiceConfig.TreePath, "error", err)
		os.Exit(-1)
	}

	resolver := identity.NewResolver(identityRepo)
	records := device.NewRecordRepository(identityRepo)

	executor, err := authflow.NewExecutor(tree, authflow.Dependencies{Resolver: resolver, Records: records}, attempts)
	if err != nil {
		slog.Error("Failed to build authentication tree", "error", err)
		os.Exit(-1)
	}

	deviceStore := device.NewStore(resolver, records, deviceattr.Collectable)
	tokenAuth := jwtauth.New("HS256", []byte(config.JwtConfig.Secret), nil)

	authHandler := authflowapi.Handler(authflowapi.NewHandle(executor))
	var deviceMiddlewares []func(http.Handler) http.Handler
	if config.RateLimit.Enabled {
		authLimiter := ratelimit.NewLimiter(config.RateLimit.AuthBurst, config.RateLimit.AuthPerMinute)
		deviceLimiter := ratelimit.NewLimiter(config.RateLimit.DeviceBurst, config.RateLimit.DevicePerMinute)
		go authLimiter.RunSweeper(ctx, config.RateLimit.BucketTTL)
		go deviceLimiter.RunSweeper(ctx, config.RateLimit.BucketTTL)

		authHandler = middleware.RealIP(ratelimit.NewMiddleware("authenticate", authLimiter, ratelimit.ClientIP).Handler(authHandler))
		deviceMiddlewares = append(deviceMiddlewares, ratelimit.NewMiddleware("device", deviceLimiter, ratelimit.TokenSubject).Handler)
		slog.Info("Rate limiting configured",
			"auth_burst", config.RateLimit.AuthBurst, "auth_per_minute", config.RateLimit.AuthPerMinute,
			"device_burst", config.RateLimit.DeviceBurst, "device_per_minute", config.RateLimit.DevicePerMinute)
	}

	api := chi.NewRouter()
	if config.CORS.Enabled() {
		api.Use(cors.Handler(cors.Options{
			AllowedOrigins:   config.CORS.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           config.CORS.MaxAge,
		}))
		slog.Info("CORS enabled", "origins", config.CORS.AllowedOrigins)
	}
	api.Mount("/auth", authHandler)
	api.Mount("/device", deviceapi.Handler(deviceapi.NewDeviceHandler(deviceStore), tokenAuth, deviceMiddlewares...))

	server := app.DefaultApp()
	app.RegisterHealthzRoutes(server.R)
	server.R.Mount("/api/idm", api)

	slog.Info("Starting device-idm", "tree", config.ServiceConfig.TreePath, "start", tree.Start)
	server.Run()
}
