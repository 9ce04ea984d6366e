package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klwxsrx/edu-resource-client/internal/auth/infra/storage"
	"github.com/klwxsrx/edu-resource-client/internal/auth/refresh"
	"github.com/klwxsrx/edu-resource-client/internal/auth/session"
	"github.com/klwxsrx/edu-resource-client/pkg/cmd"
	"github.com/klwxsrx/edu-resource-client/pkg/env"
	"github.com/klwxsrx/edu-resource-client/pkg/event"
	"github.com/klwxsrx/edu-resource-client/pkg/http"
	"github.com/klwxsrx/edu-resource-client/pkg/lazy"
	"github.com/klwxsrx/edu-resource-client/pkg/log"
	"github.com/klwxsrx/edu-resource-client/pkg/redis"
	"github.com/klwxsrx/edu-resource-client/pkg/sql"
	pkgtime "github.com/klwxsrx/edu-resource-client/pkg/time"
)

const (
	BackendDestination http.Destination = "edu-resource"

	SessionStorageMemory = "memory"
	SessionStorageFile   = "file"
	SessionStorageRedis  = "redis"
	SessionStorageSQL    = "sql"

	defaultBackendURL  = "http://localhost:8080/api"
	defaultSessionFile = "educlient/session.json"
)

type InfrastructureContainer struct {
	Logger            lazy.Loader[log.Logger]
	Clock             lazy.Loader[pkgtime.Clock]
	EventDispatcher   lazy.Loader[event.Dispatcher]
	HTTPClientFactory lazy.Loader[HTTPClientFactory]
	Backend           lazy.Loader[http.Client]
	SessionStorage    lazy.Loader[session.Storage]
	Redis             lazy.Loader[*redis.Client]
	DBMigrations      lazy.Loader[SQLMigrations]
	DB                lazy.Loader[sql.Database]
}

func NewInfrastructureContainer(ctx context.Context) *InfrastructureContainer {
	logger := loggerProvider()
	httpClientFactory := httpClientFactoryProvider(logger)

	redisClient := redisProvider(ctx, logger)
	db := sqlDatabaseProvider(ctx, logger)
	dbMigrations := sqlMigrationsProvider(ctx, db, logger)

	return &InfrastructureContainer{
		Logger:            logger,
		Clock:             clockProvider(),
		EventDispatcher:   lazy.New(func() (event.Dispatcher, error) { return event.NewDispatcher(), nil }),
		HTTPClientFactory: httpClientFactory,
		Backend:           backendClientProvider(httpClientFactory),
		SessionStorage:    sessionStorageProvider(logger, redisClient, db, dbMigrations),
		Redis:             redisClient,
		DBMigrations:      dbMigrations,
		DB:                db,
	}
}

// RefreshOptions reads the TOKEN_REFRESH_* settings, unset ones keep the coordinator defaults.
func (i *InfrastructureContainer) RefreshOptions() []refresh.Option {
	opts := []refresh.Option{refresh.WithClock(i.Clock.MustLoad())}

	buffer := env.Must(env.ParseOptional[time.Duration]("TOKEN_REFRESH_BUFFER"))
	if buffer != nil {
		opts = append(opts, refresh.WithExpiryBuffer(*buffer))
	}

	timeout := env.Must(env.ParseOptional[time.Duration]("TOKEN_REFRESH_TIMEOUT"))
	if timeout != nil {
		opts = append(opts, refresh.WithTimeout(*timeout))
	}

	maxRetries := env.Must(env.ParseOptional[uint64]("TOKEN_REFRESH_MAX_RETRIES"))
	if maxRetries != nil {
		interval := env.Must(env.ParseWithDefault("TOKEN_REFRESH_RETRY_INTERVAL", 500*time.Millisecond))
		opts = append(opts, refresh.WithRetries(*maxRetries, interval))
	}

	return opts
}

func (i *InfrastructureContainer) Close(ctx context.Context) {
	i.Redis.IfLoaded(func(client *redis.Client) { client.Close(ctx) })
	i.DB.IfLoaded(func(db sql.Database) { db.Close(ctx) })
}

func loggerProvider() lazy.Loader[log.Logger] {
	return lazy.New(func() (log.Logger, error) {
		return cmd.InitLogger(log.WithWriter(os.Stderr)), nil
	})
}

// clockProvider applies TOKEN_CLOCK_SKEW, for hosts whose clock drifts from the backend.
func clockProvider() lazy.Loader[pkgtime.Clock] {
	return lazy.New(func() (pkgtime.Clock, error) {
		skew, err := env.ParseWithDefault[time.Duration]("TOKEN_CLOCK_SKEW", 0)
		if err != nil {
			return nil, err
		}
		return pkgtime.WithSkew(pkgtime.NewClock(), skew), nil
	})
}

func httpClientFactoryProvider(
	logger lazy.Loader[log.Logger],
) lazy.Loader[HTTPClientFactory] {
	return lazy.New(func() (HTTPClientFactory, error) {
		opts := []http.ClientOption{
			http.WithRequestID(http.DefaultRequestIDHeader),
			http.WithRequestLogging(logger.MustLoad(), log.LevelDebug, log.LevelWarn),
		}

		timeout := env.Must(env.ParseOptional[time.Duration]("HTTP_CLIENT_TIMEOUT"))
		if timeout != nil {
			opts = append(opts, http.WithTimeout(*timeout))
		}

		return NewHTTPClientFactory(opts...), nil
	})
}

func backendClientProvider(factory lazy.Loader[HTTPClientFactory]) lazy.Loader[http.Client] {
	return lazy.New(func() (http.Client, error) {
		return factory.MustLoad().InitClient(BackendDestination, defaultBackendURL)
	})
}

func sessionStorageProvider(
	logger lazy.Loader[log.Logger],
	redisClient lazy.Loader[*redis.Client],
	db lazy.Loader[sql.Database],
	dbMigrations lazy.Loader[SQLMigrations],
) lazy.Loader[session.Storage] {
	return lazy.New(func() (session.Storage, error) {
		kind := env.Must(env.ParseWithDefault("SESSION_STORAGE", SessionStorageFile))
		switch kind {
		case SessionStorageMemory:
			return storage.NewMemory(), nil
		case SessionStorageFile:
			path := env.Must(env.ParseOptional[string]("SESSION_STORAGE_FILE"))
			if path != nil {
				return storage.NewFile(*path, logger.MustLoad()), nil
			}

			configDir, err := os.UserConfigDir()
			if err != nil {
				return nil, fmt.Errorf("resolve session file: %w", err)
			}
			return storage.NewFile(filepath.Join(configDir, defaultSessionFile), logger.MustLoad()), nil
		case SessionStorageRedis:
			prefix := env.Must(env.ParseWithDefault("REDIS_KEY_PREFIX", storage.DefaultRedisKeyPrefix))
			return storage.NewRedis(redisClient.MustLoad(), prefix), nil
		case SessionStorageSQL:
			dbMigrations.MustLoad().MustRegister(storage.SQLMigrations())
			return storage.NewSQL(db.MustLoad()), nil
		default:
			return nil, fmt.Errorf("unknown session storage %q", kind)
		}
	})
}

func redisProvider(
	ctx context.Context,
	logger lazy.Loader[log.Logger],
) lazy.Loader[*redis.Client] {
	return lazy.New(func() (*redis.Client, error) {
		config := &redis.Config{
			Address:  env.Must(env.Parse[string]("REDIS_ADDRESS")),
			Password: env.Must(env.ParseWithDefault("REDIS_PASSWORD", "")),
			DB:       env.Must(env.ParseWithDefault("REDIS_DB", 0)),
		}
		connTimeout := env.Must(env.ParseOptional[time.Duration]("REDIS_CONNECTION_TIMEOUT"))
		if connTimeout != nil {
			config.ConnectionTimeout = *connTimeout
		}

		client, err := redis.NewClient(ctx, config, logger.MustLoad())
		if err != nil {
			panic(fmt.Errorf("open redis connection: %w", err))
		}

		return client, nil
	})
}

func sqlDatabaseProvider(
	ctx context.Context,
	logger lazy.Loader[log.Logger],
) lazy.Loader[sql.Database] {
	return lazy.New(func() (sql.Database, error) {
		sqlConfig := &sql.Config{
			DSN: sql.DSN{
				User:     env.Must(env.Parse[string]("SQL_USER")),
				Password: env.Must(env.Parse[string]("SQL_PASSWORD")),
				Address:  env.Must(env.Parse[string]("SQL_ADDRESS")),
				Database: env.Must(env.Parse[string]("SQL_DATABASE")),
			},
		}
		sqlConnTimeout := env.Must(env.ParseOptional[time.Duration]("SQL_CONNECTION_TIMEOUT"))
		if sqlConnTimeout != nil {
			sqlConfig.ConnectionTimeout = *sqlConnTimeout
		}

		db, err := sql.NewDatabase(ctx, sqlConfig, logger.MustLoad())
		if err != nil {
			panic(fmt.Errorf("open sql connection: %w", err))
		}

		return db, nil
	})
}

func sqlMigrationsProvider(
	ctx context.Context,
	db lazy.Loader[sql.Database],
	logger lazy.Loader[log.Logger],
) lazy.Loader[SQLMigrations] {
	return lazy.New(func() (SQLMigrations, error) {
		return NewSQLMigrations(ctx, db.MustLoad(), logger.MustLoad()), nil
	})
}
