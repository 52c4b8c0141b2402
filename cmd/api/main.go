// @title                      Notes API
// @version                    1.0
// @description                Multi-user notes backend: accounts, bearer tokens, notes and categories.
// @BasePath                   /
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
// @description                Type "Bearer" followed by a space and the access token.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/notekeeper/notes-api/internal/api"
	"github.com/notekeeper/notes-api/internal/api/handler"
	"github.com/notekeeper/notes-api/internal/core/ports"
	"github.com/notekeeper/notes-api/internal/core/service"
	"github.com/notekeeper/notes-api/internal/infrastructure/config"
	"github.com/notekeeper/notes-api/internal/infrastructure/db/mongo"
	"github.com/notekeeper/notes-api/internal/infrastructure/db/redis"
	"github.com/notekeeper/notes-api/internal/infrastructure/db/sqldb"
	"github.com/notekeeper/notes-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// storage bundles the repositories of the selected backend.
type storage struct {
	users      ports.UserRepository
	notes      ports.NoteRepository
	categories ports.CategoryRepository
	ping       handler.PingFunc
	close      func(ctx context.Context) error
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		boot := zerolog.New(os.Stderr).With().Timestamp().Logger()
		boot.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: "notes-api",
		Env:     cfg.Env,
	})

	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("failed to open storage")
	}

	readiness := map[string]handler.PingFunc{"database": store.ping}

	noteOpts := []service.NoteServiceOption{
		service.WithStrictOwnership(cfg.EnforceNoteOwnership),
	}

	var closeRedis func() error
	if cfg.Redis.Addr != "" {
		client, err := redis.Connect(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("failed to connect to redis")
		}
		closeRedis = client.Close
		readiness["redis"] = func(ctx context.Context) error { return redis.Ping(ctx, client) }
		noteOpts = append(noteOpts, service.WithIdempotencyStore(redis.NewIdempotencyStore(client, cfg.Redis.IdempotencyTTL)))
		log.Info().Str("addr", cfg.Redis.Addr).Msg("idempotent note creation enabled")
	}

	authService := service.NewAuthService(
		store.users,
		service.NewBcryptHasher(bcrypt.DefaultCost),
		service.NewTokenService(cfg.JWTSecret),
		log,
	)
	noteService := service.NewNoteService(store.notes, store.categories, log, noteOpts...)

	e := api.NewRouter(api.Dependencies{
		AuthService: authService,
		NoteService: noteService,
		Readiness:   readiness,
		Logger:      log,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if closeRedis != nil {
		if err := closeRedis(); err != nil {
			log.Error().Err(err).Msg("redis close")
		}
	}
	if err := store.close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("storage close")
	}
}

func openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*storage, error) {
	if cfg.Database.Driver == config.DriverMongo {
		client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		if err := mongo.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		ids, err := mongo.NewIDGenerator(cfg.Mongo.NodeID)
		if err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}

		log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongo")
		return &storage{
			users:      mongo.NewUserRepository(db, ids),
			notes:      mongo.NewNoteRepository(db, ids),
			categories: mongo.NewCategoryRepository(db, ids),
			ping:       func(ctx context.Context) error { return client.Ping(ctx, nil) },
			close:      client.Disconnect,
		}, nil
	}

	db, err := sqldb.Open(ctx, sqldb.Config{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.URL,
		Debug:  cfg.Database.Debug,
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("driver", cfg.Database.Driver).Msg("database ready")
	return &storage{
		users:      sqldb.NewUserRepository(db),
		notes:      sqldb.NewNoteRepository(db),
		categories: sqldb.NewCategoryRepository(db),
		ping:       func(ctx context.Context) error { return sqldb.Ping(ctx, db) },
		close:      func(context.Context) error { return sqldb.Close(db) },
	}, nil
}
