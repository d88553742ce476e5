package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ignatzorin/career-compass/internal/config"
	"github.com/ignatzorin/career-compass/internal/db"
	"github.com/ignatzorin/career-compass/internal/http/handlers"
	"github.com/ignatzorin/career-compass/internal/logger"
	"github.com/ignatzorin/career-compass/internal/repository/memory"
)

// Storage открытое хранилище выбранного драйвера.
type Storage struct {
	Driver   string
	Repos    Repositories
	Checks   map[string]handlers.PingFunc
	Postgres *sqlx.DB
	Mongo    *mongo.Database
	Memory   *memory.Store

	closers []func()
}

// OpenStorage подключается к хранилищу из cfg.StoreDriver. migrate применяет
// SQL миграции для postgres и индексы для mongo.
func OpenStorage(ctx context.Context, cfg *config.Config, migrate bool) (*Storage, error) {
	s := &Storage{Driver: cfg.StoreDriver, Checks: map[string]handlers.PingFunc{}}
	log := logger.Component("storage").WithField("driver", cfg.StoreDriver)

	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		conn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func() {
			if err := conn.Close(); err != nil {
				log.WithError(err).Warn("ошибка закрытия postgres")
			}
		})
		if migrate {
			if _, err := db.RunMigrations(ctx, conn, cfg.MigrationsPath); err != nil {
				s.Close()
				return nil, err
			}
		}
		s.Postgres = conn
		s.Repos = PostgresRepositories(conn)
		s.Checks["database"] = conn.PingContext

	case config.StoreDriverMongo:
		client, database, err := db.NewMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.WithError(err).Warn("ошибка отключения от mongo")
			}
		})
		if migrate {
			if err := db.EnsureMongoIndexes(ctx, database); err != nil {
				s.Close()
				return nil, err
			}
		}
		s.Mongo = database
		s.Repos = MongoRepositories(database)
		s.Checks["database"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }

	case config.StoreDriverMemory:
		s.Memory = memory.NewStore()
		s.Repos = MemoryRepositories(s.Memory)

	default:
		return nil, fmt.Errorf("app: неизвестный драйвер хранилища %q", cfg.StoreDriver)
	}

	log.Info("хранилище подключено")
	return s, nil
}

// Close закрывает соединения в обратном порядке.
func (s *Storage) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}
