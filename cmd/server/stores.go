package main

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	_ "github.com/mattn/go-sqlite3"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/gurkanbulca/taskboard/internal/config"
	"github.com/gurkanbulca/taskboard/internal/database"
	"github.com/gurkanbulca/taskboard/internal/models"
	"github.com/gurkanbulca/taskboard/internal/schema"
	"github.com/gurkanbulca/taskboard/internal/service"
	"github.com/gurkanbulca/taskboard/internal/storage"
	"github.com/gurkanbulca/taskboard/internal/storage/httpstore"
	"github.com/gurkanbulca/taskboard/internal/storage/memory"
	"github.com/gurkanbulca/taskboard/internal/storage/redisstore"
	"github.com/gurkanbulca/taskboard/internal/storage/sqlstore"
	"github.com/gurkanbulca/taskboard/internal/storage/tablestore"
)

// stores is the storage selected by configuration plus whatever must be
// closed on shutdown.
type stores struct {
	tasks      service.TaskStore
	categories service.CategoryStore
	shape      schema.Shape
	closers    []func() error
}

func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			log.WithError(err).Warn("close storage")
		}
	}
}

type idConfig struct {
	strategy string
	redis    redis.Cmdable
	prefix   string
}

// newStore builds a Store whose id allocator, if any, reads the store's own
// maximum.
func newStore[T storage.Entity[T, P], P storage.Patch, R storage.Record[R]](ids idConfig, kind string, backend storage.Backend[R], mapper schema.Mapper[T, R]) *storage.Store[T, P, R] {
	var store *storage.Store[T, P, R]
	maxID := func(ctx context.Context) (int, error) { return store.MaxID(ctx) }

	var opts []storage.Option
	switch ids.strategy {
	case config.IDSequence:
		opts = append(opts, storage.WithIDs(storage.NewSequence(maxID)))
	case config.IDMaxPlusOne:
		opts = append(opts, storage.WithIDs(storage.NewMaxPlusOne(maxID)))
	case config.IDRedis:
		opts = append(opts, storage.WithIDs(redisstore.NewSequence(ids.redis, redisstore.SequenceKey(ids.prefix, kind), maxID)))
	}
	store = storage.NewStore[T, P, R](kind, backend, mapper, opts...)
	return store
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	s := &stores{}
	ids := idConfig{strategy: cfg.Storage.IDStrategy, prefix: cfg.Redis.KeyPrefix}

	var rdb *redis.Client
	if cfg.Storage.Backend == config.BackendRedis || cfg.Storage.IDStrategy == config.IDRedis {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		s.closers = append(s.closers, rdb.Close)
		ids.redis = rdb
	}

	switch cfg.Storage.Backend {
	case config.BackendMemory:
		latency := cfg.Storage.LocalLatency
		s.tasks = newStore[models.Task, models.TaskPatch, schema.LocalTask](ids, "task",
			memory.New("task", memory.WithLatency[schema.LocalTask](latency)), schema.LocalTaskMapper{})
		s.categories = newStore[models.Category, models.CategoryPatch, schema.LocalCategory](ids, "category",
			memory.New("category", memory.WithLatency[schema.LocalCategory](latency)), schema.LocalCategoryMapper{})
		s.shape = schema.LocalTaskMapper{}.Shape()

	case config.BackendRedis:
		s.tasks = newStore[models.Task, models.TaskPatch, schema.LocalTask](ids, "task",
			redisstore.New[schema.LocalTask](rdb, cfg.Redis.KeyPrefix, "task"), schema.LocalTaskMapper{})
		s.categories = newStore[models.Category, models.CategoryPatch, schema.LocalCategory](ids, "category",
			redisstore.New[schema.LocalCategory](rdb, cfg.Redis.KeyPrefix, "category"), schema.LocalCategoryMapper{})
		s.shape = schema.LocalTaskMapper{}.Shape()

	case config.BackendSQL:
		db, err := database.Open(database.Config{
			Driver:   cfg.Database.Driver,
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
			DSN:      cfg.Database.DSN,
			Debug:    cfg.IsDevelopment(),
		})
		if err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, db.Close)
		if cfg.Database.AutoMigrate {
			if err := sqlstore.Migrate(ctx, database.EntDriver(db, cfg.IsDevelopment())); err != nil {
				s.Close()
				return nil, fmt.Errorf("run auto migration: %w", err)
			}
			log.Info("auto migration completed")
		}
		s.tasks = newStore[models.Task, models.TaskPatch, schema.RemoteTask](ids, "task", sqlstore.NewTasks(db), schema.RemoteTaskMapper{})
		s.categories = newStore[models.Category, models.CategoryPatch, schema.RemoteCategory](ids, "category", sqlstore.NewCategories(db), schema.RemoteCategoryMapper{})
		s.shape = schema.RemoteTaskMapper{}.Shape()

	case config.BackendHTTP:
		remote := httpstore.Config{
			BaseURL: cfg.Remote.BaseURL,
			APIKey:  cfg.Remote.APIKey,
			Timeout: cfg.Remote.Timeout,
		}
		s.tasks = newStore[models.Task, models.TaskPatch, schema.RemoteTask](ids, "task",
			httpstore.New[schema.RemoteTask](remote, cfg.Remote.TasksTable, "task"), schema.RemoteTaskMapper{})
		s.categories = newStore[models.Category, models.CategoryPatch, schema.RemoteCategory](ids, "category",
			httpstore.New[schema.RemoteCategory](remote, cfg.Remote.CategoriesTable, "category"), schema.RemoteCategoryMapper{})
		s.shape = schema.RemoteTaskMapper{}.Shape()

	case config.BackendTable:
		svc, err := tablestore.NewServiceClient(cfg.Table.ConnectionString)
		if err != nil {
			s.Close()
			return nil, err
		}
		tasksTable := svc.NewClient(cfg.Table.Tasks)
		categoriesTable := svc.NewClient(cfg.Table.Categories)
		for _, table := range []*aztables.Client{tasksTable, categoriesTable} {
			if err := tablestore.EnsureTable(ctx, table); err != nil {
				s.Close()
				return nil, err
			}
		}
		s.tasks = newStore[models.Task, models.TaskPatch, schema.RemoteTask](ids, "task",
			tablestore.New[schema.RemoteTask](tasksTable, "task"), schema.RemoteTaskMapper{})
		s.categories = newStore[models.Category, models.CategoryPatch, schema.RemoteCategory](ids, "category",
			tablestore.New[schema.RemoteCategory](categoriesTable, "category"), schema.RemoteCategoryMapper{})
		s.shape = schema.RemoteTaskMapper{}.Shape()

	default:
		s.Close()
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	log.WithFields(log.Fields{
		"backend": cfg.Storage.Backend,
		"shape":   s.shape,
		"ids":     cfg.Storage.IDStrategy,
	}).Info("storage ready")
	return s, nil
}
