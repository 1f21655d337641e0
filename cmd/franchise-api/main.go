// cmd/franchise-api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"franchise-service/internal/api"
	awsclient "franchise-service/internal/common/aws"
	"franchise-service/internal/common/camunda"
	"franchise-service/internal/common/config"
	"franchise-service/internal/common/database"
	"franchise-service/internal/common/logger"
	"franchise-service/internal/common/observability"
	"franchise-service/internal/domain"
	"franchise-service/internal/events"
	"franchise-service/internal/franchise"
	"franchise-service/internal/store/cache"
	esstore "franchise-service/internal/store/elasticsearch"
	"franchise-service/internal/store/memory"
	pgstore "franchise-service/internal/store/postgres"
	fc "franchise-service/internal/workers/franchise/franchise-command"
)

// pingableStore is a franchise store that can report whether its backend is reachable.
type pingableStore interface {
	domain.FranchiseStore
	Ping(ctx context.Context) error
}

type closablePinger interface {
	Ping(ctx context.Context) error
	Close() error
}

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logger.New(logger.Options{Level: "info", Format: "console"})
		boot.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(logger.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Output:  cfg.Logging.Output,
		Service: cfg.App.Name,
	})
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting franchise service...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
		zap.String("store", cfg.Store.Driver),
	)

	ctx := context.Background()

	obs := observability.New(ctx, cfg.Observability, cfg.App.Version, log)

	store, closeStore, err := openStore(ctx, cfg, zapLog, log)
	if err != nil {
		zapLog.Fatal("store initialization failed", zap.Error(err))
	}
	defer closeStore()

	dispatcher, err := newDispatcher(ctx, cfg, log)
	if err != nil {
		zapLog.Fatal("event dispatcher initialization failed", zap.Error(err))
	}

	svc := franchise.NewService(franchise.Dependencies{
		Store:         store,
		Dispatcher:    dispatcher,
		Logger:        log,
		Observability: obs,
	})

	// --- Workflow worker ---
	var (
		zeebe  *camunda.Client
		worker *camunda.CamundaWorker
	)
	if cfg.Camunda.Enabled {
		zeebe, err = camunda.NewClientWithConfig(ctx, camunda.ClientConfigFrom(cfg.Camunda), log)
		if err != nil {
			zapLog.Fatal("zeebe client failed", zap.Error(err))
		}
		handler := fc.NewHandler(fc.ConfigFrom(cfg.Camunda), svc, log)
		worker = camunda.StartWorker(zeebe.GetClient(), fc.TaskType, camunda.WorkerOptions{
			MaxJobsActive: cfg.Camunda.MaxJobsActive,
			Timeout:       config.GetDuration(cfg.Camunda.Timeout),
		}, handler.Handle, log)
	} else {
		zapLog.Info("camunda worker disabled", zap.String("taskType", fc.TaskType))
	}

	// --- HTTP server ---
	router := api.NewRouter(api.Options{
		Franchises:     svc,
		Logger:         log,
		ServiceName:    cfg.App.Name,
		Version:        cfg.App.Version,
		Ready:          store.Ping,
		RequestTimeout: config.GetDuration(cfg.HTTP.RequestTimeout),
	})
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      router,
		ReadTimeout:  config.GetDuration(cfg.HTTP.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.HTTP.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.HTTP.ShutdownTimeout))
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}
	if worker != nil {
		worker.Stop()
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error flushing telemetry", zap.Error(err))
	}

	zapLog.Info("Franchise service stopped gracefully")
}

// openStore builds the configured store, wrapped in the Redis cache when
// enabled. The returned func releases every connection it opened.
func openStore(ctx context.Context, cfg *config.Config, zapLog *zap.Logger, log logger.Logger) (pingableStore, func(), error) {
	var (
		store   pingableStore
		closers []func() error
	)

	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return nil, nil, err
		}
		if err := pingWithRetry(ctx, pg, 15, 2*time.Second, zapLog, "PostgreSQL connection"); err != nil {
			return nil, nil, err
		}
		closers = append(closers, pg.Close)

		pgStore := pgstore.New(pg.DB)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, nil, fmt.Errorf("postgres schema: %w", err)
		}
		store = pgStore
		zapLog.Info("PostgreSQL connected successfully")

	case config.DriverElasticsearch:
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return nil, nil, err
		}
		err = retryWithBackoff(func() error {
			return es.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			return nil, nil, err
		}

		esStore := esstore.New(es.Client, cfg.Database.Elasticsearch.Index)
		if err := esStore.EnsureIndex(ctx); err != nil {
			return nil, nil, fmt.Errorf("elasticsearch index: %w", err)
		}
		store = esStore
		zapLog.Info("Elasticsearch connected successfully")

	default:
		store = memory.New()
	}

	if cfg.Store.Cache.Enabled {
		rdb := database.NewRedis(cfg.Database.Redis)
		if err := pingWithRetry(ctx, rdb, 10, 2*time.Second, zapLog, "Redis connection"); err != nil {
			zapLog.Warn("redis unavailable, running without cache", zap.Error(err))
		} else {
			closers = append(closers, rdb.Close)
			store = cache.New(store, rdb.Client, cfg.Store.Cache.TTL(), log)
			zapLog.Info("Redis cache enabled", zap.Duration("ttl", cfg.Store.Cache.TTL()))
		}
	}

	closeAll := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				zapLog.Error("close failed", zap.Error(err))
			}
		}
	}
	return store, closeAll, nil
}

// pingWithRetry retries only the ping against a client that is already open,
// so one pool serves every attempt. The client is closed when all attempts fail.
func pingWithRetry(ctx context.Context, conn closablePinger, maxRetries int, delay time.Duration, log *zap.Logger, name string) error {
	err := retryWithBackoff(func() error {
		return conn.Ping(ctx)
	}, maxRetries, delay, log, name)
	if err != nil {
		if cerr := conn.Close(); cerr != nil {
			log.Warn("close after failed connect", zap.String("target", name), zap.Error(cerr))
		}
		return err
	}
	return nil
}

// newDispatcher always logs events and also publishes them to SNS when enabled.
func newDispatcher(ctx context.Context, cfg *config.Config, log logger.Logger) (franchise.EventDispatcher, error) {
	dispatchers := events.Multi{events.NewLogDispatcher(log)}

	if cfg.Events.SNS.Enabled {
		client, err := awsclient.NewSNSClient(ctx, cfg.Events.SNS.Region)
		if err != nil {
			return nil, err
		}
		dispatchers = append(dispatchers, events.NewSNSDispatcher(client, cfg.Events.SNS.TopicARN))
	}
	return dispatchers, nil
}
