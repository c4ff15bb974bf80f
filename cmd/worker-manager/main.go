// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"perched-workers/internal/common/cache"
	"perched-workers/internal/common/camunda"
	"perched-workers/internal/common/config"
	"perched-workers/internal/common/database"
	"perched-workers/internal/common/logger"
	"perched-workers/internal/common/observability"
	"perched-workers/internal/common/telemetry"
	"perched-workers/internal/stores"
	"perched-workers/pkg/registry"

	// Discovery Workers (4)
	ba "perched-workers/internal/workers/discovery/blend-attributes"
	ss "perched-workers/internal/workers/discovery/score-spots"
	sim "perched-workers/internal/workers/discovery/similar-spots"
	ts "perched-workers/internal/workers/discovery/trending-spots"

	// Intelligence Workers (3)
	cs "perched-workers/internal/workers/intelligence/calibration-snapshot"
	lp "perched-workers/internal/workers/intelligence/learn-preferences"
	tc "perched-workers/internal/workers/intelligence/track-calibration"

	// Engagement Workers (1)
	re "perched-workers/internal/workers/engagement/record-engagement"
)

// affinityTTL bounds how long implicit-feedback signal survives without
// fresh activity. Stale taste data is worse than none.
const affinityTTL = 90 * 24 * time.Hour

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
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	if cfg.RegistryPath != "" {
		reg, err := registry.LoadRegistry(cfg.RegistryPath)
		if err != nil {
			zapLog.Warn("activity registry not loaded", zap.String("path", cfg.RegistryPath), zap.Error(err))
		} else {
			zapLog.Info("activity registry loaded",
				zap.String("version", reg.Version),
				zap.Int("activities", len(reg.Activities)),
			)
		}
	}

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var camundaClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		camundaClient, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         time.Duration(cfg.Camunda.RequestTimeout) * time.Millisecond,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zeebeClient := camundaClient.GetClient()
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		// Test the connection with context
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		// Test the connection
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		// Test the connection with context
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Stores ---
	checkins := stores.NewCheckinStore(pg.DB)
	predictions := stores.NewPredictionStore(pg.DB)
	outcomes := stores.NewOutcomeStore(pg.DB)
	calibration := stores.NewCalibrationStore(pg.DB)
	spots := stores.NewSpotSearcher(esClient.Client, cfg.Database.Elasticsearch.SpotIndex)
	affinity := stores.NewAffinityStore(redis.Client, affinityTTL)
	redisCache := cache.NewRedisCache(redis.Client)

	// --- Init Telemetry Publisher ---
	var publisher telemetry.Publisher = telemetry.NopPublisher{}
	if cfg.Telemetry.SNS.Enabled {
		snsPublisher, err := telemetry.NewSNSPublisher(ctx, cfg.Telemetry.SNS.Region, cfg.Telemetry.SNS.TopicARN)
		if err != nil {
			zapLog.Fatal("sns publisher failed", zap.Error(err))
		}
		publisher = snsPublisher
		zapLog.Info("SNS telemetry publisher initialized")
	}

	zapLog.Info("All stores initialized")

	// --- START: Register ALL 8 Workers ---

	// --- 1. Intelligence Workers (3) ---
	if cfg.Workers[lp.TaskType].Enabled {
		handler := lp.NewHandler(
			lp.ConfigFromEngine(cfg.Engine),
			checkins, redisCache, log,
		)
		startWorker(zeebeClient, lp.TaskType, cfg.Workers[lp.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[tc.TaskType].Enabled {
		handler := tc.NewHandler(
			tc.ConfigFromEngine(cfg.Engine),
			predictions, outcomes, calibration, publisher, log,
		)
		startWorker(zeebeClient, tc.TaskType, cfg.Workers[tc.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[cs.TaskType].Enabled {
		handler := cs.NewHandler(cs.LoadConfig(), calibration, log)
		startWorker(zeebeClient, cs.TaskType, cfg.Workers[cs.TaskType], handler.Handle, zapLog)
	}

	// --- 2. Discovery Workers (4) ---
	if cfg.Workers[ss.TaskType].Enabled {
		handler := ss.NewHandler(
			ss.ConfigFromEngine(cfg.Engine),
			checkins, spots, affinity, redisCache, log,
		)
		startWorker(zeebeClient, ss.TaskType, cfg.Workers[ss.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[sim.TaskType].Enabled {
		handler := sim.NewHandler(
			sim.ConfigFromEngine(cfg.Engine),
			checkins, log,
		)
		startWorker(zeebeClient, sim.TaskType, cfg.Workers[sim.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[ts.TaskType].Enabled {
		handler := ts.NewHandler(
			ts.ConfigFromEngine(cfg.Engine),
			checkins, log,
		)
		startWorker(zeebeClient, ts.TaskType, cfg.Workers[ts.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[ba.TaskType].Enabled {
		handler := ba.NewHandler(
			ba.ConfigFromEngine(cfg.Engine),
			checkins, log,
		)
		startWorker(zeebeClient, ba.TaskType, cfg.Workers[ba.TaskType], handler.Handle, zapLog)
	}

	// --- 3. Engagement Workers (1) ---
	if cfg.Workers[re.TaskType].Enabled {
		handler := re.NewHandler(re.LoadConfig(), affinity, log)
		startWorker(zeebeClient, re.TaskType, cfg.Workers[re.TaskType], handler.Handle, zapLog)
	}

	zapLog.Info("All 8 workers registered successfully")

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if err := pg.Ping(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "not ready",
					"error":  err.Error(),
				})
				return
			}
			if err := camundaClient.HealthCheck(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "not ready",
					"error":  err.Error(),
				})
				return
			}
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_ = shutdownCtx

	if err := camundaClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func startWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handlerFunc func(worker.JobClient, entities.Job), log *zap.Logger) {
	if !wcfg.Enabled {
		log.Info("worker disabled", zap.String("taskType", taskType))
		return
	}

	client.NewJobWorker().
		JobType(taskType).
		Handler(handlerFunc).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
}
