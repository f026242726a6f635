package commands

import (
	"errors"
	"fmt"

	"github.com/wonny/aegis-credit/internal/audit"
	"github.com/wonny/aegis-credit/internal/contracts"
	"github.com/wonny/aegis-credit/internal/modelstore"
	"github.com/wonny/aegis-credit/internal/pipeline"
	"github.com/wonny/aegis-credit/internal/riskconfig"
	"github.com/wonny/aegis-credit/pkg/config"
	"github.com/wonny/aegis-credit/pkg/database"
	"github.com/wonny/aegis-credit/pkg/logger"
	"github.com/wonny/aegis-credit/pkg/metrics"
	"github.com/wonny/aegis-credit/pkg/redis"
)

// app holds the wired dependencies of one CLI invocation
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	risk     *riskconfig.Config
	db       *database.DB
	redis    *redis.Client
	recorder *metrics.Recorder
	store    modelstore.Store
	history  *audit.Repository
}

// newApp loads config and connects the optional backends
// DB/Redis 연결 실패는 경고 후 비활성 (파이프라인 자체는 파일만으로 동작)
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	applyFlags(cfg)

	a := &app{cfg: cfg, log: logger.New(cfg)}

	a.risk, err = riskconfig.Load(cfg.Credit.RiskConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load risk config: %w", err)
	}

	if cfg.MetricsEnabled {
		a.recorder = metrics.New()
	}

	a.db, err = database.New(cfg)
	switch {
	case errors.Is(err, database.ErrNotConfigured):
		a.log.Debug("DATABASE_URL not set, run history disabled")
	case err != nil:
		a.log.WithError(err).Warn("Database unavailable, run history disabled")
	default:
		a.history = audit.NewRepository(a.db.Pool)
	}

	file := modelstore.NewFileStore(cfg.Credit.ModelPath)
	a.store = file
	if cfg.Redis.Enabled {
		a.redis, err = redis.New(cfg)
		if err != nil {
			a.log.WithError(err).Warn("Redis unavailable, using file model store only")
		} else {
			cache := redis.NewCache(a.redis, cfg.Redis.KeyPrefix)
			a.store = modelstore.Tiered{modelstore.NewRedisStore(cache, cfg.Redis.TTL), file}
		}
	}

	return a, nil
}

func applyFlags(cfg *config.Config) {
	if riskConfigFile != "" {
		cfg.Credit.RiskConfigPath = riskConfigFile
	}
	if dataPath != "" {
		cfg.Credit.DataPath = dataPath
	}
	if modelPath != "" {
		cfg.Credit.ModelPath = modelPath
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
}

// orchestrator wires the pipeline with every configured sink
func (a *app) orchestrator() (*pipeline.Orchestrator, error) {
	observers := []contracts.Observer{audit.NewLogObserver(a.log.Zerolog())}
	if a.recorder != nil {
		observers = append(observers, audit.NewMetricsObserver(a.recorder))
	}

	deps := pipeline.Deps{
		Config:   a.risk,
		Store:    a.store,
		Metrics:  a.recorder,
		Observer: audit.NewMulti(observers...),
		Logger:   a.log,
	}
	if a.history != nil {
		deps.History = a.history
	}
	return pipeline.NewOrchestrator(deps)
}

// flushMetrics writes the textfile when METRICS_TEXTFILE is set
func (a *app) flushMetrics() {
	if a.recorder == nil || a.cfg.MetricsTextfile == "" {
		return
	}
	if err := a.recorder.WriteTextfile(a.cfg.MetricsTextfile); err != nil {
		a.log.WithError(err).Warn("Failed to write metrics textfile")
	}
}

func (a *app) Close() {
	a.flushMetrics()
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
