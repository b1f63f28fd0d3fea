package app

import (
	"context"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/doeshing/qa/internal/application/doctor"
	"github.com/doeshing/qa/internal/application/housekeeping"
	"github.com/doeshing/qa/internal/application/matching"
	"github.com/doeshing/qa/internal/application/query"
	"github.com/doeshing/qa/internal/application/replay"
	"github.com/doeshing/qa/internal/domain"
	"github.com/doeshing/qa/internal/infrastructure/config"
	"github.com/doeshing/qa/internal/infrastructure/executor"
	"github.com/doeshing/qa/internal/infrastructure/generator"
	"github.com/doeshing/qa/internal/infrastructure/rules"
	"github.com/doeshing/qa/internal/infrastructure/store"
	"github.com/doeshing/qa/internal/pkg/logger"
	"github.com/doeshing/qa/internal/ports"
)

// sqliteFile is the database name inside store.dir for the sqlite backend.
const sqliteFile = "qa.db"

// Options tune how the container is built.
type Options struct {
	Verbose    bool
	ConfigPath string
	WorkDir    string
}

// Container wires up application services with infrastructure adapters.
type Container struct {
	Config        domain.Config
	ConfigLoader  *config.FileLoader
	Logger        *logger.StdLogger
	Store         ports.QueryStore
	Rules         *rules.Resolver
	Matcher       *matching.Matcher
	Executor      *executor.LocalExecutor
	QueryService  *query.Service
	ReplayEngine  *replay.Engine
	Housekeeping  *housekeeping.Service
	DoctorService *doctor.Service
	closeStore    func() error
}

// BuildContainer constructs the dependency graph.
func BuildContainer(ctx context.Context, opts Options) (*Container, error) {
	cfgLoader := config.NewFileLoader(opts.ConfigPath)
	cfg, err := cfgLoader.Load(ctx)
	if err != nil {
		return nil, err
	}

	log := logger.NewStd(opts.Verbose)

	workDir := opts.WorkDir
	if workDir == "" {
		if workDir, err = os.Getwd(); err != nil {
			return nil, errors.Wrap(err, "resolve working directory")
		}
	}

	queryStore, closeStore, err := openStore(cfg.Store)
	if err != nil {
		return nil, err
	}

	resolver := rules.NewResolver(cfg.Rules.GlobalFile, workDir, cfg.Rules.ProjectFile)
	matcher := matching.New(queryStore, log)
	exec := executor.NewLocalExecutor(cfg.Execution.Shell, workDir)

	queryService := &query.Service{
		Store:     queryStore,
		Matcher:   matcher,
		Rules:     resolver,
		Generator: generator.New(cfg.Generator),
		Executor:  exec,
		Logger:    log,
		Threshold: cfg.Matching.SimilarityThreshold,
	}

	replayEngine := &replay.Engine{
		Store:       queryStore,
		Executor:    exec,
		Logger:      log,
		HistorySize: cfg.Replay.HistorySize,
	}

	doctorService := &doctor.Service{
		ConfigProvider: cfgLoader,
		Store:          queryStore,
		Rules:          resolver,
	}

	log.Debug("container ready", map[string]interface{}{
		"store":   queryStore.Location(),
		"backend": cfg.Store.Backend,
		"workdir": workDir,
	})

	return &Container{
		Config:        cfg,
		ConfigLoader:  cfgLoader,
		Logger:        log,
		Store:         queryStore,
		Rules:         resolver,
		Matcher:       matcher,
		Executor:      exec,
		QueryService:  queryService,
		ReplayEngine:  replayEngine,
		Housekeeping:  housekeeping.New(queryStore, matcher, log),
		DoctorService: doctorService,
		closeStore:    closeStore,
	}, nil
}

// Close releases the store.
func (c *Container) Close() error {
	if c.closeStore == nil {
		return nil
	}
	return c.closeStore()
}

func openStore(settings domain.StoreSettings) (ports.QueryStore, func() error, error) {
	opts := []store.Option{store.WithOutputLines(settings.OutputLines)}
	switch settings.Backend {
	case domain.BackendSQLite:
		s, err := store.OpenSQLiteStore(filepath.Join(settings.Dir, sqliteFile), opts...)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case "", domain.BackendFile:
		return store.NewFileStore(settings.Dir, opts...), nil, nil
	default:
		return nil, nil, errors.Wrapf(domain.ErrInvalidArgument, "unknown store backend %q", settings.Backend)
	}
}
