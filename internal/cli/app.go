package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/viper"

	"github.com/trustscope/trustscope/internal/analysis"
	"github.com/trustscope/trustscope/internal/commentary"
	"github.com/trustscope/trustscope/internal/comments"
	"github.com/trustscope/trustscope/internal/config"
	"github.com/trustscope/trustscope/internal/database"
	"github.com/trustscope/trustscope/internal/signals"
)

// app is the wired set of services shared by the commands
type app struct {
	cfg      *config.Config
	logger   hclog.Logger
	db       *database.DB
	analyses *analysis.Service
	comments *comments.Service
}

func newLogger(cfg *config.Config) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:       "trustscope",
		Level:      hclog.LevelFromString(cfg.LogLevel),
		JSONFormat: cfg.LogJSON,
		Output:     os.Stderr,
	})
}

// newApp loads configuration and builds the services. Close must be called
// when done.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg)

	a := &app{cfg: cfg, logger: logger}

	var (
		analysisStore analysis.Store = analysis.NewMemoryStore()
		commentStore  comments.Store = comments.NewMemoryStore()
	)
	if cfg.DatabaseURL != "" {
		db, err := database.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		a.db = db
		analysisStore = db.Analyses()
		commentStore = db.Comments()
		logger.Info("using postgres storage")
	} else {
		logger.Info("using in-memory storage")
	}

	collectors, err := buildCollectors(cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	var commentator commentary.Commentator
	if cfg.OpenAIKey != "" {
		c, err := commentary.NewOpenAI(commentary.Config{
			APIKey:  cfg.OpenAIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("create commentator: %w", err)
		}
		commentator = c
		logger.Info("AI commentary enabled", "model", cfg.OpenAIModel)
	}

	a.analyses = analysis.NewService(analysis.Options{
		Store:       analysisStore,
		Collectors:  collectors,
		Commentator: commentator,
		Timeout:     cfg.CollectorTimeout,
		Logger:      logger,
	})
	a.comments = comments.NewService(commentStore, logger)

	return a, nil
}

// buildCollectors returns the in-process analyzers plus the remote signal
// collectors when a signal service is configured
func buildCollectors(cfg *config.Config, logger hclog.Logger) ([]signals.Collector, error) {
	content, err := signals.NewContentAnalyzer(cfg.ContentRulesPath)
	if err != nil {
		return nil, fmt.Errorf("load content rules: %w", err)
	}

	collectors := []signals.Collector{
		content,
		signals.SentimentAnalyzer{},
		signals.SalaryAnalyzer{},
		signals.EmailAnalyzer{},
	}

	if cfg.SignalServiceURL != "" {
		remote := signals.NewRemoteSource(signals.RemoteConfig{
			BaseURL:       cfg.SignalServiceURL,
			Timeout:       cfg.CollectorTimeout,
			RatePerSecond: cfg.SignalRate,
			Burst:         cfg.SignalBurst,
			CacheTTL:      cfg.CacheTTL,
		}, logger)
		collectors = append(collectors, remote.Collectors()...)
		logger.Info("remote signal service enabled", "url", cfg.SignalServiceURL)
	}

	return collectors, nil
}

// Close releases the database pool if one was opened
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
}
