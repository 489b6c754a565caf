// Package app wires configuration into the services shared by the
// front-end binaries.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"nlp_qa/completion"
	completiongrpc "nlp_qa/completion/grpc"
	"nlp_qa/completion/openai"
	"nlp_qa/config"
	"nlp_qa/journal"
	journalredis "nlp_qa/journal/redis"
	"nlp_qa/qa"
)

// remoteCallMargin leaves the remote service room to report its own
// upstream timeout before the caller gives up.
const remoteCallMargin = 5 * time.Second

// App holds the question pipeline and whatever backs it.
type App struct {
	Config *config.Config
	Logger *slog.Logger
	QA     *qa.Service

	journal journal.Service
	remote  *completiongrpc.Client
}

// New builds the completion client (remote when cfg.Remote.Addr is set,
// direct HTTP otherwise) and the optional Redis journal.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger, journal: journal.Noop{}}

	completionService, err := a.completionService()
	if err != nil {
		return nil, err
	}

	if cfg.Journal.RedisAddr != "" {
		j, err := journalredis.New(ctx, journalredis.Config{
			Addr:        cfg.Journal.RedisAddr,
			Password:    cfg.Journal.RedisPassword,
			DB:          cfg.Journal.RedisDB,
			Stream:      cfg.Journal.Stream,
			MaxLen:      cfg.Journal.MaxLen,
			WorkerCount: cfg.Journal.Workers,
			BufferSize:  cfg.Journal.BufferSize,
			Logger:      logger,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("fail to init journal: %w", err)
		}
		a.journal = j
		logger.Info("exchange journal enabled", "addr", cfg.Journal.RedisAddr, "stream", cfg.Journal.Stream)
	}

	a.QA = qa.New(qa.Options{
		Model:       cfg.Completion.Model,
		MaxTokens:   cfg.Completion.MaxTokens,
		Temperature: cfg.Completion.Temperature,
	}, completionService, a.journal, logger)
	return a, nil
}

// NeedsCredential reports whether questions would fail for lack of an API
// key. A remote completion service holds its own key.
func NeedsCredential(cfg *config.Config) bool {
	return cfg.Remote.Addr == "" && cfg.Completion.APIKey == ""
}

func (a *App) completionService() (completion.Service, error) {
	if addr := a.Config.Remote.Addr; addr != "" {
		client, err := completiongrpc.NewClient(addr, a.Config.Completion.Timeout+remoteCallMargin)
		if err != nil {
			return nil, fmt.Errorf("fail to init completion client: %w", err)
		}
		a.remote = client
		a.Logger.Info("using remote completion service", "addr", addr)
		return client, nil
	}
	a.Logger.Info("using completion endpoint", "endpoint", a.Config.Completion.Endpoint, "model", a.Config.Completion.Model)
	return NewCompletion(a.Config.Completion, a.Logger), nil
}

// NewCompletion returns the direct HTTP completion client for cfg.
func NewCompletion(cfg config.CompletionConfig, logger *slog.Logger) *openai.Service {
	return openai.New(openai.Config{
		Endpoint: cfg.Endpoint,
		APIKey:   cfg.APIKey,
		Timeout:  cfg.Timeout,
		Logger:   logger,
	})
}

// Close drains the journal and closes the remote connection.
func (a *App) Close() {
	a.journal.Shutdown()
	if a.remote != nil {
		if err := a.remote.Close(); err != nil {
			a.Logger.Warn("fail to close completion client", "error", err)
		}
	}
}
