package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"edurag/internal/chunker"
	"edurag/internal/config"
	"edurag/internal/domain"
	"edurag/internal/embedding/hashing"
	"edurag/internal/embedding/openai"
	"edurag/internal/materials"
	"edurag/internal/service"
	"edurag/internal/vectorstore/memory"
)

// app bundles what every command needs: configuration, logger, engine and
// the loader that feeds it.
type app struct {
	cfg    *config.AppConfig
	log    logr.Logger
	engine *service.RAGService
	loader *materials.Loader
}

func loadConfig() (*config.AppConfig, error) {
	var (
		cfg *config.AppConfig
		err error
	)
	if cfgFile == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgFile)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg config.LogConfig, verbose bool, w io.Writer) logr.Logger {
	level := slog.LevelInfo
	if verbose || strings.EqualFold(cfg.Level, "debug") {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if cfg.Format == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return logr.FromSlogHandler(h)
}

func newEmbedder(cfg config.EmbedderConfig) (domain.Embedder, error) {
	switch cfg.Type {
	case "hashing", "":
		return hashing.NewEmbedder(cfg.Dimension), nil
	case "openai":
		if cfg.OpenAI == nil {
			return nil, fmt.Errorf("openai embedder config missing")
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:    cfg.OpenAI.BaseURL,
			APIKeyEnv:  cfg.OpenAI.APIKeyEnv,
			Model:      cfg.OpenAI.Model,
			Timeout:    time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second,
			BatchSize:  cfg.OpenAI.BatchSize,
			MaxRetries: cfg.OpenAI.MaxRetries,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder init failed: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Type)
	}
}

func newApp(logOut io.Writer) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newAppFromConfig(cfg, logOut)
}

func newAppFromConfig(cfg *config.AppConfig, logOut io.Writer) (*app, error) {
	log := newLogger(cfg.Log, verbose, logOut)
	ch, err := chunker.New(cfg.Chunker.ChunkSize, cfg.Chunker.Overlap)
	if err != nil {
		return nil, err
	}
	emb, err := newEmbedder(cfg.Embedder)
	if err != nil {
		return nil, err
	}
	log.V(1).Info("engine ready", "embedder", emb.Name(), "chunkSize", ch.Size(), "overlap", ch.Overlap())
	engine := service.NewRAGService(ch, emb, memory.NewStorage(),
		service.WithLogger(log.WithName("engine")),
		service.WithMinTextLength(cfg.Ingest.MinTextLength),
	)
	var loaderOpts []materials.Option
	if len(cfg.Ingest.Extensions) > 0 {
		loaderOpts = append(loaderOpts, materials.WithExtensions(cfg.Ingest.Extensions...))
	}
	return &app{cfg: cfg, log: log, engine: engine, loader: materials.NewLoader(loaderOpts...)}, nil
}

// ingest loads paths (or the configured ones when paths is empty) into the
// engine. It fails only when nothing could be indexed.
func (a *app) ingest(ctx context.Context, paths []string) ([]domain.Document, domain.IngestReport, error) {
	if len(paths) == 0 {
		paths = a.cfg.Ingest.Paths
	}
	if len(paths) == 0 {
		return nil, domain.IngestReport{}, fmt.Errorf("no input paths given and ingest.paths is empty")
	}
	docs, err := a.loader.Load(paths)
	if err != nil {
		return nil, domain.IngestReport{}, err
	}
	if len(docs) == 0 {
		return nil, domain.IngestReport{}, fmt.Errorf("no supported documents found in %s", strings.Join(paths, ", "))
	}
	report := a.engine.IngestBatch(ctx, docs)
	if report.Succeeded() == 0 {
		if err := report.Err(); err != nil {
			return docs, report, fmt.Errorf("ingest failed: %w", err)
		}
		return docs, report, fmt.Errorf("no document had enough text to index")
	}
	return docs, report, nil
}
