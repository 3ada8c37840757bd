package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/jonathan/resume-editor/internal/config"
	"github.com/jonathan/resume-editor/internal/db"
	"github.com/jonathan/resume-editor/internal/document"
	"github.com/jonathan/resume-editor/internal/fetch"
	"github.com/jonathan/resume-editor/internal/history"
	"github.com/jonathan/resume-editor/internal/intent"
	"github.com/jonathan/resume-editor/internal/llm"
	"github.com/jonathan/resume-editor/internal/localstore"
	"github.com/jonathan/resume-editor/internal/logging"
	"github.com/jonathan/resume-editor/internal/pipeline"
	"github.com/jonathan/resume-editor/internal/rendering"
)

// app holds what every command needs: merged config, a logger and, when
// enabled, the model client. Storage is opened on demand.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	client  llm.Client
	closers []func() error
}

// loadConfig reads the optional config file, applies environment and flag
// overrides, fills defaults and validates the result.
func loadConfig(path string) (config.Config, error) {
	var cfg config.Config
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return config.Config{}, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}
	cfg.ApplyEnv()

	if userFlag != "" {
		cfg.UserID = userFlag
	}
	if historyBackend != "" {
		cfg.History.Backend = historyBackend
	}
	if verbose {
		cfg.Verbose = true
		cfg.Log.Level = "debug"
	}

	merged := cfg.MergeWithDefaults(config.Defaults())
	if err := merged.Validate(); err != nil {
		return config.Config{}, err
	}
	return merged, nil
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	a := &app{cfg: cfg, logger: logger}
	a.closers = append(a.closers, func() error {
		_ = logger.Sync()
		return nil
	})

	if cfg.UseModel && cfg.APIKey != "" {
		client, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.APIKey)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to create model client: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		a.client = llm.WithTimeout(client, cfg.Timeouts.LLM.Std())
	} else if cfg.UseModel {
		logger.Warn("use_model is set but GEMINI_API_KEY is empty, using the rule-based parser only")
	}
	return a, nil
}

// Close releases everything opened by the app, newest first
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", zap.Error(err))
		}
	}
	a.closers = nil
}

func (a *app) parser() intent.Parser {
	regex := intent.NewRegexParser()
	if a.client == nil {
		return regex
	}
	return intent.NewChain(a.logger, regex, intent.NewModelParser(a.client))
}

func (a *app) classifier() pipeline.Classifier {
	if a.client == nil {
		return nil
	}
	return pipeline.NewModelClassifier(a.client)
}

func (a *app) fetcher() fetch.Fetcher {
	opts := fetch.DefaultOptions()
	if d := a.cfg.Timeouts.Fetch.Std(); d > 0 {
		opts.Timeout = d
	}
	jobOpts := []fetch.JobOption{fetch.WithLogger(a.logger)}
	if a.cfg.UseBrowser {
		jobOpts = append(jobOpts, fetch.WithBrowserFallback(opts.Timeout))
	}
	if a.client != nil {
		jobOpts = append(jobOpts, fetch.WithHeaderModel(a.client))
	}
	return fetch.NewCachedFetcher(fetch.NewJobFetcher(opts, jobOpts...), a.cfg.Cache.JobTTL.Std())
}

// storage is the persistence chosen by config
type storage struct {
	persistence pipeline.Persistence
	recorder    pipeline.RunRecorder
	history     *history.Store
	database    *db.DB // nil unless a database URL is configured
}

// openStorage connects the version store and the timeline repository.
// Versions go to Postgres when a database URL is set and to SQLite
// otherwise; timelines go to whichever backend history.backend names.
func (a *app) openStorage(ctx context.Context) (*storage, error) {
	var (
		s        storage
		database *db.DB
		local    *localstore.Store
	)

	if a.cfg.DatabaseURL != "" {
		d, err := db.Connect(ctx, a.cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() error {
			d.Close()
			return nil
		})
		if err := d.Migrate(ctx); err != nil {
			return nil, err
		}
		database = d
		s.database = d
		s.persistence = d
		s.recorder = d
	} else if a.cfg.SQLitePath != "" {
		l, err := localstore.Open(a.cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open local store: %w", err)
		}
		a.closers = append(a.closers, l.Close)
		a.logger.Debug("using local store", zap.String("path", l.Path()))
		local = l
		s.persistence = l
	}

	var repo history.Repository
	switch a.cfg.History.Backend {
	case config.BackendRedis:
		client := history.NewRedisClient(a.cfg.RedisURL)
		a.closers = append(a.closers, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		repo = history.NewRedisRepository(client, a.cfg.History.TTL.Std())
	case config.BackendPostgres:
		if database == nil {
			return nil, fmt.Errorf("history backend 'postgres' needs 'database_url'")
		}
		repo = database.Timelines()
	case config.BackendSQLite:
		if local == nil {
			l, err := localstore.Open(a.cfg.SQLitePath)
			if err != nil {
				return nil, fmt.Errorf("failed to open local store: %w", err)
			}
			a.closers = append(a.closers, l.Close)
			local = l
		}
		repo = local.Timelines()
	default:
		repo = history.NewMemoryRepository()
	}

	s.history = history.NewStore(repo,
		history.WithMaxEntries(a.cfg.History.MaxEntries),
		history.WithLogger(a.logger),
	)
	return &s, nil
}

// renderer writes previews under artifacts_dir, with the custom LaTeX
// template when latex_template names one
func (a *app) renderer() (*rendering.FileRenderer, error) {
	r := rendering.NewFileRenderer(a.cfg.ArtifactsDir, a.logger)
	if a.cfg.LaTeXTemplate == "" {
		return r, nil
	}
	content, err := os.ReadFile(a.cfg.LaTeXTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to read LaTeX template: %w", err)
	}
	if err := r.UseLaTeXTemplate(string(content)); err != nil {
		return nil, fmt.Errorf("invalid LaTeX template %s: %w", a.cfg.LaTeXTemplate, err)
	}
	return r, nil
}

// agent builds the orchestrator over the configured collaborators
func (a *app) agent(ctx context.Context) (*pipeline.Agent, *storage, error) {
	renderer, err := a.renderer()
	if err != nil {
		return nil, nil, err
	}
	s, err := a.openStorage(ctx)
	if err != nil {
		return nil, nil, err
	}
	agent, err := pipeline.New(pipeline.Options{
		Parser:      a.parser(),
		Classifier:  a.classifier(),
		Fetcher:     a.fetcher(),
		Renderer:    renderer,
		Persistence: s.persistence,
		History:     s.history,
		Recorder:    s.recorder,
		Timeouts: pipeline.Timeouts{
			LLM:         a.cfg.Timeouts.LLM.Std(),
			Fetch:       a.cfg.Timeouts.Fetch.Std(),
			Persistence: a.cfg.Timeouts.Persistence.Std(),
			Render:      a.cfg.Timeouts.Render.Std(),
		},
		Logger: a.logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return agent, s, nil
}

// readDocument loads a JSON résumé from path, or from stdin when path is "-"
func readDocument(path string, stdin io.Reader) (any, error) {
	if path == "" {
		return nil, fmt.Errorf("a document is required (use --doc)")
	}
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	doc, err := document.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return doc, nil
}

// readText returns the contents of an optional text file
func readText(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// writeJSON writes v indented to path, or to w when path is empty
func writeJSON(w io.Writer, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	data = append(data, '\n')
	if path == "" {
		_, err = w.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
