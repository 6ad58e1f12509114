package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	enrichmenthandler "github.com/repolens/repolens/application/handler/enrichment"
	indexinghandler "github.com/repolens/repolens/application/handler/indexing"
	repositoryhandler "github.com/repolens/repolens/application/handler/repository"
	"github.com/repolens/repolens/application/service"
	"github.com/repolens/repolens/domain/search"
	"github.com/repolens/repolens/domain/task"
	"github.com/repolens/repolens/infrastructure/api"
	"github.com/repolens/repolens/infrastructure/enricher"
	"github.com/repolens/repolens/infrastructure/git"
	"github.com/repolens/repolens/infrastructure/persistence"
	"github.com/repolens/repolens/infrastructure/provider"
	searchinfra "github.com/repolens/repolens/infrastructure/search"
	"github.com/repolens/repolens/infrastructure/slicing"
	"github.com/repolens/repolens/infrastructure/tracking"
	"github.com/repolens/repolens/internal/config"
	"github.com/repolens/repolens/internal/database"
	"github.com/repolens/repolens/internal/log"
)

func serveCmd() *cobra.Command {
	var (
		envFile string
		host    string
		port    int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server and queue worker",
		Long: `Start the HTTP API server and queue worker.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. .env file (if --env-file specified or .env exists in current directory)
  3. Environment variables
  4. Command line flags

Environment variables:
  HOST                         Server host to bind to (default: 0.0.0.0)
  PORT                         Server port to listen on (default: 8080)
  DATA_DIR                     Data directory (default: ~/.repolens)
  DB_URL                       Database URL (default: sqlite:///{data_dir}/repolens.db)
  LOG_LEVEL                    Log level: DEBUG, INFO, WARN, ERROR (default: INFO)
  LOG_FORMAT                   Log format: pretty, json (default: pretty)
  DISABLE_TELEMETRY            Disable telemetry (default: false)

  EMBEDDING_ENDPOINT_*         Embedding AI service configuration
    BASE_URL                   Base URL (e.g., https://api.openai.com/v1)
    MODEL                      Model identifier (e.g., text-embedding-3-small)
    API_KEY                    API key for authentication
    NUM_PARALLEL_TASKS         Concurrent requests (default: 10)
    TIMEOUT                    Request timeout in seconds (default: 60)
    MAX_RETRIES                Retry attempts (default: 2)

  ENRICHMENT_ENDPOINT_*        Enrichment AI service configuration
    (same fields as EMBEDDING_ENDPOINT)

  DEFAULT_SEARCH_PROVIDER      Search backend: sqlite, vectorchord (default: sqlite)
  SEARCH_LIMIT                 Default search result count (default: 10)

  PERIODIC_SYNC_ENABLED        Enable periodic sync (default: true)
  PERIODIC_SYNC_INTERVAL_SECONDS  Sync interval (default: 1800)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(envFile, host, port)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().StringVar(&host, "host", "", "Server host to bind to (default: 0.0.0.0)")
	cmd.Flags().IntVar(&port, "port", 0, "Server port to listen on (default: 8080)")

	return cmd
}

func runServe(envFile, host string, port int) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	cfg = applyServeOverrides(cfg, host, port)

	if err := cfg.EnsureDataDir(); err != nil {
		return err
	}
	if err := cfg.EnsureCloneDir(); err != nil {
		return err
	}

	logger := log.Configure(cfg)
	slogger := logger.Slog()

	attrs := append([]slog.Attr{slog.String("version", version)}, cfg.LogAttrs()...)
	slogger.LogAttrs(context.Background(), slog.LevelInfo, "starting repolens", attrs...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(ctx, cfg.DBURL())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			slogger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	if db.IsPostgres() {
		if err := db.ConfigurePool(25, 5, time.Hour); err != nil {
			return fmt.Errorf("configure connection pool: %w", err)
		}
	}

	if err := persistence.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	app, err := buildApp(cfg, db, slogger)
	if err != nil {
		return err
	}

	app.worker.Start(ctx)
	app.periodicSync.Start(ctx)

	apiServer := api.NewAPIServer(app.repositories, app.search, app.queue, slogger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		slogger.Info("shutting down")
		cancel()

		app.periodicSync.Stop()
		app.worker.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			slogger.Error("shutdown error", slog.Any("error", err))
		}
	}()

	if err := apiServer.ListenAndServe(cfg.Addr()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// app holds the long-running components started by serve.
type app struct {
	repositories *service.RepositoryService
	search       *service.Search
	queue        *service.Queue
	worker       *service.Worker
	periodicSync *service.PeriodicSync
}

// buildApp wires stores, search indexes, providers, services, and the task
// handler registry.
func buildApp(cfg config.AppConfig, db database.Database, slogger *slog.Logger) (*app, error) {
	repoStore := persistence.NewRepositoryStore(db)
	commitStore := persistence.NewCommitStore(db)
	branchStore := persistence.NewBranchStore(db)
	tagStore := persistence.NewTagStore(db)
	fileStore := persistence.NewFileStore(db)
	snippetStore := persistence.NewSnippetStore(db)
	stateStore := persistence.NewSnippetStateStore(db)
	enrichmentStore := persistence.NewEnrichmentStore(db)
	taskStore := persistence.NewTaskStore(db)
	statusStore := persistence.NewStatusStore(db)
	filterResolver := persistence.NewFilterResolver(db)

	keywordIndex, vectorIndex, err := buildSearchIndexes(cfg, db, slogger)
	if err != nil {
		return nil, err
	}

	embedder, err := buildEmbedder(cfg, slogger)
	if err != nil {
		return nil, err
	}
	pool, err := buildEnricherPool(cfg, slogger)
	if err != nil {
		return nil, err
	}

	adapter := git.NewGoGitAdapter(slogger)
	cloner := git.NewCloner(adapter, cfg.CloneDir(), slogger)
	scanner := git.NewScanner(adapter, slogger)
	slicer := slicing.NewSlicer(slogger)

	trackerFactory := tracking.NewFactory(slogger,
		tracking.NewStoreReporter(statusStore),
		tracking.NewLoggingReporter(slogger),
	)

	queue := service.NewQueue(taskStore, slogger)
	indexing := service.NewIndexing(queue, enrichmentStore, slogger)

	repositories := service.NewRepositoryService(service.RepositoryServiceParams{
		Repos:        repoStore,
		Commits:      commitStore,
		Branches:     branchStore,
		Tags:         tagStore,
		Files:        fileStore,
		Snippets:     snippetStore,
		Enrichments:  enrichmentStore,
		Statuses:     statusStore,
		KeywordIndex: keywordIndex,
		VectorIndex:  vectorIndex,
		WorkingCopy:  cloner,
		Queue:        queue,
		Indexing:     indexing,
		Logger:       slogger,
	})

	searchService := service.NewSearch(service.SearchParams{
		KeywordIndex: keywordIndex,
		VectorIndex:  vectorIndex,
		Embedder:     embedder,
		Snippets:     snippetStore,
		Repositories: repoStore,
		Enrichments:  enrichmentStore,
		Authors:      snippetStore,
		Filters:      filterResolver,
		Logger:       slogger,
	})

	registry := service.NewRegistry()

	registry.Register(task.OperationRefreshWorkingCopy, indexinghandler.NewRefreshWorkingCopy(indexinghandler.RefreshWorkingCopyParams{
		Repos:          repoStore,
		Commits:        commitStore,
		Branches:       branchStore,
		Tags:           tagStore,
		Files:          fileStore,
		WorkingCopies:  cloner,
		Scanner:        scanner,
		Queue:          queue,
		TrackerFactory: trackerFactory,
		Logger:         slogger,
	}))
	registry.Register(task.OperationExtractSnippets, indexinghandler.NewExtractSnippets(
		repoStore, branchStore, fileStore, snippetStore, slicer, indexing, trackerFactory, slogger,
	))
	registry.Register(task.OperationCreateBM25Index, indexinghandler.NewCreateBM25Index(
		branchStore, snippetStore, stateStore, keywordIndex, trackerFactory, slogger,
	))
	registry.Register(task.OperationCreateCodeEmbeddings, indexinghandler.NewCreateCodeEmbeddings(
		branchStore, snippetStore, stateStore, vectorIndex, embedder, trackerFactory, slogger,
	))
	registry.Register(task.OperationEnrichSnippets, indexinghandler.NewEnrichSnippets(indexinghandler.EnrichSnippetsParams{
		Branches:       branchStore,
		Snippets:       snippetStore,
		States:         stateStore,
		Enrichments:    enrichmentStore,
		VectorIndex:    vectorIndex,
		Embedder:       embedder,
		Pool:           pool,
		TrackerFactory: trackerFactory,
		Logger:         slogger,
	}))

	enrichDeps := enrichmenthandler.Deps{
		Repos:          repoStore,
		Commits:        commitStore,
		Files:          fileStore,
		Enrichments:    enrichmentStore,
		Scanner:        scanner,
		Pool:           pool,
		TrackerFactory: trackerFactory,
		Logger:         slogger,
	}
	registry.Register(task.OperationCreateCommitDescription, enrichmenthandler.NewCommitDescription(enrichDeps))
	registry.Register(task.OperationCreateArchitectureDoc, enrichmenthandler.NewArchitectureDoc(enrichDeps))
	registry.Register(task.OperationCreateAPIDocs, enrichmenthandler.NewAPIDocs(enrichDeps))
	registry.Register(task.OperationCreateDatabaseSchemaDoc, enrichmenthandler.NewDatabaseSchemaDoc(enrichDeps))
	registry.Register(task.OperationCreateCookbook, enrichmenthandler.NewCookbook(enrichDeps))

	registry.Register(task.OperationSyncRepository, repositoryhandler.NewSync(indexing, trackerFactory, slogger))
	registry.Register(task.OperationDeleteRepository, repositoryhandler.NewDelete(repositories, trackerFactory, slogger))

	if missing := registry.MissingOperations(); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, op := range missing {
			names[i] = op.String()
		}
		return nil, fmt.Errorf("no handler registered for: %s", strings.Join(names, ", "))
	}

	worker := service.NewWorker(taskStore, statusStore, registry, slogger)
	periodicSync := service.NewPeriodicSync(cfg.PeriodicSync(), repoStore, queue, slogger)

	return &app{
		repositories: repositories,
		search:       searchService,
		queue:        queue,
		worker:       worker,
		periodicSync: periodicSync,
	}, nil
}

// buildSearchIndexes selects the search backend. VectorChord needs Postgres;
// refusing at startup beats failing on the first indexing task.
func buildSearchIndexes(cfg config.AppConfig, db database.Database, slogger *slog.Logger) (search.KeywordIndex, search.VectorIndex, error) {
	switch cfg.SearchProvider() {
	case config.SearchProviderVectorChord:
		if !db.IsPostgres() {
			return nil, nil, fmt.Errorf("search provider %q requires a postgres database", cfg.SearchProvider())
		}
		return searchinfra.NewVectorChordKeywordIndex(db, slogger),
			searchinfra.NewVectorChordVectorIndex(db, slogger), nil
	default:
		return searchinfra.NewSQLiteKeywordIndex(db, slogger),
			searchinfra.NewSQLiteVectorIndex(db, slogger), nil
	}
}

// buildEmbedder creates the embedding provider when one is configured. A nil
// embedder disables vector search; the embedding phase skips.
func buildEmbedder(cfg config.AppConfig, slogger *slog.Logger) (search.Embedder, error) {
	endpoint := cfg.EmbeddingEndpoint()
	if endpoint == nil {
		slogger.Warn("no embedding endpoint configured, semantic search disabled")
		return nil, nil
	}

	p, err := provider.NewOpenAIProvider(*endpoint)
	if err != nil {
		if errors.Is(err, provider.ErrNotConfigured) {
			slogger.Warn("no embedding endpoint configured, semantic search disabled")
			return nil, nil
		}
		return nil, fmt.Errorf("create embedding provider: %w", err)
	}
	return p, nil
}

// buildEnricherPool creates the enrichment worker pool when an enrichment
// endpoint is configured. A nil pool disables all enrichment phases.
func buildEnricherPool(cfg config.AppConfig, slogger *slog.Logger) (*enricher.Pool, error) {
	endpoint := cfg.EnrichmentEndpoint()
	if endpoint == nil {
		slogger.Warn("no enrichment endpoint configured, enrichment disabled")
		return nil, nil
	}

	p, err := provider.NewOpenAIProvider(*endpoint)
	if err != nil {
		if errors.Is(err, provider.ErrNotConfigured) {
			slogger.Warn("no enrichment endpoint configured, enrichment disabled")
			return nil, nil
		}
		return nil, fmt.Errorf("create enrichment provider: %w", err)
	}
	return enricher.NewPool(p, endpoint.NumParallelTasks(), slogger), nil
}

// applyServeOverrides applies command line flag overrides to the config.
func applyServeOverrides(cfg config.AppConfig, host string, port int) config.AppConfig {
	var opts []config.AppConfigOption

	if host != "" {
		opts = append(opts, config.WithHost(host))
	}
	if port != 0 {
		opts = append(opts, config.WithPort(port))
	}

	return cfg.Apply(opts...)
}
