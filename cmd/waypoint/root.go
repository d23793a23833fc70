package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/waypoint/internal/api"
	"github.com/hyperengineering/waypoint/internal/catalog"
	"github.com/hyperengineering/waypoint/internal/config"
	"github.com/hyperengineering/waypoint/internal/contextbuilder"
	"github.com/hyperengineering/waypoint/internal/intent"
	"github.com/hyperengineering/waypoint/internal/llm"
	"github.com/hyperengineering/waypoint/internal/provider"
	"github.com/hyperengineering/waypoint/internal/recommend"
	"github.com/hyperengineering/waypoint/internal/search"
	"github.com/hyperengineering/waypoint/internal/worker"
)

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "waypoint",
	Short: "Waypoint - Workflow Recommendation Service",
	RunE:  run,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func run(cmd *cobra.Command, args []string) error {
	// 1. Signal handling
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	// 2. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("configuration loaded")

	// 3. Initialize logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))
	slog.SetDefault(logger)
	slog.Info("logger initialized", "level", cfg.Log.Level)

	// 4. Initialize workflow catalog (migrations, WAL mode)
	cat, err := catalog.NewSQLiteCatalog(cfg.Database.Path)
	if err != nil {
		return err
	}
	slog.Info("catalog initialized", "path", cfg.Database.Path)

	// 5. Build the in-memory search index from the catalog
	workflows, err := cat.List(ctx)
	if err != nil {
		return err
	}
	searcher, err := search.NewBleveSearcher()
	if err != nil {
		return err
	}
	if err := searcher.Index(workflows); err != nil {
		return err
	}
	slog.Info("search index built", "workflows", len(workflows))

	// 6. Providers
	domain := provider.NewStaticDomain(provider.DeriveDomainKnowledge(workflows))
	users := provider.NewMemoryUserContext()
	library := provider.NewCatalogLibrary(cat)

	// 7. Pipeline components
	model := llm.NewOpenAI(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	slog.Info("model client initialized", "model", cfg.OpenAI.Model)

	builder := contextbuilder.NewBuilder(domain, users, library, contextbuilder.Config{
		Staleness:        time.Duration(cfg.Context.Staleness),
		MaxRecentQueries: cfg.Context.MaxRecentQueries,
	})
	analyzer := intent.NewAnalyzer(model, intent.Config{
		HistorySize:         cfg.Intent.HistorySize,
		RefinementIncrement: cfg.Intent.RefinementIncrement,
		Temperature:         cfg.OpenAI.Temperature,
		MaxTokens:           cfg.OpenAI.MaxTokens,
	})
	engine := recommend.NewEngine(searcher, recommend.Config{
		CacheTTL:           time.Duration(cfg.Recommend.CacheTTL),
		MinConfidence:      cfg.Recommend.MinConfidence,
		MaxRecommendations: cfg.Recommend.MaxRecommendations,
		SearchLimit:        cfg.Recommend.SearchLimit,
		Weights: recommend.Weights{
			IntentMatch:     cfg.Recommend.Weights.IntentMatch,
			UserFit:         cfg.Recommend.Weights.UserFit,
			Popularity:      cfg.Recommend.Weights.Popularity,
			SetupSimplicity: cfg.Recommend.Weights.SetupSimplicity,
			Compatibility:   cfg.Recommend.Weights.Compatibility,
		},
	}, logger)

	// 8. Initialize HTTP router
	handler := api.NewHandler(builder, analyzer, engine, users, library,
		cfg.Auth.APIKey, Version, cfg.OpenAI.Model)
	router := api.NewRouter(handler)
	slog.Info("router initialized")

	// 9. Configure HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout),
	}

	// 10. Background workers
	var wg sync.WaitGroup
	sweeper := worker.NewSweepCoordinator(map[string]worker.Sweepable{
		"contexts":        builder,
		"recommendations": engine,
	}, time.Duration(cfg.Sweeper.Interval))
	startWorker(ctx, &wg, "sweep", sweeper.Run)

	// 11. Start HTTP server in goroutine
	go func() {
		slog.Info("server starting", "address", addr)
		// ErrServerClosed is the expected error when Shutdown() is called gracefully.
		// Any other error indicates an actual server failure that should trigger shutdown.
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel() // Trigger shutdown on server failure
		}
	}()

	// 12. Block until signal received
	<-ctx.Done()
	slog.Info("shutdown initiated")

	// 13. Graceful shutdown sequence
	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout))
	defer shutdownCancel()

	// 13a. Stop HTTP server (drains in-flight requests)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	// 13b. Wait for workers to complete
	wg.Wait()

	// 13c. Close the search index and catalog
	if err := searcher.Close(); err != nil {
		slog.Error("search index close error", "error", err)
	}
	if err := cat.Close(); err != nil {
		slog.Error("catalog close error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// startWorker launches a background worker goroutine that respects context cancellation.
// Workers are tracked via WaitGroup for graceful shutdown.
func startWorker(ctx context.Context, wg *sync.WaitGroup, name string, fn func(ctx context.Context)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.Info("worker started", "worker", name)
		fn(ctx)
		slog.Info("worker stopped", "worker", name)
	}()
}
