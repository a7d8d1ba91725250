package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/syncmind/syncmind/db"
	"github.com/syncmind/syncmind/internal/config"
	"github.com/syncmind/syncmind/internal/embed"
	"github.com/syncmind/syncmind/internal/enrich"
	"github.com/syncmind/syncmind/internal/log"
	"github.com/syncmind/syncmind/internal/search"
	"github.com/syncmind/syncmind/internal/store"
	"github.com/syncmind/syncmind/internal/summarize"
)

// Setup creates and initializes the application. On return the index
// has been rebuilt from the document store and the service is ready to
// answer queries. Call Close() to release resources.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	if logger == nil {
		logger = log.NewNop()
	}
	a := &App{Config: cfg, Logger: logger}

	// On error, clean up everything already initialized.
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	a.otelCleanup = provideOtelShutdown(ctx, cfg, logger)

	pool, err := provideDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.DBPool = pool

	docs, err := store.New(pool, logger)
	if err != nil {
		return nil, err
	}
	a.Store = docs

	embedder, err := provideEmbedder(ctx, cfg)
	if err != nil {
		return nil, err
	}

	sync, err := search.NewSynchronizer(docs, cfg.Dimension, logger)
	if err != nil {
		return nil, err
	}
	// The index must mirror the store before the first query; a corrupt
	// row fails startup rather than serving shifted ordinals.
	if err := sync.Rebuild(ctx); err != nil {
		return nil, fmt.Errorf("rebuilding index from store: %w", err)
	}
	a.Sync = sync

	enricher, err := provideEnricher(cfg, logger)
	if err != nil {
		return nil, err
	}

	a.Service = search.New(sync, docs, embedder, enricher, search.Config{TopK: cfg.TopK}, logger)

	logger.Info("application initialized",
		"documents", sync.Len(),
		"dimension", cfg.Dimension,
		"embedder", cfg.EmbedderProvider,
	)
	return a, nil
}

// provideOtelShutdown sets up OTLP trace export when tracing is
// enabled. Traces go to a local collector over OTLP HTTP; the collector
// handles authentication and forwarding.
func provideOtelShutdown(ctx context.Context, cfg *config.Config, logger log.Logger) func() {
	if !cfg.TracingEnabled {
		return func() {}
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.OTLPEndpoint),
		otlptracehttp.WithInsecure(), // local collector doesn't need TLS
	)
	if err != nil {
		logger.Warn("creating trace exporter, tracing disabled", "error", err)
		return func() {}
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewBatchSpanProcessor(exporter)),
	)
	otel.SetTracerProvider(tp)

	logger.Debug("tracing enabled", "endpoint", cfg.OTLPEndpoint)

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutting down tracer provider", "error", err)
		}
	}
}

// provideDBPool creates a PostgreSQL connection pool and runs migrations.
func provideDBPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}

// provideEmbedder creates the embedding backend for the configured
// provider: Gemini via Genkit, or a local sentence-transformer sidecar
// over HTTP.
func provideEmbedder(ctx context.Context, cfg *config.Config) (search.Embedder, error) {
	switch cfg.EmbedderProvider {
	case config.ProviderHTTP:
		return embed.NewHTTP(embed.HTTPConfig{
			BaseURL:   cfg.EmbedderBaseURL,
			Dimension: cfg.Dimension,
		})

	case config.ProviderGoogleAI:
		g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with googleai provider")
		}
		e := googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
		if e == nil {
			return nil, fmt.Errorf("embedder %q not found for provider %q", cfg.EmbedderModel, cfg.EmbedderProvider)
		}
		return embed.NewGenkit(e, cfg.Dimension)

	default:
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidProvider, cfg.EmbedderProvider)
	}
}

// provideEnricher creates the summarization client and the enrichment
// pipeline around it.
func provideEnricher(cfg *config.Config, logger log.Logger) (*enrich.Pipeline, error) {
	summarizer, err := summarize.New(summarize.Config{
		BaseURL: cfg.OpenRouterBaseURL,
		APIKey:  cfg.OpenRouterAPIKey(),
		Model:   cfg.SummaryModel,
	})
	if err != nil {
		return nil, fmt.Errorf("creating summarization client: %w", err)
	}
	if cfg.OpenRouterAPIKey() == "" {
		logger.Warn("OPENROUTER_API_KEY is not set, summaries will degrade to failure strings")
	}

	return enrich.New(summarizer, enrich.Config{
		FetchTimeout:   time.Duration(cfg.ScraperTimeoutSecs) * time.Second,
		UserAgent:      cfg.ScraperUserAgent,
		TranscriptLang: cfg.TranscriptLang,
	}, logger), nil
}
