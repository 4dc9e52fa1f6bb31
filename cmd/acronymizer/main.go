package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/otzaria/acronymizer/batch"
	"github.com/otzaria/acronymizer/config"
	"github.com/otzaria/acronymizer/llm"
	anthropicclient "github.com/otzaria/acronymizer/llm/anthropic"
	ollamaclient "github.com/otzaria/acronymizer/llm/ollama"
	openaiclient "github.com/otzaria/acronymizer/llm/openai"
	acronymizerlogger "github.com/otzaria/acronymizer/logger"
	"github.com/otzaria/acronymizer/notify"
	"github.com/otzaria/acronymizer/pacing"
	"github.com/otzaria/acronymizer/source"
	"github.com/otzaria/acronymizer/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", config.GetConfigPath(), "Path to YAML config file")
		sourceDB   = flag.String("source", "", "Path to the source catalogue database (overrides config)")
		resultDB   = flag.String("db", "", "Path to the result store database (overrides config)")
		logFile    = flag.String("logfile", "", "Path to log file. If not set, logs to stdout/stderr")
		pretty     = flag.Bool("pretty", false, "Use pretty console output (only valid when logfile is not set)")
		titlesOnly = flag.Bool("titles-only", false, "Process book titles only")
		tocOnly    = flag.Bool("toc-only", false, "Process table-of-contents entries only")
	)
	flag.Parse()

	if *logFile != "" && *pretty {
		return fmt.Errorf("--logfile and --pretty are mutually exclusive")
	}
	if *titlesOnly && *tocOnly {
		return fmt.Errorf("--titles-only and --toc-only are mutually exclusive")
	}

	logger, err := acronymizerlogger.InitWithOptions(*logFile, *pretty)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if *sourceDB != "" {
		cfg.SourceDB = *sourceDB
	}
	if *resultDB != "" {
		cfg.ResultDB = *resultDB
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger.Info().
		Str("source_db", cfg.SourceDB).
		Str("result_db", cfg.ResultDB).
		Int("tokens_per_minute", cfg.TokensPerMinute).
		Int("est_tokens_per_request", cfg.EstTokensPerRequest).
		Msg("acronymizer starting")

	// Cancellation takes effect between items; an in-flight LLM call is
	// never aborted early.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(cfg.ResultDB, logger)
	if err != nil {
		return fmt.Errorf("failed to open result store: %w", err)
	}
	defer db.Close()

	provider, err := source.Open(cfg.SourceDB, sourceTables(cfg))
	if err != nil {
		return err
	}
	defer provider.Close()

	registry := llm.NewProviderRegistry(cfg.ProviderConfig(), cfg.LLMProviders)
	clientKey, err := registry.Resolve()
	if err != nil {
		return fmt.Errorf("failed to resolve LLM provider: %w", err)
	}
	logger.Info().Str("provider", clientKey.Provider).Str("model", clientKey.Model).Msg("Resolved LLM provider")

	sessions := sessionFactory(clientKey, logger)
	pacer := pacing.NewPacer(cfg.TokensPerMinute, cfg.EstTokensPerRequest)
	guard := pacing.NewRetryGuard(cfg.MaxRetries, cfg.BaseRetryDelay(), logger)
	logger.Info().Dur("min_delay", pacer.Delay()).Msg("Request pacing configured")

	if !*tocOnly {
		if err := runPass(ctx, cfg, logger, "titles", store.NewTitleStore(db), pacer, guard, sessions, provider.ListTitles); err != nil {
			return err
		}
	}
	if !*titlesOnly {
		if err := runPass(ctx, cfg, logger, "toc", store.NewTOCStore(db), pacer, guard, sessions, provider.ListTOCEntries); err != nil {
			return err
		}
	}

	return nil
}

// runPass processes one catalogue listing (titles or TOC entries)
// against its result table.
func runPass(
	ctx context.Context,
	cfg *config.Config,
	logger zerolog.Logger,
	name string,
	resultStore batch.ResultStore,
	pacer *pacing.Pacer,
	guard *pacing.RetryGuard,
	sessions llm.SessionFactory,
	list func(ctx context.Context) ([]string, error),
) error {
	items, err := list(ctx)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", name, err)
	}
	logger.Info().Str("pass", name).Int("items", len(items)).Msg("Starting pass")

	homog := batch.NewHomogenizer(resultStore, pacer, guard, cfg.HomogenizeEvery, logger)
	processor := batch.NewProcessor(resultStore, pacer, guard, sessions, homog, logger)
	processor.SetCadence(cfg.SessionRefreshEvery, cfg.HomogenizeEvery)

	stats, err := processor.Run(ctx, items)
	if stats != nil {
		logger.Info().
			Str("pass", name).
			Int("processed", stats.Processed).
			Int("skipped", stats.Skipped).
			Int("inserted", stats.Inserted).
			Int("updated", stats.Updated).
			Int("empty", stats.Empty).
			Int("failed", stats.Failed).
			Msg("Pass complete")
		if cfg.Notify {
			notify.RunCompleted(logger, name, stats)
		}
	}
	if err != nil {
		return fmt.Errorf("%s pass: %w", name, err)
	}
	return nil
}

// sessionFactory builds fresh provider clients so the processor can
// recreate its session periodically.
func sessionFactory(key *llm.ClientKey, logger zerolog.Logger) llm.SessionFactory {
	return func(context.Context) (llm.Client, error) {
		switch key.Provider {
		case llm.ProviderOpenAI:
			return openaiclient.NewOpenAIClient(key.APIKey, key.BaseURL, key.Model, key.Organization)
		case llm.ProviderAnthropic:
			return anthropicclient.NewAnthropicClient(key.APIKey, key.Model, logger)
		case llm.ProviderOllama:
			return ollamaclient.NewOllamaClient(key.Host, key.Model)
		default:
			return nil, fmt.Errorf("unknown provider: %s", key.Provider)
		}
	}
}

// sourceTables merges configured catalogue table overrides with defaults.
func sourceTables(cfg *config.Config) source.Tables {
	tables := source.DefaultTables
	if cfg.SourceTables.TitleTable != "" {
		tables.TitleTable = cfg.SourceTables.TitleTable
	}
	if cfg.SourceTables.TitleColumn != "" {
		tables.TitleColumn = cfg.SourceTables.TitleColumn
	}
	if cfg.SourceTables.TOCTable != "" {
		tables.TOCTable = cfg.SourceTables.TOCTable
	}
	if cfg.SourceTables.TOCColumn != "" {
		tables.TOCColumn = cfg.SourceTables.TOCColumn
	}
	return tables
}
