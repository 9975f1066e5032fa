package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/phuslu/log"

	"github.com/csadvisor/advisor-go/internal/adapters/embedding"
	"github.com/csadvisor/advisor-go/internal/adapters/knowledge"
	"github.com/csadvisor/advisor-go/internal/adapters/llm"
	"github.com/csadvisor/advisor-go/internal/adapters/reranker"
	"github.com/csadvisor/advisor-go/internal/adapters/sessionstore"
	"github.com/csadvisor/advisor-go/internal/adapters/vectordb"
	"github.com/csadvisor/advisor-go/internal/config"
	"github.com/csadvisor/advisor-go/internal/domain/ports"
	"github.com/csadvisor/advisor-go/internal/domain/usecases"
	httpserver "github.com/csadvisor/advisor-go/internal/infrastructure/http"
)

const version = "0.1.0"

var (
	configPath  = flag.String("config", "", "Configuration file path (TOML)")
	serverPort  = flag.Int("port", 0, "Server port (overrides config)")
	showVersion = flag.Bool("version", false, "Print version information")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("advisor %s\n", version)
		return
	}

	// Failures exit through here so run's defers (session store close)
	// always execute first.
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("advisor failed")
	}
	log.Info().Msg("advisor server stopped")
}

func run() error {
	cfg, err := config.LoadFromFile(*configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if *serverPort > 0 {
		cfg.Server.Port = *serverPort
	}

	log.DefaultLogger.Level = log.ParseLevel(cfg.Logging.Level)
	if os.Getenv("ADVISOR_LOG_CONSOLE") != "" {
		log.DefaultLogger.Writer = &log.ConsoleWriter{ColorOutput: true}
	}

	if cfg.Models.APIKey == "" {
		return fmt.Errorf("no API key: set ADVISOR_API_KEY or TOGETHER_API_KEY")
	}

	sessions, closeSessions, err := newSessionStore(cfg)
	if err != nil {
		return fmt.Errorf("opening %s session store: %w", cfg.Sessions.Backend, err)
	}
	defer closeSessions()

	embedder := embedding.NewAdapter(cfg.Models.BaseURL, cfg.Models.APIKey, cfg.Models.EmbeddingModel)
	chat := llm.NewAdapter(cfg.Models.BaseURL, cfg.Models.APIKey, cfg.Models.ChatModel,
		cfg.Models.Temperature, cfg.Models.MaxTokens)
	rerank := reranker.NewAdapter(cfg.Models.RerankerURL)
	store := vectordb.NewInMemoryStore()

	chunker := usecases.NewChunker(cfg.Retrieval.ChunkSize, cfg.Retrieval.ChunkOverlap)
	indexer := usecases.NewIndexUseCase(chunker, embedder, store)
	ask := usecases.NewAskUseCase(
		sessions,
		usecases.NewRewriter(chat),
		embedder,
		store,
		rerank,
		chat,
		cfg.Retrieval.TopK,
		cfg.Retrieval.TopN,
		cfg.Retrieval.MaxHistoryTurns,
	)

	server := httpserver.NewServer(ask, cfg.Addr())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Serve immediately so health checks respond during indexing;
	// /api/ask returns 503 until the index is built.
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(ctx)
	}()

	chunks, err := indexer.Build(ctx, knowledge.NewLoader())
	if err != nil {
		stop()
		<-errCh
		return fmt.Errorf("building knowledge index: %w", err)
	}
	server.SetReady(true)
	log.Info().Int("chunks", chunks).Msg("knowledge index ready")

	if err := <-errCh; err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func newSessionStore(cfg *config.Config) (ports.SessionStore, func(), error) {
	switch cfg.Sessions.Backend {
	case "sqlite":
		store, err := sessionstore.NewSQLiteStore(cfg.Sessions.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	case "badger":
		store, err := sessionstore.NewBadgerStore(cfg.Sessions.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	default:
		return sessionstore.NewMemoryStore(), func() {}, nil
	}
}
