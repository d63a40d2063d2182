package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/ragbot-core/server/internal/bot/chain"
	"github.com/ragbot-core/server/internal/bot/model"
	"github.com/ragbot-core/server/internal/bot/repo"
	"github.com/ragbot-core/server/internal/core"
	"github.com/ragbot-core/server/internal/rag"
	"github.com/ragbot-core/server/internal/search"
	"github.com/ragbot-core/server/internal/server"
	logx "github.com/ragbot-core/server/pkg/logger"
	pkgredis "github.com/ragbot-core/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the service, sourced
// from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"APP_ENV" default:"development"`

	// Infrastructure
	HTTP  server.Config
	Redis pkgredis.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Service configs
	Chat         model.ChatModelConfig
	RAG          model.RAGConfig
	Conversation model.ConversationConfig
	Prompt       model.PromptConfig
	Search       model.SearchConfig
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load structured config from env
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(cfg.Environment)})

	client, err := chain.NewGeminiClient(ctx, cfg.APIKey, cfg.BaseURL)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to initialise Gemini client")
	}

	chatModel, err := chain.NewChatModel(ctx, client, cfg.Chat)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to create chat model")
	}

	histories, err := newHistoryRepository(cfg)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to initialise history store")
	}

	runner, err := chain.NewRunner(ctx, chatModel, histories, chain.Config{
		Persona:   cfg.Prompt.HistoryPersona,
		ModelName: cfg.Chat.Model,
		MaxTurns:  cfg.Conversation.MaxTurns,
		Timeout:   time.Duration(cfg.Chat.TimeoutSec) * time.Second,
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to build chat chain")
	}

	// A lower-temperature model for retrieval QA, sharing the client.
	ragModelCfg := cfg.Chat
	ragModelCfg.Temperature = cfg.RAG.Temperature
	ragModel, err := chain.NewChatModel(ctx, client, ragModelCfg)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to create retrieval model")
	}

	splitter, err := rag.NewOverlapSplitter(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	if err != nil {
		logx.Fatal().Err(err).Msg("invalid chunking configuration")
	}

	pipeline, err := rag.NewPipeline(
		rag.NewWebLoader(30*time.Second),
		splitter,
		rag.NewGeminiEmbedder(client, cfg.RAG.EmbedModel),
		ragModel,
		cfg.RAG.SourceURL,
		cfg.RAG.TopK,
	)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to assemble retrieval pipeline")
	}

	srv := server.New(cfg.HTTP, server.Options{
		Chat:          runner,
		Answerer:      pipeline,
		Searcher:      search.NewClient(cfg.Search),
		SimplePersona: cfg.Prompt.SimplePersona,
		BotName:       cfg.Prompt.BotName,
	})

	if err := srv.Run(ctx); err != nil {
		logx.Fatal().Err(err).Msg("http server failed")
	}
	logx.Info().Msg("server stopped")
}

// newHistoryRepository selects the history backend from config. The
// in-memory store is the default; redis adds durability and TTL-based
// expiry across restarts.
func newHistoryRepository(cfg AppConfig) (model.HistoryRepository, error) {
	switch cfg.Conversation.Backend {
	case "redis":
		ttl, err := time.ParseDuration(cfg.Conversation.TTL)
		if err != nil {
			return nil, err
		}
		rdb, err := cfg.Redis.New()
		if err != nil {
			return nil, err
		}
		logx.Info().Dur("ttl", ttl).Msg("using redis history backend")
		return repo.NewRedisRepository(rdb, ttl), nil
	default:
		logx.Info().Msg("using in-memory history backend")
		return repo.NewMemoryRepository(), nil
	}
}
