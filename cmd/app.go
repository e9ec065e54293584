package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/voicecv-core/server/internal/agent/events"
	"github.com/voicecv-core/server/internal/agent/graph"
	"github.com/voicecv-core/server/internal/agent/graph/conversations"
	"github.com/voicecv-core/server/internal/agent/graph/nodes"
	"github.com/voicecv-core/server/internal/agent/model"
	"github.com/voicecv-core/server/internal/agent/repo"
	"github.com/voicecv-core/server/internal/agent/transcribe"
	"github.com/voicecv-core/server/internal/agent/validators"
	"github.com/voicecv-core/server/internal/core"
	logx "github.com/voicecv-core/server/pkg/logger"
	pkgmysql "github.com/voicecv-core/server/pkg/mysql"
	pkgotel "github.com/voicecv-core/server/pkg/otel"
	pkgredis "github.com/voicecv-core/server/pkg/redis"
)

// AppConfig defines all configurable parameters of the host,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// Infrastructure
	Redis pkgredis.Config
	MySQL pkgmysql.Config
	Otel  pkgotel.Config

	// LLM providers
	GeminiAPIKey  string `envconfig:"GEMINI_API_KEY"`
	GeminiBaseURL string `envconfig:"GEMINI_BASE_URL"`
	OpenAIAPIKey  string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL"`

	// Agent configs
	LLM          model.LLMConfig
	Conversation model.ConversationConfig
	Store        model.StoreConfig
	Validation   model.ValidationConfig
	Transcribe   model.TranscribeConfig
	Events       model.EventsConfig
}

func loadConfig(path string) (*AppConfig, error) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}
	return &cfg, nil
}

// application is the wired service plus the resources to release on exit.
type application struct {
	service *graph.Service
	closers []func() error
}

func (a *application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logx.Warn().Err(err).Msg("failed to release resource")
		}
	}
}

func newApplication(ctx context.Context, path string) (*application, error) {
	cfg, err := loadConfig(path)
	if err != nil {
		return nil, err
	}
	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(cfg.Environment), Service: app})

	a := &application{}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	shutdown, err := pkgotel.Init(ctx, cfg.Otel)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	a.closers = append(a.closers, func() error {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return shutdown(sctx)
	})

	sessions, err := a.openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	chatCfg := nodes.ChatModelConfig{
		LLM:           &cfg.LLM,
		OpenAIAPIKey:  cfg.OpenAIAPIKey,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
	}
	var transcriber transcribe.Transcriber
	if cfg.GeminiAPIKey != "" {
		client, err := nodes.NewGenAIClient(ctx, cfg.GeminiAPIKey, cfg.GeminiBaseURL)
		if err != nil {
			return nil, err
		}
		chatCfg.GeminiClient = client
		transcriber = transcribe.NewGemini(client, cfg.Transcribe.Model)
	} else {
		logx.Warn().Msg("GEMINI_API_KEY not set; voice turns are disabled")
	}

	publisher := events.Publisher(events.Nop{})
	if cfg.Events.URL != "" {
		mq, err := events.NewRabbitMQ(cfg.Events)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, mq.Close)
		publisher = mq
	}

	service, err := graph.BuildService(ctx, graph.Config{
		ChatModel:    chatCfg,
		Conversation: cfg.Conversation,
		Estimator:    tokenEstimator(cfg.Conversation),
		Validator:    validators.New(cfg.Validation.DefaultRegion),
		Repo:         sessions,
		Transcriber:  transcriber,
		Publisher:    publisher,
		Timeout:      cfg.LLM.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("build service: %w", err)
	}
	a.service = service
	ok = true
	return a, nil
}

func (a *application) openStore(ctx context.Context, cfg *AppConfig) (model.SessionRepository, error) {
	switch cfg.Store.Backend {
	case model.StoreRedis:
		ttl, err := time.ParseDuration(cfg.Conversation.TTL)
		if err != nil {
			return nil, fmt.Errorf("invalid CONVERSATION_TTL %q: %w", cfg.Conversation.TTL, err)
		}
		rdb, err := cfg.Redis.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("init redis: %w", err)
		}
		a.closers = append(a.closers, rdb.Close)
		logx.Debug().Msg("Connected to Redis successfully")
		return repo.NewRedisSessionRepository(rdb, ttl), nil

	case model.StoreMySQL:
		db, err := cfg.MySQL.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("init mysql: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("init mysql: %w", err)
		}
		a.closers = append(a.closers, sqlDB.Close)
		r := repo.NewMySQLSessionRepository(db)
		if err := r.Migrate(ctx); err != nil {
			return nil, err
		}
		logx.Debug().Msg("Connected to MySQL successfully")
		return r, nil

	case model.StoreMemory:
		logx.Warn().Msg("using in-memory session store; sessions are lost on exit")
		return repo.NewMemorySessionRepository(), nil
	}
	return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.Store.Backend)
}

// tokenEstimator returns a tiktoken estimator when a history budget is set,
// or nil for the character estimate when the encoding cannot be loaded.
func tokenEstimator(cfg model.ConversationConfig) conversations.TokenEstimator {
	if cfg.MaxHistoryTokens <= 0 {
		return nil
	}
	estimate, err := conversations.NewTikTokenEstimator(cfg.TokenizerModel)
	if err != nil {
		logx.Warn().Err(err).Str("model", cfg.TokenizerModel).Msg("tiktoken unavailable; using approximate token counts")
		return nil
	}
	return estimate
}
