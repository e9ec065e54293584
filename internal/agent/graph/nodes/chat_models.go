package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	einomodel "github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"

	"github.com/voicecv-core/server/internal/agent/model"
	logx "github.com/voicecv-core/server/pkg/logger"
)

// ChatModelConfig holds the configuration for chat model creation
type ChatModelConfig struct {
	LLM           *model.LLMConfig
	GeminiClient  *genai.Client
	OpenAIAPIKey  string
	OpenAIBaseURL string
}

// ChatModels holds the chat model used for CV turns
type ChatModels struct {
	CV          einomodel.BaseChatModel
	CVModelName string
}

// NewGenAIClient creates the Gemini API client shared by chat and transcription.
func NewGenAIClient(ctx context.Context, apiKey, baseURL string) (*genai.Client, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		clientCfg.HTTPOptions.BaseURL = baseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}
	return client, nil
}

// NewChatModels creates the CV chat model for the configured provider
func NewChatModels(ctx context.Context, config ChatModelConfig) (*ChatModels, error) {
	if config.LLM == nil {
		return nil, fmt.Errorf("llm config is nil")
	}

	switch config.LLM.Provider {
	case model.ProviderOpenAI:
		cm, err := NewOpenAIChatModel(OpenAIChatConfig{
			APIKey:      config.OpenAIAPIKey,
			BaseURL:     config.OpenAIBaseURL,
			Model:       config.LLM.Model,
			Temperature: config.LLM.Temperature,
			MaxTokens:   config.LLM.MaxTokens,
		})
		if err != nil {
			logx.Error().Err(err).Msg("Error creating OpenAI CV model")
			return nil, fmt.Errorf("error creating OpenAI CV model: %w", err)
		}
		return &ChatModels{CV: cm, CVModelName: config.LLM.Model}, nil

	case model.ProviderGemini, "":
		if config.GeminiClient == nil {
			return nil, fmt.Errorf("gemini client is nil")
		}
		cm, err := gemini.NewChatModel(ctx, &gemini.Config{
			Client:      config.GeminiClient,
			Model:       config.LLM.Model,
			Temperature: &config.LLM.Temperature,
			MaxTokens:   &config.LLM.MaxTokens,
			ThinkingConfig: &genai.ThinkingConfig{
				IncludeThoughts: false,
				ThinkingBudget:  genai.Ptr(int32(1024)),
			},
		})
		if err != nil {
			logx.Error().Err(err).Msg("Error creating Gemini CV model")
			return nil, fmt.Errorf("error creating Gemini CV model: %w", err)
		}
		return &ChatModels{CV: cm, CVModelName: config.LLM.Model}, nil
	}

	return nil, fmt.Errorf("unknown llm provider %q", config.LLM.Provider)
}
