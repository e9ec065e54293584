package model

import "time"

// ================ Config ================
type LLMConfig struct {
	Provider    string        `envconfig:"LLM_PROVIDER" default:"gemini"`
	Model       string        `envconfig:"CV_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int           `envconfig:"CV_MAX_TOKENS" default:"2000"`
	Temperature float32       `envconfig:"CV_TEMPERATURE" default:"0"`
	Timeout     time.Duration `envconfig:"LLM_TIMEOUT" default:"60s"`
}

type ConversationConfig struct {
	TTL              string `envconfig:"CONVERSATION_TTL" default:"720h"`
	MaxTurns         int    `envconfig:"CONVERSATION_MAX_TURNS" default:"0"`
	MaxHistoryTokens int    `envconfig:"CONVERSATION_MAX_HISTORY_TOKENS" default:"0"`
	TokenizerModel   string `envconfig:"CONVERSATION_TOKENIZER_MODEL" default:"gpt-4o"`
}

type StoreConfig struct {
	Backend string `envconfig:"STORE_BACKEND" default:"redis"`
}

type ValidationConfig struct {
	DefaultRegion string `envconfig:"VALIDATION_DEFAULT_REGION" default:"IN"`
}

type TranscribeConfig struct {
	Model string `envconfig:"TRANSCRIBE_MODEL" default:"gemini-2.5-flash"`
}

type EventsConfig struct {
	URL        string `envconfig:"RABBITMQ_URL"`
	Exchange   string `envconfig:"RABBITMQ_EXCHANGE" default:"cv.events"`
	RoutingKey string `envconfig:"RABBITMQ_COMPLETED_ROUTING_KEY" default:"cv.completed"`
}

// Store backends.
const (
	StoreRedis  = "redis"
	StoreMySQL  = "mysql"
	StoreMemory = "memory"
)

// LLM providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)
