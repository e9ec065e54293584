package nodes

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	oa "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

type OpenAIChatConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
}

// completer is the slice of the OpenAI SDK the chat model uses.
type completer interface {
	New(ctx context.Context, body oa.ChatCompletionNewParams, opts ...option.RequestOption) (*oa.ChatCompletion, error)
}

// OpenAIChatModel adapts the OpenAI chat completions API to an Eino chat model.
type OpenAIChatModel struct {
	completions completer
	config      OpenAIChatConfig
}

func NewOpenAIChatModel(config OpenAIChatConfig) (*OpenAIChatModel, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("openai: missing API key; set OPENAI_API_KEY")
	}
	opts := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}
	client := oa.NewClient(opts...)
	return &OpenAIChatModel{completions: &client.Chat.Completions, config: config}, nil
}

func (m *OpenAIChatModel) GetType() string { return "OpenAI" }

// Generate sends the messages as one chat completion request.
func (m *OpenAIChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	temperature := m.config.Temperature
	maxTokens := m.config.MaxTokens
	modelName := m.config.Model
	o := einomodel.GetCommonOptions(&einomodel.Options{
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
		Model:       &modelName,
	}, opts...)

	params := oa.ChatCompletionNewParams{
		Model:       shared.ChatModel(*o.Model),
		Messages:    toOpenAIMessages(input),
		Temperature: oa.Float(float64(*o.Temperature)),
	}
	if *o.MaxTokens > 0 {
		params.MaxCompletionTokens = oa.Int(int64(*o.MaxTokens))
	}

	resp, err := m.completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}

	out := &schema.Message{Role: schema.Assistant}
	if len(resp.Choices) > 0 {
		out.Content = resp.Choices[0].Message.Content
		out.ResponseMeta = &schema.ResponseMeta{FinishReason: resp.Choices[0].FinishReason}
	} else {
		out.ResponseMeta = &schema.ResponseMeta{}
	}
	out.ResponseMeta.Usage = &schema.TokenUsage{
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
	}
	return out, nil
}

// Stream returns the Generate result as a single-chunk stream.
func (m *OpenAIChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func toOpenAIMessages(input []*schema.Message) []oa.ChatCompletionMessageParamUnion {
	mm := make([]oa.ChatCompletionMessageParamUnion, 0, len(input))
	for _, m := range input {
		if m == nil {
			continue
		}
		switch m.Role {
		case schema.System:
			mm = append(mm, oa.SystemMessage(m.Content))
		case schema.Assistant:
			mm = append(mm, oa.AssistantMessage(m.Content))
		default:
			mm = append(mm, oa.UserMessage(m.Content))
		}
	}
	return mm
}

var _ einomodel.BaseChatModel = (*OpenAIChatModel)(nil)
