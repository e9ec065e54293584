package conversations

import (
	"context"
	"unicode/utf8"

	"github.com/cloudwego/eino/schema"
	tiktoken "github.com/pkoukk/tiktoken-go"

	"github.com/voicecv-core/server/internal/agent/graph/prompts"
	"github.com/voicecv-core/server/internal/agent/model"
)

// TokenEstimator counts the tokens of a text.
type TokenEstimator func(text string) int

// NewTikTokenEstimator returns a TokenEstimator backed by tiktoken-go for the given model.
func NewTikTokenEstimator(model string) (TokenEstimator, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return nil, err
	}
	return func(text string) int {
		return len(enc.Encode(text, nil, nil))
	}, nil
}

// ApproxTokens estimates roughly four characters per token.
func ApproxTokens(text string) int {
	return utf8.RuneCountInString(text)/4 + 1
}

type MessagesManager struct {
	maxTurns  int
	maxTokens int
	estimate  TokenEstimator
}

// NewMessagesManager builds a manager. Zero MaxTurns and MaxHistoryTokens
// keep the full history; a nil estimator falls back to ApproxTokens.
func NewMessagesManager(config model.ConversationConfig, estimate TokenEstimator) *MessagesManager {
	if estimate == nil {
		estimate = ApproxTokens
	}
	return &MessagesManager{
		maxTurns:  config.MaxTurns,
		maxTokens: config.MaxHistoryTokens,
		estimate:  estimate,
	}
}

// BuildHistory returns the persona system message followed by the stored
// turns in order. It does not modify the session.
func (cm *MessagesManager) BuildHistory(ctx context.Context, session *model.Session) ([]*schema.Message, error) {
	lang := model.LanguageAuto
	var turns []model.Turn
	if session != nil {
		lang = session.CV.Meta.PreferredLanguage
		turns = session.Turns
	}

	system, err := prompts.RenderSystem(ctx, lang)
	if err != nil {
		return nil, err
	}

	turns = cm.fitBudget(trimTail(turns, cm.maxTurns))

	messages := make([]*schema.Message, 0, len(turns)+1)
	messages = append(messages, schema.SystemMessage(system))
	for _, t := range turns {
		if t.From == model.OriginAgent {
			messages = append(messages, schema.AssistantMessage(t.Text, nil))
			continue
		}
		messages = append(messages, schema.UserMessage(t.Text))
	}
	return messages, nil
}

// fitBudget drops the oldest turns until the rest fit in maxTokens. The
// newest turn is always kept.
func (cm *MessagesManager) fitBudget(turns []model.Turn) []model.Turn {
	if cm.maxTokens <= 0 || len(turns) == 0 {
		return turns
	}
	total := 0
	start := len(turns)
	for i := len(turns) - 1; i >= 0; i-- {
		n := cm.estimate(turns[i].Text)
		if total+n > cm.maxTokens && start < len(turns) {
			break
		}
		total += n
		start = i
	}
	return turns[start:]
}

// ====================== Helper function ======================
func trimTail(turns []model.Turn, maxTurns int) []model.Turn {
	if maxTurns <= 0 || len(turns) <= maxTurns {
		return turns
	}
	return turns[len(turns)-maxTurns:]
}
