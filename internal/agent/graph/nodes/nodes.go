package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/voicecv-core/server/internal/agent/graph/conversations"
	"github.com/voicecv-core/server/internal/agent/graph/parsers"
	"github.com/voicecv-core/server/internal/agent/graph/prompts"
	"github.com/voicecv-core/server/internal/agent/model"
	logx "github.com/voicecv-core/server/pkg/logger"
)

// Graph node keys.
const (
	NodeHistoryBuilder = "HistoryBuilder"
	NodeCVChatModel    = "CVChatModel"
	NodeReplyParser    = "ReplyParser"
	NodeTurnReconciler = "TurnReconciler"
)

// Keys set on the model reply's Extra map.
const (
	ExtraUsageCost   = "usage_cost"
	ExtraTurnCostUSD = "usage_cost_total_usd"
)

// NewHistoryBuilderPreHandler creates the pre-handler for HistoryBuilder node
func NewHistoryBuilderPreHandler() func(context.Context, model.TurnInput, *model.TurnState) (model.TurnInput, error) {
	return func(ctx context.Context, in model.TurnInput, s *model.TurnState) (model.TurnInput, error) {
		if in.Session == nil {
			return in, fmt.Errorf("turn input has no session")
		}
		s.Session = in.Session
		s.SessionID = in.Session.ID
		s.UserText = in.UserText
		s.History = nil
		s.Cost = model.Cost{}
		return in, nil
	}
}

// NewHistoryBuilderNode creates the node that assembles the model input:
// persona, stored turns, then the per-turn extraction instruction.
func NewHistoryBuilderNode(mm *conversations.MessagesManager) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, input model.TurnInput) ([]*schema.Message, error) {
		if input.Session == nil {
			return nil, fmt.Errorf("turn input has no session")
		}
		messages, err := mm.BuildHistory(ctx, input.Session)
		if err != nil {
			return nil, fmt.Errorf("build history: %w", err)
		}

		instruction, err := prompts.RenderTurnInstruction(ctx, input.UserText, input.Session.CV)
		if err != nil {
			return nil, fmt.Errorf("render turn instruction: %w", err)
		}

		return append(messages, instruction), nil
	})
}

// NewCVChatModelPreHandler records the model input in state.
func NewCVChatModelPreHandler() func(context.Context, []*schema.Message, *model.TurnState) ([]*schema.Message, error) {
	return func(ctx context.Context, in []*schema.Message, state *model.TurnState) ([]*schema.Message, error) {
		state.History = append(state.History, in...)
		logx.Debug().
			Str("session_id", state.SessionID).
			Int("messages", len(in)).
			Msg("AI thinking...")
		return in, nil
	}
}

// NewCVChatModelPostHandler computes and logs usage cost for the CV model.
func NewCVChatModelPostHandler(modelName string) func(context.Context, *schema.Message, *model.TurnState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.TurnState) (*schema.Message, error) {
		if out == nil {
			return out, nil
		}
		state.History = append(state.History, out)

		if out.ResponseMeta == nil || out.ResponseMeta.Usage == nil {
			return out, nil
		}
		usage := out.ResponseMeta.Usage
		cost := model.PricingFor(modelName).Of(usage)
		state.Cost = state.Cost.Add(cost)

		if out.Extra == nil {
			out.Extra = map[string]any{}
		}
		out.Extra[ExtraUsageCost] = map[string]any{
			"currency":          "USD",
			"model":             modelName,
			"prompt_tokens":     usage.PromptTokens,
			"completion_tokens": usage.CompletionTokens,
			"total_tokens":      usage.TotalTokens,
			"input_cost":        cost.Input,
			"output_cost":       cost.Output,
			"total_cost":        cost.Total(),
		}
		out.Extra[ExtraTurnCostUSD] = state.Cost.Total()

		logx.Debug().
			Str("session_id", state.SessionID).
			Str("model", modelName).
			Int("prompt_tokens", usage.PromptTokens).
			Int("completion_tokens", usage.CompletionTokens).
			Object("cost", cost).
			Msg("LLM usage")
		return out, nil
	}
}

// NewReplyParserNode creates the node that decodes the model reply
func NewReplyParserNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, resp *schema.Message) (model.ModelReply, error) {
		if resp == nil {
			logx.Warn().Msg("Model returned no message")
			return model.ModelReply{}, nil
		}
		reply := parsers.ParseReply(resp.Content)
		if !reply.Parsed() {
			logx.Debug().
				Str("reply", logx.Truncate(resp.Content, 200)).
				Msg("Model reply is not structured; passing text through")
		}
		return reply, nil
	})
}

// NewTurnReconcilerNode creates the node that applies the reply to the
// session record and decides the next move.
func NewTurnReconcilerNode(rc *Reconciler) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, reply model.ModelReply) (model.TurnResult, error) {
		var (
			session  *model.Session
			userText string
		)
		err := compose.ProcessState(ctx, func(_ context.Context, state *model.TurnState) error {
			if state.Session == nil {
				return fmt.Errorf("missing session in state")
			}
			session = state.Session
			userText = state.UserText
			return nil
		})
		if err != nil {
			return model.TurnResult{}, fmt.Errorf("failed to access state: %w", err)
		}

		return rc.Reconcile(session, userText, reply), nil
	})
}
