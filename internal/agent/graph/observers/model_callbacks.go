package observers

import (
	"context"
	"sort"
	"strings"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"
	"github.com/rs/zerolog"

	logx "github.com/voicecv-core/server/pkg/logger"
)

const snippetLimit = 300

func newModelHandler() *callbackHelper.ModelCallbackHandler {
	return &callbackHelper.ModelCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, input *model.CallbackInput) context.Context {
			if input == nil {
				return ctx
			}
			ev := logx.Debug().Str("node", info.Name).Str("provider", info.Type).
				Dict("roles", roleCounts(input.Messages)).
				Str("user", logx.Truncate(lastUserContent(input.Messages), snippetLimit))
			if input.Config != nil {
				ev = ev.Str("model", input.Config.Model)
			}
			ev.Msg("cv model request")
			return ctx
		},
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *model.CallbackOutput) context.Context {
			if output == nil || output.Message == nil {
				return ctx
			}
			reply := strings.TrimSpace(output.Message.Content)
			ev := logx.Debug().Str("node", info.Name).
				Bool("json", strings.HasPrefix(reply, "{") || strings.HasPrefix(reply, "```")).
				Str("reply", logx.Truncate(reply, snippetLimit))
			if meta := output.Message.ResponseMeta; meta != nil && meta.FinishReason != "" {
				ev = ev.Str("finish_reason", meta.FinishReason)
			}
			if u := output.TokenUsage; u != nil {
				ev = ev.Int("prompt_tokens", u.PromptTokens).Int("completion_tokens", u.CompletionTokens)
			}
			ev.Msg("cv model reply")
			return ctx
		},
		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Error().Err(err).Str("node", info.Name).Str("provider", info.Type).Msg("cv model call failed")
			return ctx
		},
	}
}

func newPromptHandler() *callbackHelper.PromptCallbackHandler {
	return &callbackHelper.PromptCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, input *prompt.CallbackInput) context.Context {
			if input == nil {
				return ctx
			}
			keys := make([]string, 0, len(input.Variables))
			for k := range input.Variables {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logx.Debug().Str("template", info.Name).Strs("variables", keys).Msg("rendering prompt")
			return ctx
		},
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *prompt.CallbackOutput) context.Context {
			if output == nil {
				return ctx
			}
			size := 0
			for _, m := range output.Result {
				if m != nil {
					size += len(m.Content)
				}
			}
			logx.Debug().Str("template", info.Name).Int("messages", len(output.Result)).Int("chars", size).Msg("prompt rendered")
			return ctx
		},
		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Error().Err(err).Str("template", info.Name).Msg("prompt render failed")
			return ctx
		},
	}
}

func roleCounts(msgs []*schema.Message) *zerolog.Event {
	counts := map[schema.RoleType]int{}
	for _, m := range msgs {
		if m != nil {
			counts[m.Role]++
		}
	}
	d := zerolog.Dict()
	for role, n := range counts {
		d = d.Int(string(role), n)
	}
	return d
}

func lastUserContent(msgs []*schema.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if m := msgs[i]; m != nil && m.Role == schema.User {
			return strings.TrimSpace(m.Content)
		}
	}
	return ""
}
