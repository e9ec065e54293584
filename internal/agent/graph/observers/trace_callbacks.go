package observers

import (
	"context"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

func newTraceHandler(tracer trace.Tracer) einocb.Handler {
	return einocb.NewHandlerBuilder().
		OnStartFn(func(ctx context.Context, info *einocb.RunInfo, _ einocb.CallbackInput) context.Context {
			if info == nil {
				return ctx
			}
			ctx, _ = tracer.Start(ctx, spanName(info), trace.WithAttributes(
				attribute.String("eino.component", string(info.Component)),
				attribute.String("eino.type", info.Type),
			))
			return ctx
		}).
		OnEndFn(func(ctx context.Context, info *einocb.RunInfo, output einocb.CallbackOutput) context.Context {
			if info == nil {
				return ctx
			}
			span := trace.SpanFromContext(ctx)
			if out := model.ConvCallbackOutput(output); out != nil && out.TokenUsage != nil {
				span.SetAttributes(
					attribute.Int("llm.prompt_tokens", out.TokenUsage.PromptTokens),
					attribute.Int("llm.completion_tokens", out.TokenUsage.CompletionTokens),
				)
			}
			span.End()
			return ctx
		}).
		OnErrorFn(func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			if info == nil {
				return ctx
			}
			span := trace.SpanFromContext(ctx)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.End()
			return ctx
		}).
		Build()
}

func spanName(info *einocb.RunInfo) string {
	if info.Name != "" {
		return "eino." + info.Name
	}
	return "eino." + string(info.Component)
}
