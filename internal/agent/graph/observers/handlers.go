package observers

import (
	einocb "github.com/cloudwego/eino/callbacks"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"
	"go.opentelemetry.io/otel"
)

const tracerName = "github.com/voicecv-core/server/internal/agent/graph/observers"

// NewAllCallbacks returns the logging observers for prompt and chat model
// components plus a tracing handler that opens a span per graph node.
func NewAllCallbacks() []einocb.Handler {
	logging := callbackHelper.NewHandlerHelper().
		ChatModel(newModelHandler()).
		Prompt(newPromptHandler()).
		Handler()

	return []einocb.Handler{logging, newTraceHandler(otel.Tracer(tracerName))}
}
