package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	einomodel "github.com/cloudwego/eino/components/model"

	"github.com/voicecv-core/server/internal/agent/cv"
	"github.com/voicecv-core/server/internal/agent/graph/observers"
	"github.com/voicecv-core/server/internal/agent/graph/parsers"
	"github.com/voicecv-core/server/internal/agent/graph/prompts"
	"github.com/voicecv-core/server/internal/agent/model"
	logx "github.com/voicecv-core/server/pkg/logger"
)

const nodeCVRefiner = "CVRefiner"

// MsgRefineSkipped is attached to the response when refinement fails.
const MsgRefineSkipped = "Skipped AI refinement due to an error. Using collected details as-is."

var errNoRefinedCV = errors.New("refine reply carried no cv_json")

// Refiner polishes a finished record with a single chat call.
type Refiner struct {
	chatModel  einomodel.BaseChatModel
	modelName  string
	normalizer *cv.Normalizer
}

func NewRefiner(chatModel einomodel.BaseChatModel, modelName string, normalizer *cv.Normalizer) (*Refiner, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("refine chat model is nil")
	}
	if normalizer == nil {
		normalizer = cv.NewNormalizer(nil)
	}
	return &Refiner{chatModel: chatModel, modelName: modelName, normalizer: normalizer}, nil
}

// Refine merges the model's rewrite of record through the normalizer and
// marks the result refined. record is returned untouched with the error on
// any failure.
func (r *Refiner) Refine(ctx context.Context, record model.CVRecord) (model.CVRecord, error) {
	msgs, err := prompts.RenderRefine(ctx, record, record.Meta.PreferredLanguage)
	if err != nil {
		return record, err
	}

	ctx = callbacks.InitCallbacks(ctx, &callbacks.RunInfo{
		Name:      nodeCVRefiner,
		Component: components.ComponentOfChatModel,
	}, observers.NewAllCallbacks()...)

	out, err := r.chatModel.Generate(ctx, msgs)
	if err != nil {
		return record, fmt.Errorf("refine generate: %w", err)
	}
	if out == nil {
		return record, errNoRefinedCV
	}
	if out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
		cost := model.PricingFor(r.modelName).Of(out.ResponseMeta.Usage)
		logx.Debug().Str("model", r.modelName).Object("cost", cost).Msg("refine usage")
	}

	reply := parsers.ParseReply(out.Content)
	if !reply.Parsed() || len(reply.Turn.CV) == 0 {
		return record, errNoRefinedCV
	}

	refined := r.normalizer.Normalize(record, reply.Turn.CV)
	refined.Meta = record.Meta
	refined.Meta.Refined = true
	return refined, nil
}
