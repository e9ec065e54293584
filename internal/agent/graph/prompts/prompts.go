package prompts

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/voicecv-core/server/internal/agent/model"
)

//go:embed template/system_prompt.txt
var systemPrompt string

//go:embed template/turn_instruction.txt
var turnInstruction string

//go:embed template/refine_prompt.txt
var refinePrompt string

// CanonicalFields lists the CV keys the model may write.
const CanonicalFields = "personal_info (name, email, phone, address, github, linkedin, portfolio), " +
	"summary, " +
	"education (list of: degree, institute, start_year, end_year, gpa), " +
	"experience (list of: company, role, start_date, end_date, description), " +
	"skills (list, or an object mapping category to list), " +
	"projects (list of: project_name, description, technologies, date), " +
	"certifications (list of: name, issuer, year)"

// RenderSystem renders the persona prompt via the Eino prompt component,
// pinning the reply language unless preferredLanguage is empty or "auto".
func RenderSystem(ctx context.Context, preferredLanguage string) (string, error) {
	pinned := strings.TrimSpace(preferredLanguage)
	if strings.EqualFold(pinned, model.LanguageAuto) {
		pinned = ""
	}
	msgs, err := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(systemPrompt),
	).Format(ctx, map[string]any{
		"Fields":         CanonicalFields,
		"PinnedLanguage": pinned,
	})
	if err != nil {
		return "", fmt.Errorf("system prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("system prompt render: empty result")
	}
	return msgs[0].Content, nil
}

// RenderTurnInstruction renders the per-turn extraction instruction that
// carries the current record and the latest user input. The record is shown
// so list sections come back whole and in order, which positional merging needs.
func RenderTurnInstruction(ctx context.Context, userText string, current model.CVRecord) (*schema.Message, error) {
	currentCV, err := json.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("turn instruction render: marshal cv: %w", err)
	}
	msgs, err := prompt.FromMessages(
		schema.GoTemplate,
		schema.UserMessage(turnInstruction),
	).Format(ctx, map[string]any{
		"Fields":    CanonicalFields,
		"CurrentCV": string(currentCV),
		"UserText":  strings.TrimSpace(userText),
	})
	if err != nil {
		return nil, fmt.Errorf("turn instruction render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return nil, fmt.Errorf("turn instruction render: empty result")
	}
	return msgs[0], nil
}

// RenderRefine renders the system and user messages of the one-shot
// refinement call. The rewrite keeps targetLanguage unless it is empty or "auto".
func RenderRefine(ctx context.Context, record model.CVRecord, targetLanguage string) ([]*schema.Message, error) {
	target := strings.TrimSpace(targetLanguage)
	if strings.EqualFold(target, model.LanguageAuto) {
		target = ""
	}
	cvJSON, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("refine prompt render: marshal cv: %w", err)
	}
	msgs, err := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(refinePrompt),
		schema.UserMessage("CV: {{.CV}}"),
	).Format(ctx, map[string]any{
		"Fields":         CanonicalFields,
		"TargetLanguage": target,
		"CV":             string(cvJSON),
	})
	if err != nil {
		return nil, fmt.Errorf("refine prompt render: %w", err)
	}
	if len(msgs) != 2 {
		return nil, fmt.Errorf("refine prompt render: got %d messages", len(msgs))
	}
	return msgs, nil
}
