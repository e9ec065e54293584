package parsers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/voicecv-core/server/internal/agent/cv"
	"github.com/voicecv-core/server/internal/agent/model"
	logx "github.com/voicecv-core/server/pkg/logger"
)

// basic safety limits to avoid pathological inputs
const (
	maxContentLen = 128 * 1024
	maxErrSnippet = 200
)

const replySchemaDoc = `{
  "type": "object",
  "properties": {
    "agent_text": {"type": ["string", "null"]},
    "cv_json": {"type": ["object", "null"]},
    "next_action": {"type": ["string", "null"]},
    "language": {"type": ["string", "null"]}
  },
  "anyOf": [
    {"required": ["agent_text"]},
    {"required": ["cv_json"]},
    {"required": ["next_action"]}
  ]
}`

var replySchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(replySchemaDoc))
	if err != nil {
		return nil, err
	}
	if err := c.AddResource("mem://reply.json", doc); err != nil {
		return nil, err
	}
	return c.Compile("mem://reply.json")
})

type replyWrapper struct {
	AgentText  *string         `json:"agent_text"`
	CV         json.RawMessage `json:"cv_json"`
	NextAction *string         `json:"next_action"`
	Language   *string         `json:"language"`
}

// ParseReply decodes a model reply. Anything that is not a JSON object
// matching the reply wrapper comes back as RawText; it never panics.
func ParseReply(content string) (reply model.ModelReply) {
	raw := strings.TrimSpace(content)
	reply = model.ModelReply{RawText: raw}

	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("component", "reply_parser").Msgf("panic recovered: %v", r)
			reply = model.ModelReply{RawText: raw}
		}
	}()

	if len(raw) > maxContentLen {
		logx.Warn().
			Str("component", "reply_parser").
			Int("max_len", maxContentLen).
			Int("orig_len", len(raw)).
			Msg("reply too large; treating as plain text")
		return reply
	}

	js := ExtractJSON(raw)
	if js == "" {
		logx.Debug().Str("component", "reply_parser").Str("reply", safeSnippet(raw)).Msg("no JSON object in reply")
		return reply
	}

	turn, err := parseWrapper([]byte(js))
	if err != nil {
		logx.Warn().Err(err).Str("component", "reply_parser").Str("reply", safeSnippet(raw)).Msg("reply does not match wrapper")
		return reply
	}
	return model.ModelReply{Turn: turn, RawText: raw}
}

func parseWrapper(js []byte) (*model.ParsedTurn, error) {
	var doc any
	if err := json.Unmarshal(js, &doc); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	obj, _ := doc.(map[string]any)

	if isBareCV(obj) {
		payload, err := cv.DecodePayload(js)
		if err != nil {
			return nil, err
		}
		return &model.ParsedTurn{CV: payload, NextAction: model.ActionAsk}, nil
	}

	sch, err := replySchema()
	if err != nil {
		return nil, fmt.Errorf("compile reply schema: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return nil, err
	}

	var w replyWrapper
	if err := json.Unmarshal(js, &w); err != nil {
		return nil, fmt.Errorf("decode wrapper: %w", err)
	}

	turn := &model.ParsedTurn{NextAction: model.ActionAsk}
	if w.AgentText != nil {
		turn.AgentText = strings.TrimSpace(*w.AgentText)
	}
	if w.Language != nil {
		turn.Language = strings.ToLower(strings.TrimSpace(*w.Language))
	}
	if w.NextAction != nil {
		if a, ok := model.ParseAction(strings.ToLower(strings.TrimSpace(*w.NextAction))); ok {
			turn.NextAction = a
		}
	}
	if cvRaw := bytes.TrimSpace(w.CV); len(cvRaw) > 0 && !bytes.Equal(cvRaw, []byte("null")) {
		payload, err := cv.DecodePayload(cvRaw)
		if err != nil {
			return nil, fmt.Errorf("decode cv_json: %w", err)
		}
		turn.CV = payload
	}
	return turn, nil
}

var wrapperKeys = []string{"agent_text", "cv_json", "next_action"}

var cvSections = []string{
	cv.SectionPersonalInfo, cv.SectionEducation, cv.SectionExperience,
	cv.SectionSkills, cv.SectionProjects, cv.SectionCertifications,
}

// isBareCV reports whether the model answered with the CV object itself
// instead of the wrapper.
func isBareCV(obj map[string]any) bool {
	if obj == nil {
		return false
	}
	for _, k := range wrapperKeys {
		if _, ok := obj[k]; ok {
			return false
		}
	}
	for _, k := range cvSections {
		if _, ok := obj[k]; ok {
			return true
		}
	}
	return false
}

// ExtractJSON returns the first balanced JSON object in text that decodes,
// skipping Markdown code fences and surrounding prose. Braces inside string
// literals are ignored.
func ExtractJSON(text string) string {
	if inner := stripFences(text); inner != text {
		if js := firstObject(inner); js != "" {
			return js
		}
	}
	return firstObject(text)
}

func firstObject(text string) string {
	for start := strings.IndexByte(text, '{'); start >= 0; {
		if end := matchBrace(text, start); end > start {
			candidate := text[start : end+1]
			if json.Valid([]byte(candidate)) {
				return candidate
			}
		}
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return ""
}

func stripFences(text string) string {
	if i := strings.Index(text, "```"); i >= 0 {
		rest := text[i+3:]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[nl+1:]
		}
		if j := strings.Index(rest, "```"); j >= 0 {
			return rest[:j]
		}
		return rest
	}
	return text
}

func matchBrace(text string, start int) int {
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func safeSnippet(s string) string {
	return logx.Truncate(s, maxErrSnippet)
}
