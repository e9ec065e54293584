// Package transcribe converts voice turns into text with Gemini.
package transcribe

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	errx "github.com/voicecv-core/server/internal/core/error"
	logx "github.com/voicecv-core/server/pkg/logger"
)

const instruction = "Transcribe this audio exactly as spoken. Keep the speaker's language and script. " +
	"Return only the transcript with no commentary."

// maxAudioBytes is the inline payload limit of the Gemini API.
const maxAudioBytes = 20 << 20

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// contentGenerator is implemented by *genai.Models.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Gemini struct {
	models contentGenerator
	model  string
}

func NewGemini(client *genai.Client, model string) *Gemini {
	return &Gemini{models: client.Models, model: model}
}

// Transcribe sends the audio inline and returns the trimmed transcript.
func (g *Gemini) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if len(audio) == 0 {
		return "", errx.WrapTranscription(fmt.Errorf("audio is empty"))
	}
	if len(audio) > maxAudioBytes {
		return "", errx.WrapTranscription(fmt.Errorf("audio is %d bytes, limit is %d", len(audio), maxAudioBytes))
	}
	if mimeType == "" {
		mimeType = "audio/wav"
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(instruction),
			genai.NewPartFromBytes(audio, mimeType),
		}, genai.RoleUser),
	}
	resp, err := g.models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0),
	})
	if err != nil {
		logx.Error().Err(err).Str("model", g.model).Msg("transcription request failed")
		return "", errx.WrapTranscription(err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errx.WrapTranscription(fmt.Errorf("empty transcript"))
	}
	logx.Debug().Str("model", g.model).Int("audio_bytes", len(audio)).Int("transcript_len", len(text)).Msg("audio transcribed")
	return text, nil
}

var _ Transcriber = (*Gemini)(nil)
