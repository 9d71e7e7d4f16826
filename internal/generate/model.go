package generate

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// Mode selects what the model is asked for.
type Mode string

const (
	// ModeDescribe asks for a written design and echoes the face image back
	// as the thumbnail.
	ModeDescribe Mode = "describe"
	// ModeRender asks an image-capable model for the thumbnail itself.
	ModeRender Mode = "render"
)

// ParseMode returns the Mode for s, defaulting to ModeDescribe.
func ParseMode(s string) Mode {
	if Mode(strings.ToLower(strings.TrimSpace(s))) == ModeRender {
		return ModeRender
	}
	return ModeDescribe
}

// Gemini model ids.
const (
	ModelGemini3FlashPreview = "gemini-3-flash-preview"
	ModelGemini25Flash       = "gemini-2.5-flash"
	ModelGemini3ProImage     = "gemini-3-pro-image-preview"
)

// ModelName resolves the model for mode: GEMINI_MODEL if set, otherwise a
// text model for describe and an image model for render.
func ModelName(mode Mode) string {
	if env := os.Getenv("GEMINI_MODEL"); env != "" {
		return env
	}
	if mode == ModeRender {
		return ModelGemini3ProImage
	}
	return ModelGemini3FlashPreview
}

// Input is one model call: a face photo plus the composed prompt.
type Input struct {
	Prompt    string
	System    string
	Image     []byte
	ImageMIME string
	WantImage bool
}

// Output is the model's answer. Image is nil when no image part came back.
type Output struct {
	Text         string
	Image        []byte
	ImageMIME    string
	InputTokens  int32
	OutputTokens int32
}

// Model is the external image/vision API.
type Model interface {
	Generate(ctx context.Context, in Input) (*Output, error)
}

// GeminiModel calls the Gemini API through the genai client.
type GeminiModel struct {
	Client *genai.Client
	Name   string
}

// NewGeminiClient creates a Gemini API client for apiKey.
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	return client, nil
}

// Generate sends the face image and prompt in a single user turn.
func (m *GeminiModel) Generate(ctx context.Context, in Input) (*Output, error) {
	config := &genai.GenerateContentConfig{}
	if in.System != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: in.System}}}
	}
	if in.WantImage {
		config.ResponseModalities = []string{"TEXT", "IMAGE"}
	}

	var parts []*genai.Part
	if len(in.Image) > 0 {
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: in.ImageMIME, Data: in.Image}})
	}
	parts = append(parts, &genai.Part{Text: in.Prompt})
	contents := []*genai.Content{{Role: "user", Parts: parts}}

	log.Debug().
		Str("model", m.Name).
		Int("prompt_length", len(in.Prompt)).
		Int("image_bytes", len(in.Image)).
		Bool("want_image", in.WantImage).
		Msg("Starting Gemini API call for thumbnail generation")

	callStart := time.Now()
	resp, err := m.Client.Models.GenerateContent(ctx, m.Name, contents, config)
	if err != nil {
		log.Error().Err(err).Dur("duration", time.Since(callStart)).Msg("Gemini API call failed")
		return nil, err
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("received empty response from Gemini API")
	}

	out := &Output{}
	var text strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		switch {
		case p.InlineData != nil && strings.HasPrefix(p.InlineData.MIMEType, "image/"):
			if out.Image == nil {
				out.Image = p.InlineData.Data
				out.ImageMIME = p.InlineData.MIMEType
			}
		case p.Text != "" && !p.Thought:
			text.WriteString(p.Text)
		}
	}
	out.Text = text.String()
	if resp.UsageMetadata != nil {
		out.InputTokens = resp.UsageMetadata.PromptTokenCount
		out.OutputTokens = resp.UsageMetadata.CandidatesTokenCount
	}

	log.Debug().
		Int("response_length", len(out.Text)).
		Bool("has_image", out.Image != nil).
		Dur("duration", time.Since(callStart)).
		Msg("Gemini API response received")
	return out, nil
}
