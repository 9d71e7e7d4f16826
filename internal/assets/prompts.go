// Package assets embeds the prompt templates sent to the model.
//
// Templates live under prompts/ as plain text so copy edits do not touch Go code.
package assets

import (
	"bytes"
	_ "embed"
	"text/template"
)

// ThumbnailSystemPrompt is the system instruction for every generation call.
//
//go:embed prompts/thumbnail-system.txt
var ThumbnailSystemPrompt string

//go:embed prompts/thumbnail.txt
var thumbnailTemplate string

// Parsed once; a malformed template fails at startup, not per request.
var thumbnailTmpl = template.Must(template.New("thumbnail").Parse(thumbnailTemplate))

// ThumbnailPromptData is the input to the thumbnail template. Empty optional
// fields are left out of the rendered prompt.
type ThumbnailPromptData struct {
	Title       string
	Description string
	Details     string
	Text        string
	Style       string
	HighEnergy  bool
	// Mode is "describe" or "render" and selects the closing instruction.
	Mode string
}

// RenderThumbnailPrompt renders the thumbnail prompt.
func RenderThumbnailPrompt(data ThumbnailPromptData) (string, error) {
	var buf bytes.Buffer
	if err := thumbnailTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
