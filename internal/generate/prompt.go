package generate

import (
	"strings"

	"github.com/fpang/yt-thumbnail-wizard/internal/assets"
	"github.com/fpang/yt-thumbnail-wizard/internal/style"
)

// BuildPrompt folds the request into the thumbnail prompt. Optional fields
// that are blank are left out; present ones appear in the order title,
// description, details, text, style.
func BuildPrompt(req Request, mode Mode) (string, error) {
	styleName := ""
	if s := strings.TrimSpace(req.Style); s != "" {
		styleName = style.DisplayName(s)
	}
	return assets.RenderThumbnailPrompt(assets.ThumbnailPromptData{
		Title:       strings.TrimSpace(req.VideoTitle),
		Description: strings.TrimSpace(req.VideoDescription),
		Details:     strings.TrimSpace(req.ThumbnailDetails),
		Text:        strings.TrimSpace(req.ThumbnailText),
		Style:       styleName,
		HighEnergy:  highEnergy(req),
		Mode:        string(mode),
	})
}

// highEnergy reports whether the request reads like a challenge or prize
// video, which gets bolder styling directions.
func highEnergy(req Request) bool {
	return strings.Contains(req.VideoTitle, "$") ||
		strings.Contains(req.ThumbnailText, "$") ||
		strings.Contains(strings.ToLower(req.ThumbnailDetails), "mr. beast") ||
		strings.Contains(strings.ToLower(req.VideoDescription), "challenge")
}
