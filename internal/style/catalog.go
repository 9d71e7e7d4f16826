// Package style turns a flat listing of style preview images into the
// catalog shown on the style step, and resolves style ids back to
// displayable URLs.
package style

import (
	"path"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Option is one selectable style derived from a stored asset.
type Option struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	PreviewURL  string `json:"previewUrl"`
}

// imageNameRegex matches the asset extensions accepted into the catalog.
var imageNameRegex = regexp.MustCompile(`(?i)\.(jpe?g|png|gif|webp)$`)

// probeSuffixes is the order PreviewURL tries extensions in.
var probeSuffixes = []string{".jpg", ".jpeg", ".png", ".webp"}

// IsImageName reports whether name carries an accepted image extension.
func IsImageName(name string) bool {
	return imageNameRegex.MatchString(name)
}

// IDFromName strips the extension from an asset name.
func IDFromName(name string) string {
	return strings.TrimSuffix(name, path.Ext(name))
}

// DisplayName splits id on '-' and '_' and upper-cases the first character
// of each token, leaving the rest of the token as is. Empty tokens from
// repeated separators are dropped.
func DisplayName(id string) string {
	tokens := strings.FieldsFunc(id, func(r rune) bool { return r == '-' || r == '_' })
	upper := cases.Upper(language.Und)
	for i, tok := range tokens {
		_, size := utf8.DecodeRuneInString(tok)
		tokens[i] = upper.String(tok[:size]) + tok[size:]
	}
	return strings.Join(tokens, " ")
}

// Derive builds the catalog from names in listing order. Non-image names are
// skipped and the first name wins when two files share an id.
func Derive(names []string, urlFor func(name string) string) []Option {
	seen := make(map[string]bool, len(names))
	opts := make([]Option, 0, len(names))
	for _, name := range names {
		if !IsImageName(name) {
			continue
		}
		id := IDFromName(name)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		opts = append(opts, Option{
			ID:          id,
			DisplayName: DisplayName(id),
			PreviewURL:  urlFor(name),
		})
	}
	return opts
}
