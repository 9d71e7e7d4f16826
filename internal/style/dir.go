package style

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
)

// DirSource serves style assets from a local directory, for the dev server
// and the CLI. Names are returned in lexical order, like an S3 listing.
type DirSource struct {
	Dir     string
	BaseURL string
}

// List returns the regular files directly under Dir.
func (d DirSource) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(d.Dir)
	if err != nil {
		return nil, fmt.Errorf("read style dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// PublicURL joins BaseURL and the escaped name.
func (d DirSource) PublicURL(name string) string {
	return strings.TrimSuffix(d.BaseURL, "/") + "/" + url.PathEscape(name)
}
