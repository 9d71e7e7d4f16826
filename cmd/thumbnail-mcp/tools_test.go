package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fpang/yt-thumbnail-wizard/internal/generate"
	"github.com/fpang/yt-thumbnail-wizard/internal/local"
	"github.com/fpang/yt-thumbnail-wizard/internal/store"
	"github.com/fpang/yt-thumbnail-wizard/internal/style"
)

type textModel struct{}

func (textModel) Generate(ctx context.Context, in generate.Input) (*generate.Output, error) {
	return &generate.Output{Text: `{"description":"Grinning face, red arrow"}`}, nil
}

func newTools(t *testing.T, owner string) (*tools, *store.MemoryStore) {
	t.Helper()
	dir := t.TempDir()
	for _, n := range []string{"sunset.png", "neon-glow.jpg"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644))
	}
	mem := store.NewMemoryStore()
	env := &local.Env{
		Store:    mem,
		Styles:   style.NewResolver(style.DirSource{Dir: dir, BaseURL: "http://localhost:8080/styles"}),
		Generate: generate.NewService(generate.Config{Model: textModel{}, Records: mem}),
	}
	return &tools{env: env, owner: owner}, mem
}

func faceDataURI(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestListStyles(t *testing.T) {
	tl, _ := newTools(t, "")
	_, out, err := tl.listStyles(context.Background(), nil, listStylesInput{})
	require.NoError(t, err)
	require.Len(t, out.Styles, 2)
	assert.Equal(t, "neon-glow", out.Styles[0].ID)
	assert.Empty(t, out.Warning)
}

func TestResolveStyle(t *testing.T) {
	tl, _ := newTools(t, "")

	_, out, err := tl.resolveStyle(context.Background(), nil, resolveStyleInput{ID: "neon-glow"})
	require.NoError(t, err)
	assert.True(t, out.Found)
	assert.Equal(t, "Neon Glow", out.DisplayName)
	assert.Equal(t, "http://localhost:8080/styles/neon-glow.jpg", out.PreviewURL)

	_, out, err = tl.resolveStyle(context.Background(), nil, resolveStyleInput{ID: "vaporwave"})
	require.NoError(t, err)
	assert.False(t, out.Found)
	assert.Empty(t, out.PreviewURL)
}

func TestGenerateThumbnailSavesForOwner(t *testing.T) {
	tl, mem := newTools(t, "assistant-user")
	face := faceDataURI(t)

	_, out, err := tl.generateThumbnail(context.Background(), nil, generateInput{
		FaceImage:  face,
		VideoTitle: "Budget Travel Tips",
		Style:      "sunset",
	})
	require.NoError(t, err)
	assert.Equal(t, face, out.ThumbnailURL)
	assert.Equal(t, "Grinning face, red arrow", out.Description)
	require.NotEmpty(t, out.RecordID)

	recs, err := mem.ListRecords(context.Background(), "assistant-user")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "sunset", recs[0].StyleID)
}

func TestGenerateThumbnailRejectsMissingTitle(t *testing.T) {
	tl, _ := newTools(t, "")
	_, _, err := tl.generateThumbnail(context.Background(), nil, generateInput{FaceImage: faceDataURI(t)})
	assert.EqualError(t, err, "title required")
}
