package main

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, dir, name string) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, buf.Bytes(), 0o644))
	return p
}

func TestFaceRef(t *testing.T) {
	dir := t.TempDir()

	got, err := faceRef("https://images.example.com/me.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://images.example.com/me.jpg", got)

	got, err = faceRef("  data:image/png;base64,AAAA ")
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,AAAA", got)

	got, err = faceRef(writePNG(t, dir, "me.png"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "data:image/png;base64,"))

	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("hello"), 0o644))
	_, err = faceRef(txt)
	assert.ErrorContains(t, err, "not an image")

	_, err = faceRef(filepath.Join(dir, "missing.jpg"))
	assert.Error(t, err)

	_, err = faceRef("   ")
	assert.EqualError(t, err, "face image required")
}
