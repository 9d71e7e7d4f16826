package generate

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fpang/yt-thumbnail-wizard/internal/store"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func dataURI(t *testing.T, w, h int) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes(t, w, h))
}

type fakeModel struct {
	mu    sync.Mutex
	calls []Input
	out   *Output
	err   error
}

func (f *fakeModel) Generate(ctx context.Context, in Input) (*Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, in)
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

type fakeUploader struct {
	names []string
	err   error
}

func (f *fakeUploader) Put(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.names = append(f.names, name)
	return "https://cdn.example.com/" + name, nil
}

type failingRecords struct {
	store.RecordStore
}

func (failingRecords) PutRecord(ctx context.Context, rec *store.ThumbnailRecord) error {
	return errors.New("ProvisionedThroughputExceededException")
}
