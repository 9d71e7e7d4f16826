package generate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/fpang/yt-thumbnail-wizard/internal/auth"
	"github.com/fpang/yt-thumbnail-wizard/internal/store"
)

func newTestService(model Model, cfg Config) *Service {
	cfg.Model = model
	s := NewService(cfg)
	s.newID = func() string { return "rec-1" }
	return s
}

func TestGenerate_DescribeEchoesFace(t *testing.T) {
	model := &fakeModel{out: &Output{Text: `{"description": "Bold red background, big grin"}`}}
	records := store.NewMemoryStore()
	svc := newTestService(model, Config{Records: records})

	ctx := auth.WithOwner(context.Background(), "user-1")
	face := dataURI(t, 16, 16)
	resp, err := svc.Generate(ctx, Request{FaceImage: face, VideoTitle: "My Video", Style: "neon-glow"})
	require.NoError(t, err)

	assert.Equal(t, face, resp.ThumbnailURL)
	assert.Equal(t, "Bold red background, big grin", resp.Description)
	assert.Empty(t, resp.Warning)
	assert.Equal(t, "rec-1", resp.RecordID)

	require.Len(t, model.calls, 1)
	call := model.calls[0]
	assert.Equal(t, "image/jpeg", call.ImageMIME)
	assert.False(t, call.WantImage)
	assert.Contains(t, call.Prompt, "- Style: Neon Glow")
	assert.NotEmpty(t, call.System)

	rec, err := records.GetRecord(ctx, "user-1", "rec-1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "My Video", rec.Title)
	assert.Equal(t, "neon-glow", rec.StyleID)
	assert.Empty(t, rec.ResultThumbnailURL, "data URIs are not stored")
}

func TestGenerate_PlainTextDescription(t *testing.T) {
	svc := newTestService(&fakeModel{out: &Output{Text: "A close-up with yellow text."}}, Config{})
	resp, err := svc.Generate(context.Background(), Request{FaceImage: dataURI(t, 4, 4), VideoTitle: "T"})
	require.NoError(t, err)
	assert.Equal(t, "A close-up with yellow text.", resp.Description)
	assert.Empty(t, resp.RecordID)
}

func TestGenerate_RenderUploadsImage(t *testing.T) {
	model := &fakeModel{out: &Output{Text: "done", Image: []byte("png"), ImageMIME: "image/png"}}
	up := &fakeUploader{}
	records := store.NewMemoryStore()
	svc := newTestService(model, Config{Mode: ModeRender, Uploads: up, Records: records})

	ctx := auth.WithOwner(context.Background(), "user-1")
	resp, err := svc.Generate(ctx, Request{FaceImage: dataURI(t, 4, 4), VideoTitle: "Big Win!"})
	require.NoError(t, err)

	assert.True(t, model.calls[0].WantImage)
	assert.Equal(t, []string{"faces/big-win-rec-1.jpg", "results/big-win-rec-1.png"}, up.names)
	assert.Equal(t, "https://cdn.example.com/results/big-win-rec-1.png", resp.ThumbnailURL)

	rec, err := records.GetRecord(ctx, "user-1", "rec-1")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/faces/big-win-rec-1.jpg", rec.SourceFaceImageURL)
	assert.Equal(t, resp.ThumbnailURL, rec.ResultThumbnailURL)
}

func TestGenerate_RenderWithoutImageFallsBackToFace(t *testing.T) {
	svc := newTestService(&fakeModel{out: &Output{Text: "no image"}}, Config{Mode: ModeRender, Uploads: &fakeUploader{}})
	resp, err := svc.Generate(context.Background(), Request{FaceImage: dataURI(t, 4, 4), VideoTitle: "T"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/faces/t-rec-1.jpg", resp.ThumbnailURL)
}

func TestGenerate_UpstreamFailureWritesNothing(t *testing.T) {
	records := store.NewMemoryStore()
	up := &fakeUploader{}
	svc := newTestService(&fakeModel{err: genai.APIError{Code: 503, Message: "overloaded"}}, Config{Records: records, Uploads: up})

	ctx := auth.WithOwner(context.Background(), "user-1")
	resp, err := svc.Generate(ctx, Request{FaceImage: dataURI(t, 4, 4), VideoTitle: "T"})
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, IsUpstream(err))

	var ue *UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, auth.ErrTypeNetworkError, ue.Kind)

	list, err := records.ListRecords(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Empty(t, up.names)
}

func TestGenerate_PersistenceFailureIsWarning(t *testing.T) {
	svc := newTestService(&fakeModel{out: &Output{Text: "ok"}}, Config{Records: failingRecords{}})

	ctx := auth.WithOwner(context.Background(), "user-1")
	resp, err := svc.Generate(ctx, Request{FaceImage: dataURI(t, 4, 4), VideoTitle: "T"})
	require.NoError(t, err)
	assert.Equal(t, WarnNotSaved, resp.Warning)
	assert.NotEmpty(t, resp.ThumbnailURL)
	assert.Empty(t, resp.RecordID)
}

func TestGenerate_InvalidRequestSkipsModel(t *testing.T) {
	model := &fakeModel{out: &Output{}}
	svc := newTestService(model, Config{})
	_, err := svc.Generate(context.Background(), Request{VideoTitle: "T"})
	assert.True(t, errors.Is(err, ErrInvalidRequest))
	assert.Empty(t, model.calls)
}
