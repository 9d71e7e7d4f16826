// Package generate is the generation proxy: it validates wizard field values,
// composes the thumbnail prompt, calls the model API and saves the result to
// the caller's history.
package generate

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fpang/yt-thumbnail-wizard/internal/assets"
	"github.com/fpang/yt-thumbnail-wizard/internal/auth"
	"github.com/fpang/yt-thumbnail-wizard/internal/events"
	"github.com/fpang/yt-thumbnail-wizard/internal/jsonutil"
	"github.com/fpang/yt-thumbnail-wizard/internal/metrics"
	"github.com/fpang/yt-thumbnail-wizard/internal/store"
)

// WarnNotSaved is returned alongside a successful result whose history
// record could not be written.
const WarnNotSaved = "thumbnail generated but could not be saved to your history"

// Generator produces a thumbnail for a request. The caller's identity is
// read from ctx with auth.OwnerID.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

// Uploader stores an object and returns its public URL. *s3util.Bucket
// implements it.
type Uploader interface {
	Put(ctx context.Context, name string, data []byte, contentType string) (string, error)
}

// Config wires a Service.
type Config struct {
	Model Model
	Mode  Mode
	// Records is optional; without it nothing is saved.
	Records store.RecordStore
	// Uploads is optional. It stores rendered images and inline face
	// uploads so records hold URLs instead of data URIs.
	Uploads Uploader
	// Events is optional.
	Events *events.Emitter
	HTTP   *http.Client
}

// Service implements Generator against a Model.
type Service struct {
	cfg   Config
	now   func() time.Time
	newID func() string
}

var _ Generator = (*Service)(nil)

// NewService returns a Service for cfg.
func NewService(cfg Config) *Service {
	if cfg.Mode == "" {
		cfg.Mode = ModeDescribe
	}
	return &Service{cfg: cfg, now: time.Now, newID: uuid.NewString}
}

// Generate runs one synchronous generation. Nothing is written unless the
// model call succeeds; a failed history write only adds a warning.
func (s *Service) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	owner := auth.OwnerID(ctx)

	log.Info().
		Str("title", req.VideoTitle).
		Str("style", req.Style).
		Str("mode", string(s.cfg.Mode)).
		Bool("authenticated", owner != "").
		Msg("Generating thumbnail")

	raw, mime, err := LoadFace(ctx, s.cfg.HTTP, req.FaceImage)
	if err != nil {
		return nil, err
	}
	image, imageMIME, err := PrepareFace(raw)
	if err != nil {
		log.Warn().Err(err).Str("mime", mime).Msg("Face image could not be re-encoded, sending original bytes")
		image, imageMIME = raw, mime
	}

	prompt, err := BuildPrompt(req, s.cfg.Mode)
	if err != nil {
		return nil, err
	}

	modelStart := time.Now()
	out, err := s.cfg.Model.Generate(ctx, Input{
		Prompt:    prompt,
		System:    assets.ThumbnailSystemPrompt,
		Image:     image,
		ImageMIME: imageMIME,
		WantImage: s.cfg.Mode == ModeRender,
	})
	if err != nil {
		ue := upstreamFromModel(err)
		s.emitResult("upstream_error", modelStart, nil)
		return nil, ue
	}

	id := s.newID()
	resp := &Response{Description: parseDescription(out.Text)}

	faceURL := req.FaceImage
	if IsDataURI(faceURL) {
		faceURL = s.storeInlineFace(ctx, req.VideoTitle, id, image, imageMIME)
	}

	resp.ThumbnailURL = req.FaceImage
	if faceURL != "" {
		resp.ThumbnailURL = faceURL
	}
	if s.cfg.Mode == ModeRender && out.Image != nil && s.cfg.Uploads != nil {
		name := objectName("results", req.VideoTitle, id, extForMIME(out.ImageMIME))
		url, err := s.cfg.Uploads.Put(ctx, name, out.Image, out.ImageMIME)
		if err != nil {
			log.Warn().Err(err).Str("name", name).Msg("Rendered thumbnail upload failed, echoing face image")
		} else {
			resp.ThumbnailURL = url
		}
	}

	if owner != "" && s.cfg.Records != nil {
		rec := &store.ThumbnailRecord{
			ID:                 id,
			OwnerID:            owner,
			Title:              req.VideoTitle,
			Description:        resp.Description,
			StyleID:            req.Style,
			SourceFaceImageURL: faceURL,
			ResultThumbnailURL: resp.ThumbnailURL,
			CreatedAt:          s.now().Unix(),
		}
		if IsDataURI(rec.ResultThumbnailURL) {
			rec.ResultThumbnailURL = ""
		}
		if err := s.cfg.Records.PutRecord(ctx, rec); err != nil {
			log.Error().Err(err).Str("recordId", id).Msg("Failed to save thumbnail record")
			metrics.New(metrics.Namespace).
				Dimension("Operation", "generate").
				Count("PersistenceWarning").
				Flush()
			resp.Warning = WarnNotSaved
		} else {
			resp.RecordID = id
			if err := s.cfg.Events.ThumbnailGenerated(ctx, events.ThumbnailEvent{
				OwnerID:      owner,
				RecordID:     id,
				Title:        req.VideoTitle,
				StyleID:      req.Style,
				ThumbnailURL: rec.ResultThumbnailURL,
			}); err != nil {
				log.Warn().Err(err).Str("recordId", id).Msg("ThumbnailGenerated event not emitted")
			}
		}
	}

	s.emitResult("success", modelStart, out)
	log.Info().
		Str("recordId", resp.RecordID).
		Bool("warning", resp.Warning != "").
		Dur("duration", time.Since(start)).
		Msg("Thumbnail generated")
	return resp, nil
}

// storeInlineFace uploads a data: URI face so it can be referenced by URL.
// It returns "" when no uploader is configured or the upload fails.
func (s *Service) storeInlineFace(ctx context.Context, title, id string, data []byte, mime string) string {
	if s.cfg.Uploads == nil {
		return ""
	}
	url, err := s.cfg.Uploads.Put(ctx, objectName("faces", title, id, extForMIME(mime)), data, mime)
	if err != nil {
		log.Warn().Err(err).Msg("Inline face upload failed")
		return ""
	}
	return url
}

func (s *Service) emitResult(result string, modelStart time.Time, out *Output) {
	m := metrics.New(metrics.Namespace).
		Dimension("Operation", "generate").
		Dimension("Result", result).
		Since("GenerationMs", modelStart).
		Count("GenerationCount").
		Property("mode", string(s.cfg.Mode))
	if out != nil {
		m.Metric("InputTokens", float64(out.InputTokens), metrics.UnitCount).
			Metric("OutputTokens", float64(out.OutputTokens), metrics.UnitCount)
	}
	m.Flush()
}

type structuredDescription struct {
	Description string `json:"description"`
}

// parseDescription accepts either a JSON object with a description field
// or plain text.
func parseDescription(text string) string {
	if parsed, err := jsonutil.Parse[structuredDescription](text); err == nil && parsed.Description != "" {
		return parsed.Description
	}
	return text
}
