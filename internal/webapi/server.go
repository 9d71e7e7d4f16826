// Package webapi is the wizard's HTTP API: server-side sessions driven
// through the step machine, the style catalog, generation for a session
// and the signed-in user's thumbnail history.
package webapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/fpang/yt-thumbnail-wizard/internal/events"
	"github.com/fpang/yt-thumbnail-wizard/internal/generate"
	"github.com/fpang/yt-thumbnail-wizard/internal/httputil"
	"github.com/fpang/yt-thumbnail-wizard/internal/store"
	"github.com/fpang/yt-thumbnail-wizard/internal/style"
	"github.com/fpang/yt-thumbnail-wizard/internal/wizard"
)

// FaceUploads presigns browser uploads of face photos. *s3util.Bucket
// implements it.
type FaceUploads interface {
	PresignUpload(ctx context.Context, name, contentType string, expiry time.Duration) (string, error)
	PublicURL(name string) string
	TagUploaded(ctx context.Context, name string) error
}

// Config wires a Server. Uploads and Events are optional.
type Config struct {
	Sessions     store.SessionStore
	Records      store.RecordStore
	Styles       *style.Resolver
	Generator    generate.Generator
	Uploads      FaceUploads
	Events       *events.Emitter
	OriginSecret string
}

// Server serves the wizard API.
type Server struct {
	cfg   Config
	now   func() time.Time
	newID func() string
}

// NewServer returns a Server for cfg.
func NewServer(cfg Config) *Server {
	return &Server{cfg: cfg, now: time.Now, newID: uuid.NewString}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(httputil.WithMetrics)
	r.Use(httputil.WithOriginVerify(s.cfg.OriginSecret))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/examples", s.handleExamples)

		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Patch("/fields", s.handleSetFields)
			r.Post("/face/upload-url", s.handleFaceUploadURL)
			r.Put("/face", s.handleConfirmFace)
			r.Post("/advance", s.handleAdvance)
			r.Post("/retreat", s.handleRetreat)
			r.Post("/reset", s.handleReset)
			r.Post("/generate", s.handleGenerate)
			r.Get("/result", s.handleResult)
		})

		r.Get("/styles", s.handleStyles)
		r.Get("/styles/{id}/preview", s.handleStylePreview)

		r.Get("/thumbnails", s.handleListThumbnails)
		r.Get("/thumbnails/{id}", s.handleGetThumbnail)
		r.Delete("/thumbnails/{id}", s.handleDeleteThumbnail)
	})
	r.NotFound(httputil.NotFound)
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httputil.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleExamples(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]any{
		"faces": wizard.ExampleFaces,
		"steps": wizard.Labels(),
	})
}
