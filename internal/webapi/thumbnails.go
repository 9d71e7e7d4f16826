package webapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/fpang/yt-thumbnail-wizard/internal/auth"
	"github.com/fpang/yt-thumbnail-wizard/internal/events"
	"github.com/fpang/yt-thumbnail-wizard/internal/generate"
	"github.com/fpang/yt-thumbnail-wizard/internal/httputil"
	"github.com/fpang/yt-thumbnail-wizard/internal/store"
)

type thumbnailView struct {
	*store.ThumbnailRecord
	DownloadName string `json:"downloadName"`
}

func thumbnailOf(rec *store.ThumbnailRecord) thumbnailView {
	return thumbnailView{ThumbnailRecord: rec, DownloadName: generate.DownloadName(rec.Title, time.Unix(rec.CreatedAt, 0))}
}

// requireOwner writes 401 for anonymous callers.
func requireOwner(w http.ResponseWriter, r *http.Request) (string, bool) {
	owner := auth.OwnerID(r.Context())
	if owner == "" {
		httputil.Error(w, http.StatusUnauthorized, "sign in to see your thumbnails")
		return "", false
	}
	return owner, true
}

func (s *Server) handleListThumbnails(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	recs, err := s.cfg.Records.ListRecords(r.Context(), owner)
	if err != nil {
		httputil.Error(w, http.StatusInternalServerError, "failed to list thumbnails", err.Error())
		return
	}
	out := make([]thumbnailView, 0, len(recs))
	for _, rec := range recs {
		out = append(out, thumbnailOf(rec))
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]any{"thumbnails": out})
}

func (s *Server) handleGetThumbnail(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	rec, err := s.cfg.Records.GetRecord(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, http.StatusInternalServerError, "failed to load thumbnail", err.Error())
		return
	}
	if rec == nil {
		httputil.Error(w, http.StatusNotFound, "thumbnail not found")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, thumbnailOf(rec))
}

func (s *Server) handleDeleteThumbnail(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	err := s.cfg.Records.DeleteRecord(r.Context(), owner, id)
	if errors.Is(err, store.ErrNotFound) {
		httputil.Error(w, http.StatusNotFound, "thumbnail not found")
		return
	}
	if err != nil {
		httputil.Error(w, http.StatusInternalServerError, "failed to delete thumbnail", err.Error())
		return
	}
	if err := s.cfg.Events.ThumbnailDeleted(r.Context(), events.ThumbnailEvent{OwnerID: owner, RecordID: id}); err != nil {
		log.Warn().Err(err).Str("recordId", id).Msg("ThumbnailDeleted event not emitted")
	}
	log.Info().Str("recordId", id).Msg("Thumbnail deleted")
	w.WriteHeader(http.StatusNoContent)
}
