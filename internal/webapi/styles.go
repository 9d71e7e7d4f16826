package webapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fpang/yt-thumbnail-wizard/internal/httputil"
)

func (s *Server) handleStyles(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, s.cfg.Styles.Refresh(r.Context()))
}

func (s *Server) handleStylePreview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	url, ok := s.cfg.Styles.PreviewURL(id)
	if !ok {
		httputil.Error(w, http.StatusNotFound, "preview unavailable")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"id": id, "previewUrl": url})
}
