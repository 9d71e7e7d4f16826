package generate

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/fpang/yt-thumbnail-wizard/internal/httputil"
)

// Route is the generation proxy's path.
const Route = "/api/generate"

// AllowedHeaders are the request headers browsers may send cross-origin.
var AllowedHeaders = []string{"authorization", "x-client-info", "apikey", "content-type"}

// maxRequestBytes bounds the JSON body, which may carry a data: URI face.
const maxRequestBytes = 15 << 20

// NewCORS returns the permissive CORS policy of the generation proxy.
func NewCORS() *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodPost, http.MethodOptions},
		AllowedHeaders: AllowedHeaders,
	})
}

// NewHandler exposes g as POST /api/generate with CORS preflight support.
func NewHandler(g Generator) http.Handler {
	r := chi.NewRouter()
	r.Post(Route, HandleGenerate(g))
	r.NotFound(httputil.NotFound)
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httputil.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return NewCORS().Handler(r)
}

// HandleGenerate decodes a Request, runs g and maps failures: invalid input
// is 400, model and fetch failures are 502, anything else is 500.
func HandleGenerate(g Generator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req Request
		if err := httputil.DecodeJSON(w, r, maxRequestBytes, &req); err != nil {
			httputil.Error(w, http.StatusBadRequest, "invalid request body")
			return
		}

		resp, err := g.Generate(r.Context(), req)
		if err != nil {
			status := StatusFor(err)
			if status == http.StatusInternalServerError {
				httputil.Error(w, status, ClientMessage(err), err.Error())
				return
			}
			log.Warn().Err(err).Int("status", status).Msg("Generation request failed")
			httputil.Error(w, status, ClientMessage(err))
			return
		}
		httputil.RespondJSON(w, http.StatusOK, resp)
	}
}

// StatusFor maps a Generate error to an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case IsUpstream(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
