package httputil

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/yt-thumbnail-wizard/internal/metrics"
)

// OriginVerifyHeader is injected by CloudFront as a custom origin header.
const OriginVerifyHeader = "x-origin-verify"

// WithOriginVerify rejects requests lacking the shared secret header, so
// API Gateway cannot be reached around CloudFront. An empty secret disables
// the check for local runs.
func WithOriginVerify(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			if r.Header.Get(OriginVerifyHeader) != secret {
				log.Warn().Str("path", r.URL.Path).Msg("Blocked request: missing or invalid x-origin-verify header")
				Error(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

// WithMetrics emits per-request EMF latency and count metrics, dimensioned
// by a low-cardinality endpoint name.
func WithMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(sr, r)

		metrics.New(metrics.Namespace).
			Dimension("Endpoint", NormalizeEndpoint(r.URL.Path)).
			Metric("RequestLatencyMs", float64(time.Since(start).Milliseconds()), metrics.UnitMilliseconds).
			Count("RequestCount").
			Property("method", r.Method).
			Property("statusCode", sr.statusCode).
			Flush()
	})
}

// staticSegments are path segments that are never ids.
var staticSegments = map[string]bool{
	"api": true, "health": true, "sessions": true, "fields": true,
	"advance": true, "retreat": true, "reset": true, "face": true,
	"upload-url": true, "styles": true, "preview": true, "generate": true,
	"thumbnails": true, "result": true, "examples": true,
}

// NormalizeEndpoint collapses id segments so /api/sessions/abc/advance
// becomes /api/sessions/*/advance.
func NormalizeEndpoint(path string) string {
	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p == "" {
			continue
		}
		if !staticSegments[p] {
			p = "*"
		}
		parts = append(parts, p)
	}
	return "/" + strings.Join(parts, "/")
}
