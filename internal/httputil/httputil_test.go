package httputil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fpang/yt-thumbnail-wizard/internal/metrics"
)

func TestError_HidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusBadGateway, "generation failed", "arn:aws:lambda:secret")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, map[string]string{"error": "generation failed"}, body)
}

func TestWithOriginVerify(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })
	h := WithOriginVerify("s3cret")(ok)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req.Header.Set(OriginVerifyHeader, "s3cret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTeapot, rec.Code)

	rec = httptest.NewRecorder()
	WithOriginVerify("")(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestWithMetrics_RecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	defer metrics.SetOutput(&buf)()

	h := WithMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/sessions/abc-123/advance", nil))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "/api/sessions/*/advance", doc["Endpoint"])
	assert.EqualValues(t, http.StatusUnprocessableEntity, doc["statusCode"])
}

func TestNormalizeEndpoint(t *testing.T) {
	assert.Equal(t, "/api/health", NormalizeEndpoint("/api/health"))
	assert.Equal(t, "/api/styles/*/preview", NormalizeEndpoint("/api/styles/neon-glow/preview"))
	assert.Equal(t, "/api/thumbnails/*", NormalizeEndpoint("/api/thumbnails/0b5c"))
	assert.Equal(t, "/", NormalizeEndpoint("/"))
}
