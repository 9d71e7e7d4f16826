package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fpang/yt-thumbnail-wizard/internal/auth"
)

func TestLocalBaseURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8080", localBaseURL(":8080"))
	assert.Equal(t, "http://localhost:9090", localBaseURL("0.0.0.0:9090"))
	assert.Equal(t, "http://127.0.0.1:8080", localBaseURL("127.0.0.1:8080"))
}

func TestWithOwner(t *testing.T) {
	var got string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = auth.OwnerID(r.Context())
	})

	withOwner("local-user", h).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, "local-user", got)

	withOwner("", h).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Empty(t, got)
}
