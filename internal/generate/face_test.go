package generate

import (
	"bytes"
	"context"
	"errors"
	"image"
	_ "image/jpeg"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFace_DataURI(t *testing.T) {
	data, mime, err := LoadFace(context.Background(), nil, dataURI(t, 4, 4))
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, pngBytes(t, 4, 4), data)

	_, _, err = LoadFace(context.Background(), nil, "data:text/plain;base64,aGk=")
	assert.True(t, errors.Is(err, ErrInvalidRequest))

	_, _, err = LoadFace(context.Background(), nil, "ftp://example.com/face.png")
	assert.True(t, errors.Is(err, ErrInvalidRequest))
}

func TestLoadFace_URL(t *testing.T) {
	body := pngBytes(t, 8, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/face.png":
			w.Header().Set("Content-Type", "image/png")
			w.Write(body)
		case "/page":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte("<html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	data, mime, err := LoadFace(context.Background(), srv.Client(), srv.URL+"/face.png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, body, data)

	_, _, err = LoadFace(context.Background(), srv.Client(), srv.URL+"/page")
	assert.True(t, errors.Is(err, ErrInvalidRequest))

	_, _, err = LoadFace(context.Background(), srv.Client(), srv.URL+"/missing.png")
	assert.True(t, IsUpstream(err))
}

func TestLoadFace_BlocksInternalAddresses(t *testing.T) {
	for _, ref := range []string{
		"http://127.0.0.1:9001/face.png",
		"http://169.254.169.254/latest/meta-data/",
		"http://10.0.0.5/face.png",
		"https://192.168.1.20/face.png",
		"http://0.0.0.0:8080/face.png",
	} {
		_, _, err := LoadFace(context.Background(), nil, ref)
		require.Error(t, err, ref)
		var re *RequestError
		require.True(t, errors.As(err, &re), ref)
		assert.Equal(t, "face image URL is not allowed", re.Message)
		assert.False(t, IsUpstream(err), ref)
	}
}

func TestGuardFaceDial(t *testing.T) {
	assert.ErrorIs(t, guardFaceDial("tcp", "127.0.0.1:80", nil), errBlockedAddress)
	assert.ErrorIs(t, guardFaceDial("tcp", "[fe80::1]:443", nil), errBlockedAddress)
	assert.ErrorIs(t, guardFaceDial("tcp", "172.16.3.4:443", nil), errBlockedAddress)
	assert.ErrorIs(t, guardFaceDial("tcp", "not-an-address", nil), errBlockedAddress)
	assert.NoError(t, guardFaceDial("tcp", "93.184.216.34:443", nil))
	assert.NoError(t, guardFaceDial("tcp6", "[2606:2800:220:1:248:1893:25c8:1946]:443", nil))
}

func TestPrepareFace_Downscales(t *testing.T) {
	out, mime, err := PrepareFace(pngBytes(t, 2048, 1024))
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mime)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 1024, cfg.Width)
	assert.Equal(t, 512, cfg.Height)
}

func TestPrepareFace_RejectsGarbage(t *testing.T) {
	_, _, err := PrepareFace([]byte("not an image"))
	assert.Error(t, err)
}

func TestScaledDimensions(t *testing.T) {
	w, h := scaledDimensions(800, 600, 1024)
	assert.Equal(t, []int{800, 600}, []int{w, h})
	w, h = scaledDimensions(1000, 3000, 1024)
	assert.Equal(t, []int{341, 1024}, []int{w, h})
}
