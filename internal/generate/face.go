package generate

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	_ "image/png" // register PNG decoder
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/evanoberholster/imagemeta"
	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

// Face image limits.
const (
	maxFaceBytes     = 10 << 20
	maxFaceDimension = 1024
)

// errBlockedAddress is returned when a face URL resolves to an address the
// service must not reach from its own network.
var errBlockedAddress = errors.New("face image host is not allowed")

var defaultFaceClient = NewFaceClient(30 * time.Second)

// NewFaceClient returns an HTTP client for fetching face images. It refuses
// to connect to loopback, private, link-local and unspecified addresses,
// which also covers redirects and DNS names that resolve to them.
func NewFaceClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{Timeout: 10 * time.Second, Control: guardFaceDial}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext:           dialer.DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: timeout,
			MaxIdleConns:          10,
			IdleConnTimeout:       90 * time.Second,
		},
	}
}

// guardFaceDial runs after DNS resolution with the literal address.
func guardFaceDial(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return errBlockedAddress
	}
	ip := net.ParseIP(host)
	if ip == nil || blockedIP(ip) {
		return errBlockedAddress
	}
	return nil
}

func blockedIP(ip net.IP) bool {
	return ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsInterfaceLocalMulticast() ||
		ip.IsMulticast() ||
		ip.IsUnspecified()
}

// IsDataURI reports whether ref is an inline data: URI.
func IsDataURI(ref string) bool {
	return strings.HasPrefix(ref, "data:")
}

// LoadFace returns the bytes and MIME type behind a face reference, which
// is either a base64 data: URI or an http(s) URL. Only image/* content is
// accepted. A nil client fetches through NewFaceClient.
func LoadFace(ctx context.Context, client *http.Client, ref string) ([]byte, string, error) {
	switch {
	case IsDataURI(ref):
		return decodeDataURI(ref)
	case strings.HasPrefix(ref, "https://"), strings.HasPrefix(ref, "http://"):
		return fetchFace(ctx, client, ref)
	default:
		return nil, "", &RequestError{Message: "face image must be a URL or data URI"}
	}
}

func decodeDataURI(ref string) ([]byte, string, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, "", &RequestError{Message: "face image data URI must be base64 encoded"}
	}
	mime := strings.TrimSuffix(meta, ";base64")
	if !strings.HasPrefix(mime, "image/") {
		return nil, "", &RequestError{Message: "face image must be an image"}
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", &RequestError{Message: "face image data URI is not valid base64"}
	}
	if len(data) > maxFaceBytes {
		return nil, "", &RequestError{Message: "face image is too large"}
	}
	return data, mime, nil
}

func fetchFace(ctx context.Context, client *http.Client, url string) ([]byte, string, error) {
	if client == nil {
		client = defaultFaceClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", &RequestError{Message: "face image URL is invalid"}
	}
	resp, err := client.Do(req)
	if errors.Is(err, errBlockedAddress) {
		log.Warn().Str("url", url).Msg("Face image URL points at a blocked address")
		return nil, "", &RequestError{Message: "face image URL is not allowed"}
	}
	if err != nil {
		return nil, "", &UpstreamError{Message: "could not fetch face image", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", &UpstreamError{Message: "could not fetch face image", Err: fmt.Errorf("GET %s: status %d", url, resp.StatusCode)}
	}
	mime := strings.TrimSpace(strings.Split(resp.Header.Get("Content-Type"), ";")[0])
	if !strings.HasPrefix(mime, "image/") {
		return nil, "", &RequestError{Message: "face image must be an image"}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFaceBytes+1))
	if err != nil {
		return nil, "", &UpstreamError{Message: "could not fetch face image", Err: err}
	}
	if len(data) > maxFaceBytes {
		return nil, "", &RequestError{Message: "face image is too large"}
	}
	return data, mime, nil
}

// PrepareFace downscales the face so its longer side is at most 1024px and
// re-encodes it as JPEG, which also drops any EXIF block. Location metadata
// found on the way in is logged.
func PrepareFace(data []byte) ([]byte, string, error) {
	logFaceMetadata(data)

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode face image: %w", err)
	}

	bounds := img.Bounds()
	w, h := scaledDimensions(bounds.Dx(), bounds.Dy(), maxFaceDimension)
	if w != bounds.Dx() || h != bounds.Dy() {
		resized := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)
		img = resized
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, "", fmt.Errorf("encode face image: %w", err)
	}

	log.Debug().
		Str("source_format", format).
		Int("orig_width", bounds.Dx()).
		Int("orig_height", bounds.Dy()).
		Int("new_width", w).
		Int("new_height", h).
		Int("output_size", buf.Len()).
		Msg("Face image prepared")
	return buf.Bytes(), "image/jpeg", nil
}

// scaledDimensions fits w x h inside limit x limit keeping the aspect ratio.
func scaledDimensions(w, h, limit int) (int, int) {
	if w <= limit && h <= limit {
		return w, h
	}
	if w >= h {
		return limit, max(1, h*limit/w)
	}
	return max(1, w*limit/h), limit
}

func logFaceMetadata(data []byte) {
	// Only JPEG faces carry EXIF in practice.
	if !bytes.HasPrefix(data, []byte{0xFF, 0xD8}) {
		return
	}
	exif, err := imagemeta.Decode(bytes.NewReader(data))
	if err != nil {
		return
	}
	gps := exif.GPS
	hasGPS := gps.Latitude() != 0 || gps.Longitude() != 0
	log.Debug().
		Bool("has_gps", hasGPS).
		Str("camera_make", strings.TrimSpace(exif.Make)).
		Str("camera_model", strings.TrimSpace(exif.Model)).
		Msg("Face image EXIF inspected")
}
