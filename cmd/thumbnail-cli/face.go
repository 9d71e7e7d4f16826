package main

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/ncruces/zenity"
)

// maxFaceFileBytes matches the limit the generator applies to fetched faces.
const maxFaceFileBytes = 10 << 20

var errPickCanceled = errors.New("no face image selected")

// faceRef turns a --face argument into a face image reference: URLs and
// data: URIs pass through, local files are inlined as data: URIs.
func faceRef(arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	switch {
	case arg == "":
		return "", errors.New("face image required")
	case strings.HasPrefix(arg, "http://"), strings.HasPrefix(arg, "https://"), strings.HasPrefix(arg, "data:"):
		return arg, nil
	}

	info, err := os.Stat(arg)
	if err != nil {
		return "", fmt.Errorf("face image: %w", err)
	}
	if info.Size() > maxFaceFileBytes {
		return "", fmt.Errorf("face image %s is larger than %d MB", arg, maxFaceFileBytes>>20)
	}
	data, err := os.ReadFile(arg)
	if err != nil {
		return "", fmt.Errorf("face image: %w", err)
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return "", fmt.Errorf("%s is not an image (%s)", arg, mime)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// pickFace opens the native file dialog.
func pickFace() (string, error) {
	path, err := zenity.SelectFile(
		zenity.Title("Select a face photo"),
		zenity.FileFilters{
			{
				Name:     "Images",
				Patterns: []string{"*.jpg", "*.jpeg", "*.png", "*.webp", "*.gif"},
			},
		},
	)
	if errors.Is(err, zenity.ErrCanceled) {
		return "", errPickCanceled
	}
	if err != nil {
		return "", fmt.Errorf("file picker failed: %w", err)
	}
	return path, nil
}
