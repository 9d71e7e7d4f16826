package generate

import (
	"fmt"
	"time"

	"github.com/gosimple/slug"
)

// DownloadName is the filename offered when saving a thumbnail. Untitled
// thumbnails get a timestamped name.
func DownloadName(title string, at time.Time) string {
	if s := slug.Make(title); s != "" {
		return s + ".jpg"
	}
	return fmt.Sprintf("thumbnail-%d.jpg", at.UnixMilli())
}

// objectName builds the storage key for a stored image.
func objectName(dir, title, id, ext string) string {
	s := slug.Make(title)
	if s == "" {
		s = "thumbnail"
	}
	if len(s) > 60 {
		s = s[:60]
	}
	return fmt.Sprintf("%s/%s-%s%s", dir, s, id, ext)
}

func extForMIME(mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".jpg"
	}
}
