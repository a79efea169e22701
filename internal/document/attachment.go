package document

import (
	"net/url"
	"path"
	"strings"
)

var (
	imageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true, ".svg": true, ".bmp": true, ".heic": true}
	videoExts = map[string]bool{".mp4": true, ".mov": true, ".webm": true, ".avi": true, ".mkv": true, ".m4v": true}
)

// AttachmentKindFor infers image, video or file from the extension of a file
// name or URL path.
func AttachmentKindFor(nameOrURL string) Kind {
	ext := strings.ToLower(path.Ext(urlPath(nameOrURL)))
	switch {
	case imageExts[ext]:
		return KindImage
	case videoExts[ext]:
		return KindVideo
	}
	return KindFile
}

// AttachmentName derives a display name from the last path element of a URL.
func AttachmentName(rawURL string) string {
	base := path.Base(urlPath(rawURL))
	if base == "." || base == "/" {
		return ""
	}
	if unescaped, err := url.PathUnescape(base); err == nil {
		return unescaped
	}
	return base
}

func urlPath(s string) string {
	if u, err := url.Parse(s); err == nil && u.Path != "" {
		return u.Path
	}
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		return s[:i]
	}
	return s
}
