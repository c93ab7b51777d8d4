package cryptox

import (
	"path/filepath"
	"strings"
)

// DefaultMimeType is returned for extensions outside the table.
const DefaultMimeType = "application/octet-stream"

var mimeTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"webp": "image/webp",
	"pdf":  "application/pdf",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"xls":  "application/vnd.ms-excel",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// previewable lists the extensions that may be rendered inline.
var previewable = map[string]struct{}{
	"jpg": {}, "jpeg": {}, "png": {}, "gif": {}, "bmp": {}, "webp": {}, "pdf": {},
}

// Extension returns the lowercased extension of filename without the dot.
func Extension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

// MimeType derives the content type from the original filename only; the
// decrypted bytes are never sniffed.
func MimeType(filename string) string {
	if t, ok := mimeTypes[Extension(filename)]; ok {
		return t
	}
	return DefaultMimeType
}

// Previewable reports whether filename is on the inline preview allow-list.
func Previewable(filename string) bool {
	_, ok := previewable[Extension(filename)]
	return ok
}
