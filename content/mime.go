package content

import "strings"

// FallbackType is returned for extensions the table does not know.
const FallbackType = "application/octet-stream"

// mimeTypes maps lowercase file extensions (without the dot) to content
// types. Immutable after init.
var mimeTypes = map[string]string{
	"html": "text/html",
	"htm":  "text/html",
	"css":  "text/css",
	"js":   "application/javascript",
	"json": "application/json",
	"txt":  "text/plain",
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"svg":  "image/svg+xml",
	"ico":  "image/x-icon",
}

// TypeByExtension returns the content type for a file extension without the
// leading dot. Unknown or empty extensions get FallbackType.
func TypeByExtension(ext string) string {
	if t, ok := mimeTypes[strings.ToLower(ext)]; ok {
		return t
	}
	return FallbackType
}

// TypeByName returns the content type for a file name based on its extension.
func TypeByName(name string) string {
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	i := strings.LastIndexByte(name, '.')
	if i < 0 || i == len(name)-1 {
		return FallbackType
	}
	return TypeByExtension(name[i+1:])
}
