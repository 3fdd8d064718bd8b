package blobstore

import (
	"path/filepath"
	"strings"
)

// imageExtensions is the set of blob extensions the orchestrator treats as
// images eligible for processing.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// mimeByExtension maps a blob extension to a content type, falling back to
// application/octet-stream for unrecognized extensions.
var mimeByExtension = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// IsImage reports whether blobName has a recognized image extension
// (case-insensitive).
func IsImage(blobName string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(blobName))]
}

// MimeType returns the content type for blobName by extension.
func MimeType(blobName string) string {
	if m, ok := mimeByExtension[strings.ToLower(filepath.Ext(blobName))]; ok {
		return m
	}
	return "application/octet-stream"
}

// Stem returns blobName without its final extension (e.g. "img_0.png" ->
// "img_0").
func Stem(blobName string) string {
	return strings.TrimSuffix(blobName, filepath.Ext(blobName))
}
