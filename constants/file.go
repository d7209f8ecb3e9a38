package constants

import "strings"

// DocumentKind is the handling class of an input document.
type DocumentKind string

const (
	PDF   DocumentKind = "pdf"
	IMAGE DocumentKind = "image"
	DOCX  DocumentKind = "docx"
)

// AllowedExtensions maps accepted extensions (lowercase, no dot) to their MIME type.
var AllowedExtensions = map[string]string{
	"pdf":  "application/pdf",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"tiff": "image/tiff",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsAllowedExt reports whether ext (with or without dot) is accepted for processing.
func IsAllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}

// MapExtToKind returns the document kind for an extension.
func MapExtToKind(ext string) (DocumentKind, bool) {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF, true
	case "jpg", "jpeg", "png", "tiff":
		return IMAGE, true
	case "docx":
		return DOCX, true
	default:
		return "", false
	}
}

// MIMEType returns the MIME type registered for ext, or "application/octet-stream".
func MIMEType(ext string) string {
	if mt, ok := AllowedExtensions[NormalizeExt(ext)]; ok {
		return mt
	}
	return "application/octet-stream"
}
