package extract

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ImageExtensions lists raster formats that carry no extractable text.
// Callers may route these to a vision model instead.
var ImageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tif":  true,
	".tiff": true,
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// NormalizeFilename strips directory components and characters that are
// not safe inside a storage key.
func NormalizeFilename(name string) string {
	base := filepath.Base(name)
	cleaned := strings.Trim(unsafeFilenameChars.ReplaceAllString(base, "_"), "._")
	if cleaned == "" {
		return "file"
	}
	return cleaned
}

// IsImageFile reports whether the extension belongs to a raster image.
func IsImageFile(ext string) bool {
	return ImageExtensions[strings.ToLower(ext)]
}

// Extract returns best-effort plain text for the file at path, dispatching
// on the file extension. It never returns an error: any internal failure
// yields an empty string and the caller decides how to treat "no text".
func Extract(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
		data, err := os.ReadFile(path)
		if err != nil {
			return ""
		}
		return string(data)
	case ".pdf":
		return extractPDF(path)
	case ".docx":
		return extractDOCX(path)
	case ".xlsx":
		return extractXLSX(path)
	case ".csv":
		return extractCSV(path)
	case ".pptx":
		return extractPPTX(path)
	default:
		return ""
	}
}
