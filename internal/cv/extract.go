package cv

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"code.sajari.com/docconv"
	"golang.org/x/text/encoding/charmap"
)

// CVExtensions is the allow-list of attachment types both channels accept.
var CVExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".txt":  true,
}

// IsCVFile reports whether the filename looks like a supported CV document.
func IsCVFile(filename string) bool {
	return CVExtensions[strings.ToLower(filepath.Ext(filename))]
}

// ExtractText converts a document on disk into plain text. Extraction
// failure is not an error to the caller: unsupported or unreadable files
// yield "" and a log line, matching the rest of the degrade-don't-fail
// pipeline.
func ExtractText(path string) string {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".pdf", ".docx":
		return convertWithDocconv(path)
	case ".doc":
		// Old Word binaries go through docconv first; some senders rename
		// plain text to .doc, so fall back to reading it as text.
		if text := convertWithDocconv(path); text != "" {
			return text
		}
		return extractTextFile(path)
	case ".txt":
		return extractTextFile(path)
	default:
		log.Printf("[Extract] unsupported file format %q: %s", ext, path)
		return ""
	}
}

func convertWithDocconv(path string) string {
	res, err := docconv.ConvertPath(path)
	if err != nil {
		log.Printf("[Extract] conversion failed for %s: %v", path, err)
		return ""
	}
	if res == nil {
		return ""
	}
	return strings.TrimSpace(res.Body)
}

// extractTextFile reads a file as UTF-8 and retries as Latin-1 when the
// bytes are not valid UTF-8.
func extractTextFile(path string) string {
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Printf("[Extract] read failed for %s: %v", path, err)
		return ""
	}
	if utf8.Valid(raw) {
		return strings.TrimSpace(string(raw))
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		log.Printf("[Extract] latin-1 decode failed for %s: %v", path, err)
		return ""
	}
	return strings.TrimSpace(string(decoded))
}
