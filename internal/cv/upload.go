package cv

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SaveUpload persists attachment bytes under the uploads directory with a
// collision-proof name and returns (stored filename, full path). The
// original filename is sanitized to its base name.
func SaveUpload(dir, filename string, content []byte) (string, string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create uploads dir: %w", err)
	}

	safe := sanitizeFilename(filename)
	stored := fmt.Sprintf("%s_%s_%s",
		time.Now().Format("20060102_150405"), uuid.NewString()[:8], safe)
	path := filepath.Join(dir, stored)

	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", "", fmt.Errorf("save upload %s: %w", stored, err)
	}
	return stored, path, nil
}

func sanitizeFilename(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "document"
	}
	return b.String()
}
