package cv

import (
	"regexp"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phonePattern = regexp.MustCompile(`\+?[\d\s\-()]{10,}`)
	digitPattern = regexp.MustCompile(`\d`)
)

// BasicInfo holds the contact fields the regex fallback can recover.
type BasicInfo struct {
	Name  string
	Email string
	Phone string
}

// FallbackFields extracts contact details from raw text with plain
// heuristics. It is used only to fill fields the structured parser left
// empty; a miss is an empty string, never an error.
func FallbackFields(text string) BasicInfo {
	info := BasicInfo{
		Email: emailPattern.FindString(text),
		Phone: strings.TrimSpace(phonePattern.FindString(text)),
	}

	// Name heuristic: first of the leading five lines that has at least
	// two words and no digits.
	lines := strings.Split(text, "\n")
	if len(lines) > 5 {
		lines = lines[:5]
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || digitPattern.MatchString(line) {
			continue
		}
		if len(strings.Fields(line)) >= 2 {
			info.Name = line
			break
		}
	}
	return info
}
