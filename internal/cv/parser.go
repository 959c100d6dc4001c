package cv

import (
	"context"
	"log"

	"cv-intake/internal/llm"
)

// StructuredParser is the AI side of CV parsing. *llm.Service satisfies it.
type StructuredParser interface {
	ParseCV(ctx context.Context, cvText string) *llm.CVProfile
}

// Parser runs the full document-to-profile pipeline: text extraction,
// structured parsing, then the regex fallback for any critical field the
// structured pass missed.
type Parser struct {
	ai StructuredParser
}

func NewParser(ai StructuredParser) *Parser {
	return &Parser{ai: ai}
}

// ParseFile always returns a fully-shaped profile. When no text can be
// extracted it returns an empty profile without calling the AI service.
func (p *Parser) ParseFile(ctx context.Context, path string) *llm.CVProfile {
	text := ExtractText(path)
	if text == "" {
		log.Printf("[Parser] no text extracted from %s", path)
		return llm.EmptyProfile()
	}

	profile := llm.EmptyProfile()
	if p.ai != nil {
		profile = p.ai.ParseCV(ctx, text)
	}
	profile.RawText = text

	// The fallback only completes missing fields; it never overwrites what
	// the structured parser found.
	if profile.Email == "" || profile.Name == "" {
		basic := FallbackFields(text)
		if profile.Email == "" {
			profile.Email = basic.Email
		}
		if profile.Name == "" {
			profile.Name = basic.Name
		}
		if profile.Phone == "" {
			profile.Phone = basic.Phone
		}
	}

	log.Printf("[Parser] parsed CV: name=%q email=%q", profile.Name, profile.Email)
	return profile
}
