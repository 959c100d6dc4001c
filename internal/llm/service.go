package llm

import (
	"context"
	"fmt"
	"log"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const cvSystemPrompt = `You are an expert CV/Resume parser. Extract the following information from the CV text and return it as a JSON object:

{
  "name": "Full name of the candidate",
  "email": "Email address",
  "phone": "Phone number",
  "location": "Location/Address",
  "summary": "Brief professional summary (2-3 sentences)",
  "skills": ["List of technical and professional skills"],
  "experience_years": "Total years of experience (number only)",
  "education": [
    {
      "degree": "Degree name",
      "institution": "School/University name",
      "year": "Graduation year",
      "field": "Field of study"
    }
  ],
  "work_experience": [
    {
      "title": "Job title",
      "company": "Company name",
      "duration": "Duration (e.g., 2020-2022)",
      "description": "Brief job description"
    }
  ]
}

Extract as much information as possible. If information is not available, use null or empty arrays. Be precise with skills extraction - include both technical and soft skills.`

const jobSystemPrompt = `You are an expert job requirements parser. Extract the following information from the job requirements text and return it as a JSON object:

{
  "required_skills": ["List of absolutely required technical and professional skills"],
  "preferred_skills": ["List of nice-to-have skills"],
  "experience_level": "entry|mid|senior",
  "min_experience_years": "Minimum years of experience required (number only)",
  "education_level": "Required education level",
  "certifications": ["Required certifications if any"]
}

Focus on extracting concrete skills and requirements. Separate must-have from nice-to-have skills.`

// Service talks to an OpenAI-compatible chat completion endpoint and maps
// its loosely-typed JSON answers into the strict profile types.
type Service struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewService builds a parser service. baseURL may be empty for the public
// OpenAI endpoint; tests point it at a local fake.
func NewService(apiKey, model, baseURL string) *Service {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Service{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		timeout: 90 * time.Second,
	}
}

// ParseCV extracts a structured profile from CV text. It never returns an
// error: any service failure is logged and yields an empty profile, which
// the caller completes with the regex fallback.
func (s *Service) ParseCV(ctx context.Context, cvText string) *CVProfile {
	content, err := s.complete(ctx, cvSystemPrompt,
		"Please parse this CV and extract the structured information:\n\n"+cvText)
	if err != nil {
		log.Printf("[LLM] CV parse failed: %v", err)
		return EmptyProfile()
	}

	profile, err := decodeCVProfile([]byte(content))
	if err != nil {
		log.Printf("[LLM] CV response decode failed: %v", err)
		return EmptyProfile()
	}
	return profile
}

// ParseJobRequirements extracts structured requirements from a job posting.
// Like ParseCV it degrades to a default result instead of failing.
func (s *Service) ParseJobRequirements(ctx context.Context, requirementsText string) *JobRequirements {
	content, err := s.complete(ctx, jobSystemPrompt,
		"Please parse these job requirements and extract the structured information:\n\n"+requirementsText)
	if err != nil {
		log.Printf("[LLM] job requirements parse failed: %v", err)
		return defaultJobRequirements()
	}

	reqs, err := decodeJobRequirements([]byte(content))
	if err != nil {
		log.Printf("[LLM] job requirements decode failed: %v", err)
		return defaultJobRequirements()
	}
	return reqs
}

func (s *Service) complete(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.1,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in completion response")
	}
	return resp.Choices[0].Message.Content, nil
}
