package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Wire shapes mirror what the model actually sends back: numbers arrive as
// strings, lists arrive as scalars, fields go missing. Everything is
// interface{} here and coerced once, so nothing downstream has to care.

type cvWire struct {
	Name            interface{} `json:"name"`
	Email           interface{} `json:"email"`
	Phone           interface{} `json:"phone"`
	Location        interface{} `json:"location"`
	Summary         interface{} `json:"summary"`
	Skills          interface{} `json:"skills"`
	ExperienceYears interface{} `json:"experience_years"`
	Education       interface{} `json:"education"`
	WorkExperience  interface{} `json:"work_experience"`
}

type jobWire struct {
	RequiredSkills     interface{} `json:"required_skills"`
	PreferredSkills    interface{} `json:"preferred_skills"`
	ExperienceLevel    interface{} `json:"experience_level"`
	MinExperienceYears interface{} `json:"min_experience_years"`
	EducationLevel     interface{} `json:"education_level"`
	Certifications     interface{} `json:"certifications"`
}

var firstIntPattern = regexp.MustCompile(`\d+`)

func decodeCVProfile(raw []byte) (*CVProfile, error) {
	var wire cvWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, err
	}

	p := EmptyProfile()
	p.Name = asString(wire.Name)
	p.Email = asString(wire.Email)
	p.Phone = asString(wire.Phone)
	p.Location = asString(wire.Location)
	p.Summary = asString(wire.Summary)
	p.Skills = asStringList(wire.Skills)
	p.ExperienceYears = asYears(wire.ExperienceYears)
	p.Education = asEducationList(wire.Education)
	p.WorkExperience = asWorkExperienceList(wire.WorkExperience)
	return p, nil
}

func decodeJobRequirements(raw []byte) (*JobRequirements, error) {
	var wire jobWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, err
	}

	r := defaultJobRequirements()
	r.RequiredSkills = asStringList(wire.RequiredSkills)
	r.PreferredSkills = asStringList(wire.PreferredSkills)
	r.Certifications = asStringList(wire.Certifications)
	r.MinExperienceYears = asYears(wire.MinExperienceYears)
	r.EducationLevel = asString(wire.EducationLevel)
	if level := asString(wire.ExperienceLevel); level != "" {
		r.ExperienceLevel = level
	}
	return r, nil
}

func asString(v interface{}) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// asYears coerces an experience count that may arrive as a JSON number,
// a string like "5 years", or garbage. No integer found means 0.
func asYears(v interface{}) int {
	switch n := v.(type) {
	case float64:
		if n < 0 {
			return 0
		}
		return int(n)
	case string:
		match := firstIntPattern.FindString(n)
		if match == "" {
			return 0
		}
		var years int
		fmt.Sscanf(match, "%d", &years)
		return years
	default:
		return 0
	}
}

func asStringList(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := asString(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func asEducationList(v interface{}) []Education {
	items, ok := v.([]interface{})
	if !ok {
		return []Education{}
	}
	out := make([]Education, 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		out = append(out, Education{
			Degree:      asString(entry["degree"]),
			Institution: asString(entry["institution"]),
			Year:        asYearString(entry["year"]),
			Field:       asString(entry["field"]),
		})
	}
	return out
}

func asWorkExperienceList(v interface{}) []WorkExperience {
	items, ok := v.([]interface{})
	if !ok {
		return []WorkExperience{}
	}
	out := make([]WorkExperience, 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		out = append(out, WorkExperience{
			Title:       asString(entry["title"]),
			Company:     asString(entry["company"]),
			Duration:    asString(entry["duration"]),
			Description: asString(entry["description"]),
		})
	}
	return out
}

// Graduation years come back as either "2019" or 2019.
func asYearString(v interface{}) string {
	if n, ok := v.(float64); ok {
		return fmt.Sprintf("%d", int(n))
	}
	return asString(v)
}
