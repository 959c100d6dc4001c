package llm

// CVProfile is the normalized result of parsing a CV. Every field except
// RawText may legitimately be empty; downstream code treats the zero value
// as "not found", not as an error.
type CVProfile struct {
	Name            string           `json:"name"`
	Email           string           `json:"email"`
	Phone           string           `json:"phone"`
	Location        string           `json:"location"`
	Summary         string           `json:"summary"`
	Skills          []string         `json:"skills"`
	ExperienceYears int              `json:"experience_years"`
	Education       []Education      `json:"education"`
	WorkExperience  []WorkExperience `json:"work_experience"`
	RawText         string           `json:"raw_text"`
}

type Education struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Year        string `json:"year"`
	Field       string `json:"field"`
}

type WorkExperience struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Duration    string `json:"duration"`
	Description string `json:"description"`
}

// JobRequirements is the job-posting counterpart of CVProfile.
type JobRequirements struct {
	RequiredSkills     []string `json:"required_skills"`
	PreferredSkills    []string `json:"preferred_skills"`
	ExperienceLevel    string   `json:"experience_level"` // entry, mid, senior
	MinExperienceYears int      `json:"min_experience_years"`
	EducationLevel     string   `json:"education_level"`
	Certifications     []string `json:"certifications"`
}

// EmptyProfile returns a fully-shaped profile with no data. It is the
// parser's failure value: callers can always range over the slices.
func EmptyProfile() *CVProfile {
	return &CVProfile{
		Skills:         []string{},
		Education:      []Education{},
		WorkExperience: []WorkExperience{},
	}
}

func defaultJobRequirements() *JobRequirements {
	return &JobRequirements{
		RequiredSkills:  []string{},
		PreferredSkills: []string{},
		Certifications:  []string{},
		ExperienceLevel: "mid",
	}
}
