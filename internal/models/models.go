package models

import (
	"time"
)

// ExtractionRecord is the structured result of parsing one résumé.
// Every field is derived from FullText; collections are never nil.
type ExtractionRecord struct {
	FullText   string       `json:"full_text"`
	FullName   string       `json:"full_name"`
	Emails     []string     `json:"emails"`
	Phones     []string     `json:"phones"`
	Skills     []string     `json:"skills"`
	Education  []Education  `json:"education"`
	Experience []Experience `json:"experience"`
	Summary    string       `json:"summary"`
}

// Education is one education span found around an anchor line.
type Education struct {
	Raw         string `json:"raw"`
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
}

// Experience is one experience span found around an anchor line.
type Experience struct {
	Raw     string `json:"raw"`
	Title   string `json:"title"`
	Company string `json:"company"`
}

// Candidate represents a persisted résumé owner.
type Candidate struct {
	ID        string    `db:"id" json:"id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Email     *string   `db:"email" json:"email"` // comma-joined, NULL when none found
	Phone     *string   `db:"phone" json:"phone"`
	Location  *string   `db:"location" json:"location"`
	Summary   string    `db:"summary" json:"summary"`
	ResumeURL *string   `db:"resume_url" json:"resume_url,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Skill is a canonical skill name shared across candidates.
type Skill struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// EducationRow is an education entry tied to a candidate.
type EducationRow struct {
	ID          string `db:"id" json:"id"`
	CandidateID string `db:"candidate_id" json:"candidate_id"`
	Degree      string `db:"degree" json:"degree"`
	Institution string `db:"institution" json:"institution"`
	Raw         string `db:"raw" json:"raw"`
}

// ExperienceRow is an experience entry tied to a candidate.
type ExperienceRow struct {
	ID          string `db:"id" json:"id"`
	CandidateID string `db:"candidate_id" json:"candidate_id"`
	Title       string `db:"title" json:"title"`
	Company     string `db:"company" json:"company"`
	Raw         string `db:"raw" json:"raw"`
}

// CandidateBundle groups everything written for one parsed résumé.
type CandidateBundle struct {
	Candidate  Candidate
	Skills     []string
	Education  []Education
	Experience []Experience
}

// CandidateQuery selects candidates. Skill wins over Text; both empty lists the latest.
type CandidateQuery struct {
	Skill string
	Text  string
	Limit int
}

// IngestResult is what the upload endpoint returns.
type IngestResult struct {
	CandidateID *string           `json:"candidate_id"`
	Parsed      *ExtractionRecord `json:"parsed"`
}
