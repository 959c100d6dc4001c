package storage

import (
	"time"

	"cv-intake/internal/llm"
)

// Candidate statuses.
const (
	StatusNew         = "new"
	StatusReviewed    = "reviewed"
	StatusShortlisted = "shortlisted"
	StatusRejected    = "rejected"
	StatusHired       = "hired"
)

// Inbound channels / candidate sources.
const (
	ChannelEmail   = "email"
	ChannelChat    = "chat"
	SourceManual   = "manual"
	SourceExternal = "external"
)

// Processing ledger statuses. An entry is written exactly once per inbound
// message attempt and never updated.
const (
	LedgerSuccess        = "success"
	LedgerError          = "error"
	LedgerFiltered       = "filtered_ineligible"
	LedgerCVRequested    = "cv_requested"
	LedgerDownloadFailed = "download_failed"
	LedgerTextReceived   = "text_received"
)

// Candidate is the persisted candidate record. Email is the unique identity
// key; candidates without a parsed email carry a synthetic channel-scoped
// address so the constraint still holds.
type Candidate struct {
	ID              int64
	Name            string
	Email           string
	Phone           string
	Location        string
	Status          string
	CVFilename      string
	CVText          string
	Summary         string
	Skills          []string
	ExperienceYears int
	Education       []llm.Education
	WorkExperience  []llm.WorkExperience
	Source          string
	SourceReference string
	CreatedAt       time.Time
	LastUpdated     time.Time
}

// LedgerEntry records that one inbound message was handled, successfully or
// not. (Channel, SenderIdentity, MessageRef) is the idempotency key.
type LedgerEntry struct {
	Channel        string
	SenderIdentity string
	MessageRef     string
	Status         string
	CandidateID    int64 // 0 when no candidate was involved
	ErrorMessage   string
}

// Source describes where a profile came from, for reconciliation and the
// ledger write that accompanies it.
type Source struct {
	Channel        string
	SenderIdentity string // sender email address or phone number
	MessageRef     string // email subject or chat message id
	Reference      string // stored as the candidate's source_reference
	CVFilename     string // saved attachment name, may be empty
}
