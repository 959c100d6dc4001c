package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"cv-intake/internal/llm"
)

// Reconcile upserts a candidate from a parsed profile and writes the
// success ledger entry in the same transaction. Either both persist or
// neither does: a retried message can never create a duplicate candidate,
// and a candidate can never exist without its idempotency marker.
//
// Row-level locking (SELECT ... FOR UPDATE) serializes concurrent
// reconciliations of the same identity across the email poller and the
// webhook handler.
func (db *DB) Reconcile(ctx context.Context, p *llm.CVProfile, src Source) (*Candidate, error) {
	identity := p.Email
	if identity == "" {
		identity = SyntheticIdentity(src.Channel, src.SenderIdentity)
	}
	identity = strings.ToLower(identity)

	tx, err := db.connection.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin reconcile tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, selectCandidateQuery+` WHERE email = $1 FOR UPDATE`, identity)
	existing, err := scanCandidate(row)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("lookup candidate %s: %w", identity, err)
	}

	var candidate *Candidate
	if existing != nil {
		candidate = merge(existing, p, src.CVFilename)
		_, err = tx.ExecContext(ctx,
			`UPDATE candidates
                SET name = $1, phone = $2, location = $3, cv_filename = $4, cv_text = $5,
                    summary = $6, skills = $7, experience_years = $8, education = $9,
                    work_experience = $10, last_updated = now()
              WHERE id = $11`,
			candidate.Name, candidate.Phone, candidate.Location, candidate.CVFilename,
			candidate.CVText, candidate.Summary, marshalJSON(candidate.Skills),
			candidate.ExperienceYears, marshalJSON(candidate.Education),
			marshalJSON(candidate.WorkExperience), candidate.ID)
		if err != nil {
			return nil, fmt.Errorf("update candidate %d: %w", candidate.ID, err)
		}
	} else {
		candidate = &Candidate{
			Name:            p.Name,
			Email:           identity,
			Phone:           p.Phone,
			Location:        p.Location,
			Status:          StatusNew,
			CVFilename:      src.CVFilename,
			CVText:          p.RawText,
			Summary:         p.Summary,
			Skills:          p.Skills,
			ExperienceYears: p.ExperienceYears,
			Education:       p.Education,
			WorkExperience:  p.WorkExperience,
			Source:          src.Channel,
			SourceReference: src.Reference,
		}
		err = tx.QueryRowContext(ctx,
			`INSERT INTO candidates (name, email, phone, location, status, cv_filename, cv_text,
                                     summary, skills, experience_years, education, work_experience,
                                     source, source_reference)
             VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
             RETURNING id`,
			candidate.Name, candidate.Email, candidate.Phone, candidate.Location,
			candidate.Status, candidate.CVFilename, candidate.CVText, candidate.Summary,
			marshalJSON(candidate.Skills), candidate.ExperienceYears,
			marshalJSON(candidate.Education), marshalJSON(candidate.WorkExperience),
			candidate.Source, candidate.SourceReference).Scan(&candidate.ID)
		if err != nil {
			return nil, fmt.Errorf("insert candidate %s: %w", identity, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO processing_log (channel, sender_identity, message_ref, status, candidate_id)
         VALUES ($1, $2, $3, $4, $5)`,
		src.Channel, src.SenderIdentity, src.MessageRef, LedgerSuccess, candidate.ID)
	if err != nil {
		// A unique violation here means the message was already handled;
		// rolling back keeps the candidate mutation out as well.
		return nil, fmt.Errorf("write ledger entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit reconcile tx: %w", err)
	}

	log.Printf("[Reconciler] candidate %d (%s) reconciled from %s", candidate.ID, candidate.Email, src.Channel)
	return candidate, nil
}

// SyntheticIdentity derives a channel-scoped placeholder address for
// submissions with no parsed email. Email senders already have an address;
// chat senders get one minted from their phone number. Identities from
// different channels are deliberately never merged.
func SyntheticIdentity(channel, senderIdentity string) string {
	if channel == ChannelEmail {
		return senderIdentity
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, senderIdentity)
	return fmt.Sprintf("%s_%s@intake.local", channel, digits)
}

// merge folds a freshly parsed profile into an existing record. CV-derived
// fields always take the new value; contact fields keep their old value
// when the new profile has none.
func merge(existing *Candidate, p *llm.CVProfile, cvFilename string) *Candidate {
	c := *existing

	c.CVText = p.RawText
	c.Summary = p.Summary
	c.Skills = p.Skills
	c.ExperienceYears = p.ExperienceYears
	c.Education = p.Education
	c.WorkExperience = p.WorkExperience
	if cvFilename != "" {
		c.CVFilename = cvFilename
	}

	if p.Name != "" {
		c.Name = p.Name
	}
	if p.Phone != "" {
		c.Phone = p.Phone
	}
	if p.Location != "" {
		c.Location = p.Location
	}
	return &c
}
