package mailbot

import (
	"context"
	"log"

	"cv-intake/internal/cv"
	"cv-intake/internal/llm"
	"cv-intake/internal/storage"
)

// Store is the persistence surface the poller needs. *storage.DB satisfies
// it.
type Store interface {
	AlreadyProcessed(ctx context.Context, channel, senderIdentity, messageRef string) (bool, error)
	LogEntry(ctx context.Context, e storage.LedgerEntry) error
	Reconcile(ctx context.Context, p *llm.CVProfile, src storage.Source) (*storage.Candidate, error)
	CandidateByEmail(ctx context.Context, email string) (*storage.Candidate, error)
}

// CVParser turns a saved document into a candidate profile.
type CVParser interface {
	ParseFile(ctx context.Context, path string) *llm.CVProfile
}

// processMessage runs the full pipeline for one inbound email. Failures
// are settled in the ledger, never returned: one bad message must not
// abort the rest of the batch.
func (b *Bot) processMessage(ctx context.Context, m *inboundMail) {
	if m.SenderAddr == "" {
		log.Printf("[EmailBot] message without parsable sender, subject %q", m.Subject)
		return
	}

	done, err := b.store.AlreadyProcessed(ctx, storage.ChannelEmail, m.SenderAddr, m.Subject)
	if err != nil {
		log.Printf("[EmailBot] dedup check failed for %s: %v", m.SenderAddr, err)
		return
	}
	if done {
		log.Printf("[EmailBot] email from %s already processed", m.SenderAddr)
		return
	}

	if !b.filter.AllowText(m.Body) {
		log.Printf("[EmailBot] ineligible sender filtered: %s", m.SenderAddr)
		b.sendReply(m.SenderAddr, m.Subject, ineligibilityReply)
		b.logEntry(ctx, m, storage.LedgerFiltered, 0, "")
		return
	}

	if len(m.Attachments) == 0 {
		existing, err := b.store.CandidateByEmail(ctx, m.SenderAddr)
		if err != nil {
			log.Printf("[EmailBot] candidate lookup failed for %s: %v", m.SenderAddr, err)
			b.logEntry(ctx, m, storage.LedgerError, 0, err.Error())
			return
		}
		if existing == nil {
			b.sendReply(m.SenderAddr, m.Subject, requestCVReply)
			b.logEntry(ctx, m, storage.LedgerCVRequested, 0, "")
			return
		}
		// Known candidate writing in without a new CV: acknowledge, no
		// record mutation.
		b.sendReply(m.SenderAddr, m.Subject, confirmationReply)
		b.logEntry(ctx, m, storage.LedgerSuccess, existing.ID, "")
		return
	}

	attachment := m.Attachments[0]
	stored, path, err := cv.SaveUpload(b.uploadsDir, attachment.Filename, attachment.Content)
	if err != nil {
		log.Printf("[EmailBot] saving attachment failed for %s: %v", m.SenderAddr, err)
		b.logEntry(ctx, m, storage.LedgerError, 0, err.Error())
		return
	}

	profile := b.parser.ParseFile(ctx, path)
	if profile.Name == "" {
		profile.Name = m.SenderName
	}

	candidate, err := b.store.Reconcile(ctx, profile, storage.Source{
		Channel:        storage.ChannelEmail,
		SenderIdentity: m.SenderAddr,
		MessageRef:     m.Subject,
		Reference:      m.Subject,
		CVFilename:     stored,
	})
	if err != nil {
		log.Printf("[EmailBot] reconcile failed for %s: %v", m.SenderAddr, err)
		b.logEntry(ctx, m, storage.LedgerError, 0, err.Error())
		return
	}

	b.sendReply(m.SenderAddr, m.Subject, confirmationReply)
	log.Printf("[EmailBot] processed application from %s -> candidate %d", m.SenderAddr, candidate.ID)
}

func (b *Bot) sendReply(to, subject, body string) {
	if err := b.replier.SendReply(to, subject, body); err != nil {
		log.Printf("[EmailBot] reply to %s failed: %v", to, err)
	}
}

func (b *Bot) logEntry(ctx context.Context, m *inboundMail, status string, candidateID int64, errMsg string) {
	err := b.store.LogEntry(ctx, storage.LedgerEntry{
		Channel:        storage.ChannelEmail,
		SenderIdentity: m.SenderAddr,
		MessageRef:     m.Subject,
		Status:         status,
		CandidateID:    candidateID,
		ErrorMessage:   errMsg,
	})
	if err != nil {
		log.Printf("[EmailBot] ledger write failed for %s/%q: %v", m.SenderAddr, m.Subject, err)
	}
}
