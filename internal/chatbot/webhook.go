// Package chatbot handles the inbound chat channel: webhook deliveries of
// candidate messages, CV document downloads, and automated replies.
package chatbot

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"cv-intake/internal/cv"
	"cv-intake/internal/eligibility"
	"cv-intake/internal/llm"
	"cv-intake/internal/storage"
)

const (
	confirmationReply = `Thank you for sending your CV!
We have received your application and it has been added to our candidate database. Our system will automatically match your profile with suitable positions.

If there's a good match, our HR team will contact you shortly.

Best regards,
HR Team`

	promptForCVReply = `Hello!

Thank you for your interest in our job opportunities.

To process your application, please send us your CV as a document (PDF, DOC, or DOCX format).

Our automated system will review your profile and match you with suitable positions.

Looking forward to receiving your CV!

Best regards,
HR Team`

	wrongFormatReply   = "Please send your CV in PDF, DOC, or DOCX format for us to process your application."
	downloadFailReply  = "Sorry, we couldn't download your document. Please try sending it again."
	ineligibilityReply = "Thank you for your interest in our positions. Currently, we are only considering candidates based in the allowed regions. We appreciate your understanding."
)

// Store is the persistence surface the handler needs. *storage.DB
// satisfies it.
type Store interface {
	AlreadyProcessed(ctx context.Context, channel, senderIdentity, messageRef string) (bool, error)
	LogEntry(ctx context.Context, e storage.LedgerEntry) error
	Reconcile(ctx context.Context, p *llm.CVProfile, src storage.Source) (*storage.Candidate, error)
}

// CVParser turns a saved document into a candidate profile.
type CVParser interface {
	ParseFile(ctx context.Context, path string) *llm.CVProfile
}

// Messenger is the outbound side of the chat platform.
type Messenger interface {
	SendText(ctx context.Context, to, body string) error
	DownloadMedia(ctx context.Context, mediaID string) ([]byte, error)
}

type Handler struct {
	store       Store
	parser      CVParser
	filter      *eligibility.Filter
	messenger   Messenger
	uploadsDir  string
	verifyToken string
}

func NewHandler(store Store, parser CVParser, filter *eligibility.Filter, messenger Messenger, uploadsDir, verifyToken string) *Handler {
	return &Handler{
		store:       store,
		parser:      parser,
		filter:      filter,
		messenger:   messenger,
		uploadsDir:  uploadsDir,
		verifyToken: verifyToken,
	}
}

// Message is one inbound chat message from the webhook envelope.
type Message struct {
	From string `json:"from"`
	ID   string `json:"id"`
	Type string `json:"type"`
	Text *struct {
		Body string `json:"body"`
	} `json:"text,omitempty"`
	Document *struct {
		ID       string `json:"id"`
		Filename string `json:"filename"`
		MimeType string `json:"mime_type"`
	} `json:"document,omitempty"`
}

type webhookPayload struct {
	Object string `json:"object"`
	Entry  []struct {
		Changes []struct {
			Field string `json:"field"`
			Value struct {
				Messages []Message `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// VerifyWebhook answers the platform's subscription handshake.
func (h *Handler) VerifyWebhook(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode == "subscribe" && token == h.verifyToken {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(challenge))
		return
	}
	http.Error(w, "Forbidden", http.StatusForbidden)
}

// HandleWebhook processes a delivery. Internal failures never reach the
// caller: the platform expects a fast acknowledgement and redelivers on
// non-2xx, so every message outcome is settled via the ledger instead.
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	var payload webhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, `{"success":false}`, http.StatusBadRequest)
		return
	}

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				h.ProcessMessage(r.Context(), msg)
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"success":true}`))
}

// ProcessMessage handles a single inbound message end to end. All failures
// are swallowed into ledger entries.
func (h *Handler) ProcessMessage(ctx context.Context, msg Message) {
	done, err := h.store.AlreadyProcessed(ctx, storage.ChannelChat, msg.From, msg.ID)
	if err != nil {
		log.Printf("[Chatbot] dedup check failed for %s: %v", msg.From, err)
		return
	}
	if done {
		log.Printf("[Chatbot] message %s from %s already processed", msg.ID, msg.From)
		return
	}

	if !h.filter.AllowPhone(msg.From) {
		log.Printf("[Chatbot] ineligible sender filtered: %s", msg.From)
		h.sendText(ctx, msg.From, ineligibilityReply)
		h.logEntry(ctx, msg, storage.LedgerFiltered, 0, "")
		return
	}

	switch msg.Type {
	case "document":
		h.processDocument(ctx, msg)
	case "text":
		h.processText(ctx, msg)
	default:
		log.Printf("[Chatbot] ignoring message type %q from %s", msg.Type, msg.From)
		h.logEntry(ctx, msg, storage.LedgerTextReceived, 0, "")
	}
}

func (h *Handler) processDocument(ctx context.Context, msg Message) {
	if msg.Document == nil {
		h.logEntry(ctx, msg, storage.LedgerError, 0, "document message without document payload")
		return
	}

	if !cv.IsCVFile(msg.Document.Filename) {
		h.sendText(ctx, msg.From, wrongFormatReply)
		h.logEntry(ctx, msg, storage.LedgerCVRequested, 0, "")
		return
	}

	content, err := h.messenger.DownloadMedia(ctx, msg.Document.ID)
	if err != nil {
		log.Printf("[Chatbot] media download failed for %s: %v", msg.From, err)
		h.sendText(ctx, msg.From, downloadFailReply)
		h.logEntry(ctx, msg, storage.LedgerDownloadFailed, 0, err.Error())
		return
	}

	stored, path, err := cv.SaveUpload(h.uploadsDir, msg.Document.Filename, content)
	if err != nil {
		log.Printf("[Chatbot] saving upload failed for %s: %v", msg.From, err)
		h.logEntry(ctx, msg, storage.LedgerError, 0, err.Error())
		return
	}

	profile := h.parser.ParseFile(ctx, path)
	profile.Phone = msg.From
	if profile.Name == "" {
		profile.Name = fmt.Sprintf("WhatsApp User %s", msg.From)
	}

	candidate, err := h.store.Reconcile(ctx, profile, storage.Source{
		Channel:        storage.ChannelChat,
		SenderIdentity: msg.From,
		MessageRef:     msg.ID,
		Reference:      msg.From,
		CVFilename:     stored,
	})
	if err != nil {
		log.Printf("[Chatbot] reconcile failed for %s: %v", msg.From, err)
		h.logEntry(ctx, msg, storage.LedgerError, 0, err.Error())
		return
	}

	h.sendText(ctx, msg.From, confirmationReply)
	log.Printf("[Chatbot] processed CV from %s -> candidate %d", msg.From, candidate.ID)
}

func (h *Handler) processText(ctx context.Context, msg Message) {
	body := ""
	if msg.Text != nil {
		body = msg.Text.Body
	}

	lower := strings.ToLower(body)
	if strings.Contains(lower, "cv") || strings.Contains(lower, "resume") || strings.Contains(lower, "job") {
		h.sendText(ctx, msg.From, promptForCVReply)
	}
	h.logEntry(ctx, msg, storage.LedgerTextReceived, 0, "")
}

func (h *Handler) sendText(ctx context.Context, to, body string) {
	if err := h.messenger.SendText(ctx, to, body); err != nil {
		log.Printf("[Chatbot] send to %s failed: %v", to, err)
	}
}

func (h *Handler) logEntry(ctx context.Context, msg Message, status string, candidateID int64, errMsg string) {
	err := h.store.LogEntry(ctx, storage.LedgerEntry{
		Channel:        storage.ChannelChat,
		SenderIdentity: msg.From,
		MessageRef:     msg.ID,
		Status:         status,
		CandidateID:    candidateID,
		ErrorMessage:   errMsg,
	})
	if err != nil {
		log.Printf("[Chatbot] ledger write failed for %s/%s: %v", msg.From, msg.ID, err)
	}
}
