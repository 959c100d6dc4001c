package chatbot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cv-intake/internal/eligibility"
	"cv-intake/internal/llm"
	"cv-intake/internal/storage"
)

type fakeStore struct {
	processed  map[string]bool
	entries    []storage.LedgerEntry
	reconciled []*llm.CVProfile
}

func newFakeStore() *fakeStore {
	return &fakeStore{processed: map[string]bool{}}
}

func (s *fakeStore) key(ch, sender, ref string) string { return ch + "|" + sender + "|" + ref }

func (s *fakeStore) AlreadyProcessed(ctx context.Context, ch, sender, ref string) (bool, error) {
	return s.processed[s.key(ch, sender, ref)], nil
}

func (s *fakeStore) LogEntry(ctx context.Context, e storage.LedgerEntry) error {
	if s.processed[s.key(e.Channel, e.SenderIdentity, e.MessageRef)] {
		return nil
	}
	s.processed[s.key(e.Channel, e.SenderIdentity, e.MessageRef)] = true
	s.entries = append(s.entries, e)
	return nil
}

func (s *fakeStore) Reconcile(ctx context.Context, p *llm.CVProfile, src storage.Source) (*storage.Candidate, error) {
	s.reconciled = append(s.reconciled, p)
	s.LogEntry(ctx, storage.LedgerEntry{
		Channel:        src.Channel,
		SenderIdentity: src.SenderIdentity,
		MessageRef:     src.MessageRef,
		Status:         storage.LedgerSuccess,
		CandidateID:    1,
	})
	return &storage.Candidate{ID: 1, Email: p.Email}, nil
}

type fakeMessenger struct {
	sent     []string
	media    []byte
	mediaErr error
}

func (m *fakeMessenger) SendText(ctx context.Context, to, body string) error {
	m.sent = append(m.sent, body)
	return nil
}

func (m *fakeMessenger) DownloadMedia(ctx context.Context, mediaID string) ([]byte, error) {
	return m.media, m.mediaErr
}

type stubParser struct {
	profile *llm.CVProfile
}

func (p *stubParser) ParseFile(ctx context.Context, path string) *llm.CVProfile {
	if p.profile == nil {
		return llm.EmptyProfile()
	}
	out := *p.profile
	return &out
}

func newTestHandler(t *testing.T, store *fakeStore, m *fakeMessenger, parser *stubParser, filterOn bool) *Handler {
	t.Helper()
	filter := eligibility.NewFilter(filterOn, []string{"+49", "+44"})
	return NewHandler(store, parser, filter, m, t.TempDir(), "verify-me")
}

func docMessage(id, from, filename string) Message {
	raw := fmt.Sprintf(`{"from":%q,"id":%q,"type":"document","document":{"id":"media-1","filename":%q}}`,
		from, id, filename)
	var msg Message
	json.Unmarshal([]byte(raw), &msg)
	return msg
}

func textMessage(id, from, body string) Message {
	raw := fmt.Sprintf(`{"from":%q,"id":%q,"type":"text","text":{"body":%q}}`, from, id, body)
	var msg Message
	json.Unmarshal([]byte(raw), &msg)
	return msg
}

func TestTextMessagePromptsForCV(t *testing.T) {
	store := newFakeStore()
	m := &fakeMessenger{}
	h := newTestHandler(t, store, m, &stubParser{}, false)

	h.ProcessMessage(context.Background(), textMessage("m1", "4915112345", "do you have any jobs?"))

	if len(m.sent) != 1 || !strings.Contains(m.sent[0], "send us your CV") {
		t.Fatalf("expected prompt-for-CV reply, got %v", m.sent)
	}
	if len(store.entries) != 1 || store.entries[0].Status != storage.LedgerTextReceived {
		t.Fatalf("expected text_received ledger entry, got %+v", store.entries)
	}
	if len(store.reconciled) != 0 {
		t.Fatal("no candidate should be created for a text message")
	}
}

func TestTextMessageWithoutKeywordsIsSilent(t *testing.T) {
	store := newFakeStore()
	m := &fakeMessenger{}
	h := newTestHandler(t, store, m, &stubParser{}, false)

	h.ProcessMessage(context.Background(), textMessage("m1", "4915112345", "hello there"))

	if len(m.sent) != 0 {
		t.Fatalf("expected no reply, got %v", m.sent)
	}
	if len(store.entries) != 1 || store.entries[0].Status != storage.LedgerTextReceived {
		t.Fatalf("expected text_received ledger entry, got %+v", store.entries)
	}
}

func TestDocumentMessageCreatesCandidate(t *testing.T) {
	store := newFakeStore()
	m := &fakeMessenger{media: []byte("Jane Doe\njane@x.com")}
	parser := &stubParser{profile: &llm.CVProfile{Name: "Jane Doe", Email: "jane@x.com"}}
	h := newTestHandler(t, store, m, parser, false)

	h.ProcessMessage(context.Background(), docMessage("m1", "4915112345", "cv.pdf"))

	if len(store.reconciled) != 1 {
		t.Fatalf("expected one reconcile, got %d", len(store.reconciled))
	}
	if store.reconciled[0].Phone != "4915112345" {
		t.Fatalf("sender phone not attached to profile: %q", store.reconciled[0].Phone)
	}
	if len(m.sent) != 1 || !strings.Contains(m.sent[0], "received your application") {
		t.Fatalf("expected confirmation reply, got %v", m.sent)
	}
	if len(store.entries) != 1 || store.entries[0].Status != storage.LedgerSuccess {
		t.Fatalf("expected success ledger entry, got %+v", store.entries)
	}
}

func TestDocumentDownloadFailure(t *testing.T) {
	store := newFakeStore()
	m := &fakeMessenger{mediaErr: fmt.Errorf("network down")}
	h := newTestHandler(t, store, m, &stubParser{}, false)

	h.ProcessMessage(context.Background(), docMessage("m1", "4915112345", "cv.pdf"))

	if len(store.entries) != 1 || store.entries[0].Status != storage.LedgerDownloadFailed {
		t.Fatalf("expected download_failed entry, got %+v", store.entries)
	}
	if len(m.sent) != 1 || !strings.Contains(m.sent[0], "couldn't download") {
		t.Fatalf("expected download failure reply, got %v", m.sent)
	}
}

func TestNonCVDocumentRejected(t *testing.T) {
	store := newFakeStore()
	m := &fakeMessenger{media: []byte("data")}
	h := newTestHandler(t, store, m, &stubParser{}, false)

	h.ProcessMessage(context.Background(), docMessage("m1", "4915112345", "photo.png"))

	if len(store.reconciled) != 0 {
		t.Fatal("no candidate expected for non-CV document")
	}
	if len(store.entries) != 1 || store.entries[0].Status != storage.LedgerCVRequested {
		t.Fatalf("expected cv_requested entry, got %+v", store.entries)
	}
}

func TestIneligibleSenderFiltered(t *testing.T) {
	store := newFakeStore()
	m := &fakeMessenger{}
	h := newTestHandler(t, store, m, &stubParser{}, true)

	h.ProcessMessage(context.Background(), docMessage("m1", "15550100200", "cv.pdf"))

	if len(store.entries) != 1 || store.entries[0].Status != storage.LedgerFiltered {
		t.Fatalf("expected filtered_ineligible entry, got %+v", store.entries)
	}
	if len(store.reconciled) != 0 {
		t.Fatal("no candidate mutation expected for filtered sender")
	}
	if len(m.sent) != 1 {
		t.Fatalf("expected rejection reply, got %v", m.sent)
	}
}

func TestDuplicateDeliveryIsNoOp(t *testing.T) {
	store := newFakeStore()
	m := &fakeMessenger{}
	h := newTestHandler(t, store, m, &stubParser{}, false)

	msg := textMessage("m1", "4915112345", "do you have any jobs?")
	h.ProcessMessage(context.Background(), msg)
	h.ProcessMessage(context.Background(), msg)

	if len(store.entries) != 1 {
		t.Fatalf("expected exactly one ledger entry, got %d", len(store.entries))
	}
	if len(m.sent) != 1 {
		t.Fatalf("expected exactly one reply, got %d", len(m.sent))
	}
}

func TestHandleWebhookEnvelope(t *testing.T) {
	store := newFakeStore()
	m := &fakeMessenger{}
	h := newTestHandler(t, store, m, &stubParser{}, false)

	body := `{"object":"whatsapp_business_account","entry":[{"changes":[{"field":"messages","value":{"messages":[{"from":"4915112345","id":"m1","type":"text","text":{"body":"job?"}}]}}]}]}`
	req := httptest.NewRequest(http.MethodPost, "/webhook/whatsapp", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.HandleWebhook(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(store.entries) != 1 {
		t.Fatalf("expected one ledger entry from envelope, got %d", len(store.entries))
	}
}

func TestHandleWebhookBadJSON(t *testing.T) {
	h := newTestHandler(t, newFakeStore(), &fakeMessenger{}, &stubParser{}, false)
	req := httptest.NewRequest(http.MethodPost, "/webhook/whatsapp", strings.NewReader("{broken"))
	rec := httptest.NewRecorder()
	h.HandleWebhook(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestVerifyWebhook(t *testing.T) {
	h := newTestHandler(t, newFakeStore(), &fakeMessenger{}, &stubParser{}, false)

	req := httptest.NewRequest(http.MethodGet,
		"/webhook/whatsapp?hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=12345", nil)
	rec := httptest.NewRecorder()
	h.VerifyWebhook(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "12345" {
		t.Fatalf("handshake failed: %d %q", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet,
		"/webhook/whatsapp?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", nil)
	rec = httptest.NewRecorder()
	h.VerifyWebhook(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for wrong token, got %d", rec.Code)
	}
}
