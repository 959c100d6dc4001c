package api

import (
	"net/http"

	"cv-intake/internal/chatbot"
)

// NewRouter exposes the webhook surface: a health probe plus the chat
// platform's verification handshake and delivery endpoint.
func NewRouter(h *chatbot.Handler) http.Handler {
	mux := http.NewServeMux()

	// Health check (for Railway, k8s, etc.)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	mux.HandleFunc("/webhook/whatsapp", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			h.VerifyWebhook(w, r)
		case http.MethodPost:
			h.HandleWebhook(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	return mux
}
