package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string

	// Email channel (IMAP inbound, SMTP replies)
	IMAPServer    string
	IMAPPort      int
	SMTPServer    string
	SMTPPort      int
	EmailUser     string
	EmailPassword string
	PollInterval  time.Duration
	PollBackoff   time.Duration

	// Chat channel (WhatsApp Cloud API style)
	WhatsAppAPIKey        string
	WhatsAppPhoneNumberID string
	WhatsAppVerifyToken   string
	WhatsAppBaseURL       string

	// LLM Configuration
	LLMAPIKey  string
	LLMModel   string
	LLMBaseURL string // empty for the public endpoint

	// Eligibility filter
	FilterEnabled  bool
	FilterPrefixes []string

	UploadsDir string
	Port       string
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	return &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),

		IMAPServer:    envOr("IMAP_SERVER", "imap.gmail.com"),
		IMAPPort:      envInt("IMAP_PORT", 993),
		SMTPServer:    envOr("SMTP_SERVER", "smtp.gmail.com"),
		SMTPPort:      envInt("SMTP_PORT", 587),
		EmailUser:     os.Getenv("EMAIL_USER"),
		EmailPassword: os.Getenv("EMAIL_PASSWORD"),
		PollInterval:  envDuration("POLL_INTERVAL", time.Minute),
		PollBackoff:   envDuration("POLL_BACKOFF", 5*time.Minute),

		WhatsAppAPIKey:        os.Getenv("WHATSAPP_API_KEY"),
		WhatsAppPhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
		WhatsAppVerifyToken:   envOr("WHATSAPP_VERIFY_TOKEN", "recruitment_verify_token"),
		WhatsAppBaseURL:       envOr("WHATSAPP_BASE_URL", "https://graph.facebook.com/v17.0"),

		LLMAPIKey:  os.Getenv("OPENAI_API_KEY"),
		LLMModel:   envOr("LLM_MODEL", "gpt-4o-mini"),
		LLMBaseURL: os.Getenv("LLM_BASE_URL"),

		FilterEnabled:  strings.EqualFold(os.Getenv("FILTER_ELIGIBLE_ONLY"), "true"),
		FilterPrefixes: splitList(envOr("FILTER_CALLING_CODES", "+44,+49,+33,+39,+34,+31,+32,+48,+43,+45,+46,+47,+41")),

		UploadsDir: envOr("UPLOADS_DIR", "./uploads"),
		Port:       envOr("PORT", "8080"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
