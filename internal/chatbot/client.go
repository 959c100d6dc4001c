package chatbot

import (
	"context"
	"fmt"
	"time"

	httpclient "cv-intake/pkg/http"
)

// Client sends messages and downloads media through a WhatsApp Cloud style
// graph API.
type Client struct {
	http          *httpclient.Client
	baseURL       string
	phoneNumberID string
}

func NewClient(baseURL, apiKey, phoneNumberID string) *Client {
	return &Client{
		http:          httpclient.NewClient(30*time.Second, apiKey),
		baseURL:       baseURL,
		phoneNumberID: phoneNumberID,
	}
}

// SendText posts an outbound text message to a phone number.
func (c *Client) SendText(ctx context.Context, to, body string) error {
	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)
	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "text",
		"text":              map[string]string{"body": body},
	}
	return c.http.PostJSON(ctx, url, payload)
}

// DownloadMedia resolves a media id to its download URL and fetches the
// content.
func (c *Client) DownloadMedia(ctx context.Context, mediaID string) ([]byte, error) {
	var meta struct {
		URL string `json:"url"`
	}
	if err := c.http.GetJSON(ctx, fmt.Sprintf("%s/%s", c.baseURL, mediaID), &meta); err != nil {
		return nil, fmt.Errorf("resolve media %s: %w", mediaID, err)
	}
	if meta.URL == "" {
		return nil, fmt.Errorf("media %s has no download url", mediaID)
	}
	content, err := c.http.GetBytes(ctx, meta.URL)
	if err != nil {
		return nil, fmt.Errorf("download media %s: %w", mediaID, err)
	}
	return content, nil
}
