package service

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/lifanwar/warung22/internal/model"
	"github.com/rs/zerolog"
)

const (
	EventIncomingMessage = "incoming_message"

	signatureHeader = "X-Warung22-Signature"
)

// WebhookNotifier forwards observability events to an operator URL. A
// notifier with an empty URL is a no-op.
type WebhookNotifier struct {
	URL    string
	Secret string

	client *http.Client
	log    zerolog.Logger
}

func NewWebhookNotifier(url, secret string, log zerolog.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		URL:    url,
		Secret: secret,
		client: &http.Client{Timeout: 5 * time.Second},
		log:    log.With().Str("component", "webhook").Logger(),
	}
}

func (w *WebhookNotifier) Enabled() bool {
	return w != nil && w.URL != ""
}

// Notify posts the event in the background; delivery errors are only logged.
func (w *WebhookNotifier) Notify(event string, data interface{}) {
	if !w.Enabled() {
		return
	}

	payload := model.WebhookPayload{
		Event:     event,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		w.log.Error().Err(err).Msg("webhook: marshal error")
		return
	}

	req, err := http.NewRequest(http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		w.log.Error().Err(err).Msg("webhook: new request error")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	if w.Secret != "" {
		req.Header.Set(signatureHeader, Sign(w.Secret, body))
	}

	go func() {
		resp, err := w.client.Do(req)
		if err != nil {
			w.log.Warn().Err(err).Msg("webhook: send error")
			return
		}
		_ = resp.Body.Close()
	}()
}

// Sign returns the hex HMAC-SHA256 of body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
