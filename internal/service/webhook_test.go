package service

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lifanwar/warung22/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedHook struct {
	body      []byte
	signature string
}

func TestWebhookNotifySigned(t *testing.T) {
	got := make(chan capturedHook, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got <- capturedHook{body: body, signature: r.Header.Get(signatureHeader)}
	}))
	defer srv.Close()

	w := NewWebhookNotifier(srv.URL, "s3cret", zerolog.Nop())
	require.True(t, w.Enabled())

	w.Notify(EventIncomingMessage, model.IncomingMessageData{Phone: "6281234567890", Text: "halo"})

	select {
	case hook := <-got:
		assert.Equal(t, Sign("s3cret", hook.body), hook.signature)

		var payload struct {
			Event string                    `json:"event"`
			Data  model.IncomingMessageData `json:"data"`
		}
		require.NoError(t, json.Unmarshal(hook.body, &payload))
		assert.Equal(t, EventIncomingMessage, payload.Event)
		assert.Equal(t, "halo", payload.Data.Text)
	case <-time.After(2 * time.Second):
		t.Fatal("webhook was not delivered")
	}
}

func TestWebhookDisabled(t *testing.T) {
	var nilNotifier *WebhookNotifier
	assert.False(t, nilNotifier.Enabled())
	nilNotifier.Notify(EventIncomingMessage, nil)

	w := NewWebhookNotifier("", "", zerolog.Nop())
	assert.False(t, w.Enabled())
	w.Notify(EventIncomingMessage, nil)
}

func TestSign(t *testing.T) {
	a := Sign("key", []byte("body"))
	assert.Len(t, a, 64)
	assert.Equal(t, a, Sign("key", []byte("body")))
	assert.NotEqual(t, a, Sign("other", []byte("body")))
}
