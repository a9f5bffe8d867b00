package model

import "time"

type WebhookPayload struct {
	Event     string      `json:"event"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// IncomingMessageData dikirim ke webhook untuk pesan yang bukan dari owner.
type IncomingMessageData struct {
	Chat     string `json:"chat"`
	Sender   string `json:"sender"`
	Phone    string `json:"phone"`
	PushName string `json:"pushName,omitempty"`
	Text     string `json:"text"`
	ID       string `json:"id"`
}
