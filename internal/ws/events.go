package ws

import "time"

const (
	EventQRGenerated      = "QR_GENERATED"
	EventConnectionUpdate = "CONNECTION_UPDATE"
)

type WsEvent struct {
	Event     string      `json:"event"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

type QRGeneratedData struct {
	SessionID string `json:"session_id"`
	QRData    string `json:"qr_data"`
	QRImage   string `json:"qr_image"`
}

type ConnectionUpdateData struct {
	SessionID      string `json:"session_id"`
	State          string `json:"state"`
	JID            string `json:"jid,omitempty"`
	LastDisconnect string `json:"last_disconnect,omitempty"`
}
