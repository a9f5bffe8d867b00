package model

import (
	"fmt"
	"time"
)

// ConnectionState mengikuti siklus koneksi satu session.
type ConnectionState string

const (
	StateConnecting ConnectionState = "connecting"
	StateOpen       ConnectionState = "open"
	StateClosed     ConnectionState = "closed"
)

// DisconnectCause menjelaskan kenapa session masuk ke state closed.
type DisconnectCause string

const (
	CauseLoggedOut      DisconnectCause = "logged_out"
	CauseConnectionLost DisconnectCause = "connection_lost"
	CauseConflict       DisconnectCause = "conflict"
	CauseTimedOut       DisconnectCause = "timed_out"
	CauseConnectFailed  DisconnectCause = "connect_failed"
	CauseOutdated       DisconnectCause = "client_outdated"
	CauseBanned         DisconnectCause = "temporary_ban"
	CauseShutdown       DisconnectCause = "shutdown"
)

// Terminal is true only for logout: the device was unlinked and
// reconnecting would just fail until the account is paired again.
func (c DisconnectCause) Terminal() bool {
	return c == CauseLoggedOut
}

// ProtocolVersion hasil negosiasi versi WA Web.
type ProtocolVersion struct {
	Parts  [3]uint32 `json:"parts"`
	Latest bool      `json:"latest"`
}

func (v ProtocolVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Parts[0], v.Parts[1], v.Parts[2])
}

// Session snapshot satu koneksi aktif. Dibuat ulang setiap reconnect.
type Session struct {
	ID             string          `json:"id"`
	JID            string          `json:"jid,omitempty"`
	State          ConnectionState `json:"state"`
	Version        ProtocolVersion `json:"version"`
	PairingCode    string          `json:"pairingCode,omitempty"`
	Attempt        int             `json:"attempt"`
	ConnectedAt    *time.Time      `json:"connectedAt,omitempty"`
	LastDisconnect DisconnectCause `json:"lastDisconnect,omitempty"`
}

// ConnectionUpdate dikirim adapter setiap ada perubahan state koneksi.
type ConnectionUpdate struct {
	State       ConnectionState
	Cause       DisconnectCause
	Detail      string
	PairingCode string
	JID         string
}

// CredentialsUpdate menandakan key material device berubah dan harus disimpan.
type CredentialsUpdate struct {
	Reason string
}

// IdentityMappingUpdate informational saja, tidak ada proses lanjutan.
type IdentityMappingUpdate struct {
	JID       string
	Implicit  bool
	Timestamp time.Time
}
