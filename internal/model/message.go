package model

// Batch types of an inbound upsert.
const (
	BatchNotify = "notify"
	BatchAppend = "append"
)

// MessageKey identifies a message, and so the slot an in-place edit rewrites.
type MessageKey struct {
	RemoteJID   string `json:"remoteJid"`
	Participant string `json:"participant,omitempty"`
	FromMe      bool   `json:"fromMe"`
	ID          string `json:"id"`
}

// Sender returns the participant for group messages and the chat otherwise.
func (k MessageKey) Sender() string {
	if k.Participant != "" {
		return k.Participant
	}
	return k.RemoteJID
}

// PayloadKind tags the Payload variants.
type PayloadKind string

const (
	KindConversation PayloadKind = "conversation"
	KindExtendedText PayloadKind = "extended_text"
	KindImage        PayloadKind = "image"
	KindVideo        PayloadKind = "video"
	KindOther        PayloadKind = "other"
)

// Payload is the content union of an inbound message. The set of
// implementations is closed to this package.
type Payload interface {
	Kind() PayloadKind
	isPayload()
}

type Conversation struct {
	Text string
}

// ExtendedText is a text message carrying context, e.g. a reply. Quoted is
// nil when the message does not quote anything.
type ExtendedText struct {
	Text   string
	Quoted Payload
}

type Image struct {
	Caption string
}

type Video struct {
	Caption string
}

// Other covers every content kind the bridge does not read (stickers,
// reactions, protocol messages, ...).
type Other struct {
	Type string
}

func (Conversation) Kind() PayloadKind { return KindConversation }
func (ExtendedText) Kind() PayloadKind { return KindExtendedText }
func (Image) Kind() PayloadKind        { return KindImage }
func (Video) Kind() PayloadKind        { return KindVideo }
func (Other) Kind() PayloadKind        { return KindOther }

func (Conversation) isPayload() {}
func (ExtendedText) isPayload() {}
func (Image) isPayload()        {}
func (Video) isPayload()        {}
func (Other) isPayload()        {}

// InboundMessage is one message of an upsert batch. Payload is nil for
// protocol-only or malformed events.
type InboundMessage struct {
	Key      MessageKey
	PushName string
	Payload  Payload
}

// InboundEvent is one batch delivered by the network.
type InboundEvent struct {
	BatchType string
	Messages  []InboundMessage
}

// CommandKind enumerates the owner commands.
type CommandKind int

const (
	CommandNone CommandKind = iota
	CommandAskMenu
	CommandRefreshCache
)

func (k CommandKind) String() string {
	switch k {
	case CommandAskMenu:
		return "ask_menu"
	case CommandRefreshCache:
		return "refresh_cache"
	default:
		return "none"
	}
}

// Command is derived from one inbound message and never stored.
type Command struct {
	Kind CommandKind
	// Quoted is the replied-to text for CommandAskMenu; empty when the
	// command was not sent as a reply.
	Quoted string
}
