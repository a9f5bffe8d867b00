package whatsapp

import (
	"github.com/lifanwar/warung22/internal/model"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types/events"
)

// ConvertMessage maps a whatsmeow message event to the bridge's message.
// Edits are reported as model.Other so an edited ".m" is never re-run.
func ConvertMessage(evt *events.Message) model.InboundMessage {
	key := model.MessageKey{
		RemoteJID: evt.Info.Chat.String(),
		FromMe:    evt.Info.IsFromMe,
		ID:        evt.Info.ID,
	}
	if evt.Info.IsGroup {
		key.Participant = evt.Info.Sender.String()
	}

	var payload model.Payload
	if evt.IsEdit {
		payload = model.Other{Type: "edit"}
	} else {
		payload = ConvertPayload(evt.Message)
	}

	return model.InboundMessage{
		Key:      key,
		PushName: evt.Info.PushName,
		Payload:  payload,
	}
}

// ConvertPayload returns nil for empty and protocol-only messages.
func ConvertPayload(m *waE2E.Message) model.Payload {
	switch {
	case m == nil:
		return nil
	case m.GetConversation() != "":
		return model.Conversation{Text: m.GetConversation()}
	case m.GetExtendedTextMessage() != nil:
		ext := m.GetExtendedTextMessage()
		return model.ExtendedText{
			Text:   ext.GetText(),
			Quoted: ConvertPayload(ext.GetContextInfo().GetQuotedMessage()),
		}
	case m.GetImageMessage() != nil:
		return model.Image{Caption: m.GetImageMessage().GetCaption()}
	case m.GetVideoMessage() != nil:
		return model.Video{Caption: m.GetVideoMessage().GetCaption()}
	case m.GetProtocolMessage() != nil, m.GetSenderKeyDistributionMessage() != nil && onlySenderKey(m):
		return nil
	default:
		return model.Other{Type: otherType(m)}
	}
}

// onlySenderKey is true for the key distribution stubs WhatsApp sends ahead
// of the first group message.
func onlySenderKey(m *waE2E.Message) bool {
	return m.GetReactionMessage() == nil &&
		m.GetStickerMessage() == nil &&
		m.GetDocumentMessage() == nil &&
		m.GetAudioMessage() == nil &&
		m.GetLocationMessage() == nil &&
		m.GetContactMessage() == nil
}

func otherType(m *waE2E.Message) string {
	switch {
	case m.GetReactionMessage() != nil:
		return "reaction"
	case m.GetStickerMessage() != nil:
		return "sticker"
	case m.GetDocumentMessage() != nil:
		return "document"
	case m.GetAudioMessage() != nil:
		return "audio"
	case m.GetLocationMessage() != nil:
		return "location"
	case m.GetContactMessage() != nil:
		return "contact"
	default:
		return "unknown"
	}
}
