package whatsapp

import (
	"testing"

	"github.com/lifanwar/warung22/internal/model"
	"github.com/stretchr/testify/assert"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"
)

func TestConvertPayload(t *testing.T) {
	tests := []struct {
		name string
		in   *waE2E.Message
		want model.Payload
	}{
		{"nil", nil, nil},
		{"conversation", &waE2E.Message{Conversation: proto.String(".r")}, model.Conversation{Text: ".r"}},
		{
			"reply to text",
			&waE2E.Message{ExtendedTextMessage: &waE2E.ExtendedTextMessage{
				Text: proto.String(".m"),
				ContextInfo: &waE2E.ContextInfo{
					QuotedMessage: &waE2E.Message{Conversation: proto.String("ada soto?")},
				},
			}},
			model.ExtendedText{Text: ".m", Quoted: model.Conversation{Text: "ada soto?"}},
		},
		{
			"reply to image",
			&waE2E.Message{ExtendedTextMessage: &waE2E.ExtendedTextMessage{
				Text: proto.String(".M"),
				ContextInfo: &waE2E.ContextInfo{
					QuotedMessage: &waE2E.Message{ImageMessage: &waE2E.ImageMessage{Caption: proto.String("ini berapa?")}},
				},
			}},
			model.ExtendedText{Text: ".M", Quoted: model.Image{Caption: "ini berapa?"}},
		},
		{
			"extended text without quote",
			&waE2E.Message{ExtendedTextMessage: &waE2E.ExtendedTextMessage{Text: proto.String("https://example.com")}},
			model.ExtendedText{Text: "https://example.com"},
		},
		{"image", &waE2E.Message{ImageMessage: &waE2E.ImageMessage{Caption: proto.String("foto")}}, model.Image{Caption: "foto"}},
		{"video", &waE2E.Message{VideoMessage: &waE2E.VideoMessage{}}, model.Video{}},
		{"sticker", &waE2E.Message{StickerMessage: &waE2E.StickerMessage{}}, model.Other{Type: "sticker"}},
		{"protocol", &waE2E.Message{ProtocolMessage: &waE2E.ProtocolMessage{}}, nil},
		{"sender key stub", &waE2E.Message{SenderKeyDistributionMessage: &waE2E.SenderKeyDistributionMessage{}}, nil},
		{"empty", &waE2E.Message{}, model.Other{Type: "unknown"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConvertPayload(tt.in))
		})
	}
}

func TestConvertMessage(t *testing.T) {
	chat := types.NewJID("6281234567890", types.DefaultUserServer)
	evt := &events.Message{
		Info: types.MessageInfo{
			MessageSource: types.MessageSource{Chat: chat, Sender: chat, IsFromMe: true},
			ID:            "3EB0ABCDEF",
			PushName:      "Owner",
		},
		Message: &waE2E.Message{Conversation: proto.String(".r")},
	}

	msg := ConvertMessage(evt)

	assert.Equal(t, model.MessageKey{RemoteJID: "6281234567890@s.whatsapp.net", FromMe: true, ID: "3EB0ABCDEF"}, msg.Key)
	assert.Equal(t, "Owner", msg.PushName)
	assert.Equal(t, model.Conversation{Text: ".r"}, msg.Payload)
}

func TestConvertMessageGroup(t *testing.T) {
	group := types.NewJID("120363025246125888", types.GroupServer)
	sender := types.NewJID("6289876543210", types.DefaultUserServer)
	evt := &events.Message{
		Info: types.MessageInfo{
			MessageSource: types.MessageSource{Chat: group, Sender: sender, IsGroup: true},
			ID:            "ID1",
		},
		Message: &waE2E.Message{Conversation: proto.String("halo")},
	}

	msg := ConvertMessage(evt)

	assert.Equal(t, "120363025246125888@g.us", msg.Key.RemoteJID)
	assert.Equal(t, "6289876543210@s.whatsapp.net", msg.Key.Participant)
	assert.Equal(t, msg.Key.Participant, msg.Key.Sender())
}

func TestConvertMessageEdit(t *testing.T) {
	chat := types.NewJID("6281234567890", types.DefaultUserServer)
	evt := &events.Message{
		Info:    types.MessageInfo{MessageSource: types.MessageSource{Chat: chat, IsFromMe: true}, ID: "E1"},
		Message: &waE2E.Message{Conversation: proto.String(".m")},
		IsEdit:  true,
	}

	assert.Equal(t, model.Other{Type: "edit"}, ConvertMessage(evt).Payload)
}
