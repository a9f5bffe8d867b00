package helper

import (
	"testing"

	"github.com/lifanwar/warung22/internal/model"
	"github.com/stretchr/testify/assert"
)

func msgWith(p model.Payload) model.InboundMessage {
	return model.InboundMessage{
		Key:     model.MessageKey{RemoteJID: "6281234567890@s.whatsapp.net", FromMe: true, ID: "ABC"},
		Payload: p,
	}
}

func TestGetText(t *testing.T) {
	tests := []struct {
		name    string
		payload model.Payload
		want    string
		wantOK  bool
	}{
		{"conversation", model.Conversation{Text: ".m"}, ".m", true},
		{"extended text", model.ExtendedText{Text: ".R", Quoted: model.Conversation{Text: "hi"}}, ".R", true},
		{"empty conversation", model.Conversation{}, "", false},
		{"image caption is not text", model.Image{Caption: ".m"}, "", false},
		{"video caption is not text", model.Video{Caption: ".m"}, "", false},
		{"other", model.Other{Type: "sticker"}, "", false},
		{"nil payload", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := GetText(msgWith(tt.payload))
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetQuoted(t *testing.T) {
	tests := []struct {
		name    string
		payload model.Payload
		want    string
		wantOK  bool
	}{
		{"quoted conversation", model.ExtendedText{Text: ".m", Quoted: model.Conversation{Text: "ada nasi goreng?"}}, "ada nasi goreng?", true},
		{"quoted extended text", model.ExtendedText{Text: ".m", Quoted: model.ExtendedText{Text: "menu hari ini"}}, "menu hari ini", true},
		{"quoted image caption", model.ExtendedText{Text: ".m", Quoted: model.Image{Caption: "yang ini berapa?"}}, "yang ini berapa?", true},
		{"quoted video caption", model.ExtendedText{Text: ".m", Quoted: model.Video{Caption: "ini apa?"}}, "ini apa?", true},
		{"quoted image without caption", model.ExtendedText{Text: ".m", Quoted: model.Image{}}, "", false},
		{"quoted other", model.ExtendedText{Text: ".m", Quoted: model.Other{Type: "sticker"}}, "", false},
		{"no quote", model.ExtendedText{Text: ".m"}, "", false},
		{"plain conversation", model.Conversation{Text: ".m"}, "", false},
		{"nil payload", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := GetQuoted(msgWith(tt.payload))
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetTextIsPure(t *testing.T) {
	msg := msgWith(model.ExtendedText{Text: "Halo", Quoted: model.Conversation{Text: "x"}})

	first, _ := GetText(msg)
	second, _ := GetText(msg)
	assert.Equal(t, first, second)

	// Case is preserved; command matching is the caller's business.
	assert.Equal(t, "Halo", first)
}
