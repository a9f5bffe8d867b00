package helper

import "github.com/lifanwar/warung22/internal/model"

// GetText returns the plain text typed in the message itself: the
// conversation text, else the extended-text body.
func GetText(msg model.InboundMessage) (string, bool) {
	switch p := msg.Payload.(type) {
	case model.Conversation:
		return nonEmpty(p.Text)
	case model.ExtendedText:
		return nonEmpty(p.Text)
	case model.Image, model.Video, model.Other, nil:
		return "", false
	default:
		return "", false
	}
}

// GetQuoted returns the text of the message being replied to. Captions of
// quoted images and videos count as text.
func GetQuoted(msg model.InboundMessage) (string, bool) {
	ext, ok := msg.Payload.(model.ExtendedText)
	if !ok || ext.Quoted == nil {
		return "", false
	}

	switch q := ext.Quoted.(type) {
	case model.Conversation:
		return nonEmpty(q.Text)
	case model.ExtendedText:
		return nonEmpty(q.Text)
	case model.Image:
		return nonEmpty(q.Caption)
	case model.Video:
		return nonEmpty(q.Caption)
	case model.Other:
		return "", false
	default:
		return "", false
	}
}

func nonEmpty(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	return s, true
}
