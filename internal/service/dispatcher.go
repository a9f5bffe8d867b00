package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/lifanwar/warung22/internal/helper"
	"github.com/lifanwar/warung22/internal/model"
	"github.com/rs/zerolog"
)

// Owner commands, compared case-insensitively.
const (
	CommandMenu    = ".m"
	CommandRefresh = ".r"
)

// Texts written into the command message.
const (
	RefreshLoadingText = "⏳ Refreshing cache..."
	RefreshFailedText  = "❌ Failed to refresh cache. Please try again."
	MenuUsageText      = "⚠️ Reply pesan customer dengan .m"
	MenuLoadingText    = "⏳ Sedang mencari pesanan..."
	MaintenanceText    = "⚠️ Bot sedang maintenance. Silakan coba lagi nanti."
)

// Backend is the part of BackendClient the dispatcher needs.
type Backend interface {
	Ask(ctx context.Context, question string) (string, bool)
	RefreshCache(ctx context.Context) (*model.RefreshResult, bool)
}

// MessengerSource hands out the messenger of the live session.
type MessengerSource interface {
	Messenger() (Messenger, bool)
}

// Dispatcher turns owner commands into backend calls and edits the command
// message with the outcome.
type Dispatcher struct {
	BrandName string

	backend  Backend
	sessions MessengerSource
	webhook  *WebhookNotifier
	log      zerolog.Logger
}

func NewDispatcher(backend Backend, sessions MessengerSource, webhook *WebhookNotifier, brand string, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		BrandName: brand,
		backend:   backend,
		sessions:  sessions,
		webhook:   webhook,
		log:       log.With().Str("component", "dispatcher").Logger(),
	}
}

// Classify derives the owner command carried by msg. Messages from other
// people never yield a command.
func Classify(msg model.InboundMessage) model.Command {
	if !msg.Key.FromMe {
		return model.Command{Kind: model.CommandNone}
	}

	text, ok := helper.GetText(msg)
	if !ok {
		return model.Command{Kind: model.CommandNone}
	}

	switch {
	case strings.EqualFold(text, CommandRefresh):
		return model.Command{Kind: model.CommandRefreshCache}
	case strings.EqualFold(text, CommandMenu):
		quoted, _ := helper.GetQuoted(msg)
		return model.Command{Kind: model.CommandAskMenu, Quoted: quoted}
	default:
		return model.Command{Kind: model.CommandNone}
	}
}

// HandleEvent processes a batch sequentially. Only live notifications are
// handled; history sync batches are ignored.
func (d *Dispatcher) HandleEvent(ctx context.Context, evt model.InboundEvent) {
	if evt.BatchType != model.BatchNotify {
		return
	}

	for _, msg := range evt.Messages {
		if msg.Payload == nil {
			continue
		}
		d.handleMessage(ctx, msg)
	}
}

func (d *Dispatcher) handleMessage(ctx context.Context, msg model.InboundMessage) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Interface("panic", r).Str("id", msg.Key.ID).Msg("Recovered while handling message")
		}
	}()

	if !msg.Key.FromMe {
		d.observeIncoming(msg)
		return
	}

	cmd := Classify(msg)
	if cmd.Kind == model.CommandNone {
		return
	}

	messenger, ok := d.sessions.Messenger()
	if !ok {
		d.log.Warn().Str("command", cmd.Kind.String()).Msg("No active session, dropping command")
		return
	}

	switch cmd.Kind {
	case model.CommandRefreshCache:
		d.refreshCache(ctx, messenger, msg.Key)
	case model.CommandAskMenu:
		d.askMenu(ctx, messenger, msg.Key, cmd.Quoted)
	}
}

func (d *Dispatcher) observeIncoming(msg model.InboundMessage) {
	text, _ := helper.GetText(msg)
	sender := msg.Key.Sender()
	phone := helper.ExtractPhoneFromJID(sender)

	d.log.Info().
		Str("from", phone).
		Bool("group", helper.IsGroupJID(msg.Key.RemoteJID)).
		Msgf("📩 Pesan MASUK dari %s: %q", phone, text)

	d.webhook.Notify(EventIncomingMessage, model.IncomingMessageData{
		Chat:     msg.Key.RemoteJID,
		Sender:   sender,
		Phone:    phone,
		PushName: msg.PushName,
		Text:     text,
		ID:       msg.Key.ID,
	})
}

func (d *Dispatcher) refreshCache(ctx context.Context, m Messenger, key model.MessageKey) {
	d.log.Info().Msg("🔄 Refresh cache requested...")
	d.edit(ctx, m, key, RefreshLoadingText)

	result, ok := d.backend.RefreshCache(ctx)
	if !ok {
		d.edit(ctx, m, key, RefreshFailedText)
		d.log.Warn().Msg("❌ Refresh failed")
		return
	}

	d.edit(ctx, m, key, FormatRefreshResult(result))
	d.log.Info().
		Int("categories", result.CategoriesCount).
		Int("items", result.ItemsCount).
		Msg("✅ Cache refreshed")
}

func (d *Dispatcher) askMenu(ctx context.Context, m Messenger, key model.MessageKey, quoted string) {
	if quoted == "" {
		d.edit(ctx, m, key, MenuUsageText)
		return
	}

	d.log.Info().Msgf("📝 Question: %q", quoted)
	d.edit(ctx, m, key, MenuLoadingText)

	answer, ok := d.backend.Ask(ctx, quoted)
	if !ok {
		d.edit(ctx, m, key, MaintenanceText)
		d.log.Warn().Msg("⚠️ API failed")
		return
	}

	d.edit(ctx, m, key, FormatAnswer(d.BrandName, answer))
	d.log.Info().Msg("✅ Response sent")
}

// edit failures are logged; the command sequence carries on so later
// messages are never blocked by one broken edit.
func (d *Dispatcher) edit(ctx context.Context, m Messenger, key model.MessageKey, text string) {
	if err := m.EditMessage(ctx, key, text); err != nil {
		d.log.Error().Err(err).Str("chat", key.RemoteJID).Str("id", key.ID).Msg("Failed to edit message")
	}
}

func FormatAnswer(brand, answer string) string {
	return fmt.Sprintf("🤖 *%s*\n\n%s", brand, answer)
}

func FormatRefreshResult(r *model.RefreshResult) string {
	return fmt.Sprintf("✅ *Cache Updated*\n\n📦 Categories: %d\n🍽️ Items: %d\n\n%s",
		r.CategoriesCount, r.ItemsCount, r.Message)
}
