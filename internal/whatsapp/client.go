package whatsapp

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lifanwar/warung22/internal/model"
	"github.com/lifanwar/warung22/internal/service"
	"github.com/rs/zerolog"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"
)

// Pairing success is followed by a server-forced reconnect inside
// whatsmeow; if that fails no event is dispatched, so the session is closed
// when Connected does not arrive within this bound.
const defaultLoginTimeout = 30 * time.Second

// Client adapts a whatsmeow client to service.Client. Raw whatsmeow events
// are translated once and fanned out to the registered handlers.
type Client struct {
	cli *whatsmeow.Client
	log zerolog.Logger

	mu       sync.RWMutex
	handlers map[int]service.EventHandler
	nextID   int

	rawHandlerID uint32
	cancelQR     context.CancelFunc

	loginTimeout  time.Duration
	connectedOnce sync.Once
	connected     chan struct{}
}

var _ service.Client = (*Client)(nil)

func newClient(cli *whatsmeow.Client, log zerolog.Logger) *Client {
	c := &Client{
		cli:          cli,
		log:          log,
		handlers:     make(map[int]service.EventHandler),
		loginTimeout: defaultLoginTimeout,
		connected:    make(chan struct{}),
	}
	c.rawHandlerID = cli.AddEventHandler(c.handleRaw)
	return c
}

func (c *Client) AddEventHandler(h service.EventHandler) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.handlers[id] = h
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.handlers, id)
		c.mu.Unlock()
	}
}

// Connect opens the socket. An unpaired device first gets a QR channel,
// whose codes are emitted as connecting updates.
func (c *Client) Connect(ctx context.Context) error {
	if c.cli.Store.ID == nil {
		qrCtx, cancel := context.WithCancel(ctx)
		qrChan, err := c.cli.GetQRChannel(qrCtx)
		if err != nil {
			cancel()
			return fmt.Errorf("get QR channel: %w", err)
		}
		c.mu.Lock()
		c.cancelQR = cancel
		c.mu.Unlock()
		go c.watchQR(qrCtx, qrChan)
	}

	if err := c.cli.Connect(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	return nil
}

func (c *Client) Disconnect() {
	c.mu.Lock()
	cancel := c.cancelQR
	c.cancelQR = nil
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	c.cli.RemoveEventHandler(c.rawHandlerID)
	c.cli.Disconnect()
}

func (c *Client) SaveCredentials(ctx context.Context) error {
	if err := c.cli.Store.Save(ctx); err != nil {
		return fmt.Errorf("save device store: %w", err)
	}
	return nil
}

// EditMessage replaces the text of the message identified by key.
func (c *Client) EditMessage(ctx context.Context, key model.MessageKey, text string) error {
	chat, err := types.ParseJID(key.RemoteJID)
	if err != nil {
		return fmt.Errorf("parse chat jid %q: %w", key.RemoteJID, err)
	}

	edit := c.cli.BuildEdit(chat, types.MessageID(key.ID), &waE2E.Message{
		Conversation: proto.String(text),
	})
	if _, err := c.cli.SendMessage(ctx, chat, edit); err != nil {
		return fmt.Errorf("send edit: %w", err)
	}
	return nil
}

func (c *Client) watchQR(ctx context.Context, qrChan <-chan whatsmeow.QRChannelItem) {
	for evt := range qrChan {
		switch {
		case evt.Event == "code":
			c.emit(&model.ConnectionUpdate{State: model.StateConnecting, PairingCode: evt.Code})
		case evt.Event == "success":
			c.log.Info().Msg("✓ QR Scanned! Pairing successful")
			go c.awaitLogin(ctx)
		case evt.Event == "timeout":
			c.emit(&model.ConnectionUpdate{State: model.StateClosed, Cause: model.CauseTimedOut, Detail: "QR code was not scanned in time"})
		case evt.Event == "error":
			c.emit(&model.ConnectionUpdate{State: model.StateClosed, Cause: model.CauseConnectFailed, Detail: fmt.Sprint(evt.Error)})
		case strings.HasPrefix(evt.Event, "err-"):
			c.emit(&model.ConnectionUpdate{State: model.StateClosed, Cause: model.CauseConnectFailed, Detail: evt.Event})
		}
	}
}

// awaitLogin closes the session when the login that follows pairing never
// completes.
func (c *Client) awaitLogin(ctx context.Context) {
	timer := time.NewTimer(c.loginTimeout)
	defer timer.Stop()

	select {
	case <-c.connected:
	case <-ctx.Done():
	case <-timer.C:
		c.log.Warn().Dur("timeout", c.loginTimeout).Msg("No login after pairing")
		c.emit(closed(model.CauseConnectionLost, "login after pairing timed out"))
	}
}

func (c *Client) markConnected() {
	c.connectedOnce.Do(func() { close(c.connected) })
}

func (c *Client) handleRaw(raw interface{}) {
	for _, evt := range c.translate(raw) {
		c.emit(evt)
	}
}

func (c *Client) emit(evt interface{}) {
	c.mu.RLock()
	handlers := make([]service.EventHandler, 0, len(c.handlers))
	for _, h := range c.handlers {
		handlers = append(handlers, h)
	}
	c.mu.RUnlock()

	for _, h := range handlers {
		h(evt)
	}
}

func closed(cause model.DisconnectCause, detail string) *model.ConnectionUpdate {
	return &model.ConnectionUpdate{State: model.StateClosed, Cause: cause, Detail: detail}
}

func (c *Client) translate(raw interface{}) []interface{} {
	switch evt := raw.(type) {
	case *events.Connected:
		c.markConnected()
		jid := ""
		if c.cli.Store.ID != nil {
			jid = c.cli.Store.ID.String()
		}
		return []interface{}{&model.ConnectionUpdate{State: model.StateOpen, JID: jid}}

	case *events.PairSuccess:
		c.log.Info().Str("jid", evt.ID.String()).Str("platform", evt.Platform).Msg("✓ Pair Success!")
		return []interface{}{&model.CredentialsUpdate{Reason: "pair_success"}}

	case *events.LoggedOut:
		return []interface{}{closed(model.CauseLoggedOut, fmt.Sprint(evt.Reason))}

	case *events.ConnectFailure:
		if evt.Reason.IsLoggedOut() {
			return []interface{}{closed(model.CauseLoggedOut, fmt.Sprint(evt.Reason))}
		}
		return []interface{}{closed(model.CauseConnectFailed, fmt.Sprintf("%v: %s", evt.Reason, evt.Message))}

	case *events.StreamReplaced:
		return []interface{}{closed(model.CauseConflict, "stream replaced by another connection")}

	case *events.TemporaryBan:
		return []interface{}{closed(model.CauseBanned, fmt.Sprintf("code %v, expires in %s", evt.Code, evt.Expire))}

	case *events.ClientOutdated:
		return []interface{}{closed(model.CauseOutdated, "client version rejected by server")}

	case *events.Disconnected:
		return []interface{}{closed(model.CauseConnectionLost, "websocket disconnected")}

	case *events.KeepAliveTimeout:
		// Auto-reconnect is off, so whatsmeow never drops a dead socket by
		// itself.
		if !evt.LastSuccess.IsZero() && time.Since(evt.LastSuccess) > whatsmeow.KeepAliveMaxFailTime {
			return []interface{}{closed(model.CauseConnectionLost, "keepalive failed")}
		}
		c.log.Debug().Int("errors", evt.ErrorCount).Msg("Keepalive timeout")
		return nil

	case *events.IdentityChange:
		return []interface{}{&model.IdentityMappingUpdate{
			JID:       evt.JID.String(),
			Implicit:  evt.Implicit,
			Timestamp: evt.Timestamp,
		}}

	case *events.Message:
		return []interface{}{&model.InboundEvent{
			BatchType: model.BatchNotify,
			Messages:  []model.InboundMessage{ConvertMessage(evt)},
		}}

	case *events.HistorySync:
		return []interface{}{c.convertHistory(evt)}
	}
	return nil
}

func (c *Client) convertHistory(evt *events.HistorySync) *model.InboundEvent {
	out := &model.InboundEvent{BatchType: model.BatchAppend}
	for _, conv := range evt.Data.GetConversations() {
		chat, err := types.ParseJID(conv.GetID())
		if err != nil {
			continue
		}
		for _, hm := range conv.GetMessages() {
			msg, err := c.cli.ParseWebMessage(chat, hm.GetMessage())
			if err != nil {
				continue
			}
			out.Messages = append(out.Messages, ConvertMessage(msg))
		}
	}
	return out
}
