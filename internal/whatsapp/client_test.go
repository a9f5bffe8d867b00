package whatsapp

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lifanwar/warung22/internal/model"
	"github.com/lifanwar/warung22/internal/service"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"go.uber.org/goleak"
	"google.golang.org/protobuf/proto"
)

// newOfflineClient builds an adapter without a whatsmeow client; enough for
// every event that does not read the device store.
func newOfflineClient() *Client {
	return &Client{
		log:          zerolog.Nop(),
		handlers:     make(map[int]service.EventHandler),
		loginTimeout: defaultLoginTimeout,
		connected:    make(chan struct{}),
	}
}

type recorder struct {
	mu     sync.Mutex
	events []interface{}
}

func (r *recorder) handle(evt interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recorder) snapshot() []interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]interface{}(nil), r.events...)
}

func TestTranslateConnectionEvents(t *testing.T) {
	tests := []struct {
		name  string
		raw   interface{}
		cause model.DisconnectCause
	}{
		{"logged out", &events.LoggedOut{Reason: events.ConnectFailureLoggedOut}, model.CauseLoggedOut},
		{"connect failure logout", &events.ConnectFailure{Reason: events.ConnectFailureLoggedOut}, model.CauseLoggedOut},
		{"connect failure generic", &events.ConnectFailure{Reason: events.ConnectFailureGeneric, Message: "bad"}, model.CauseConnectFailed},
		{"stream replaced", &events.StreamReplaced{}, model.CauseConflict},
		{"temporary ban", &events.TemporaryBan{Code: 101, Expire: time.Hour}, model.CauseBanned},
		{"client outdated", &events.ClientOutdated{}, model.CauseOutdated},
		{"disconnected", &events.Disconnected{}, model.CauseConnectionLost},
		{
			"keepalive dead socket",
			&events.KeepAliveTimeout{ErrorCount: 12, LastSuccess: time.Now().Add(-10 * time.Minute)},
			model.CauseConnectionLost,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := newOfflineClient().translate(tt.raw)
			require.Len(t, out, 1)

			u, ok := out[0].(*model.ConnectionUpdate)
			require.True(t, ok)
			assert.Equal(t, model.StateClosed, u.State)
			assert.Equal(t, tt.cause, u.Cause)
			assert.Equal(t, tt.cause == model.CauseLoggedOut, u.Cause.Terminal())
		})
	}
}

func TestTranslateKeepAliveWithinGrace(t *testing.T) {
	c := newOfflineClient()
	evt := &events.KeepAliveTimeout{ErrorCount: 1, LastSuccess: time.Now().Add(-30 * time.Second)}
	require.Less(t, 30*time.Second, whatsmeow.KeepAliveMaxFailTime)

	assert.Empty(t, c.translate(evt))
}

func TestHandleRawDeadSocketClosesOnce(t *testing.T) {
	c := newOfflineClient()
	rec := &recorder{}
	c.AddEventHandler(rec.handle)

	c.handleRaw(&events.KeepAliveTimeout{ErrorCount: 40, LastSuccess: time.Now().Add(-10 * time.Minute)})

	got := rec.snapshot()
	require.Len(t, got, 1)
	assert.Equal(t, model.CauseConnectionLost, got[0].(*model.ConnectionUpdate).Cause)
}

func TestTranslateOtherEvents(t *testing.T) {
	c := newOfflineClient()
	now := time.Now()

	out := c.translate(&events.IdentityChange{JID: types.NewJID("123", types.HiddenUserServer), Timestamp: now, Implicit: true})
	require.Len(t, out, 1)
	assert.Equal(t, &model.IdentityMappingUpdate{JID: "123@lid", Implicit: true, Timestamp: now}, out[0])

	chat := types.NewJID("6281234567890", types.DefaultUserServer)
	out = c.translate(&events.Message{
		Info:    types.MessageInfo{MessageSource: types.MessageSource{Chat: chat, IsFromMe: true}, ID: "M1"},
		Message: &waE2E.Message{Conversation: proto.String(".r")},
	})
	require.Len(t, out, 1)
	batch := out[0].(*model.InboundEvent)
	assert.Equal(t, model.BatchNotify, batch.BatchType)
	require.Len(t, batch.Messages, 1)
	assert.Equal(t, model.Conversation{Text: ".r"}, batch.Messages[0].Payload)

	assert.Nil(t, c.translate(&events.Receipt{}))
}

func TestAwaitLoginTimesOut(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	c := newOfflineClient()
	c.loginTimeout = 10 * time.Millisecond
	rec := &recorder{}
	c.AddEventHandler(rec.handle)

	c.awaitLogin(context.Background())

	got := rec.snapshot()
	require.Len(t, got, 1)
	u := got[0].(*model.ConnectionUpdate)
	assert.Equal(t, model.StateClosed, u.State)
	assert.Equal(t, model.CauseConnectionLost, u.Cause)
}

func TestAwaitLoginConnected(t *testing.T) {
	c := newOfflineClient()
	c.loginTimeout = time.Hour
	rec := &recorder{}
	c.AddEventHandler(rec.handle)

	c.markConnected()
	c.markConnected()
	c.awaitLogin(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fresh := newOfflineClient()
	fresh.loginTimeout = time.Hour
	fresh.AddEventHandler(rec.handle)
	fresh.awaitLogin(ctx)

	assert.Empty(t, rec.snapshot())
}
