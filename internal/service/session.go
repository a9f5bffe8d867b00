package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lifanwar/warung22/internal/model"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrLoggedOut is returned by Run when the device was unlinked. The
	// process should stay up without a session until an operator re-pairs.
	ErrLoggedOut = errors.New("session logged out")

	ErrPairingUnavailable = errors.New("pairing surface unavailable")
)

const (
	DefaultReconnectDelay = 3 * time.Second

	inboundQueueSize   = 64
	pairingStopTimeout = 5 * time.Second
)

// EventHandler receives the normalized events of a Client:
// *model.ConnectionUpdate, *model.CredentialsUpdate,
// *model.IdentityMappingUpdate and *model.InboundEvent.
type EventHandler func(evt interface{})

// Messenger rewrites the text of an existing message.
type Messenger interface {
	EditMessage(ctx context.Context, key model.MessageKey, text string) error
}

// Client is one connection to the messaging network.
type Client interface {
	Messenger

	// AddEventHandler registers h and returns a func that removes it again.
	AddEventHandler(h EventHandler) (remove func())
	Connect(ctx context.Context) error
	Disconnect()
	SaveCredentials(ctx context.Context) error
}

// Dialer builds a fresh Client from the persisted credentials and reports
// the negotiated protocol version.
type Dialer interface {
	Dial(ctx context.Context) (Client, model.ProtocolVersion, error)
}

// PairingSurface is the local page that renders the pairing code.
type PairingSurface interface {
	Start() error
	Stop(ctx context.Context) error
	ShowCode(code string)
	ShowState(s model.Session)
}

// InboundHandler processes one inbound batch to completion.
type InboundHandler func(ctx context.Context, evt model.InboundEvent)

// Backoff returns the wait before reconnect attempt n (n >= 1).
type Backoff func(attempt int) time.Duration

func FixedBackoff(d time.Duration) Backoff {
	return func(int) time.Duration { return d }
}

// activeSession is the single live handle. It is replaced, never reused,
// on reconnect.
type activeSession struct {
	client Client
	opened bool
	closed chan model.DisconnectCause
	once   sync.Once
}

func (s *activeSession) close(cause model.DisconnectCause) {
	s.once.Do(func() {
		s.closed <- cause
	})
}

// SessionManager owns the connection to WhatsApp and keeps it alive.
type SessionManager struct {
	// Backoff defaults to FixedBackoff(DefaultReconnectDelay). Set before Run.
	Backoff Backoff

	id      string
	dialer  Dialer
	pairing PairingSurface
	log     zerolog.Logger
	after   func(time.Duration) <-chan time.Time
	inbound chan model.InboundEvent

	mu      sync.RWMutex
	current *activeSession
	status  model.Session
}

func NewSessionManager(id string, dialer Dialer, pairing PairingSurface, log zerolog.Logger) *SessionManager {
	return &SessionManager{
		Backoff: FixedBackoff(DefaultReconnectDelay),
		id:      id,
		dialer:  dialer,
		pairing: pairing,
		log:     log.With().Str("component", "session").Str("session", id).Logger(),
		after:   time.After,
		inbound: make(chan model.InboundEvent, inboundQueueSize),
		status:  model.Session{ID: id, State: model.StateClosed},
	}
}

// Run connects and reconnects until ctx is cancelled, the device is
// logged out (ErrLoggedOut) or the pairing surface cannot be bound.
// Inbound batches are handed to handle one at a time, in arrival order.
func (m *SessionManager) Run(ctx context.Context, handle InboundHandler) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m.dispatchLoop(gctx, handle)
		return nil
	})
	g.Go(func() error {
		defer cancel()
		return m.supervise(gctx)
	})
	return g.Wait()
}

// Status returns a snapshot of the current session.
func (m *SessionManager) Status() model.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Messenger returns the client of the live session, if any. Callers must
// not keep it beyond the message they are handling.
func (m *SessionManager) Messenger() (Messenger, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return nil, false
	}
	return m.current.client, true
}

func (m *SessionManager) supervise(ctx context.Context) error {
	attempt := 0
	for {
		cause, opened, err := m.runSession(ctx, attempt)
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}

		if cause.Terminal() {
			m.log.Warn().Msg("✗ Logged out. Not reconnecting, pair the device again and restart the process")
			return ErrLoggedOut
		}

		if opened {
			attempt = 0
		}
		attempt++
		delay := m.Backoff(attempt)
		m.log.Warn().
			Str("cause", string(cause)).
			Int("attempt", attempt).
			Dur("delay", delay).
			Msg("Connection closed, reconnecting: true")

		select {
		case <-ctx.Done():
			return nil
		case <-m.after(delay):
		}
	}
}

// runSession drives one session from dial to close and tears it down
// completely before returning.
func (m *SessionManager) runSession(ctx context.Context, attempt int) (model.DisconnectCause, bool, error) {
	if err := m.pairing.Start(); err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrPairingUnavailable, err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), pairingStopTimeout)
		defer cancel()
		if err := m.pairing.Stop(stopCtx); err != nil {
			m.log.Warn().Err(err).Msg("Failed to stop pairing server")
		}
	}()

	m.setStatus(model.Session{ID: m.id, State: model.StateConnecting, Attempt: attempt})

	client, version, err := m.dialer.Dial(ctx)
	if err != nil {
		m.log.Error().Err(err).Msg("Failed to create WhatsApp client")
		m.markClosed(nil, model.CauseConnectFailed)
		return model.CauseConnectFailed, false, nil
	}
	m.log.Info().Msgf("Using WA v%s, latest: %v", version, version.Latest)

	sess := &activeSession{
		client: client,
		closed: make(chan model.DisconnectCause, 1),
	}
	m.mu.Lock()
	m.current = sess
	m.status.Version = version
	m.mu.Unlock()

	removers := m.subscribe(ctx, sess)

	if err := client.Connect(ctx); err != nil {
		m.log.Error().Err(err).Msg("Failed to connect")
		sess.close(model.CauseConnectFailed)
	}

	var cause model.DisconnectCause
	select {
	case cause = <-sess.closed:
	case <-ctx.Done():
		cause = model.CauseShutdown
	}

	for _, remove := range removers {
		remove()
	}
	client.Disconnect()
	m.markClosed(sess, cause)

	m.mu.RLock()
	opened := sess.opened
	m.mu.RUnlock()
	return cause, opened, nil
}

func (m *SessionManager) subscribe(ctx context.Context, sess *activeSession) []func() {
	c := sess.client
	return []func(){
		c.AddEventHandler(func(evt interface{}) {
			if u, ok := evt.(*model.ConnectionUpdate); ok {
				m.onConnectionUpdate(sess, u)
			}
		}),
		c.AddEventHandler(func(evt interface{}) {
			if u, ok := evt.(*model.CredentialsUpdate); ok {
				m.onCredentialsUpdate(ctx, sess, u)
			}
		}),
		c.AddEventHandler(func(evt interface{}) {
			if u, ok := evt.(*model.IdentityMappingUpdate); ok {
				m.log.Info().Str("jid", u.JID).Bool("implicit", u.Implicit).Msg("LID mapping updated")
			}
		}),
		c.AddEventHandler(func(evt interface{}) {
			if e, ok := evt.(*model.InboundEvent); ok {
				m.enqueue(ctx, *e)
			}
		}),
	}
}

func (m *SessionManager) onConnectionUpdate(sess *activeSession, u *model.ConnectionUpdate) {
	m.mu.Lock()
	if m.current != sess {
		m.mu.Unlock()
		return
	}
	switch u.State {
	case model.StateConnecting:
		m.status.State = model.StateConnecting
		if u.PairingCode != "" {
			m.status.PairingCode = u.PairingCode
		}
	case model.StateOpen:
		now := time.Now().UTC()
		sess.opened = true
		m.status.State = model.StateOpen
		m.status.PairingCode = ""
		m.status.ConnectedAt = &now
		if u.JID != "" {
			m.status.JID = u.JID
		}
	case model.StateClosed:
		m.status.State = model.StateClosed
		m.status.LastDisconnect = u.Cause
	}
	snapshot := m.status
	m.mu.Unlock()

	switch u.State {
	case model.StateConnecting:
		if u.PairingCode != "" {
			m.log.Info().Msg("📱 New pairing code, scan it from the pairing page")
			m.pairing.ShowCode(u.PairingCode)
		}
	case model.StateOpen:
		m.log.Info().Str("jid", snapshot.JID).Msg("✅ Connection opened")
		m.log.Info().Msg("📋 Commands: .m (reply to message) | .r (refresh menu cache)")
	case model.StateClosed:
		m.log.Warn().Str("cause", string(u.Cause)).Str("detail", u.Detail).Msg("⚠ Connection closed")
		sess.close(u.Cause)
	}
	m.pairing.ShowState(snapshot)
}

// onCredentialsUpdate persists key material before the handler returns, so
// nothing is sent with credentials that only live in memory.
func (m *SessionManager) onCredentialsUpdate(ctx context.Context, sess *activeSession, u *model.CredentialsUpdate) {
	if err := sess.client.SaveCredentials(ctx); err != nil {
		m.log.Error().Err(err).Str("reason", u.Reason).Msg("Failed to save credentials")
		return
	}
	m.log.Debug().Str("reason", u.Reason).Msg("Credentials saved")
}

func (m *SessionManager) enqueue(ctx context.Context, evt model.InboundEvent) {
	select {
	case m.inbound <- evt:
	case <-ctx.Done():
	}
}

// dispatchLoop is the only goroutine that handles inbound batches. Commands
// already running finish even after ctx is cancelled.
func (m *SessionManager) dispatchLoop(ctx context.Context, handle InboundHandler) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-m.inbound:
			handle(context.WithoutCancel(ctx), evt)
		}
	}
}

func (m *SessionManager) setStatus(s model.Session) {
	m.mu.Lock()
	m.status = s
	m.mu.Unlock()
	m.pairing.ShowState(s)
}

func (m *SessionManager) markClosed(sess *activeSession, cause model.DisconnectCause) {
	m.mu.Lock()
	if m.current == sess {
		m.current = nil
	}
	m.status.State = model.StateClosed
	m.status.PairingCode = ""
	m.status.LastDisconnect = cause
	snapshot := m.status
	m.mu.Unlock()
	m.pairing.ShowState(snapshot)
}
