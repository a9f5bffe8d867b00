package handler

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/lifanwar/warung22/internal/model"
	"github.com/lifanwar/warung22/internal/ws"
	"github.com/rs/zerolog"
)

//go:embed templates/*.html
var templateFS embed.FS

const qrImageBase = "https://api.qrserver.com/v1/create-qr-code/"

// QRImageURL builds the image URL rendered for a pairing code.
func QRImageURL(code string) string {
	return qrImageBase + "?data=" + url.QueryEscape(code) + "&size=300x300"
}

// upgrader untuk Gorilla
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type templateRenderer struct {
	templates *template.Template
}

func (t *templateRenderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return t.templates.ExecuteTemplate(w, name, data)
}

type pageData struct {
	Brand   string
	State   model.ConnectionState
	JID     string
	QRImage string
	Year    int
}

// PairingServer serves the pairing page. It is started and stopped with
// every session; each Start binds a fresh echo instance.
type PairingServer struct {
	addr   string
	brand  string
	hub    *ws.Hub
	status func() model.Session
	log    zerolog.Logger
	tmpl   *template.Template

	mu        sync.Mutex
	e         *echo.Echo
	lastState model.ConnectionState
	lastJID   string
}

func NewPairingServer(addr, brand string, hub *ws.Hub, status func() model.Session, log zerolog.Logger) *PairingServer {
	return &PairingServer{
		addr:   addr,
		brand:  brand,
		hub:    hub,
		status: status,
		log:    log.With().Str("component", "pairing").Logger(),
		tmpl:   template.Must(template.ParseFS(templateFS, "templates/*.html")),
	}
}

// Start binds the listener synchronously so a port conflict is reported to
// the caller, then serves in the background.
func (s *PairingServer) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}

	e := s.Routes()
	e.Listener = ln

	s.mu.Lock()
	s.e = e
	s.lastState = ""
	s.lastJID = ""
	s.mu.Unlock()

	go func() {
		if err := e.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("Pairing server stopped")
		}
	}()

	s.log.Info().Msgf("Server running on http://localhost:%d", ln.Addr().(*net.TCPAddr).Port)
	return nil
}

// Stop shuts the server down and disconnects pairing page websockets.
func (s *PairingServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	e := s.e
	s.e = nil
	s.mu.Unlock()

	if e == nil {
		return nil
	}
	s.hub.DropAll()
	if err := e.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown pairing server: %w", err)
	}
	return nil
}

// ShowCode pushes a rotated pairing code to open pages.
func (s *PairingServer) ShowCode(code string) {
	s.hub.Publish(ws.WsEvent{
		Event: ws.EventQRGenerated,
		Data: ws.QRGeneratedData{
			SessionID: s.status().ID,
			QRData:    code,
			QRImage:   QRImageURL(code),
		},
	})
}

// ShowState pushes state changes; repeated snapshots with the same state
// are not re-sent so the page does not reload on every QR rotation.
func (s *PairingServer) ShowState(sess model.Session) {
	s.mu.Lock()
	changed := sess.State != s.lastState || sess.JID != s.lastJID
	s.lastState = sess.State
	s.lastJID = sess.JID
	s.mu.Unlock()

	if !changed {
		return
	}
	s.hub.Publish(ws.WsEvent{
		Event: ws.EventConnectionUpdate,
		Data: ws.ConnectionUpdateData{
			SessionID:      sess.ID,
			State:          string(sess.State),
			JID:            sess.JID,
			LastDisconnect: string(sess.LastDisconnect),
		},
	})
}

// Routes builds the echo instance with every pairing route registered.
func (s *PairingServer) Routes() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = &templateRenderer{templates: s.tmpl}
	e.HTTPErrorHandler = s.errorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.log.Debug().Str("method", v.Method).Str("uri", v.URI).Int("status", v.Status).Msg("request")
			return nil
		},
	}))

	e.GET("/", s.Index)
	e.GET("/status", s.Status)
	e.GET("/ws", s.WebSocket)
	return e
}

func (s *PairingServer) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "Internal server error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		message = fmt.Sprint(he.Message)
	} else {
		s.log.Error().Err(err).Str("uri", c.Request().RequestURI).Msg("Unhandled error")
	}

	if err := ErrorResponse(c, code, message, http.StatusText(code), ""); err != nil {
		s.log.Debug().Err(err).Msg("Failed to write error response")
	}
}

// GET /
func (s *PairingServer) Index(c echo.Context) error {
	sess := s.status()
	data := pageData{
		Brand: s.brand,
		State: sess.State,
		JID:   sess.JID,
		Year:  time.Now().Year(),
	}
	if sess.PairingCode != "" {
		data.QRImage = QRImageURL(sess.PairingCode)
	}
	return c.Render(http.StatusOK, "index.html", data)
}

// GET /status
func (s *PairingServer) Status(c echo.Context) error {
	return SuccessResponse(c, http.StatusOK, "Status retrieved", s.status())
}

// GET /ws
func (s *PairingServer) WebSocket(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("ws upgrade error")
		return nil
	}

	client := ws.NewClient(s.hub, conn)
	if !s.hub.Register(client) {
		_ = conn.Close()
		return nil
	}

	go client.WritePump()
	go client.ReadPump()
	return nil
}
