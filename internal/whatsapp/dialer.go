package whatsapp

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/lifanwar/warung22/internal/model"
	"github.com/lifanwar/warung22/internal/service"
	"github.com/rs/zerolog"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waCompanionReg"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"
)

const versionCheckTimeout = 10 * time.Second

// Dialer creates whatsmeow clients backed by the credential store.
type Dialer struct {
	container  *sqlstore.Container
	httpClient *http.Client
	log        zerolog.Logger
}

var _ service.Dialer = (*Dialer)(nil)

func NewDialer(container *sqlstore.Container, log zerolog.Logger) *Dialer {
	// Linked device shows up as "Mac OS (Desktop)" on the phone.
	store.DeviceProps.Os = proto.String("Mac OS")
	store.DeviceProps.PlatformType = waCompanionReg.DeviceProps_DESKTOP.Enum()

	return &Dialer{
		container:  container,
		httpClient: &http.Client{Timeout: versionCheckTimeout},
		log:        log,
	}
}

// Dial loads the stored device (or a fresh one when nothing was paired
// yet), negotiates the WA Web version and builds a client with
// auto-reconnect disabled; reconnects belong to the SessionManager.
func (d *Dialer) Dial(ctx context.Context) (service.Client, model.ProtocolVersion, error) {
	device, err := d.container.GetFirstDevice(ctx)
	if err != nil {
		return nil, model.ProtocolVersion{}, fmt.Errorf("load device: %w", err)
	}

	version := d.negotiateVersion(ctx)

	clientLog := d.log.With().Str("component", "whatsmeow").Logger()
	cli := whatsmeow.NewClient(device, waLog.Zerolog(clientLog))
	cli.EnableAutoReconnect = false

	return newClient(cli, d.log.With().Str("component", "wa-client").Logger()), version, nil
}

// negotiateVersion pins the latest published version when it can be
// fetched and falls back to the built-in one otherwise.
func (d *Dialer) negotiateVersion(ctx context.Context) model.ProtocolVersion {
	current := store.GetWAVersion()

	ctx, cancel := context.WithTimeout(ctx, versionCheckTimeout)
	defer cancel()

	latest, err := whatsmeow.GetLatestVersion(ctx, d.httpClient)
	if err != nil {
		d.log.Warn().Err(err).Msg("Failed to fetch latest WA version, using built-in")
		return model.ProtocolVersion{Parts: [3]uint32(current), Latest: false}
	}

	store.SetWAVersion(*latest)
	return model.ProtocolVersion{Parts: [3]uint32(*latest), Latest: true}
}
