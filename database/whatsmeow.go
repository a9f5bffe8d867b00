package database

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.mau.fi/whatsmeow/store/sqlstore"
	waLog "go.mau.fi/whatsmeow/util/log"

	_ "github.com/lib/pq"  // Postgres driver
	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

// InitWhatsmeow opens the credential store and runs whatsmeow's schema
// upgrades. The caller decides whether a failure is fatal.
func InitWhatsmeow(ctx context.Context, dialect, address string, log zerolog.Logger) (*sqlstore.Container, error) {
	dbLog := waLog.Zerolog(log.With().Str("component", "whatsmeow-db").Logger())

	container, err := sqlstore.New(ctx, dialect, address, dbLog)
	if err != nil {
		return nil, fmt.Errorf("open credential store (%s): %w", dialect, err)
	}

	log.Info().Str("dialect", dialect).Msg("Credential store connected successfully")
	return container, nil
}
