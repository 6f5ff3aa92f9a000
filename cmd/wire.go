package cmd

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/bnema/aconomy-watch/internal/adapters/archive/sqlite"
	"github.com/bnema/aconomy-watch/internal/adapters/config"
	turnsview "github.com/bnema/aconomy-watch/internal/adapters/render/turns"
	chainstore "github.com/bnema/aconomy-watch/internal/adapters/secrets/chain"
	filestore "github.com/bnema/aconomy-watch/internal/adapters/secrets/file"
	passstore "github.com/bnema/aconomy-watch/internal/adapters/secrets/pass"
	"github.com/bnema/aconomy-watch/internal/adapters/transport/websocket"
	"github.com/bnema/aconomy-watch/internal/application"
	"github.com/bnema/aconomy-watch/internal/domain"
	"github.com/bnema/aconomy-watch/internal/ports"
)

var errArchiveDisabled = errors.New("session archive is disabled (archive.enabled = false)")

type app struct {
	cfg         config.Config
	viper       *viper.Viper
	logger      zerolog.Logger
	secretStore ports.SecretStore
	credentials *application.CredentialService
	dialer      ports.StreamDialer
	clock       ports.Clock
	renderTurns func([]domain.TurnRecord, turnsview.RenderOptions) (string, error)
	logs        logSink
}

func (a *app) wire(cfg config.Config, v *viper.Viper) error {
	logger := log.Logger

	secretStore, err := newSecretStore(cfg.Secrets, logger)
	if err != nil {
		return fmt.Errorf("wire secret store: %w", err)
	}

	a.cfg = cfg
	a.viper = v
	a.logger = logger
	a.secretStore = secretStore
	a.credentials = application.NewCredentialService(secretStore)
	a.dialer = websocket.NewDialer(websocket.Options{
		HandshakeTimeout: cfg.Stream.HandshakeTimeout,
		ReadLimit:        cfg.Stream.ReadLimit,
	})
	a.clock = ports.SystemClock{}
	a.renderTurns = turnsview.Render
	return nil
}

func newSecretStore(cfg config.SecretsConfig, logger zerolog.Logger) (ports.SecretStore, error) {
	switch cfg.Backend {
	case config.BackendFile:
		return filestore.NewStore(cfg.Dir), nil
	case config.BackendPass:
		return passstore.NewStore(), nil
	case config.BackendChain, "":
		return chainstore.NewPassFirstWithFileFallback(cfg.Dir, logger)
	default:
		return nil, fmt.Errorf("unknown secrets backend %q", cfg.Backend)
	}
}

func (a *app) openArchive() (*sqlite.Store, error) {
	if !a.cfg.Archive.Enabled {
		return nil, errArchiveDisabled
	}

	store, err := sqlite.Open(a.cfg.Archive.Path)
	if err != nil {
		return nil, fmt.Errorf("open session archive: %w", err)
	}
	return store, nil
}

// refreshLogger picks up a reconfigured global logger, e.g. after the TUI moves logs
// off the terminal.
func (a *app) refreshLogger() {
	a.logger = log.Logger
}
