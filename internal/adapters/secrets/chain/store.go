package chain

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	filestore "github.com/bnema/aconomy-watch/internal/adapters/secrets/file"
	passstore "github.com/bnema/aconomy-watch/internal/adapters/secrets/pass"
	"github.com/bnema/aconomy-watch/internal/domain"
	"github.com/bnema/aconomy-watch/internal/ports"
)

// Backend is one named secret store in a chain.
type Backend struct {
	Name  string
	Store ports.SecretStore
}

// Store tries its backends in order. Reads return the first hit, writes land in the
// first backend that accepts them, and deletes are applied to every backend so a stale
// copy cannot resurface from a later one.
type Store struct {
	backends []Backend
	logger   zerolog.Logger
}

var _ ports.SecretStore = (*Store)(nil)

var errNoBackends = errors.New("secret chain has no backends")

func NewStore(logger zerolog.Logger, backends ...Backend) (*Store, error) {
	if len(backends) == 0 {
		return nil, errNoBackends
	}
	for i, backend := range backends {
		if backend.Store == nil {
			return nil, fmt.Errorf("secret backend %d (%s) is nil", i, backend.Name)
		}
	}

	return &Store{
		backends: backends,
		logger:   logger.With().Str("component", "secrets").Logger(),
	}, nil
}

func NewPassFirstWithFileFallback(fileRoot string, logger zerolog.Logger) (*Store, error) {
	return NewStore(logger,
		Backend{Name: "pass", Store: passstore.NewStore()},
		Backend{Name: "file", Store: filestore.NewStore(fileRoot)},
	)
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var errs []error
	for _, backend := range s.backends {
		value, err := backend.Store.Get(ctx, key)
		if err == nil {
			return value, nil
		}
		if isContextErr(err) {
			return "", err
		}
		s.logger.Debug().Err(err).Str("backend", backend.Name).Msg("secret lookup missed")
		errs = append(errs, fmt.Errorf("%s backend get: %w", backend.Name, err))
	}

	return "", errors.Join(errs...)
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	var errs []error
	for _, backend := range s.backends {
		err := backend.Store.Put(ctx, key, value)
		if err == nil {
			return nil
		}
		if isContextErr(err) {
			return err
		}
		s.logger.Debug().Err(err).Str("backend", backend.Name).Msg("secret write failed, trying next backend")
		errs = append(errs, fmt.Errorf("%s backend put: %w", backend.Name, err))
	}

	return errors.Join(errs...)
}

// Delete reports domain.ErrCredentialNotFound only when no backend held the key.
func (s *Store) Delete(ctx context.Context, key string) error {
	var errs []error
	deleted := false
	for _, backend := range s.backends {
		err := backend.Store.Delete(ctx, key)
		switch {
		case err == nil:
			deleted = true
		case isContextErr(err):
			return err
		case errors.Is(err, domain.ErrCredentialNotFound):
		default:
			errs = append(errs, fmt.Errorf("%s backend delete: %w", backend.Name, err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	if !deleted {
		return fmt.Errorf("secret %q: %w", key, domain.ErrCredentialNotFound)
	}
	return nil
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
