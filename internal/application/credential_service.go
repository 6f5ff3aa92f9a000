package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/aconomy-watch/internal/domain"
	"github.com/bnema/aconomy-watch/internal/ports"
)

// CredentialKey is where the stream API key lives in the secret store.
const CredentialKey = "aconomy/openai/api_key"

var ErrEmptyCredential = errors.New("credential is empty")

type CredentialService struct {
	store ports.SecretStore
}

func NewCredentialService(store ports.SecretStore) *CredentialService {
	return &CredentialService{store: store}
}

// Load returns the stored credential, or an empty string when none has been saved.
func (s *CredentialService) Load(ctx context.Context) (string, error) {
	value, err := s.store.Get(ctx, CredentialKey)
	if err != nil {
		if errors.Is(err, domain.ErrCredentialNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("load credential: %w", err)
	}

	return strings.TrimSpace(value), nil
}

func (s *CredentialService) Save(ctx context.Context, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return ErrEmptyCredential
	}

	if err := s.store.Put(ctx, CredentialKey, value); err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	return nil
}

func (s *CredentialService) Forget(ctx context.Context) error {
	if err := s.store.Delete(ctx, CredentialKey); err != nil {
		if errors.Is(err, domain.ErrCredentialNotFound) {
			return nil
		}
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}

// MaskCredential keeps the last four characters of a credential for display.
func MaskCredential(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "(not set)"
	}
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	return strings.Repeat("*", 8) + value[len(value)-4:]
}
