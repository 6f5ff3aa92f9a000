package ports

import "context"

// SecretStore is a string key-value store for credentials. Get and Delete wrap
// domain.ErrCredentialNotFound when the key has no value.
type SecretStore interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}
