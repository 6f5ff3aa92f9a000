package ports

import (
	"context"

	"github.com/bnema/aconomy-watch/internal/domain"
)

type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, domain.Notification) error {
	return nil
}
