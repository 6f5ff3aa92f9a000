package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog"

	"github.com/bnema/aconomy-watch/internal/domain"
	"github.com/bnema/aconomy-watch/internal/ports"
)

// Topic carries every session notification.
const Topic = "aconomy.session"

const (
	metaSeq    = "seq"
	metaKind   = "kind"
	metaHandle = "handle"

	outputBuffer = 256
)

type HandlerFunc func(ctx context.Context, n domain.Notification) error

// Bus fans controller notifications out to subscribers over an in-process watermill
// pub/sub. Publishing never waits for subscribers, so deliveries may be reordered;
// Notification.Seq restores the order where it matters.
type Bus struct {
	pubsub   *gochannel.GoChannel
	router   *message.Router
	logger   zerolog.Logger
	handlers int

	closeOnce sync.Once
	closeErr  error
}

var _ ports.Notifier = (*Bus)(nil)

func NewBus(logger zerolog.Logger) (*Bus, error) {
	wmLogger := NewWatermillLogger(logger)
	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer:            outputBuffer,
		BlockPublishUntilSubscriberAck: false,
	}, wmLogger)

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 5 * time.Second}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create notification router: %w", err)
	}

	return &Bus{
		pubsub: pubsub,
		router: router,
		logger: logger.With().Str("component", "bus").Logger(),
	}, nil
}

func (b *Bus) Notify(ctx context.Context, n domain.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode %s notification: %w", n.Kind, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(metaSeq, strconv.FormatUint(n.Seq, 10))
	msg.Metadata.Set(metaKind, string(n.Kind))
	msg.Metadata.Set(metaHandle, string(n.Handle))
	if ctx != nil {
		msg.SetContext(ctx)
	}

	if err := b.pubsub.Publish(Topic, msg); err != nil {
		return fmt.Errorf("publish %s notification: %w", n.Kind, err)
	}
	return nil
}

// Subscribe returns a channel of notifications published after the call. The channel is
// closed when ctx is done or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context) (<-chan domain.Notification, error) {
	messages, err := b.pubsub.Subscribe(ctx, Topic)
	if err != nil {
		return nil, fmt.Errorf("subscribe to %s: %w", Topic, err)
	}

	out := make(chan domain.Notification, outputBuffer)
	go func() {
		defer close(out)
		for msg := range messages {
			n, err := decode(msg)
			msg.Ack()
			if err != nil {
				b.logger.Error().Err(err).Str("message_id", msg.UUID).Msg("dropping undecodable notification")
				continue
			}

			select {
			case out <- n:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// AddHandler registers h to run for every notification once the bus is running.
// Handler failures are logged and the message is still acknowledged.
func (b *Bus) AddHandler(name string, h HandlerFunc) {
	b.router.AddNoPublisherHandler(name, Topic, b.pubsub, func(msg *message.Message) error {
		n, err := decode(msg)
		if err != nil {
			b.logger.Error().Err(err).Str("handler", name).Str("message_id", msg.UUID).Msg("dropping undecodable notification")
			return nil
		}
		if err := h(msg.Context(), n); err != nil {
			b.logger.Error().Err(err).Str("handler", name).Uint64("seq", n.Seq).Str("kind", string(n.Kind)).Msg("notification handler failed")
		}
		return nil
	})
	b.handlers++
}

// Run drives the registered handlers until ctx is done.
func (b *Bus) Run(ctx context.Context) error {
	if b.handlers == 0 {
		<-ctx.Done()
		return nil
	}
	if err := b.router.Run(ctx); err != nil {
		return fmt.Errorf("run notification router: %w", err)
	}
	return nil
}

func (b *Bus) Running() chan struct{} {
	return b.router.Running()
}

func (b *Bus) Close() error {
	b.closeOnce.Do(func() {
		var errs []error
		if err := b.router.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close router: %w", err))
		}
		if err := b.pubsub.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pubsub: %w", err))
		}
		b.closeErr = errors.Join(errs...)
	})
	return b.closeErr
}

func decode(msg *message.Message) (domain.Notification, error) {
	var n domain.Notification
	if err := json.Unmarshal(msg.Payload, &n); err != nil {
		return domain.Notification{}, fmt.Errorf("decode notification %s: %w", msg.UUID, err)
	}
	return n, nil
}
