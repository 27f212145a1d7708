// Setlist - Playlist Association Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/setlist/internal/logging"
	"github.com/tomtom215/setlist/internal/metrics"
	"github.com/tomtom215/setlist/internal/recommend/storage"
)

// Transport names reported by Bus.Transport.
const (
	TransportGoChannel = "gochannel"
	TransportNATS      = "nats"
)

// ErrClosed is returned by a closed bus.
var ErrClosed = errors.New("event bus is closed")

// Config configures a Bus.
type Config struct {
	// NATSURL selects core NATS; empty keeps events in-process.
	NATSURL string

	// Topic defaults to DefaultTopic.
	Topic string

	// CloseTimeout bounds subscriber shutdown. Default: 10s
	CloseTimeout time.Duration

	// ClientName identifies the connection on the NATS server.
	ClientName string
}

// Bus publishes and consumes ModelPublished events.
type Bus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	topic      string
	transport  string
	logger     watermill.LoggerAdapter

	mu     sync.RWMutex
	closed bool
}

// NewBus connects the transport selected by cfg. logger may be nil.
func NewBus(cfg Config, logger *slog.Logger) (*Bus, error) {
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}
	if cfg.CloseTimeout <= 0 {
		cfg.CloseTimeout = 10 * time.Second
	}
	if cfg.ClientName == "" {
		cfg.ClientName = "setlist"
	}
	if logger == nil {
		logger = logging.NewSlogLogger("events")
	}
	wmLogger := watermill.NewSlogLogger(logger)

	if cfg.NATSURL == "" {
		pubsub := gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 16,
		}, wmLogger)
		return &Bus{
			publisher:  pubsub,
			subscriber: pubsub,
			topic:      cfg.Topic,
			transport:  TransportGoChannel,
			logger:     wmLogger,
		}, nil
	}

	natsOpts := natsOptions(cfg.ClientName, wmLogger)

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.NATSURL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   wmNats.JetStreamConfig{Disabled: true},
	}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create nats publisher: %w", err)
	}

	// No queue group: every server instance must see every model.
	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              cfg.NATSURL,
		SubscribersCount: 1,
		CloseTimeout:     cfg.CloseTimeout,
		AckWaitTimeout:   30 * time.Second,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream:        wmNats.JetStreamConfig{Disabled: true},
	}, wmLogger)
	if err != nil {
		_ = pub.Close() //nolint:errcheck // best effort cleanup
		return nil, fmt.Errorf("create nats subscriber: %w", err)
	}

	return &Bus{
		publisher:  pub,
		subscriber: sub,
		topic:      cfg.Topic,
		transport:  TransportNATS,
		logger:     wmLogger,
	}, nil
}

func natsOptions(name string, logger watermill.LoggerAdapter) []natsgo.Option {
	return []natsgo.Option{
		natsgo.Name(name),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{
				"url": nc.ConnectedUrl(),
			})
		}),
	}
}

// Topic returns the subject events are sent on.
func (b *Bus) Topic() string {
	return b.topic
}

// Transport returns TransportGoChannel or TransportNATS.
func (b *Bus) Transport() string {
	return b.transport
}

// PublishModel announces a saved model. It satisfies recommend.Notifier.
func (b *Bus) PublishModel(ctx context.Context, meta *storage.ModelMetadata) error {
	eventID := meta.RunID
	if eventID == "" {
		eventID = watermill.NewUUID()
	}
	event := NewModelPublished(eventID, meta)
	return b.Publish(ctx, &event)
}

// Publish sends event on the bus.
func (b *Bus) Publish(ctx context.Context, event *ModelPublished) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}

	payload, err := Encode(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	msg := message.NewMessage(event.EventID, payload)
	msg.Metadata.Set("name", event.Name)
	msg.Metadata.Set("version", event.VersionLabel)
	msg.SetContext(ctx)

	err = b.publisher.Publish(b.topic, msg)
	metrics.RecordEventPublished(b.topic, err)
	if err != nil {
		return fmt.Errorf("publish %s: %w", b.topic, err)
	}

	b.logger.Debug("model event published", watermill.LogFields{
		"event_id": event.EventID,
		"version":  event.Version,
	})
	return nil
}

// SubscribeModels delivers events until ctx is canceled or the bus is
// closed, then closes the returned channel. A message is acked once the
// event has been handed over. Undecodable payloads are logged and acked
// so they are not redelivered forever.
func (b *Bus) SubscribeModels(ctx context.Context) (<-chan ModelPublished, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, ErrClosed
	}

	messages, err := b.subscriber.Subscribe(ctx, b.topic)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", b.topic, err)
	}

	out := make(chan ModelPublished)
	go func() {
		defer close(out)
		for msg := range messages {
			event, err := Decode(msg.Payload)
			metrics.RecordEventReceived(b.topic, err)
			if err != nil {
				b.logger.Error("dropping malformed model event", err, watermill.LogFields{
					"message_uuid": msg.UUID,
				})
				msg.Ack()
				continue
			}

			select {
			case out <- event:
				msg.Ack()
			case <-ctx.Done():
				msg.Nack()
				return
			}
		}
	}()

	return out, nil
}

// Close shuts down the subscriber and publisher.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	// GoChannel is both publisher and subscriber; closing twice is a no-op.
	return errors.Join(b.subscriber.Close(), b.publisher.Close())
}
