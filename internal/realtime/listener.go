// Package realtime consumes identity and profile change notifications and
// turns them into role cache invalidations.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/storehaus/gatekeeper/internal/auth"
)

// Invalidator drops cached roles.
type Invalidator interface {
	Invalidate(userID uuid.UUID) int
	Purge()
}

// Listener subscribes to Redis pub/sub channels until its context ends.
// Events are unordered and may repeat; every one of them is safe to apply
// again.
type Listener struct {
	client      *redis.Client
	channels    []string
	invalidator Invalidator
	maxBackoff  time.Duration
}

// NewListener creates a Listener on the given channels.
func NewListener(client *redis.Client, invalidator Invalidator, channels ...string) *Listener {
	return &Listener{
		client:      client,
		channels:    channels,
		invalidator: invalidator,
		maxBackoff:  30 * time.Second,
	}
}

// Start blocks until ctx is cancelled, resubscribing after failures.
func (l *Listener) Start(ctx context.Context) {
	slog.Info("realtime listener started", "channels", l.channels)

	b := backoff.NewExponentialBackOff()
	b.MaxInterval = l.maxBackoff

	for {
		err := l.run(ctx, b)
		if ctx.Err() != nil {
			slog.Info("realtime listener stopped")
			return
		}

		wait := b.NextBackOff()
		slog.Warn("realtime subscription lost; resubscribing", "error", err, "retryIn", wait.String())

		select {
		case <-ctx.Done():
			slog.Info("realtime listener stopped")
			return
		case <-time.After(wait):
		}
	}
}

func (l *Listener) run(ctx context.Context, b *backoff.ExponentialBackOff) error {
	sub := l.client.Subscribe(ctx, l.channels...)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	// Anything published while we were not subscribed is lost, so nothing
	// cached before this point can be trusted.
	l.invalidator.Purge()
	b.Reset()

	for {
		msg, err := sub.ReceiveMessage(ctx)
		if err != nil {
			return err
		}
		l.Handle(msg.Channel, msg.Payload)
	}
}

// Handle applies a single notification payload.
func (l *Listener) Handle(channel, payload string) {
	var ev auth.Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		slog.Warn("realtime: malformed event", "channel", channel, "error", err)
		return
	}
	if ev.UserID == uuid.Nil {
		slog.Warn("realtime: event without user id", "channel", channel, "event", string(ev.Kind))
		return
	}

	removed := l.invalidator.Invalidate(ev.UserID)
	slog.Debug("realtime: invalidated roles",
		"channel", channel,
		"event", string(ev.Kind),
		"userId", ev.UserID,
		"removed", removed,
	)
}

// Publish sends an identity event, used by the auth collaborator side and
// by tests.
func Publish(ctx context.Context, client *redis.Client, channel string, ev auth.Event) error {
	if ev.UserID == uuid.Nil {
		return errors.New("realtime: event needs a user id")
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return client.Publish(ctx, channel, payload).Err()
}
