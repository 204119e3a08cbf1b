package inventory

import (
	"context"
	"errors"
	"log/slog"
	"time"

	v1 "github.com/bookstore-lab/bookstore/internal/api/v1"
	"github.com/bookstore-lab/bookstore/internal/messaging"
	"github.com/cenkalti/backoff/v4"
)

const maxReceiveBackoff = 30 * time.Second

// Consumer is the long-running loop that projects product-created envelopes
// into the inventory store. Per message: receive, decode, upsert, commit.
// The commit happens only after a successful upsert, so a crash or store
// failure leaves the message unacknowledged and the broker redelivers it;
// the idempotent upsert makes that replay safe.
//
// Error policy:
//   - receive failure: logged, retried with exponential backoff plus jitter
//   - malformed payload: logged, committed and dropped (poison-message policy,
//     liveness over zero data loss for corrupt bytes)
//   - upsert failure: logged, NOT committed, loop continues after backoff
//
// The loop never terminates on a recoverable error; it exits only when ctx is
// cancelled or the subscription is closed.
type Consumer struct {
	sub   messaging.Subscriber
	store Store
}

// NewConsumer wires a subscriber to an inventory store.
func NewConsumer(sub messaging.Subscriber, store Store) *Consumer {
	if sub == nil {
		panic("inventory: subscriber must not be nil")
	}
	if store == nil {
		panic("inventory: store must not be nil")
	}
	return &Consumer{sub: sub, store: store}
}

// Run blocks until ctx is cancelled or the subscription closes.
// It always returns nil for those two exits; there is no error path that
// escalates to the caller, matching the never-crash contract of the loop.
func (c *Consumer) Run(ctx context.Context) error {
	slog.Info("Inventory consumer started, waiting for messages...")

	bo := newReceiveBackoff()

	for {
		d, err := c.sub.Receive(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				slog.Info("Context done, exiting consumer loop")
				return nil
			}
			if errors.Is(err, messaging.ErrClosed) {
				slog.Info("Subscription closed, exiting consumer loop")
				return nil
			}

			wait := bo.NextBackOff()
			slog.Error("Failed to receive message, backing off",
				"error", err,
				"backoff", wait)
			if !sleepCtx(ctx, wait) {
				return nil
			}
			continue
		}

		if applied := c.handle(ctx, d); !applied {
			// Leave the message uncommitted and pause before the next
			// receive so a down store is not hammered on redelivery.
			wait := bo.NextBackOff()
			slog.Warn("Envelope not applied, message left for redelivery",
				"backoff", wait)
			if !sleepCtx(ctx, wait) {
				return nil
			}
			continue
		}

		bo.Reset()
	}
}

// handle processes one delivery. Returns false only when the upsert failed
// and the message must stay unacknowledged.
func (c *Consumer) handle(ctx context.Context, d messaging.Delivery) bool {
	evt, err := v1.DecodeProductCreatedEvent(d.Value())
	if err != nil {
		slog.Warn("Dropping malformed message",
			"error", err,
			"payload_size", len(d.Value()))
		c.commit(ctx, d)
		return true
	}

	if err := c.store.Upsert(ctx, evt.ID, evt.Quantity); err != nil {
		slog.Error("Failed to apply envelope to inventory store",
			"error", err,
			"product_id", evt.ID,
			"quantity", evt.Quantity)
		return false
	}

	slog.Info("Applied product-created envelope",
		"product_id", evt.ID,
		"name", evt.Name,
		"quantity", evt.Quantity)

	c.commit(ctx, d)
	return true
}

// commit acknowledges a delivery. A commit failure is logged and swallowed:
// the envelope was already applied, and a later redelivery is absorbed by the
// idempotent upsert.
func (c *Consumer) commit(ctx context.Context, d messaging.Delivery) {
	if err := c.sub.Commit(ctx, d); err != nil {
		slog.Error("Failed to commit message", "error", err)
	}
}

func newReceiveBackoff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxInterval = maxReceiveBackoff
	bo.MaxElapsedTime = 0 // retry forever, the loop owns its lifetime
	return bo
}

// sleepCtx waits for d or until ctx is cancelled. Returns false on cancel.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
