package channel

import (
	"context"
	"testing"
	"time"

	"github.com/bookstore-lab/bookstore/internal/messaging"
	"github.com/stretchr/testify/require"
)

func TestBroker_PublishReceiveCommit(t *testing.T) {
	broker := NewBroker()
	sub := broker.Subscribe("products")

	ctx := context.Background()
	require.NoError(t, broker.Publish(ctx, "products", []byte("p1"), []byte(`{"Id":"p1"}`)))
	require.NoError(t, broker.Publish(ctx, "products", []byte("p2"), []byte(`{"Id":"p2"}`)))

	first, err := sub.Receive(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte("p1"), first.Key())
	require.NoError(t, sub.Commit(ctx, first))

	second, err := sub.Receive(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte("p2"), second.Key())
	require.NoError(t, sub.Commit(ctx, second))
}

func TestBroker_UncommittedDeliveryIsRedelivered(t *testing.T) {
	broker := NewBroker()
	sub := broker.Subscribe("products")
	ctx := context.Background()

	require.NoError(t, broker.Publish(ctx, "products", []byte("p1"), []byte("v1")))
	require.NoError(t, broker.Publish(ctx, "products", []byte("p2"), []byte("v2")))

	first, err := sub.Receive(ctx)
	require.NoError(t, err)

	// Not committed: the next Receive must hand out the same message again.
	again, err := sub.Receive(ctx)
	require.NoError(t, err)
	require.Equal(t, first, again)
	require.Equal(t, []byte("v1"), again.Value())

	require.NoError(t, sub.Commit(ctx, again))

	next, err := sub.Receive(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), next.Value())
}

func TestBroker_CommitRejectsForeignDelivery(t *testing.T) {
	broker := NewBroker()
	sub := broker.Subscribe("products")
	other := broker.Subscribe("products")
	ctx := context.Background()

	require.NoError(t, broker.Publish(ctx, "products", nil, []byte("v1")))

	d, err := other.Receive(ctx)
	require.NoError(t, err)
	require.Error(t, sub.Commit(ctx, d))
}

func TestBroker_EachSubscriptionGetsEveryMessage(t *testing.T) {
	broker := NewBroker()
	a := broker.Subscribe("products")
	b := broker.Subscribe("products")
	ctx := context.Background()

	require.NoError(t, broker.Publish(ctx, "products", nil, []byte("v1")))

	da, err := a.Receive(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), da.Value())

	db, err := b.Receive(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), db.Value())
}

func TestSubscription_ReceiveBlocksUntilPublish(t *testing.T) {
	broker := NewBroker()
	sub := broker.Subscribe("products")
	ctx := context.Background()

	got := make(chan []byte, 1)
	go func() {
		d, err := sub.Receive(ctx)
		if err == nil {
			got <- d.Value()
		}
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, broker.Publish(ctx, "products", nil, []byte("late")))

	select {
	case v := <-got:
		require.Equal(t, []byte("late"), v)
	case <-time.After(2 * time.Second):
		t.Fatal("receive did not observe the published message")
	}
}

func TestSubscription_ReceiveHonorsContextCancellation(t *testing.T) {
	broker := NewBroker()
	sub := broker.Subscribe("products")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := sub.Receive(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBroker_CloseDrainsBacklogThenErrClosed(t *testing.T) {
	broker := NewBroker()
	sub := broker.Subscribe("products")
	ctx := context.Background()

	require.NoError(t, broker.Publish(ctx, "products", nil, []byte("v1")))
	require.NoError(t, broker.Close())

	d, err := sub.Receive(ctx)
	require.NoError(t, err)
	require.NoError(t, sub.Commit(ctx, d))

	_, err = sub.Receive(ctx)
	require.ErrorIs(t, err, messaging.ErrClosed)
}
