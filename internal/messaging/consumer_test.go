package messaging_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/serroba/clck-web/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type redirectEvent struct {
	Code   string `json:"code"`
	Target string `json:"target"`
}

type mockSubscriber struct {
	msgChan      chan *message.Message
	subscribeErr error
	mu           sync.Mutex
	closed       bool
}

func newMockSubscriber() *mockSubscriber {
	return &mockSubscriber{
		msgChan: make(chan *message.Message, 10),
	}
}

func (m *mockSubscriber) Subscribe(_ context.Context, _ string) (<-chan *message.Message, error) {
	if m.subscribeErr != nil {
		return nil, m.subscribeErr
	}

	return m.msgChan, nil
}

func (m *mockSubscriber) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.msgChan)
	}

	return nil
}

func newRedirectMessage(t *testing.T, event redirectEvent) *message.Message {
	t.Helper()

	payload, err := json.Marshal(event)
	require.NoError(t, err)

	return message.NewMessage(uuid.NewString(), payload)
}

func startConsumer(t *testing.T, handler messaging.Handler[redirectEvent], opts ...messaging.ConsumerOption) *mockSubscriber {
	t.Helper()

	sub := newMockSubscriber()
	consumer := messaging.NewConsumer(sub, "redirect.issued", handler, zap.NewNop(), opts...)

	require.NoError(t, consumer.Start(context.Background()))
	t.Cleanup(func() { _ = consumer.Shutdown() })

	return sub
}

func waitAck(t *testing.T, msg *message.Message) bool {
	t.Helper()

	select {
	case <-msg.Acked():
		return true
	case <-msg.Nacked():
		return false
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for ack or nack")

		return false
	}
}

func TestConsumer_Start(t *testing.T) {
	t.Run("reports its topic", func(t *testing.T) {
		sub := newMockSubscriber()
		consumer := messaging.NewConsumer(sub, "redirect.issued",
			func(_ context.Context, _ *redirectEvent) error { return nil },
			zap.NewNop(),
		)

		require.NoError(t, consumer.Start(context.Background()))
		assert.Equal(t, "redirect.issued", consumer.Topic())
		require.NoError(t, consumer.Shutdown())
	})

	t.Run("returns error when subscribe fails", func(t *testing.T) {
		sub := &mockSubscriber{subscribeErr: errors.New("subscribe error")}
		consumer := messaging.NewConsumer(sub, "redirect.issued",
			func(_ context.Context, _ *redirectEvent) error { return nil },
			zap.NewNop(),
		)

		assert.Error(t, consumer.Start(context.Background()))
		assert.NoError(t, consumer.Shutdown())
	})
}

func TestConsumer_HandleMessage(t *testing.T) {
	t.Run("acks a handled event", func(t *testing.T) {
		received := make(chan redirectEvent, 1)
		sub := startConsumer(t, func(_ context.Context, event *redirectEvent) error {
			received <- *event

			return nil
		})

		msg := newRedirectMessage(t, redirectEvent{Code: "abc123", Target: "https://api.clck.dev/abc123"})
		sub.msgChan <- msg

		assert.True(t, waitAck(t, msg))
		assert.Equal(t, redirectEvent{Code: "abc123", Target: "https://api.clck.dev/abc123"}, <-received)
	})

	t.Run("drops undecodable events", func(t *testing.T) {
		var (
			mu    sync.Mutex
			calls int
		)

		sub := startConsumer(t, func(_ context.Context, _ *redirectEvent) error {
			mu.Lock()
			defer mu.Unlock()

			calls++

			return nil
		})

		msg := message.NewMessage(uuid.NewString(), []byte("not json"))
		sub.msgChan <- msg

		assert.True(t, waitAck(t, msg), "undecodable events are acked so they are not redelivered")

		mu.Lock()
		defer mu.Unlock()

		assert.Zero(t, calls)
	})

	t.Run("nacks when the handler fails", func(t *testing.T) {
		sub := startConsumer(t, func(_ context.Context, _ *redirectEvent) error {
			return errors.New("store unavailable")
		})

		msg := newRedirectMessage(t, redirectEvent{Code: "abc123"})
		sub.msgChan <- msg

		assert.False(t, waitAck(t, msg))
	})

	t.Run("bounds the handler with a deadline", func(t *testing.T) {
		deadlines := make(chan bool, 1)
		sub := startConsumer(t, func(ctx context.Context, _ *redirectEvent) error {
			_, ok := ctx.Deadline()
			deadlines <- ok

			return nil
		}, messaging.WithHandleTimeout(time.Second))

		msg := newRedirectMessage(t, redirectEvent{Code: "abc123"})
		sub.msgChan <- msg

		assert.True(t, waitAck(t, msg))
		assert.True(t, <-deadlines)
	})

	t.Run("zero timeout leaves the context unbounded", func(t *testing.T) {
		deadlines := make(chan bool, 1)
		sub := startConsumer(t, func(ctx context.Context, _ *redirectEvent) error {
			_, ok := ctx.Deadline()
			deadlines <- ok

			return nil
		}, messaging.WithHandleTimeout(0))

		msg := newRedirectMessage(t, redirectEvent{Code: "abc123"})
		sub.msgChan <- msg

		assert.True(t, waitAck(t, msg))
		assert.False(t, <-deadlines)
	})
}

func TestConsumer_Shutdown(t *testing.T) {
	t.Run("stops a started consumer", func(t *testing.T) {
		sub := newMockSubscriber()
		consumer := messaging.NewConsumer(sub, "redirect.issued",
			func(_ context.Context, _ *redirectEvent) error { return nil },
			zap.NewNop(),
		)

		require.NoError(t, consumer.Start(context.Background()))
		require.NoError(t, consumer.Shutdown())
	})

	t.Run("is a no-op when never started", func(t *testing.T) {
		consumer := messaging.NewConsumer(newMockSubscriber(), "redirect.issued",
			func(_ context.Context, _ *redirectEvent) error { return nil },
			zap.NewNop(),
		)

		assert.NoError(t, consumer.Shutdown())
	})

	t.Run("returns once the subscription closes", func(t *testing.T) {
		sub := newMockSubscriber()
		consumer := messaging.NewConsumer(sub, "redirect.issued",
			func(_ context.Context, _ *redirectEvent) error { return nil },
			zap.NewNop(),
		)

		require.NoError(t, consumer.Start(context.Background()))
		require.NoError(t, sub.Close())
		assert.NoError(t, consumer.Shutdown())
	})
}
