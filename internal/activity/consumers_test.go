package activity_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/serroba/clck-web/internal/activity"
	"github.com/serroba/clck-web/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockSubscriber struct {
	settledChan  chan *message.Message
	redirectChan chan *message.Message
	subscribeErr error
	mu           sync.Mutex
	closed       bool
}

func newMockSubscriber() *mockSubscriber {
	return &mockSubscriber{
		settledChan:  make(chan *message.Message, 10),
		redirectChan: make(chan *message.Message, 10),
	}
}

func (m *mockSubscriber) Subscribe(_ context.Context, topic string) (<-chan *message.Message, error) {
	if m.subscribeErr != nil {
		return nil, m.subscribeErr
	}

	switch topic {
	case activity.TopicSubmissionSettled:
		return m.settledChan, nil
	case activity.TopicRedirectIssued:
		return m.redirectChan, nil
	default:
		return nil, errors.New("unknown topic")
	}
}

func (m *mockSubscriber) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.settledChan)
		close(m.redirectChan)
	}

	return nil
}

type mockStore struct {
	settled    []*activity.SubmissionSettledEvent
	redirects  []*activity.RedirectIssuedEvent
	settledErr error
	mu         sync.Mutex
}

func (m *mockStore) SaveSubmissionSettled(_ context.Context, event *activity.SubmissionSettledEvent) error {
	if m.settledErr != nil {
		return m.settledErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.settled = append(m.settled, event)

	return nil
}

func (m *mockStore) SaveRedirectIssued(_ context.Context, event *activity.RedirectIssuedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.redirects = append(m.redirects, event)

	return nil
}

func waitAck(t *testing.T, msg *message.Message) {
	t.Helper()

	select {
	case <-msg.Acked():
	case <-msg.Nacked():
		t.Fatal("message was nacked")
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for ack")
	}
}

func newMessage(t *testing.T, event any) *message.Message {
	t.Helper()

	payload, err := json.Marshal(event)
	require.NoError(t, err)

	return message.NewMessage(uuid.NewString(), payload)
}

func TestRegisterConsumers(t *testing.T) {
	t.Run("persists events from both topics", func(t *testing.T) {
		sub := newMockSubscriber()
		store := &mockStore{}
		group := messaging.NewConsumerGroup(sub, zap.NewNop())

		activity.RegisterConsumers(group, sub, store, zap.NewNop())
		require.NoError(t, group.Start(context.Background()))

		settled := newMessage(t, &activity.SubmissionSettledEvent{
			LongURL:  "https://example.com",
			ShortURL: "https://api.clck.dev/abc123",
			Status:   "success",
		})
		redirect := newMessage(t, &activity.RedirectIssuedEvent{
			Code:   "abc123",
			Target: "https://api.clck.dev/abc123",
		})

		sub.settledChan <- settled
		sub.redirectChan <- redirect

		waitAck(t, settled)
		waitAck(t, redirect)

		require.NoError(t, group.Shutdown())

		store.mu.Lock()
		defer store.mu.Unlock()

		require.Len(t, store.settled, 1)
		assert.Equal(t, "https://api.clck.dev/abc123", store.settled[0].ShortURL)
		require.Len(t, store.redirects, 1)
		assert.Equal(t, "abc123", store.redirects[0].Code)
	})

	t.Run("nacks when the store fails", func(t *testing.T) {
		sub := newMockSubscriber()
		store := &mockStore{settledErr: errors.New("store error")}
		group := messaging.NewConsumerGroup(sub, zap.NewNop())

		activity.RegisterConsumers(group, sub, store, zap.NewNop())
		require.NoError(t, group.Start(context.Background()))

		msg := newMessage(t, &activity.SubmissionSettledEvent{Status: "error"})
		sub.settledChan <- msg

		select {
		case <-msg.Nacked():
		case <-msg.Acked():
			t.Fatal("message should have been nacked")
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for nack")
		}

		_ = group.Shutdown()
	})

	t.Run("fails to start when subscription fails", func(t *testing.T) {
		sub := &mockSubscriber{subscribeErr: errors.New("subscribe error")}
		group := messaging.NewConsumerGroup(sub, zap.NewNop())

		activity.RegisterConsumers(group, sub, &mockStore{}, zap.NewNop())

		assert.Error(t, group.Start(context.Background()))
	})
}

type mockPublisher struct {
	topics     []string
	messages   []*message.Message
	publishErr error
}

func (m *mockPublisher) Publish(topic string, msgs ...*message.Message) error {
	if m.publishErr != nil {
		return m.publishErr
	}

	m.topics = append(m.topics, topic)
	m.messages = append(m.messages, msgs...)

	return nil
}

func (m *mockPublisher) Close() error {
	return nil
}

func TestNewPublishers(t *testing.T) {
	t.Run("publishes each event to its topic", func(t *testing.T) {
		mock := &mockPublisher{}
		pubs := activity.NewPublishers(mock)

		require.NoError(t, pubs.SubmissionSettled(&activity.SubmissionSettledEvent{Status: "success"}))
		require.NoError(t, pubs.RedirectIssued(&activity.RedirectIssuedEvent{Code: "abc123"}))

		assert.Equal(t, []string{activity.TopicSubmissionSettled, activity.TopicRedirectIssued}, mock.topics)
		assert.Contains(t, string(mock.messages[1].Payload), `"code":"abc123"`)
	})

	t.Run("returns publish errors", func(t *testing.T) {
		pubs := activity.NewPublishers(&mockPublisher{publishErr: errors.New("publish error")})

		assert.Error(t, pubs.RedirectIssued(&activity.RedirectIssuedEvent{Code: "abc123"}))
	})
}
