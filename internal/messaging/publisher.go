package messaging

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Metadata keys set on every published event.
const (
	MetadataPublishedAt = "published_at"
	MetadataSource      = "source"
)

// Source identifies this service in event metadata.
const Source = "clck-web"

// Publish sends one typed event.
type Publish[T any] func(event *T) error

// NewPublishFunc returns a Publish that encodes events as JSON onto topic.
func NewPublishFunc[T any](publisher message.Publisher, topic string) Publish[T] {
	return func(event *T) error {
		payload, err := json.Marshal(event)
		if err != nil {
			return err
		}

		msg := message.NewMessage(watermill.NewUUID(), payload)
		msg.Metadata.Set(MetadataPublishedAt, time.Now().UTC().Format(time.RFC3339Nano))
		msg.Metadata.Set(MetadataSource, Source)

		return publisher.Publish(topic, msg)
	}
}

// PublisherGroup owns the publisher shared by all Publish funcs and closes it once.
type PublisherGroup struct {
	publisher message.Publisher
	once      sync.Once
	closeErr  error
}

func NewPublisherGroup(publisher message.Publisher) *PublisherGroup {
	return &PublisherGroup{publisher: publisher}
}

func (g *PublisherGroup) Publisher() message.Publisher {
	return g.publisher
}

func (g *PublisherGroup) Shutdown() error {
	g.once.Do(func() {
		g.closeErr = g.publisher.Close()
	})

	return g.closeErr
}
