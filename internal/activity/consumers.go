package activity

import (
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/clck-web/internal/messaging"
	"go.uber.org/zap"
)

// RegisterConsumers adds one consumer per activity topic to group, each
// persisting into store.
func RegisterConsumers(group *messaging.ConsumerGroup, subscriber message.Subscriber, store Store, logger *zap.Logger) {
	group.Add(messaging.NewConsumer(subscriber, TopicSubmissionSettled, store.SaveSubmissionSettled, logger))
	group.Add(messaging.NewConsumer(subscriber, TopicRedirectIssued, store.SaveRedirectIssued, logger))
}

// Publishers are the typed publish functions for activity events.
type Publishers struct {
	SubmissionSettled messaging.Publish[SubmissionSettledEvent]
	RedirectIssued    messaging.Publish[RedirectIssuedEvent]
}

// NewPublishers binds the activity topics to publisher.
func NewPublishers(publisher message.Publisher) Publishers {
	return Publishers{
		SubmissionSettled: messaging.NewPublishFunc[SubmissionSettledEvent](publisher, TopicSubmissionSettled),
		RedirectIssued:    messaging.NewPublishFunc[RedirectIssuedEvent](publisher, TopicRedirectIssued),
	}
}
