package activity

import "context"

// Store defines the interface for persisting activity events.
type Store interface {
	SaveSubmissionSettled(ctx context.Context, event *SubmissionSettledEvent) error
	SaveRedirectIssued(ctx context.Context, event *RedirectIssuedEvent) error
}
