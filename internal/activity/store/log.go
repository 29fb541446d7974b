package store

import (
	"context"

	"github.com/serroba/clck-web/internal/activity"
	"go.uber.org/zap"
)

// Log is an activity.Store that only writes events to the logger.
type Log struct {
	logger *zap.Logger
}

// NewLog creates a new logging activity store.
func NewLog(logger *zap.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) SaveSubmissionSettled(_ context.Context, event *activity.SubmissionSettledEvent) error {
	l.logger.Info("submission settled",
		zap.String("status", event.Status),
		zap.String("longUrl", event.LongURL),
		zap.String("shortUrl", event.ShortURL),
		zap.String("errorMessage", event.ErrorMessage),
		zap.Time("settledAt", event.SettledAt),
	)

	return nil
}

func (l *Log) SaveRedirectIssued(_ context.Context, event *activity.RedirectIssuedEvent) error {
	l.logger.Info("redirect issued",
		zap.String("code", event.Code),
		zap.String("target", event.Target),
		zap.Time("issuedAt", event.IssuedAt),
		zap.String("referrer", event.Referrer),
	)

	return nil
}

var _ activity.Store = (*Log)(nil)
