package activity

import "time"

const (
	TopicSubmissionSettled = "submission.settled"
	TopicRedirectIssued    = "redirect.issued"
)

// SubmissionSettledEvent is emitted when a shorten request leaves the loading state.
type SubmissionSettledEvent struct {
	SessionID    string    `json:"sessionId"`
	LongURL      string    `json:"longUrl"`
	ShortURL     string    `json:"shortUrl,omitempty"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	SettledAt    time.Time `json:"settledAt"`
	ClientIP     string    `json:"clientIp"`
	UserAgent    string    `json:"userAgent"`
}

// RedirectIssuedEvent is emitted when a browser is sent to the resolution endpoint.
type RedirectIssuedEvent struct {
	Code      string    `json:"code"`
	Target    string    `json:"target"`
	IssuedAt  time.Time `json:"issuedAt"`
	ClientIP  string    `json:"clientIp"`
	UserAgent string    `json:"userAgent"`
	Referrer  string    `json:"referrer,omitempty"`
}
