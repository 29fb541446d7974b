package submission

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// AckWindow is how long a copy acknowledgment stays visible.
const AckWindow = 2000 * time.Millisecond

// FallbackErrorMessage is shown when the service gave no message of its own.
const FallbackErrorMessage = "Something went wrong while shortening the URL. Please try again."

var (
	ErrEmptyURL = errors.New("long url is empty")
	ErrBusy     = errors.New("a submission is already in flight")
	ErrClosed   = errors.New("controller is closed")
)

// Shortener submits a long URL to the shortening service and returns the short URL.
type Shortener interface {
	Shorten(ctx context.Context, longURL string) (string, error)
}

// Clipboard receives copied short URLs.
type Clipboard interface {
	WriteText(text string) error
}

// Timer is a scheduled deferred action.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f to run after d.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// userMessenger is implemented by errors that carry a message meant for the user.
type userMessenger interface {
	UserMessage() string
}

// Option configures a Controller.
type Option func(*Controller)

// WithAfterFunc replaces the timer source used for copy acknowledgments.
func WithAfterFunc(afterFunc AfterFunc) Option {
	return func(c *Controller) {
		c.afterFunc = afterFunc
	}
}

// WithLogger sets the controller logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// Controller owns the lifecycle of shorten requests for one session.
type Controller struct {
	shortener Shortener
	clipboard Clipboard
	afterFunc AfterFunc
	logger    *zap.Logger

	mu       sync.Mutex
	state    State
	busy     bool
	closed   bool
	ackTimer Timer
	ackGen   uint64
}

// NewController creates an idle controller.
func NewController(shortener Shortener, clipboard Clipboard, opts ...Option) *Controller {
	c := &Controller{
		shortener: shortener,
		clipboard: clipboard,
		afterFunc: realAfterFunc,
		logger:    zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Submit starts shortening longURL. The controller is Loading when Submit returns;
// the returned Submission settles once the service answers.
//
// An empty longURL, an in-flight submission or a closed controller leave the state
// untouched and issue no request.
func (c *Controller) Submit(ctx context.Context, longURL string) (*Submission, error) {
	if longURL == "" {
		return nil, ErrEmptyURL
	}

	c.mu.Lock()

	if c.closed {
		c.mu.Unlock()

		return nil, ErrClosed
	}

	if c.busy {
		c.mu.Unlock()

		return nil, ErrBusy
	}

	c.busy = true
	c.cancelAckLocked()
	c.state = State{
		LongURL: longURL,
		Status:  StatusLoading,
	}
	c.mu.Unlock()

	sub := newSubmission()

	go c.run(context.WithoutCancel(ctx), sub, longURL)

	return sub, nil
}

func (c *Controller) run(ctx context.Context, sub *Submission, longURL string) {
	var (
		shortURL string
		err      error
	)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("shortener panicked: %v", r)
			shortURL = ""
		}

		c.settle(sub, shortURL, err)
	}()

	shortURL, err = c.shortener.Shorten(ctx, longURL)
}

func (c *Controller) settle(sub *Submission, shortURL string, err error) {
	outcome := Outcome{ShortURL: shortURL, Err: err}

	if err == nil && shortURL == "" {
		outcome.Err = errors.New("service returned an empty short url")
	}

	if outcome.Err != nil {
		outcome.ShortURL = ""
		outcome.ErrorMessage = messageFor(outcome.Err)
	}

	c.mu.Lock()
	c.busy = false

	if c.closed {
		outcome.Discarded = true
	} else {
		c.state.ShortURL = outcome.ShortURL
		c.state.ErrorMessage = outcome.ErrorMessage
		c.state.Status = StatusSuccess

		if outcome.Err != nil {
			c.state.Status = StatusError
		}
	}
	c.mu.Unlock()

	if outcome.Err != nil {
		c.logger.Info("submission failed",
			zap.Bool("discarded", outcome.Discarded),
			zap.Error(outcome.Err),
		)
	} else {
		c.logger.Debug("submission succeeded",
			zap.String("shortUrl", outcome.ShortURL),
			zap.Bool("discarded", outcome.Discarded),
		)
	}

	sub.settle(outcome)
}

func messageFor(err error) string {
	var um userMessenger
	if errors.As(err, &um) {
		if msg := um.UserMessage(); msg != "" {
			return msg
		}
	}

	return FallbackErrorMessage
}

// CopyShortURL copies the current short URL and acknowledges it for AckWindow.
// It reports false when there is nothing to copy.
func (c *Controller) CopyShortURL() bool {
	c.mu.Lock()

	if c.closed || c.state.Status != StatusSuccess || c.state.ShortURL == "" {
		c.mu.Unlock()

		return false
	}

	text := c.state.ShortURL

	c.cancelAckLocked()
	c.state.CopyAcknowledged = true

	gen := c.ackGen
	c.ackTimer = c.afterFunc(AckWindow, func() {
		c.expireAck(gen)
	})
	c.mu.Unlock()

	if err := c.clipboard.WriteText(text); err != nil {
		c.logger.Debug("clipboard write failed", zap.Error(err))
	}

	return true
}

func (c *Controller) expireAck(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// a newer copy or submission owns the acknowledgment now
	if gen != c.ackGen || c.closed {
		return
	}

	c.state.CopyAcknowledged = false
	c.ackTimer = nil
}

// cancelAckLocked clears the acknowledgment and invalidates its pending reset.
func (c *Controller) cancelAckLocked() {
	c.ackGen++

	if c.ackTimer != nil {
		c.ackTimer.Stop()
		c.ackTimer = nil
	}

	c.state.CopyAcknowledged = false
}

// Close disposes the controller. An in-flight request still runs to completion but
// its result is discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.cancelAckLocked()
	c.closed = true
}
