package submission

import "context"

// Outcome is the settled result of one submission.
type Outcome struct {
	ShortURL     string
	ErrorMessage string
	// Err is the collaborator error behind ErrorMessage, nil on success.
	Err error
	// Discarded is true when the owning controller was closed before settlement.
	Discarded bool
}

// Submission is a pending shorten request. It settles exactly once.
type Submission struct {
	done    chan struct{}
	outcome Outcome
}

func newSubmission() *Submission {
	return &Submission{done: make(chan struct{})}
}

func (s *Submission) settle(outcome Outcome) {
	s.outcome = outcome
	close(s.done)
}

// Done is closed when the submission settles.
func (s *Submission) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the submission settles or ctx is done. A done ctx does not
// cancel the request; it only stops waiting for it.
func (s *Submission) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-s.done:
		return s.outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// Outcome returns the settled outcome and whether the submission has settled.
func (s *Submission) Outcome() (Outcome, bool) {
	select {
	case <-s.done:
		return s.outcome, true
	default:
		return Outcome{}, false
	}
}
