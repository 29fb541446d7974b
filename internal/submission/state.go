package submission

// Status is the lifecycle phase of a shorten request.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// State is a snapshot of a controller.
//
// Once Status is Success or Error exactly one of ShortURL and ErrorMessage is set.
// While Loading both are empty.
type State struct {
	LongURL          string
	ShortURL         string
	Status           Status
	ErrorMessage     string
	CopyAcknowledged bool
}

// Settled reports whether the last submission has finished.
func (s State) Settled() bool {
	return s.Status == StatusSuccess || s.Status == StatusError
}
