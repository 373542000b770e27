package queue

import "fmt"

// StatusKind enumerates the lifecycle states of a queued file.
type StatusKind string

const (
	StatusPending    StatusKind = "pending"
	StatusProcessing StatusKind = "processing"
	StatusReady      StatusKind = "ready"
	StatusError      StatusKind = "error"
	StatusSecured    StatusKind = "secured"
)

// Status is the state of a queued file. Percent is only meaningful while
// processing, Message only for errors.
type Status struct {
	Kind    StatusKind `json:"kind"`
	Percent int        `json:"percent,omitempty"`
	Message string     `json:"message,omitempty"`
}

func Pending() Status { return Status{Kind: StatusPending} }

func Ready() Status { return Status{Kind: StatusReady} }

func Secured() Status { return Status{Kind: StatusSecured} }

// Processing returns an in-flight status, clamping percent to [0, 100].
func Processing(percent int) Status {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return Status{Kind: StatusProcessing, Percent: percent}
}

func Failed(message string) Status {
	return Status{Kind: StatusError, Message: message}
}

// IsTerminal reports whether no further transition is expected.
func (s Status) IsTerminal() bool {
	return s.Kind == StatusSecured || s.Kind == StatusError
}

func (s Status) String() string {
	switch s.Kind {
	case StatusProcessing:
		return fmt.Sprintf("Uploading (%d%%)", s.Percent)
	case StatusError:
		return "Error: " + s.Message
	case StatusSecured:
		return "Done"
	case StatusReady:
		return "Ready"
	default:
		return "Pending"
	}
}
