package gateway

import (
	"fmt"
	"time"
)

// InterfaceRef is an interface name resolved to its kernel index.
type InterfaceRef struct {
	Name  string
	Index int
}

func (r InterfaceRef) String() string {
	return fmt.Sprintf("%s(%d)", r.Name, r.Index)
}

// Outcome tags the terminal state of a discovery attempt.
type Outcome int

const (
	Found Outcome = iota + 1
	NotFound
	SystemError
	TimedOut
)

func (o Outcome) String() string {
	switch o {
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	case SystemError:
		return "system_error"
	case TimedOut:
		return "timed_out"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is the single value delivered for a discovery attempt.
type Result struct {
	ID        string
	Interface InterfaceRef
	Outcome   Outcome
	Gateway   string
	Err       error
	Elapsed   time.Duration
}

func (r Result) String() string {
	switch r.Outcome {
	case Found:
		return fmt.Sprintf("Result{%s %s gateway=%s}", r.Interface.Name, r.Outcome, r.Gateway)
	case NotFound:
		return fmt.Sprintf("Result{%s %s}", r.Interface.Name, r.Outcome)
	default:
		return fmt.Sprintf("Result{%s %s err=%v}", r.Interface.Name, r.Outcome, r.Err)
	}
}
