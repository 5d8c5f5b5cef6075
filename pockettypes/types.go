package pockettypes

import (
	"fmt"
	"strings"
	"time"
)

// Credentials is a Wi-Fi network name and WPA passphrase.
type Credentials struct {
	SSID     string
	Password string
}

var NilCredentials = Credentials{}

// String masks the passphrase so credentials can be logged.
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{SSID: %q, Password: %s}", c.SSID, strings.Repeat("*", len(c.Password)))
}

// Event is a named host notification with positional arguments.
type Event struct {
	Name string
	Args []any
	Time time.Time
}

func NewEvent(name string, args ...any) Event {
	if args == nil {
		args = []any{}
	}
	return Event{Name: name, Args: args, Time: time.Now()}
}

// Arg returns the i'th argument as a string, or "" when it is absent.
func (e Event) Arg(i int) string {
	if i < 0 || i >= len(e.Args) {
		return ""
	}
	if s, ok := e.Args[i].(string); ok {
		return s
	}
	return fmt.Sprint(e.Args[i])
}

func (e Event) String() string {
	if len(e.Args) == 0 {
		return e.Name + "()"
	}
	args := make([]string, len(e.Args))
	for i := range e.Args {
		args[i] = fmt.Sprintf("%q", e.Arg(i))
	}
	return e.Name + "(" + strings.Join(args, ", ") + ")"
}
