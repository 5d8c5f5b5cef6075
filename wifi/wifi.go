// Package wifi joins and forgets Wi-Fi networks through the host's network tooling.
package wifi

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/SyNdicateFoundation/pockethost/pockettypes"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	ErrNotImplemented = errors.New("wifi association not implemented on this platform")
	ErrInvalidSSID    = errors.New("ssid cannot be empty")
)

type Status int

const (
	AlreadyAssociated Status = iota + 1
	Joined
	Failed
)

func (s Status) String() string {
	switch s {
	case AlreadyAssociated:
		return "already_associated"
	case Joined:
		return "joined"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// JoinResult is the single outcome of an Apply call. Err is set when Status is Failed.
type JoinResult struct {
	Status Status
	Err    error
}

// Connected reports whether the device ended up on the requested network.
func (r JoinResult) Connected() bool {
	return r.Status == AlreadyAssociated || r.Status == Joined
}

// Associator joins networks asynchronously and forgets saved ones.
type Associator interface {
	// Apply joins the network described by creds and calls done exactly once.
	Apply(ctx context.Context, creds pockettypes.Credentials, done func(JoinResult))
	// Remove forgets the saved configuration for ssid.
	Remove(ctx context.Context, ssid string) error
}

// Runner executes an external command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			return out, errors.Wrap(err, name)
		}
		return out, errors.Wrapf(err, "%s: %s", name, msg)
	}
	return out, nil
}

// Command is one invocation of an external tool.
type Command struct {
	Name string
	Args []string
}

func (c Command) String() string {
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Commands describes how a network tool reports, joins and forgets networks.
type Commands interface {
	Current(iface string) Command
	ParseCurrent(out []byte) (string, bool)
	Join(iface string, creds pockettypes.Credentials) Command
	// JoinFailed inspects a successful run's output for tools that report
	// failure on stdout with a zero exit status.
	JoinFailed(out []byte) error
	Remove(iface, ssid string) Command
}

type commandAssociator struct {
	iface string
	cmds  Commands
	run   Runner
	log   logrus.FieldLogger
}

type Option func(a *commandAssociator) error

func WithRunner(r Runner) Option {
	return func(a *commandAssociator) error {
		if r == nil {
			return errors.New("runner cannot be nil")
		}
		a.run = r
		return nil
	}
}

func WithCommands(c Commands) Option {
	return func(a *commandAssociator) error {
		a.cmds = c
		return nil
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(a *commandAssociator) error {
		if log != nil {
			a.log = log
		}
		return nil
	}
}

// New returns an Associator driving the platform's network tool on iface.
// An empty iface uses DefaultInterface.
func New(iface string, opts ...Option) (Associator, error) {
	if iface == "" {
		iface = DefaultInterface
	}

	a := &commandAssociator{
		iface: iface,
		cmds:  defaultCommands(),
		run:   execRunner,
		log:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}

	if a.cmds == nil {
		return unsupported{}, nil
	}
	a.log = a.log.WithField("interface", iface)
	return a, nil
}

func (a *commandAssociator) Apply(ctx context.Context, creds pockettypes.Credentials, done func(JoinResult)) {
	var once sync.Once
	finish := func(r JoinResult) {
		once.Do(func() { done(r) })
	}

	if creds.SSID == "" {
		finish(JoinResult{Status: Failed, Err: ErrInvalidSSID})
		return
	}

	go func() {
		defer func() {
			if p := recover(); p != nil {
				finish(JoinResult{Status: Failed, Err: errors.Errorf("wifi join panicked: %v", p)})
			}
		}()
		finish(a.join(ctx, creds))
	}()
}

func (a *commandAssociator) join(ctx context.Context, creds pockettypes.Credentials) JoinResult {
	log := a.log.WithField("ssid", creds.SSID)

	current := a.cmds.Current(a.iface)
	if out, err := a.run(ctx, current.Name, current.Args...); err != nil {
		log.WithError(err).Debug("could not read current network")
	} else if ssid, ok := a.cmds.ParseCurrent(out); ok && ssid == creds.SSID {
		log.Info("already associated with network")
		return JoinResult{Status: AlreadyAssociated}
	}

	join := a.cmds.Join(a.iface, creds)
	out, err := a.run(ctx, join.Name, join.Args...)
	if err == nil {
		err = a.cmds.JoinFailed(out)
	}
	if err != nil {
		log.WithError(err).Warn("wifi connection failed")
		return JoinResult{Status: Failed, Err: err}
	}

	log.Info("connected to network")
	return JoinResult{Status: Joined}
}

func (a *commandAssociator) Remove(ctx context.Context, ssid string) error {
	if ssid == "" {
		return ErrInvalidSSID
	}

	remove := a.cmds.Remove(a.iface, ssid)
	if _, err := a.run(ctx, remove.Name, remove.Args...); err != nil {
		return errors.Wrapf(err, "remove network %s", ssid)
	}

	a.log.WithField("ssid", ssid).Info("removed wifi configuration")
	return nil
}

type unsupported struct{}

func (unsupported) Apply(_ context.Context, _ pockettypes.Credentials, done func(JoinResult)) {
	done(JoinResult{Status: Failed, Err: ErrNotImplemented})
}

func (unsupported) Remove(context.Context, string) error {
	return ErrNotImplemented
}
