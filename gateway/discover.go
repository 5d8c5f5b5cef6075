package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultTimeout bounds a discovery attempt.
const DefaultTimeout = 3 * time.Second

// Observer is notified of every completed attempt.
type Observer interface {
	ObserveDiscovery(r Result)
}

// Discoverer runs bounded gateway discovery attempts for one interface.
// Attempts are independent: each gets its own snapshot, goroutine and deadline.
type Discoverer struct {
	iface     string
	timeout   time.Duration
	filter    Filter
	namespace string
	finder    Finder
	resolver  Resolver
	log       logrus.FieldLogger
	observers []Observer
}

// Option configures a Discoverer.
type Option func(d *Discoverer) error

// New returns a Discoverer using the host's routing backend unless a finder and
// resolver are supplied.
func New(opts ...Option) (*Discoverer, error) {
	d := &Discoverer{
		iface:   DefaultInterface,
		timeout: DefaultTimeout,
		filter:  DefaultFilter,
		log:     logrus.StandardLogger(),
	}

	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}

	if d.finder == nil || d.resolver == nil {
		resolver, finder, err := systemBackend(backendConfig{filter: d.filter, namespace: d.namespace})
		if err != nil {
			return nil, err
		}
		if d.resolver == nil {
			d.resolver = resolver
		}
		if d.finder == nil {
			d.finder = finder
		}
	}

	return d, nil
}

// WithInterface sets the interface whose default gateway is looked up.
func WithInterface(name string) Option {
	return func(d *Discoverer) error {
		if name == "" {
			return errors.New("interface name cannot be empty")
		}
		d.iface = name
		return nil
	}
}

// WithTimeout sets the deadline of each attempt.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Discoverer) error {
		if timeout <= 0 {
			return errors.Errorf("timeout must be positive, got %s", timeout)
		}
		d.timeout = timeout
		return nil
	}
}

// WithFilter overrides the family and flag filter of the routing query.
func WithFilter(f Filter) Option {
	return func(d *Discoverer) error {
		if f.Family != AFInet {
			return errors.Errorf("address family %d is not supported", f.Family)
		}
		d.filter = f
		return nil
	}
}

// WithNamespace runs discovery inside a named network namespace. Linux only.
func WithNamespace(name string) Option {
	return func(d *Discoverer) error {
		d.namespace = name
		return nil
	}
}

// WithFinder replaces the routing backend.
func WithFinder(f Finder) Option {
	return func(d *Discoverer) error {
		d.finder = f
		return nil
	}
}

// WithResolver replaces interface name resolution.
func WithResolver(r Resolver) Option {
	return func(d *Discoverer) error {
		d.resolver = r
		return nil
	}
}

// WithLogger sets the logger used for attempt lifecycle messages.
func WithLogger(log logrus.FieldLogger) Option {
	return func(d *Discoverer) error {
		if log != nil {
			d.log = log
		}
		return nil
	}
}

// WithObserver registers an observer of completed attempts.
func WithObserver(o Observer) Option {
	return func(d *Discoverer) error {
		if o != nil {
			d.observers = append(d.observers, o)
		}
		return nil
	}
}

// Interface returns the configured interface name.
func (d *Discoverer) Interface() string { return d.iface }

// Timeout returns the per-attempt deadline.
func (d *Discoverer) Timeout() time.Duration { return d.timeout }

// Discover runs one attempt and waits for its result.
func (d *Discoverer) Discover(ctx context.Context) Result {
	return <-d.Start(ctx)
}

// Start launches one attempt. The returned channel yields exactly one Result and is
// then closed. A worker that finishes after the deadline has no observable effect.
func (d *Discoverer) Start(ctx context.Context) <-chan Result {
	a := &attempt{
		d:       d,
		id:      uuid.NewString(),
		started: time.Now(),
		ref:     InterfaceRef{Name: d.iface},
		ch:      make(chan Result, 1),
		done:    make(chan struct{}),
		cancel:  func() {},
	}
	a.log = d.log.WithFields(logrus.Fields{"attempt": a.id, "interface": d.iface})

	ref, err := d.resolver.Resolve(d.iface)
	if err != nil {
		a.complete(Result{Outcome: SystemError, Err: err})
		return a.ch
	}
	a.ref = ref

	workCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.log.WithField("index", ref.Index).Debug("starting gateway discovery")
	go a.watch(ctx)
	go a.work(workCtx)

	return a.ch
}

type attempt struct {
	d       *Discoverer
	id      string
	started time.Time
	ref     InterfaceRef
	log     logrus.FieldLogger

	once   sync.Once
	ch     chan Result
	done   chan struct{}
	cancel context.CancelFunc
}

// complete records r as the attempt's outcome if no outcome exists yet.
func (a *attempt) complete(r Result) bool {
	won := false
	a.once.Do(func() {
		won = true
		a.cancel()

		r.ID = a.id
		r.Interface = a.ref
		r.Elapsed = time.Since(a.started)

		// Observers run before delivery; the result goes out even if reporting panics.
		defer func() {
			a.ch <- r
			close(a.ch)
			close(a.done)
		}()
		a.d.report(a.log, r)
	})
	return won
}

func (a *attempt) watch(parent context.Context) {
	timer := time.NewTimer(a.d.timeout)
	defer timer.Stop()

	select {
	case <-timer.C:
		a.complete(Result{
			Outcome: TimedOut,
			Err:     errors.Wrapf(ErrTimeout, "after %s", a.d.timeout),
		})
	case <-parent.Done():
		a.complete(contextResult(parent.Err()))
	case <-a.done:
	}
}

func (a *attempt) work(ctx context.Context) {
	defer func() {
		if p := recover(); p != nil {
			a.complete(Result{Outcome: SystemError, Err: errors.Errorf("gateway finder panicked: %v", p)})
		}
	}()

	gw, err := a.d.finder.Find(ctx, a.ref)

	var r Result
	switch {
	case ctx.Err() != nil:
		r = contextResult(ctx.Err())
	case err == nil:
		r = Result{Outcome: Found, Gateway: gw}
	case errors.Is(err, ErrNoGateway):
		r = Result{Outcome: NotFound, Err: err}
	default:
		r = Result{Outcome: SystemError, Err: err}
	}

	if !a.complete(r) {
		a.log.WithField("outcome", r.Outcome).Debug("discarding late discovery result")
	}
}

func contextResult(err error) Result {
	if errors.Is(err, context.DeadlineExceeded) {
		return Result{Outcome: TimedOut, Err: errors.Wrap(ErrTimeout, err.Error())}
	}
	return Result{Outcome: SystemError, Err: err}
}

func (d *Discoverer) report(log logrus.FieldLogger, r Result) {
	entry := log.WithFields(logrus.Fields{
		"outcome": r.Outcome.String(),
		"elapsed": r.Elapsed,
	})

	switch r.Outcome {
	case Found:
		entry.WithField("gateway", r.Gateway).Info("discovered gateway")
	case NotFound:
		entry.Info("no default gateway")
	default:
		entry.WithError(r.Err).Warn("gateway discovery failed")
	}

	for _, o := range d.observers {
		observe(log, o, r)
	}
}

func observe(log logrus.FieldLogger, o Observer, r Result) {
	defer func() {
		if p := recover(); p != nil {
			log.WithField("panic", p).Error("discovery observer panicked")
		}
	}()
	o.ObserveDiscovery(r)
}
