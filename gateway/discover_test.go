package gateway

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedResolver = ResolverFunc(func(name string) (InterfaceRef, error) {
	return InterfaceRef{Name: name, Index: 4}, nil
})

type recordingObserver struct {
	mu      sync.Mutex
	results []Result
}

func (o *recordingObserver) ObserveDiscovery(r Result) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.results = append(o.results, r)
}

func (o *recordingObserver) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.results)
}

func newTestDiscoverer(t *testing.T, opts ...Option) *Discoverer {
	t.Helper()
	log, _ := test.NewNullLogger()
	base := []Option{WithInterface("en0"), WithResolver(fixedResolver), WithLogger(log)}
	d, err := New(append(base, opts...)...)
	require.NoError(t, err)
	return d
}

func TestDiscoverFound(t *testing.T) {
	obs := &recordingObserver{}
	d := newTestDiscoverer(t,
		WithFinder(FinderFunc(func(ctx context.Context, ref InterfaceRef) (string, error) {
			assert.Equal(t, 4, ref.Index)
			return "192.0.2.1", nil
		})),
		WithObserver(obs),
	)

	r := d.Discover(context.Background())
	assert.Equal(t, Found, r.Outcome)
	assert.Equal(t, "192.0.2.1", r.Gateway)
	assert.NoError(t, r.Err)
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, InterfaceRef{Name: "en0", Index: 4}, r.Interface)
	assert.Equal(t, 1, obs.count())
}

func TestDiscoverNotFoundOnEmptyTable(t *testing.T) {
	d := newTestDiscoverer(t,
		WithFinder(NewRouteTableFinder(&tableQuerier{}, DefaultFilter, LayoutDarwin)),
	)

	r := d.Discover(context.Background())
	assert.Equal(t, NotFound, r.Outcome)
	assert.Empty(t, r.Gateway)
}

func TestDiscoverPipeline(t *testing.T) {
	table := concat(
		hostRoute(4, [4]byte{10, 8, 0, 0}, [4]byte{10, 0, 0, 1}),
		defaultRoute(4, [4]byte{192, 0, 2, 1}),
	)
	d := newTestDiscoverer(t,
		WithFinder(NewRouteTableFinder(&tableQuerier{table: table}, DefaultFilter, LayoutDarwin)),
	)

	first := d.Discover(context.Background())
	require.Equal(t, Found, first.Outcome)
	assert.Equal(t, "192.0.2.1", first.Gateway)

	second := d.Discover(context.Background())
	assert.Equal(t, first.Outcome, second.Outcome)
	assert.Equal(t, first.Gateway, second.Gateway)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestDiscoverCorruptTable(t *testing.T) {
	table := concat(defaultRoute(4, [4]byte{192, 0, 2, 1}), make([]byte, 4))
	d := newTestDiscoverer(t,
		WithFinder(NewRouteTableFinder(&tableQuerier{table: table}, DefaultFilter, LayoutDarwin)),
	)

	r := d.Discover(context.Background())
	assert.Equal(t, SystemError, r.Outcome)
	assert.True(t, errors.Is(r.Err, ErrCorrupt))
}

func TestDiscoverResolveFailure(t *testing.T) {
	var calls atomic.Int32
	d := newTestDiscoverer(t,
		WithResolver(ResolverFunc(func(name string) (InterfaceRef, error) {
			return InterfaceRef{}, errors.Wrap(ErrResolve, name)
		})),
		WithFinder(FinderFunc(func(ctx context.Context, ref InterfaceRef) (string, error) {
			calls.Add(1)
			return "192.0.2.1", nil
		})),
	)

	ch := d.Start(context.Background())
	r, ok := <-ch
	require.True(t, ok)
	assert.Equal(t, SystemError, r.Outcome)
	assert.True(t, errors.Is(r.Err, ErrResolve))

	_, ok = <-ch
	assert.False(t, ok)
	assert.Zero(t, calls.Load())
}

func TestDiscoverSystemError(t *testing.T) {
	d := newTestDiscoverer(t,
		WithFinder(FinderFunc(func(ctx context.Context, ref InterfaceRef) (string, error) {
			return "", &QueryError{Op: "read", Err: errors.New("boom")}
		})),
	)

	r := d.Discover(context.Background())
	assert.Equal(t, SystemError, r.Outcome)
	assert.True(t, errors.Is(r.Err, ErrSyscall))
}

func TestDiscoverTimeoutReportsOnce(t *testing.T) {
	release := make(chan struct{})
	cancelled := make(chan struct{})
	finished := make(chan struct{})
	obs := &recordingObserver{}

	d := newTestDiscoverer(t,
		WithTimeout(20*time.Millisecond),
		WithObserver(obs),
		WithFinder(FinderFunc(func(ctx context.Context, ref InterfaceRef) (string, error) {
			defer close(finished)
			<-ctx.Done()
			close(cancelled)
			<-release
			return "192.0.2.1", nil
		})),
	)

	start := time.Now()
	ch := d.Start(context.Background())

	r := <-ch
	assert.Equal(t, TimedOut, r.Outcome)
	assert.True(t, errors.Is(r.Err, ErrTimeout))
	assert.Less(t, time.Since(start), 2*time.Second)

	_, open := <-ch
	assert.False(t, open)

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("worker context was not cancelled")
	}

	close(release)
	<-finished
	assert.Never(t, func() bool { return obs.count() != 1 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestDiscoverParentCancelled(t *testing.T) {
	d := newTestDiscoverer(t,
		WithTimeout(5*time.Second),
		WithFinder(FinderFunc(func(ctx context.Context, ref InterfaceRef) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		})),
	)

	ctx, cancel := context.WithCancel(context.Background())
	ch := d.Start(ctx)
	cancel()

	r := <-ch
	assert.Equal(t, SystemError, r.Outcome)
	assert.True(t, errors.Is(r.Err, context.Canceled))
}

func TestDiscoverParentDeadline(t *testing.T) {
	d := newTestDiscoverer(t,
		WithTimeout(5*time.Second),
		WithFinder(FinderFunc(func(ctx context.Context, ref InterfaceRef) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		})),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	r := d.Discover(ctx)
	assert.Equal(t, TimedOut, r.Outcome)
}

func TestDiscoverFinderPanic(t *testing.T) {
	d := newTestDiscoverer(t,
		WithFinder(FinderFunc(func(ctx context.Context, ref InterfaceRef) (string, error) {
			panic("index out of range")
		})),
	)

	r := d.Discover(context.Background())
	assert.Equal(t, SystemError, r.Outcome)
	assert.Contains(t, r.Err.Error(), "index out of range")
}

func TestDiscoverConcurrentAttempts(t *testing.T) {
	d := newTestDiscoverer(t,
		WithFinder(FinderFunc(func(ctx context.Context, ref InterfaceRef) (string, error) {
			time.Sleep(5 * time.Millisecond)
			return "192.0.2.1", nil
		})),
	)

	var chans []<-chan Result
	for i := 0; i < 8; i++ {
		chans = append(chans, d.Start(context.Background()))
	}

	ids := map[string]bool{}
	for _, ch := range chans {
		r := <-ch
		assert.Equal(t, Found, r.Outcome)
		ids[r.ID] = true
	}
	assert.Len(t, ids, 8)
}

func TestDiscoverLogsOutcome(t *testing.T) {
	log, hook := test.NewNullLogger()
	d := newTestDiscoverer(t,
		WithLogger(log),
		WithFinder(FinderFunc(func(ctx context.Context, ref InterfaceRef) (string, error) {
			return "", ErrNoGateway
		})),
	)

	d.Discover(context.Background())

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "not_found", entry.Data["outcome"])
	assert.Equal(t, "en0", entry.Data["interface"])
}

func TestNewOptionValidation(t *testing.T) {
	finder := WithFinder(FinderFunc(func(ctx context.Context, ref InterfaceRef) (string, error) {
		return "", ErrNoGateway
	}))

	for name, opt := range map[string]Option{
		"empty interface": WithInterface(""),
		"zero timeout":    WithTimeout(0),
		"ipv6 filter":     WithFilter(Filter{Family: 30, Flags: RTFGateway}),
	} {
		_, err := New(WithResolver(fixedResolver), finder, opt)
		assert.Error(t, err, name)
	}

	d, err := New(WithResolver(fixedResolver), finder)
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, d.Timeout())
	assert.Equal(t, DefaultInterface, d.Interface())
}

type panickingObserver struct{}

func (panickingObserver) ObserveDiscovery(Result) { panic("observer failed") }

func TestDiscoverPanickingObserver(t *testing.T) {
	obs := &recordingObserver{}
	log, hook := test.NewNullLogger()
	d := newTestDiscoverer(t,
		WithLogger(log),
		WithObserver(panickingObserver{}),
		WithObserver(obs),
		WithFinder(FinderFunc(func(ctx context.Context, ref InterfaceRef) (string, error) {
			return "192.0.2.1", nil
		})),
	)

	select {
	case r := <-d.Start(context.Background()):
		assert.Equal(t, Found, r.Outcome)
		assert.Equal(t, "192.0.2.1", r.Gateway)
	case <-time.After(time.Second):
		t.Fatal("no result delivered")
	}

	assert.Equal(t, 1, obs.count())

	var messages []string
	for _, e := range hook.AllEntries() {
		messages = append(messages, e.Message)
	}
	assert.Contains(t, messages, "discovery observer panicked")
}

func TestDiscoverPanickingObserverOnTimeout(t *testing.T) {
	obs := &recordingObserver{}
	d := newTestDiscoverer(t,
		WithTimeout(10*time.Millisecond),
		WithObserver(panickingObserver{}),
		WithObserver(obs),
		WithFinder(FinderFunc(func(ctx context.Context, ref InterfaceRef) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		})),
	)

	r := d.Discover(context.Background())
	assert.Equal(t, TimedOut, r.Outcome)
	assert.Equal(t, 1, obs.count())
}
