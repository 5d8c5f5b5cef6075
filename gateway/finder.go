package gateway

import (
	"context"
	"net"

	"github.com/pkg/errors"
)

// Finder looks up the default gateway of a resolved interface.
// It returns ErrNoGateway when the table is well formed but has no default route.
type Finder interface {
	Find(ctx context.Context, ref InterfaceRef) (string, error)
}

// FinderFunc adapts a function to the Finder interface.
type FinderFunc func(ctx context.Context, ref InterfaceRef) (string, error)

func (fn FinderFunc) Find(ctx context.Context, ref InterfaceRef) (string, error) {
	return fn(ctx, ref)
}

// Resolver maps an interface name to its kernel index.
type Resolver interface {
	Resolve(name string) (InterfaceRef, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(name string) (InterfaceRef, error)

func (fn ResolverFunc) Resolve(name string) (InterfaceRef, error) { return fn(name) }

// RouteTableFinder captures, decodes and searches a sysctl routing table snapshot.
type RouteTableFinder struct {
	querier Querier
	filter  Filter
	layout  Layout
}

// NewRouteTableFinder returns a finder reading routes through q.
func NewRouteTableFinder(q Querier, f Filter, l Layout) *RouteTableFinder {
	return &RouteTableFinder{querier: q, filter: f, layout: l}
}

// Find runs the whole pipeline synchronously. Cancellation is only observed between
// stages; the query itself cannot be interrupted.
func (f *RouteTableFinder) Find(ctx context.Context, ref InterfaceRef) (string, error) {
	snapshot, err := Capture(f.querier, f.filter)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	entries, err := Decode(snapshot, f.layout)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	gw, ok := FindGateway(entries, ref.Index)
	if !ok {
		return "", ErrNoGateway
	}
	return gw, nil
}

// netResolver resolves names through the standard interface table.
type netResolver struct{}

func (netResolver) Resolve(name string) (InterfaceRef, error) {
	if name == "" {
		return InterfaceRef{}, errors.Wrap(ErrResolve, "empty interface name")
	}

	ifi, err := net.InterfaceByName(name)
	if err != nil {
		return InterfaceRef{}, errors.Wrapf(ErrResolve, "%s: %v", name, err)
	}

	return checkIndex(name, ifi.Index)
}

func checkIndex(name string, index int) (InterfaceRef, error) {
	if index <= 0 {
		return InterfaceRef{}, errors.Wrapf(ErrResolve, "%s has invalid index %d", name, index)
	}
	return InterfaceRef{Name: name, Index: index}, nil
}

// backendConfig carries the options a platform backend honours.
type backendConfig struct {
	filter    Filter
	namespace string
}
