//go:build linux

package gateway

import (
	"context"

	"github.com/SyNdicateFoundation/pockethost/pocketutils"
	"github.com/pkg/errors"
	"github.com/vishvananda/netlink"
	"github.com/vishvananda/netns"
	"golang.org/x/sys/unix"
)

// DefaultInterface is the primary wireless interface on most Linux systems.
const DefaultInterface = "wlan0"

// netlinkBackend reads the main routing tables over rtnetlink, optionally from
// inside a named network namespace.
type netlinkBackend struct {
	filter    Filter
	namespace string
}

func systemBackend(cfg backendConfig) (Resolver, Finder, error) {
	b := &netlinkBackend{filter: cfg.filter, namespace: cfg.namespace}
	return b, b, nil
}

func (b *netlinkBackend) handle() (*netlink.Handle, error) {
	if b.namespace == "" {
		return netlink.NewHandle()
	}

	ns, err := netns.GetFromName(b.namespace)
	if err != nil {
		return nil, errors.Wrapf(err, "open network namespace %s", b.namespace)
	}
	defer ns.Close()

	return netlink.NewHandleAt(ns)
}

// Resolve finds the link index of name.
func (b *netlinkBackend) Resolve(name string) (InterfaceRef, error) {
	if name == "" {
		return InterfaceRef{}, errors.Wrap(ErrResolve, "empty interface name")
	}

	h, err := b.handle()
	if err != nil {
		return InterfaceRef{}, errors.Wrapf(ErrResolve, "%s: %v", name, err)
	}
	defer h.Close()

	link, err := h.LinkByName(name)
	if err != nil {
		return InterfaceRef{}, errors.Wrapf(ErrResolve, "%s: %v", name, err)
	}

	return checkIndex(name, link.Attrs().Index)
}

// routeLister is the part of *netlink.Handle the backend reads routes through.
type routeLister interface {
	RouteListFiltered(family int, filter *netlink.Route, filterMask uint64) ([]netlink.Route, error)
}

// Find lists the main routing table and returns the gateway of the default route
// leaving through ref.
func (b *netlinkBackend) Find(ctx context.Context, ref InterfaceRef) (string, error) {
	h, err := b.handle()
	if err != nil {
		return "", &QueryError{Op: "open", Err: err}
	}
	defer h.Close()

	return b.find(ctx, h, ref)
}

// find filters by table only. Multipath routes carry their output links on the
// next hops, so an RT_FILTER_OIF dump would drop them.
func (b *netlinkBackend) find(ctx context.Context, l routeLister, ref InterfaceRef) (string, error) {
	routes, err := l.RouteListFiltered(b.filter.Family, &netlink.Route{Table: unix.RT_TABLE_MAIN}, netlink.RT_FILTER_TABLE)
	if err != nil && !errors.Is(err, netlink.ErrDumpInterrupted) {
		return "", &QueryError{Op: "list", Err: err}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	gw, ok := matchRoutes(routes, ref.Index)
	if !ok {
		return "", ErrNoGateway
	}
	return gw, nil
}

// matchRoutes applies the default-route rules to rtnetlink routes: the route must
// leave through index, cover 0.0.0.0/0 and name an IPv4 gateway, either directly or
// through one of its multipath next hops.
func matchRoutes(routes []netlink.Route, index int) (string, bool) {
	if index <= 0 {
		return "", false
	}

	for _, route := range routes {
		if !pocketutils.IsDefaultIPv4Net(route.Dst) {
			continue
		}

		if route.LinkIndex == index {
			if gw, ok := pocketutils.IPv4(route.Gw); ok {
				return pocketutils.FormatIPv4(gw), true
			}
		}

		for _, hop := range route.MultiPath {
			if hop == nil || hop.LinkIndex != index {
				continue
			}
			if gw, ok := pocketutils.IPv4(hop.Gw); ok {
				return pocketutils.FormatIPv4(gw), true
			}
		}
	}

	return "", false
}
