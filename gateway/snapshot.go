package gateway

import (
	"github.com/pkg/errors"
)

// Filter selects which kernel routes a snapshot contains.
type Filter struct {
	Family int // address family, AFInet
	Flags  int // route flags every entry must carry, RTFGateway
}

// DefaultFilter selects IPv4 routes that forward through a gateway.
var DefaultFilter = Filter{Family: AFInet, Flags: RTFGateway}

// Querier performs one call against the kernel routing table.
// A nil buf asks only for the number of bytes the table currently occupies.
// Otherwise the table is copied into buf and the copied byte count is returned.
type Querier interface {
	Query(f Filter, buf []byte) (int, error)
}

// QuerierFunc adapts a function to the Querier interface.
type QuerierFunc func(f Filter, buf []byte) (int, error)

func (fn QuerierFunc) Query(f Filter, buf []byte) (int, error) { return fn(f, buf) }

// Snapshot is a point-in-time copy of the routing table.
// It is owned by one discovery attempt and never modified after Capture returns.
type Snapshot []byte

// Capture reads the routing table in two calls: a size query followed by a read into
// a buffer of that size. The count reported by the read is authoritative since the
// table may change between the two calls.
func Capture(q Querier, f Filter) (Snapshot, error) {
	size, err := q.Query(f, nil)
	if err != nil {
		return nil, &QueryError{Op: "size query", Err: err}
	}
	if size < 0 {
		return nil, errors.Wrapf(ErrCorrupt, "size query reported %d bytes", size)
	}
	if size == 0 {
		return Snapshot{}, nil
	}

	buf := make([]byte, size)
	n, err := q.Query(f, buf)
	if err != nil {
		return nil, &QueryError{Op: "read", Err: err}
	}
	if n < 0 || n > len(buf) {
		return nil, errors.Wrapf(ErrCorrupt, "read reported %d bytes for a %d byte buffer", n, len(buf))
	}

	return Snapshot(buf[:n]), nil
}
