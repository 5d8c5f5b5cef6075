package gateway

import (
	"github.com/pkg/errors"
)

// Common errors for gateway discovery.
var (
	ErrNoGateway      = errors.New("no gateway found")
	ErrCorrupt        = errors.New("corrupt route table")
	ErrResolve        = errors.New("unable to resolve interface")
	ErrSyscall        = errors.New("route table query failed")
	ErrTimeout        = errors.New("gateway discovery timed out")
	ErrNotImplemented = errors.New("not implemented")
)

// QueryError records a failed call against the kernel routing table.
// It matches ErrSyscall under errors.Is and unwraps to the underlying errno.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return "route table " + e.Op + ": " + e.Err.Error()
}

func (e *QueryError) Unwrap() error { return e.Err }

func (e *QueryError) Is(target error) bool { return target == ErrSyscall }
