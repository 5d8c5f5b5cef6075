//go:build darwin || (freebsd && (amd64 || arm64))

package gateway

import (
	"os"
	"syscall"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// sysctlQuerier reads the routing table through the CTL_NET.AF_ROUTE sysctl node.
type sysctlQuerier struct{}

func (sysctlQuerier) Query(f Filter, buf []byte) (int, error) {
	mib := [6]int32{unix.CTL_NET, unix.AF_ROUTE, 0, int32(f.Family), unix.NET_RT_FLAGS, int32(f.Flags)}

	var p unsafe.Pointer
	if len(buf) > 0 {
		p = unsafe.Pointer(&buf[0])
	}
	n := uintptr(len(buf))

	_, _, errno := syscall.Syscall6(
		syscall.SYS___SYSCTL,
		uintptr(unsafe.Pointer(&mib[0])),
		uintptr(len(mib)),
		uintptr(p),
		uintptr(unsafe.Pointer(&n)),
		0,
		0,
	)
	if errno != 0 {
		return 0, os.NewSyscallError("sysctl", errno)
	}

	return int(n), nil
}

func systemBackend(cfg backendConfig) (Resolver, Finder, error) {
	if cfg.namespace != "" {
		return nil, nil, errors.Wrap(ErrNotImplemented, "network namespaces")
	}
	return netResolver{}, NewRouteTableFinder(sysctlQuerier{}, cfg.filter, hostLayout), nil
}
