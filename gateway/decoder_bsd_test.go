//go:build darwin || (freebsd && (amd64 || arm64))

package gateway

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/route"
)

// TestDecodeKernelFraming checks the decoder against messages framed by x/net/route
// for the host's rt_msghdr layout.
func TestDecodeKernelFraming(t *testing.T) {
	var snapshot Snapshot
	for i, gw := range [][4]byte{{10, 0, 0, 1}, {192, 0, 2, 1}} {
		m := route.RouteMessage{
			Version: syscall.RTM_VERSION,
			Type:    syscall.RTM_GET,
			Flags:   syscall.RTF_UP | syscall.RTF_GATEWAY,
			Index:   i + 1,
			ID:      uintptr(i + 1),
			Seq:     i + 1,
			Addrs: []route.Addr{
				syscall.RTAX_DST:     &route.Inet4Addr{},
				syscall.RTAX_GATEWAY: &route.Inet4Addr{IP: gw},
			},
		}
		b, err := m.Marshal()
		require.NoError(t, err)
		snapshot = append(snapshot, b...)
	}

	entries, err := Decode(snapshot, hostLayout)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	gw, ok := FindGateway(entries, 2)
	require.True(t, ok)
	assert.Equal(t, "192.0.2.1", gw)

	gw, ok = FindGateway(entries, 1)
	require.True(t, ok)
	assert.Equal(t, "10.0.0.1", gw)
}

func TestSysctlQuerierProbe(t *testing.T) {
	n, err := sysctlQuerier{}.Query(DefaultFilter, nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 0)

	s, err := Capture(sysctlQuerier{}, DefaultFilter)
	require.NoError(t, err)

	_, err = Decode(s, hostLayout)
	assert.NoError(t, err)
}
