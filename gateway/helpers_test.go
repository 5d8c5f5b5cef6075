package gateway

import (
	"encoding/binary"
)

const (
	testRTMVersion = 5
	testRTMGet     = 4
	testAFLink     = 18
)

func sockaddrInet4(a, b, c, d byte) []byte {
	sa := make([]byte, 16)
	sa[0] = 16
	sa[1] = AFInet
	sa[4], sa[5], sa[6], sa[7] = a, b, c, d
	return sa
}

// sockaddrLink is a sockaddr_dl naming the interface rather than an address.
func sockaddrLink(index uint16) []byte {
	sa := make([]byte, 20)
	sa[0] = 20
	sa[1] = testAFLink
	binary.NativeEndian.PutUint16(sa[2:], index)
	return sa
}

// sockaddrMask is a kernel-truncated netmask: only the significant bytes are kept.
func sockaddrMask(mask ...byte) []byte {
	if len(mask) == 0 {
		return []byte{0}
	}
	sa := make([]byte, 4+len(mask))
	sa[0] = byte(len(sa))
	sa[1] = AFInet
	copy(sa[4:], mask)
	return sa
}

// routeMsg frames sockaddrs behind an rt_msghdr for layout l. padding extra bytes
// are appended after the last sockaddr and counted in the declared length.
func routeMsg(l Layout, index, flags, addrs, padding int, sockaddrs ...[]byte) []byte {
	var body []byte
	for _, sa := range sockaddrs {
		chunk := make([]byte, l.roundup(int(sa[0])))
		copy(chunk, sa)
		body = append(body, chunk...)
	}
	body = append(body, make([]byte, padding)...)

	msg := make([]byte, l.HeaderLen, l.HeaderLen+len(body))
	binary.NativeEndian.PutUint16(msg[offMsglen:], uint16(l.HeaderLen+len(body)))
	msg[offVersion] = testRTMVersion
	msg[offType] = testRTMGet
	binary.NativeEndian.PutUint16(msg[offIndex:], uint16(index))
	binary.NativeEndian.PutUint32(msg[offFlags:], uint32(flags))
	binary.NativeEndian.PutUint32(msg[offAddrs:], uint32(addrs))

	return append(msg, body...)
}

// defaultRoute builds a darwin-framed default route through gw on index.
func defaultRoute(index int, gw [4]byte) []byte {
	return routeMsg(LayoutDarwin, index, RTFGateway|0x1, RTADst|RTAGateway|RTANetmask, 0,
		sockaddrInet4(0, 0, 0, 0),
		sockaddrInet4(gw[0], gw[1], gw[2], gw[3]),
		sockaddrMask(),
	)
}

// hostRoute builds a darwin-framed route to dst through gw on index.
func hostRoute(index int, dst, gw [4]byte) []byte {
	return routeMsg(LayoutDarwin, index, RTFGateway|0x1, RTADst|RTAGateway, 0,
		sockaddrInet4(dst[0], dst[1], dst[2], dst[3]),
		sockaddrInet4(gw[0], gw[1], gw[2], gw[3]),
	)
}

func concat(msgs ...[]byte) Snapshot {
	var out []byte
	for _, m := range msgs {
		out = append(out, m...)
	}
	return out
}

// tableQuerier serves a fixed routing table through the two-phase protocol.
type tableQuerier struct {
	table []byte
	calls int
}

func (q *tableQuerier) Query(f Filter, buf []byte) (int, error) {
	q.calls++
	if buf == nil {
		return len(q.table), nil
	}
	return copy(buf, q.table), nil
}
