package pocketutils

import (
	"net"
	"net/netip"
)

// FormatIPv4 renders a raw IPv4 address in dotted-quad form.
func FormatIPv4(addr [4]byte) string {
	return netip.AddrFrom4(addr).String()
}

// IsUnspecifiedIPv4 reports whether addr is 0.0.0.0.
func IsUnspecifiedIPv4(addr [4]byte) bool {
	return addr == [4]byte{}
}

// IPv4 returns the 4-byte form of ip, or false when ip is not an IPv4 address.
func IPv4(ip net.IP) ([4]byte, bool) {
	var out [4]byte
	v4 := ip.To4()
	if v4 == nil {
		return out, false
	}
	copy(out[:], v4)
	return out, true
}

// IsDefaultIPv4Net reports whether dst is the IPv4 wildcard network. A nil dst is how
// the kernel reports a default route.
func IsDefaultIPv4Net(dst *net.IPNet) bool {
	if dst == nil {
		return true
	}
	addr, ok := IPv4(dst.IP)
	if !ok || !IsUnspecifiedIPv4(addr) {
		return false
	}
	ones, _ := dst.Mask.Size()
	return ones == 0
}
