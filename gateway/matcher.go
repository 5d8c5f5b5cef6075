package gateway

import (
	"github.com/SyNdicateFoundation/pockethost/pocketutils"
)

// FindGateway returns the IPv4 gateway of the default route bound to index.
//
// Only entries for index carrying both a destination and a gateway are considered.
// The destination must be 0.0.0.0; a default route whose gateway is not IPv4 (a link
// address, say) is skipped. When several default routes qualify the first one in
// snapshot order wins, which is kernel order and not necessarily metric order.
func FindGateway(entries []Entry, index int) (string, bool) {
	if index <= 0 {
		return "", false
	}

	for _, e := range entries {
		if e.Index != index || !e.Has(RTADst|RTAGateway) {
			continue
		}

		dst, ok := e.Sockaddr(RTAXDst)
		if !ok || dst.Family != AFInet || !pocketutils.IsUnspecifiedIPv4(dst.IPv4) {
			continue
		}

		gw, ok := e.Sockaddr(RTAXGateway)
		if !ok || gw.Family != AFInet {
			continue
		}

		return pocketutils.FormatIPv4(gw.IPv4), true
	}

	return "", false
}
