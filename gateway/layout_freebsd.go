//go:build freebsd && (amd64 || arm64)

package gateway

// DefaultInterface is the first wireless virtual interface created by wlan(4).
const DefaultInterface = "wlan0"

var hostLayout = LayoutFreeBSD64
