//go:build darwin

package gateway

// DefaultInterface is the built-in Wi-Fi interface on macOS and iOS.
const DefaultInterface = "en0"

var hostLayout = LayoutDarwin
