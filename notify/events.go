// Package notify carries onboarding events to the host application.
package notify

import (
	"github.com/SyNdicateFoundation/pockethost/pockettypes"
)

// Event names understood by the host.
const (
	QRCodeScanned          = "qr_code_scanned"
	QRScanCancelled        = "qr_scan_cancelled"
	QRScanFailed           = "qr_scan_failed"
	WiFiConnected          = "wifi_connected"
	WiFiConnectionFailed   = "wifi_connection_failed"
	GatewayDiscovered      = "gateway_discovered"
	GatewayDiscoveryFailed = "gateway_discovery_failed"
	WiFiRemoved            = "wifi_removed"
)

var signals = []string{
	QRCodeScanned,
	QRScanCancelled,
	QRScanFailed,
	WiFiConnected,
	WiFiConnectionFailed,
	GatewayDiscovered,
	GatewayDiscoveryFailed,
	WiFiRemoved,
}

// Signals returns every event name in registration order.
func Signals() []string {
	out := make([]string, len(signals))
	copy(out, signals)
	return out
}

// Known reports whether name is part of the vocabulary.
func Known(name string) bool {
	for _, s := range signals {
		if s == name {
			return true
		}
	}
	return false
}

func QRCodeScannedEvent(creds pockettypes.Credentials) pockettypes.Event {
	return pockettypes.NewEvent(QRCodeScanned, creds.SSID, creds.Password)
}

func QRScanCancelledEvent() pockettypes.Event {
	return pockettypes.NewEvent(QRScanCancelled)
}

func QRScanFailedEvent(msg string) pockettypes.Event {
	return pockettypes.NewEvent(QRScanFailed, msg)
}

func WiFiConnectedEvent() pockettypes.Event {
	return pockettypes.NewEvent(WiFiConnected)
}

func WiFiConnectionFailedEvent(msg string) pockettypes.Event {
	return pockettypes.NewEvent(WiFiConnectionFailed, msg)
}

func GatewayDiscoveredEvent(ip string) pockettypes.Event {
	return pockettypes.NewEvent(GatewayDiscovered, ip)
}

func GatewayDiscoveryFailedEvent(msg string) pockettypes.Event {
	return pockettypes.NewEvent(GatewayDiscoveryFailed, msg)
}

func WiFiRemovedEvent() pockettypes.Event {
	return pockettypes.NewEvent(WiFiRemoved)
}
