// Package wfa parses Wi-Fi credentials out of WFA-format QR code payloads.
package wfa

import (
	"strings"
	"unicode/utf8"

	"github.com/SyNdicateFoundation/pockethost/pockettypes"
)

const (
	// Prefix marks a WPA network payload. Other security types are not joined.
	Prefix = "WIFI:T:WPA;"

	// MinPasswordLength is the shortest accepted WPA passphrase, in characters.
	MinPasswordLength = 8

	fieldSSID     = "S:"
	fieldPassword = "P:"
)

// Parse extracts the SSID and password from payload. It reports false when the
// payload is not a WPA payload, misses either field, or carries a passphrase
// shorter than MinPasswordLength. A field that appears twice keeps its last value.
func Parse(payload string) (pockettypes.Credentials, bool) {
	if !strings.HasPrefix(payload, Prefix) {
		return pockettypes.NilCredentials, false
	}

	var (
		creds            pockettypes.Credentials
		hasSSID, hasPass bool
	)
	for _, field := range strings.Split(payload, ";") {
		switch {
		case strings.HasPrefix(field, fieldSSID):
			creds.SSID = field[len(fieldSSID):]
			hasSSID = true
		case strings.HasPrefix(field, fieldPassword):
			creds.Password = field[len(fieldPassword):]
			hasPass = true
		}
	}

	if !hasSSID || !hasPass {
		return pockettypes.NilCredentials, false
	}
	if utf8.RuneCountInString(creds.Password) < MinPasswordLength {
		return pockettypes.NilCredentials, false
	}

	return creds, true
}
