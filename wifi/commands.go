package wifi

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/SyNdicateFoundation/pockethost/pockettypes"
	"github.com/pkg/errors"
)

// NMCLI drives NetworkManager.
type NMCLI struct{}

func (NMCLI) Current(iface string) Command {
	return Command{Name: "nmcli", Args: []string{"-t", "-f", "ACTIVE,SSID", "device", "wifi", "list", "ifname", iface}}
}

// ParseCurrent reads terse "ACTIVE:SSID" lines. nmcli escapes ':' inside values.
func (NMCLI) ParseCurrent(out []byte) (string, bool) {
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "yes:") {
			continue
		}
		return strings.ReplaceAll(line[len("yes:"):], `\:`, ":"), true
	}
	return "", false
}

func (NMCLI) Join(iface string, creds pockettypes.Credentials) Command {
	return Command{Name: "nmcli", Args: []string{"device", "wifi", "connect", creds.SSID, "password", creds.Password, "ifname", iface}}
}

func (NMCLI) JoinFailed([]byte) error { return nil }

func (NMCLI) Remove(_, ssid string) Command {
	return Command{Name: "nmcli", Args: []string{"connection", "delete", "id", ssid}}
}

// Networksetup drives the macOS networksetup tool.
type Networksetup struct{}

const airportPrefix = "Current Wi-Fi Network: "

func (Networksetup) Current(iface string) Command {
	return Command{Name: "networksetup", Args: []string{"-getairportnetwork", iface}}
}

func (Networksetup) ParseCurrent(out []byte) (string, bool) {
	line := strings.TrimSpace(string(out))
	if !strings.HasPrefix(line, airportPrefix) {
		return "", false
	}
	return line[len(airportPrefix):], true
}

func (Networksetup) Join(iface string, creds pockettypes.Credentials) Command {
	return Command{Name: "networksetup", Args: []string{"-setairportnetwork", iface, creds.SSID, creds.Password}}
}

// JoinFailed treats any output as an error: networksetup exits 0 on failure.
func (Networksetup) JoinFailed(out []byte) error {
	if msg := strings.TrimSpace(string(out)); msg != "" {
		return errors.New(msg)
	}
	return nil
}

func (Networksetup) Remove(iface, ssid string) Command {
	return Command{Name: "networksetup", Args: []string{"-removepreferredwirelessnetwork", iface, ssid}}
}
