//go:build linux

package wifi

const DefaultInterface = "wlan0"

func defaultCommands() Commands { return NMCLI{} }
