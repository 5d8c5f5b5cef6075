//go:build darwin

package wifi

const DefaultInterface = "en0"

func defaultCommands() Commands { return Networksetup{} }
