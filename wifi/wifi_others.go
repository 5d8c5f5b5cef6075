//go:build !linux && !darwin

package wifi

const DefaultInterface = ""

func defaultCommands() Commands { return nil }
