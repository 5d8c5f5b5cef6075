package cmds

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/SyNdicateFoundation/pockethost/notify"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func CmdSignals(_ *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "signals [NAME...]",
		Short: "List the signals written to stdout, or check that the given names are among them",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = notify.Signals()
			}
			for _, s := range args {
				if !notify.Known(s) {
					return errors.Errorf("unknown signal %q", s)
				}
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
			return nil
		},
	}
}

func CmdConfig(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			out, err := cfg.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

// Version is set with --ldflags -X.
var Version = ""

func CmdVersion() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of pockethost",
		Run: func(cmd *cobra.Command, args []string) {
			v := Version
			if v == "" {
				if i, ok := debug.ReadBuildInfo(); ok {
					v = i.Main.Version
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pockethost %s %s/%s %s\n", v, runtime.GOOS, runtime.GOARCH, runtime.Version())
		},
	}
}
