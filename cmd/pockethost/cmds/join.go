package cmds

import (
	"github.com/spf13/cobra"
)

func CmdJoin(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "join SSID PASSWORD",
		Short: "Join a Wi-Fi network",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			s, err := opts.newSession(cmd)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := s.close(); err == nil {
					err = cerr
				}
			}()

			s.plugin.ConnectWiFi(cmd.Context(), args[0], args[1])
			s.plugin.Wait()

			e, _ := s.next()
			return failure(e)
		},
	}
}

func CmdForget(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "forget SSID",
		Aliases: []string{"remove"},
		Short:   "Forget a saved Wi-Fi network",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			s, err := opts.newSession(cmd)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := s.close(); err == nil {
					err = cerr
				}
			}()

			return s.plugin.RemoveWiFi(cmd.Context(), args[0])
		},
	}
}
