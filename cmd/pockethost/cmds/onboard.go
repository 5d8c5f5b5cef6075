package cmds

import (
	"github.com/spf13/cobra"
)

func CmdOnboard(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "onboard",
		Short: "Scan credentials from stdin, join the network and discover its gateway",
		Args:  cobra.NoArgs,
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

			if err := runScan(s.plugin, cmd.InOrStdin()); err != nil {
				return err
			}
			creds, err := scanned(s)
			if err != nil {
				return err
			}

			s.plugin.ConnectWiFi(cmd.Context(), creds.SSID, creds.Password)
			s.plugin.Wait()
			if e, _ := s.next(); failure(e) != nil {
				return failure(e)
			}

			s.plugin.DiscoverGateway(cmd.Context())
			s.plugin.Wait()
			e, _ := s.next()
			return failure(e)
		},
	}
}
