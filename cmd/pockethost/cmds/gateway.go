package cmds

import (
	"github.com/spf13/cobra"
)

func CmdGateway(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "gateway",
		Short: "Discover the default IPv4 gateway of the interface",
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

			s.plugin.DiscoverGateway(cmd.Context())
			s.plugin.Wait()

			e, _ := s.next()
			return failure(e)
		},
	}
}
