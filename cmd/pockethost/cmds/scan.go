package cmds

import (
	"bufio"
	"io"
	"strings"

	"github.com/SyNdicateFoundation/pockethost"
	"github.com/SyNdicateFoundation/pockethost/notify"
	"github.com/SyNdicateFoundation/pockethost/pockettypes"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func CmdScan(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Read decoded QR payloads from stdin until one carries Wi-Fi credentials",
		Long: `scan reads one decoded QR payload per line, as produced by a QR decoder such as
zbarcam --raw. The first WPA payload is reported as qr_code_scanned; reaching the
end of input first reports qr_scan_cancelled.`,
		Args: cobra.NoArgs,
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
			_, err = scanned(s)
			return err
		},
	}
}

// runScan feeds lines from r to a scan session until one is accepted.
func runScan(p *pockethost.Plugin, r io.Reader) error {
	if err := p.StartScan(); err != nil {
		return err
	}

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if p.HandleScan(strings.TrimRight(sc.Text(), "\r")) {
			return nil
		}
	}

	if err := sc.Err(); err != nil {
		p.FailScan(err.Error())
		return nil
	}
	p.StopScan()
	return nil
}

// scanned returns the credentials from the session's scan result signal.
func scanned(s *session) (pockettypes.Credentials, error) {
	for {
		e, ok := s.next()
		if !ok {
			return pockettypes.NilCredentials, errors.New("scan produced no result")
		}
		switch e.Name {
		case notify.QRCodeScanned:
			return pockettypes.Credentials{SSID: e.Arg(0), Password: e.Arg(1)}, nil
		case notify.QRScanCancelled, notify.QRScanFailed:
			return pockettypes.NilCredentials, failure(e)
		}
	}
}
