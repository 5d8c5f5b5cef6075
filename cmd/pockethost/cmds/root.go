package cmds

import (
	"io"
	"time"

	"github.com/SyNdicateFoundation/pockethost"
	"github.com/SyNdicateFoundation/pockethost/notify"
	"github.com/SyNdicateFoundation/pockethost/pocketconfig"
	"github.com/SyNdicateFoundation/pockethost/pocketlog"
	"github.com/SyNdicateFoundation/pockethost/pocketmetrics"
	"github.com/SyNdicateFoundation/pockethost/pockettypes"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath      string
	iface           string
	timeout         time.Duration
	netns           string
	logLevel        string
	logFormat       string
	logFile         string
	metricsTextfile string
	flushDNS        bool
}

func NewPocketHostCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "pockethost",
		Short: "Onboard a device onto Wi-Fi and find its gateway",
		Long: `pockethost reads Wi-Fi credentials from WFA QR payloads, joins the network
and discovers the default IPv4 gateway of the wireless interface. Every result is
written to stdout as a JSON signal line.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "path to a config file (yaml, json or toml)")
	flags.StringVarP(&opts.iface, "interface", "i", "", "interface whose gateway is discovered")
	flags.DurationVar(&opts.timeout, "timeout", 0, "gateway discovery deadline")
	flags.StringVar(&opts.netns, "netns", "", "network namespace to discover in (linux only)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&opts.logFormat, "log-format", "", "log format: text or json")
	flags.StringVar(&opts.logFile, "log-file", "", "also write logs to this file, rotated")
	flags.StringVar(&opts.metricsTextfile, "metrics-textfile", "", "write discovery metrics to this file on exit")
	flags.BoolVar(&opts.flushDNS, "flush-dns", false, "flush the resolver cache after joining a network")

	cmd.AddCommand(
		CmdGateway(opts),
		CmdScan(opts),
		CmdJoin(opts),
		CmdForget(opts),
		CmdOnboard(opts),
		CmdSignals(opts),
		CmdConfig(opts),
		CmdVersion(),
	)
	return cmd
}

// configOptions turns the flags the user set into config overrides.
func (o *rootOptions) configOptions(cmd *cobra.Command) []pocketconfig.Option {
	flags := cmd.Flags()

	var out []pocketconfig.Option
	if flags.Changed("interface") {
		out = append(out, pocketconfig.WithInterface(o.iface))
	}
	if flags.Changed("timeout") {
		out = append(out, pocketconfig.WithTimeout(o.timeout))
	}
	if flags.Changed("netns") {
		out = append(out, pocketconfig.WithNamespace(o.netns))
	}
	if flags.Changed("log-level") {
		out = append(out, pocketconfig.WithLogLevel(o.logLevel))
	}
	if flags.Changed("log-format") {
		out = append(out, pocketconfig.WithLogFormat(o.logFormat))
	}
	if flags.Changed("log-file") {
		out = append(out, pocketconfig.WithLogFile(o.logFile))
	}
	if flags.Changed("metrics-textfile") {
		out = append(out, pocketconfig.WithMetricsTextfile(o.metricsTextfile))
	}
	if flags.Changed("flush-dns") {
		out = append(out, pocketconfig.WithFlushDNS(o.flushDNS))
	}
	return out
}

func (o *rootOptions) load(cmd *cobra.Command) (*pocketconfig.Config, error) {
	return pocketconfig.Load(o.configPath, o.configOptions(cmd)...)
}

// session is one command run: configuration, logging, metrics and the plugin,
// with every emitted signal mirrored to events.
type session struct {
	cfg     *pocketconfig.Config
	log     *logrus.Logger
	metrics *pocketmetrics.Registry
	plugin  *pockethost.Plugin
	events  *notify.ChanEmitter
	out     *notify.WriterEmitter
	closer  io.Closer
}

func (o *rootOptions) newSession(cmd *cobra.Command, popts ...pockethost.Option) (*session, error) {
	cfg, err := o.load(cmd)
	if err != nil {
		return nil, err
	}

	log, closer, err := pocketlog.New(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	s := &session{
		cfg:     cfg,
		log:     log,
		metrics: pocketmetrics.New(),
		events:  notify.NewChanEmitter(64),
		out:     notify.NewWriterEmitter(cmd.OutOrStdout()),
		closer:  closer,
	}

	emitter := notify.Multi(s.out, notify.LogEmitter{Log: log}, s.metrics, s.events)
	base := []pockethost.Option{
		pockethost.WithLogger(log),
		pockethost.WithDiscoveryObserver(s.metrics),
	}

	s.plugin, err = pockethost.New(cfg, emitter, append(base, popts...)...)
	if err != nil {
		closer.Close()
		return nil, err
	}
	return s, nil
}

// next returns the next emitted signal, if any.
func (s *session) next() (pockettypes.Event, bool) {
	select {
	case e := <-s.events.C:
		return e, true
	default:
		return pockettypes.Event{}, false
	}
}

// failure turns a failure signal into a command error.
func failure(e pockettypes.Event) error {
	switch e.Name {
	case notify.GatewayDiscoveryFailed, notify.WiFiConnectionFailed, notify.QRScanFailed:
		return errors.New(e.Arg(0))
	case notify.QRScanCancelled:
		return errors.New("no wifi qr code scanned")
	}
	return nil
}

func (s *session) close() error {
	var err error
	if path := s.cfg.Metrics.Textfile; path != "" {
		if werr := s.metrics.WriteTextfile(path); werr != nil {
			s.log.WithError(werr).Warn("failed to write metrics")
			err = werr
		}
	}
	if werr := s.out.Err(); werr != nil && err == nil {
		err = errors.Wrap(werr, "write signals")
	}
	if cerr := s.closer.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
