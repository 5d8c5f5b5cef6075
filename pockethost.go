// Package pockethost is the host-facing onboarding plugin: it turns QR scans,
// Wi-Fi association and gateway discovery into notify events.
package pockethost

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/SyNdicateFoundation/pockethost/gateway"
	"github.com/SyNdicateFoundation/pockethost/notify"
	"github.com/SyNdicateFoundation/pockethost/pocketconfig"
	"github.com/SyNdicateFoundation/pockethost/pockettypes"
	"github.com/SyNdicateFoundation/pockethost/pocketutils"
	"github.com/SyNdicateFoundation/pockethost/wfa"
	"github.com/SyNdicateFoundation/pockethost/wifi"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const PluginName = "PocketHostPlugin"

var ErrScanInProgress = errors.New("qr scan already in progress")

// Plugin relays onboarding operations to the host through an Emitter. Every
// operation reports its outcome as an event; the asynchronous ones return at once.
type Plugin struct {
	cfg  *pocketconfig.Config
	emit notify.Emitter
	log  logrus.FieldLogger

	discoverer *gateway.Discoverer
	observers  []gateway.Observer
	associator wifi.Associator
	flushDNS   func(ctx context.Context) error

	mu       sync.Mutex
	scanning bool

	wg sync.WaitGroup
}

type Option func(p *Plugin) error

// WithDiscoverer replaces the discoverer built from configuration.
func WithDiscoverer(d *gateway.Discoverer) Option {
	return func(p *Plugin) error {
		p.discoverer = d
		return nil
	}
}

// WithDiscoveryObserver is registered on the discoverer built from configuration.
func WithDiscoveryObserver(o gateway.Observer) Option {
	return func(p *Plugin) error {
		p.observers = append(p.observers, o)
		return nil
	}
}

func WithAssociator(a wifi.Associator) Option {
	return func(p *Plugin) error {
		p.associator = a
		return nil
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(p *Plugin) error {
		if log != nil {
			p.log = log
		}
		return nil
	}
}

// WithDNSFlusher replaces the resolver cache flush run after a join.
func WithDNSFlusher(flush func(ctx context.Context) error) Option {
	return func(p *Plugin) error {
		p.flushDNS = flush
		return nil
	}
}

func New(cfg *pocketconfig.Config, emitter notify.Emitter, opts ...Option) (*Plugin, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if emitter == nil {
		emitter = notify.Discard
	}

	p := &Plugin{
		cfg:      cfg,
		emit:     emitter,
		log:      logrus.StandardLogger(),
		flushDNS: pocketutils.FlushDNS,
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.log = p.log.WithField("plugin", PluginName)

	if p.discoverer == nil {
		dopts := []gateway.Option{
			gateway.WithInterface(cfg.Interface),
			gateway.WithTimeout(cfg.Timeout),
			gateway.WithFilter(cfg.Filter()),
			gateway.WithNamespace(cfg.Namespace),
			gateway.WithLogger(p.log),
		}
		for _, o := range p.observers {
			dopts = append(dopts, gateway.WithObserver(o))
		}

		d, err := gateway.New(dopts...)
		if err != nil {
			return nil, errors.Wrap(err, "create gateway discoverer")
		}
		p.discoverer = d
	}

	if p.associator == nil {
		a, err := wifi.New(cfg.WiFiInterface(), wifi.WithLogger(p.log))
		if err != nil {
			return nil, errors.Wrap(err, "create wifi associator")
		}
		p.associator = a
	}

	return p, nil
}

func (p *Plugin) Name() string { return PluginName }

// Signals lists every event the plugin can emit.
func (p *Plugin) Signals() []string { return notify.Signals() }

// Wait blocks until every asynchronous operation started so far has emitted its event.
func (p *Plugin) Wait() { p.wg.Wait() }

// StartScan opens a scan session. Payloads are only accepted while one is open.
func (p *Plugin) StartScan() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.scanning {
		return ErrScanInProgress
	}
	p.scanning = true
	p.log.Info("qr scan started")
	return nil
}

// HandleScan feeds one decoded QR payload to the open session. The first WPA
// payload emits qr_code_scanned and closes the session; anything else is skipped.
// Unlike dismissing the scanner by hand, a successful scan does not also emit
// qr_scan_cancelled.
func (p *Plugin) HandleScan(payload string) bool {
	if !p.Scanning() {
		return false
	}

	creds, ok := wfa.Parse(payload)
	if !ok {
		p.log.Debug("scanned qr code is not a wpa network, continuing")
		return false
	}
	if !p.endScan() {
		return false
	}

	p.log.WithField("ssid", creds.SSID).Info("qr code scanned")
	p.emit.Emit(notify.QRCodeScannedEvent(creds))
	return true
}

// FailScan reports a scanner failure and closes the session. Outside a session
// it still reports, since scanners can fail before the session opens.
func (p *Plugin) FailScan(msg string) {
	p.endScan()
	p.log.WithField("reason", msg).Warn("qr scan failed")
	p.emit.Emit(notify.QRScanFailedEvent(msg))
}

// StopScan closes an open session and emits qr_scan_cancelled. It does nothing
// when no session is open.
func (p *Plugin) StopScan() {
	if !p.endScan() {
		return
	}
	p.log.Info("qr scan cancelled")
	p.emit.Emit(notify.QRScanCancelledEvent())
}

// endScan closes the session and reports whether this call closed it. Events are
// emitted after it returns so emitters may call back into the plugin.
func (p *Plugin) endScan() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	was := p.scanning
	p.scanning = false
	return was
}

// Scanning reports whether a scan session is open.
func (p *Plugin) Scanning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.scanning
}

// ConnectWiFi joins ssid and emits wifi_connected or wifi_connection_failed.
func (p *Plugin) ConnectWiFi(ctx context.Context, ssid, password string) {
	creds := pockettypes.Credentials{SSID: ssid, Password: password}
	log := p.log.WithField("ssid", ssid)

	p.wg.Add(1)
	p.associator.Apply(ctx, creds, func(r wifi.JoinResult) {
		defer p.wg.Done()

		if !r.Connected() {
			log.WithError(r.Err).Warn("wifi connection failed")
			p.emit.Emit(notify.WiFiConnectionFailedEvent(errorMessage(r.Err)))
			return
		}

		if p.cfg.WiFi.FlushDNS && p.flushDNS != nil {
			if err := p.flushDNS(ctx); err != nil {
				log.WithError(err).Warn("failed to flush dns cache")
			}
		}
		log.WithField("status", r.Status).Info("wifi connected")
		p.emit.Emit(notify.WiFiConnectedEvent())
	})
}

// DiscoverGateway starts one bounded discovery attempt and emits its result.
func (p *Plugin) DiscoverGateway(ctx context.Context) {
	ch := p.discoverer.Start(ctx)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.emit.Emit(p.discoveryEvent(<-ch))
	}()
}

func (p *Plugin) discoveryEvent(r gateway.Result) pockettypes.Event {
	iface := p.discoverer.Interface()

	switch r.Outcome {
	case gateway.Found:
		return notify.GatewayDiscoveredEvent(r.Gateway)
	case gateway.TimedOut:
		return notify.GatewayDiscoveryFailedEvent(
			fmt.Sprintf("Gateway discovery timed out after %s.", humanDuration(p.discoverer.Timeout())))
	case gateway.NotFound:
		return notify.GatewayDiscoveryFailedEvent(
			fmt.Sprintf("Could not discover default gateway IP on %s.", iface))
	default:
		return notify.GatewayDiscoveryFailedEvent(
			fmt.Sprintf("Could not discover default gateway IP on %s: %s.", iface, errorMessage(r.Err)))
	}
}

// RemoveWiFi forgets ssid and emits wifi_removed once it is gone.
func (p *Plugin) RemoveWiFi(ctx context.Context, ssid string) error {
	if err := p.associator.Remove(ctx, ssid); err != nil {
		p.log.WithError(err).WithField("ssid", ssid).Warn("failed to remove wifi configuration")
		return err
	}
	p.emit.Emit(notify.WiFiRemovedEvent())
	return nil
}

func errorMessage(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

// humanDuration spells whole seconds out ("3 seconds") and falls back to
// Duration.String otherwise.
func humanDuration(d time.Duration) string {
	if d%time.Second != 0 {
		return d.String()
	}
	switch n := int64(d / time.Second); n {
	case 1:
		return "1 second"
	default:
		return fmt.Sprintf("%d seconds", n)
	}
}
