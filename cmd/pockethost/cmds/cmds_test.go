package cmds

import (
	"bytes"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/SyNdicateFoundation/pockethost"
	"github.com/SyNdicateFoundation/pockethost/notify"
	"github.com/SyNdicateFoundation/pockethost/pocketconfig"
	"github.com/SyNdicateFoundation/pockethost/pockettypes"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPlugin(t *testing.T) (*pockethost.Plugin, *notify.ChanEmitter) {
	t.Helper()
	cfg, err := pocketconfig.New(pocketconfig.WithInterface("en0"))
	require.NoError(t, err)

	log, _ := test.NewNullLogger()
	events := notify.NewChanEmitter(8)
	p, err := pockethost.New(cfg, events, pockethost.WithLogger(log))
	require.NoError(t, err)
	return p, events
}

func TestRunScanAcceptsFirstWPAPayload(t *testing.T) {
	p, events := newTestPlugin(t)

	input := strings.Join([]string{
		"https://example.com/menu",
		"WIFI:T:WEP;S:Old;P:12345678;",
		"WIFI:T:WPA;S:MyNet;P:12345678;\r",
		"WIFI:T:WPA;S:Later;P:87654321;",
	}, "\n")

	require.NoError(t, runScan(p, strings.NewReader(input)))
	require.Len(t, events.C, 1)

	e := <-events.C
	assert.Equal(t, notify.QRCodeScanned, e.Name)
	assert.Equal(t, []any{"MyNet", "12345678"}, e.Args)
	assert.False(t, p.Scanning())
}

func TestRunScanCancelledAtEOF(t *testing.T) {
	p, events := newTestPlugin(t)

	require.NoError(t, runScan(p, strings.NewReader("not a wifi code\n")))
	require.Len(t, events.C, 1)
	assert.Equal(t, notify.QRScanCancelled, (<-events.C).Name)
}

func TestRunScanReadError(t *testing.T) {
	p, events := newTestPlugin(t)

	require.NoError(t, runScan(p, iotest.ErrReader(errors.New("camera disconnected"))))
	require.Len(t, events.C, 1)

	e := <-events.C
	assert.Equal(t, notify.QRScanFailed, e.Name)
	assert.Equal(t, "camera disconnected", e.Arg(0))
}

func TestFailure(t *testing.T) {
	assert.NoError(t, failure(notify.GatewayDiscoveredEvent("192.0.2.1")))
	assert.NoError(t, failure(notify.WiFiConnectedEvent()))
	assert.NoError(t, failure(pockettypes.Event{}))

	assert.EqualError(t, failure(notify.GatewayDiscoveryFailedEvent("Could not discover default gateway IP on en0.")),
		"Could not discover default gateway IP on en0.")
	assert.Error(t, failure(notify.QRScanCancelledEvent()))
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewPocketHostCommand()

	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestSignalsCommand(t *testing.T) {
	out, err := execute(t, "signals")
	require.NoError(t, err)
	assert.Equal(t, strings.Join(notify.Signals(), "\n")+"\n", out)

	out, err = execute(t, "signals", notify.WiFiConnected, notify.GatewayDiscovered)
	require.NoError(t, err)
	assert.Equal(t, "wifi_connected\ngateway_discovered\n", out)

	_, err = execute(t, "signals", notify.WiFiConnected, "gateway_lost")
	assert.EqualError(t, err, `unknown signal "gateway_lost"`)
}

func TestConfigCommand(t *testing.T) {
	out, err := execute(t, "config", "--interface", "en9", "--timeout", "2s", "--log-format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, "interface: en9")
	assert.Contains(t, out, "timeout: 2s")
	assert.Contains(t, out, "format: json")

	_, err = execute(t, "config", "--interface", "en9", "--log-level", "loud")
	assert.Error(t, err)
}

func TestJoinRequiresArgs(t *testing.T) {
	_, err := execute(t, "join", "MyNet")
	assert.Error(t, err)
}
