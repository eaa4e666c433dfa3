package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gkr-labs/ctrl/config"
	"github.com/gkr-labs/ctrl/core"
	"github.com/gkr-labs/ctrl/logs"
	"github.com/gkr-labs/ctrl/wire"
)

// nullDevice is a transport that is never opened; enough to build a session
// and snapshot its resting state.
type nullDevice struct{}

func (nullDevice) Open() error                   { return nil }
func (nullDevice) SetConfiguration(int) error    { return nil }
func (nullDevice) ClaimInterface(int) error      { return nil }
func (nullDevice) Send([]byte) error             { return nil }
func (nullDevice) Receive(int) ([]byte, error)   { select {} }
func (nullDevice) Product() string               { return "GKR Dongle R3" }
func (nullDevice) Serial() string                { return "GKR0042" }
func (nullDevice) Close(disconnected bool) error { return nil }

func newSession() *core.Session {
	return core.New(
		core.Info{Path: "fake0", Type: core.TypeDongle, Revision: 3},
		nullDevice{}, wire.BinaryCodec{}, config.Default(), logs.Nop(),
	)
}

func TestSnapshotSession(t *testing.T) {
	d := Snapshot(newSession())

	assert.Equal(t, "GKR Dongle R3", d.Name)
	assert.Equal(t, "GKR0042", d.Serial)
	assert.Equal(t, "disconnected", d.State)
	assert.Equal(t, "unknown", d.Firmware)
	assert.False(t, d.Proxy)
	assert.Empty(t, d.Log)
}

func TestSnapshotProxy(t *testing.T) {
	s := newSession()
	p := core.NewProxy(s)
	p.Log().Append("radio ok\n")

	d := Snapshot(p)
	assert.Equal(t, core.ProxyName, d.Name)
	assert.True(t, d.Proxy)
	assert.Equal(t, []string{"radio ok\n"}, d.Log)

	// the wireless log never leaks into the session's own snapshot
	assert.Empty(t, Snapshot(s).Log)
}

func TestRender(t *testing.T) {
	out, err := Render(Data{
		Version: "1.4.0",
		Devices: []Device{
			{Name: "GKR Controller", Serial: "GKR0001", State: "ready", Firmware: "2.1.0", Log: []string{"boot\n"}},
			{Name: core.ProxyName, State: "ready", Firmware: "3.0.1", Proxy: true},
		},
		Trace: "12:00:00 INF session open\n",
	})
	require.NoError(t, err)

	assert.Contains(t, out, "core 1.4.0")
	assert.Contains(t, out, "devices: 2")
	assert.Contains(t, out, "* GKR Controller\n")
	assert.Contains(t, out, "serial:   GKR0001")
	assert.Contains(t, out, "[wireless proxy]")
	assert.Contains(t, out, "serial:   -")
	assert.Contains(t, out, `"boot\n"`)
	assert.Contains(t, out, "12:00:00 INF session open")
}

func TestRenderNoDevices(t *testing.T) {
	out, err := Render(Data{Version: "1.4.0", Trace: "...\n"})
	require.NoError(t, err)
	assert.Contains(t, out, "devices: 0")
}
