package core

import (
	"context"

	"github.com/gkr-labs/ctrl/wire"
)

// View is the device surface the configurator GUI works against. Two
// implementations exist: *Session for the device on the cable, and *Proxy
// for the wireless peripheral paired through a dongle.
type View interface {
	Name() string
	Serial() string
	State() State
	FirmwareString() string
	IsController() bool
	IsDongle() bool
	IsRev2() bool
	IsRev3() bool
	IsProxy() bool
	Log() *LogBuffer
	ClearLog()

	GetStatus(ctx context.Context) (*wire.Status, error)
	GetConfig(ctx context.Context) (*wire.ConfigShare, error)
	SetConfig(ctx context.Context, preset uint8, values []uint16) (uint8, error)
	GetSection(ctx context.Context, index uint8) (*wire.ProfileSection, error)
	SetSection(ctx context.Context, section wire.ProfileSection) (*wire.ProfileSection, error)

	TryGetConfig(ctx context.Context) (*wire.ConfigShare, error)
	TrySetConfig(ctx context.Context, preset uint8, values []uint16) (uint8, error)
	TryGetSection(ctx context.Context, index uint8) (*wire.ProfileSection, error)
	TrySetSection(ctx context.Context, section wire.ProfileSection) (*wire.ProfileSection, error)
}

var (
	_ View = (*Session)(nil)
	_ View = (*Proxy)(nil)
)

// ProxyName is the display name of the wirelessly tunneled peripheral; the
// transport only ever sees the dongle's descriptor strings.
const ProxyName = "GKR Controller (wireless)"

// Proxy presents the wireless peripheral paired through a dongle session.
// It overrides the identity set below and forwards everything else to the
// session. Request operations stay on the session; the proxy only supplies
// the wireless tag they are sent with.
type Proxy struct {
	*Session
}

func NewProxy(s *Session) *Proxy {
	return &Proxy{Session: s}
}

func (p *Proxy) Name() string       { return ProxyName }
func (p *Proxy) IsController() bool { return true }
func (p *Proxy) IsDongle() bool     { return false }
func (p *Proxy) IsRev2() bool       { return false }
func (p *Proxy) IsRev3() bool       { return true }
func (p *Proxy) IsProxy() bool      { return true }

// Log is the wireless peripheral's buffer on the shared session.
func (p *Proxy) Log() *LogBuffer {
	return p.Session.wirelessLog
}

func (p *Proxy) ClearLog() {
	p.Session.wirelessLog.Clear()
}

func (p *Proxy) GetStatus(ctx context.Context) (*wire.Status, error) {
	return p.Session.getStatus(ctx, true)
}

func (p *Proxy) GetConfig(ctx context.Context) (*wire.ConfigShare, error) {
	return p.Session.getConfig(ctx, true)
}

func (p *Proxy) SetConfig(ctx context.Context, preset uint8, values []uint16) (uint8, error) {
	return p.Session.setConfig(ctx, true, preset, values)
}

func (p *Proxy) GetSection(ctx context.Context, index uint8) (*wire.ProfileSection, error) {
	return p.Session.getSection(ctx, true, index)
}

func (p *Proxy) SetSection(ctx context.Context, section wire.ProfileSection) (*wire.ProfileSection, error) {
	return p.Session.setSection(ctx, true, section)
}

func (p *Proxy) TryGetConfig(ctx context.Context) (*wire.ConfigShare, error) {
	return p.Session.tryGetConfig(ctx, true)
}

func (p *Proxy) TrySetConfig(ctx context.Context, preset uint8, values []uint16) (uint8, error) {
	return p.Session.trySetConfig(ctx, true, preset, values)
}

func (p *Proxy) TryGetSection(ctx context.Context, index uint8) (*wire.ProfileSection, error) {
	return p.Session.tryGetSection(ctx, true, index)
}

func (p *Proxy) TrySetSection(ctx context.Context, section wire.ProfileSection) (*wire.ProfileSection, error) {
	return p.Session.trySetSection(ctx, true, section)
}
