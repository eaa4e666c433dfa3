package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gkr-labs/ctrl/wire"
)

func TestProxyIdentityOverrides(t *testing.T) {
	s, _ := testSession(t)
	p := NewProxy(s)

	assert.Equal(t, ProxyName, p.Name())
	assert.True(t, p.IsProxy())
	assert.True(t, p.IsController())
	assert.False(t, p.IsDongle())
	assert.False(t, p.IsRev2())
	assert.True(t, p.IsRev3())
}

func TestProxyForwardsEverythingElse(t *testing.T) {
	s, _ := testSession(t)
	p := NewProxy(s)

	assert.Equal(t, s.Serial(), p.Serial())
	assert.Equal(t, s.State(), p.State())
	assert.Equal(t, s.FirmwareString(), p.FirmwareString())
	assert.Equal(t, s.Info(), p.Info())
}

func TestProxyOwnsWirelessLogBuffer(t *testing.T) {
	s, d := openSession(t)
	p := NewProxy(s)

	d.inject(t, &wire.LogEvent{Text: "radio up\n", Wireless: true})
	require.Eventually(t, func() bool { return p.Log().Len() == 1 }, time.Second, time.Millisecond)

	assert.Equal(t, []string{"radio up\n"}, p.Log().Lines())
	assert.Zero(t, s.Log().Len())

	p.ClearLog()
	assert.Zero(t, p.Log().Len())
}

// requests issued through the proxy carry the wireless tag; the same
// request on the session does not
func TestProxyRequestsAreWirelessTagged(t *testing.T) {
	s, d := openSession(t)
	p := NewProxy(s)

	go func() {
		d.waitSent(2)
		d.inject(t, &wire.Status{Firmware: [3]uint8{1, 0, 0}})
	}()
	_, err := p.GetStatus(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, d.sentPacket(1)[1]&1)

	go func() {
		d.waitSent(3)
		d.inject(t, &wire.Status{Firmware: [3]uint8{1, 0, 0}})
	}()
	_, err = s.GetStatus(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 0, d.sentPacket(2)[1]&1)
}

func TestProxySectionRequestsTagged(t *testing.T) {
	s, d := openSession(t)
	p := NewProxy(s)

	go func() {
		d.waitSent(2)
		d.inject(t, &wire.ProfileSection{Index: 2, Data: []byte{8}})
	}()
	sec, err := p.GetSection(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, uint8(2), sec.Index)
	assert.EqualValues(t, 1, d.sentPacket(1)[1]&1)

	// the busy flag lives on the shared session and is released
	s.mu.Lock()
	defer s.mu.Unlock()
	assert.False(t, s.busy)
}
