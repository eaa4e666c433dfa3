package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gkr-labs/ctrl/wire"
)

func TestTryFetchEventualSuccess(t *testing.T) {
	s, _ := testSession(t)

	calls := 0
	v, err := tryFetch(s, "test", func() (int, error) {
		calls++
		if calls <= 4 {
			return 0, errors.New("flaky")
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 5, calls)
}

func TestTryFetchExhaustsAndReRaises(t *testing.T) {
	s, _ := testSession(t)

	wantErr := errors.New("still broken")
	calls := 0
	_, err := tryFetch(s, "test", func() (int, error) {
		calls++
		return 0, wantErr
	})
	require.ErrorIs(t, err, wantErr)
	assert.Equal(t, s.cfg.FetchRetryMax, calls)
}

func TestTryGetStatusSkipsWhenFirmwareKnown(t *testing.T) {
	s, d := openSession(t)
	s.setFirmware([3]uint8{1, 2, 3})

	s.TryGetStatus(context.Background())

	// only the priming packet went out, no status request
	assert.Equal(t, 1, d.sentCount())
}

func TestTryGetStatusGivesUpWhenDisconnected(t *testing.T) {
	s, d := testSession(t)

	done := make(chan struct{})
	go func() {
		s.TryGetStatus(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("TryGetStatus did not give up")
	}
	assert.Zero(t, d.sentCount())
	assert.False(t, s.FirmwareKnown())
}

func TestTryGetStatusLearnsFirmware(t *testing.T) {
	s, d := openSession(t)

	go func() {
		d.waitSent(2)
		d.inject(t, &wire.Status{Firmware: [3]uint8{3, 2, 1}})
	}()

	s.TryGetStatus(context.Background())

	assert.Equal(t, "3.2.1", s.FirmwareString())
	assert.Equal(t, StateReady, s.State())
}

func TestTryGetStatusRecoversAfterFailures(t *testing.T) {
	s, d := openSession(t)

	// the first few requests go unanswered; answer the third
	go func() {
		d.waitSent(4)
		d.inject(t, &wire.Status{Firmware: [3]uint8{1, 0, 0}})
	}()

	s.TryGetStatus(context.Background())
	assert.True(t, s.FirmwareKnown())
}

func TestTryGetConfigRetries(t *testing.T) {
	s, d := openSession(t)

	// ignore the first request, answer the retry
	go func() {
		d.waitSent(3)
		d.inject(t, &wire.ConfigShare{Preset: 1, Values: []uint16{5}})
	}()

	cs, err := s.TryGetConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint8(1), cs.Preset)
}

func TestSleepCtxCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, sleepCtx(ctx, time.Minute))
	assert.True(t, sleepCtx(context.Background(), 0))
}
