package core

import (
	"context"
	"time"

	"github.com/gkr-labs/ctrl/wire"
)

// TryGetStatus probes the device until the firmware version is known. It
// waits a grace period first (the firmware needs a moment after
// enumeration), then retries with a fixed delay. Exhausting the attempts is
// not fatal to the session: it degrades to an error log and the firmware
// stays unknown.
func (s *Session) TryGetStatus(ctx context.Context) {
	if !sleepCtx(ctx, s.cfg.StatusGrace) {
		return
	}

	var lastErr error
	for attempt := 1; attempt <= s.cfg.StatusRetryMax; attempt++ {
		switch {
		case !s.connected():
			lastErr = ErrNotConnected
			s.log.Warn().Int("attempt", attempt).Err(lastErr).
				Msg("status probe failed")
		case s.FirmwareKnown():
			return
		default:
			st, err := s.GetStatus(ctx)
			if err == nil {
				s.setFirmware(st.Firmware)
				return
			}
			lastErr = err
			s.log.Warn().Int("attempt", attempt).Err(err).
				Msg("status probe failed")
		}
		if !sleepCtx(ctx, s.cfg.StatusRetryDelay) {
			return
		}
	}
	s.log.Error().Err(lastErr).Str("path", s.info.Path).
		Msg("status probe exhausted, firmware stays unknown")
}

// tryFetch retries a fetch operation with the generic attempt cap, logging
// each failure, and re-raises the last failure once the cap is hit.
func tryFetch[T any](s *Session, op string, fn func() (T, error)) (T, error) {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.FetchRetryMax; attempt++ {
		v, err := fn()
		if err == nil {
			return v, nil
		}
		lastErr = err
		s.log.Warn().Int("attempt", attempt).Str("op", op).Err(err).
			Msg("retrying")
	}
	var zero T
	return zero, lastErr
}

func (s *Session) TryGetConfig(ctx context.Context) (*wire.ConfigShare, error) {
	return s.tryGetConfig(ctx, false)
}

func (s *Session) tryGetConfig(ctx context.Context, wireless bool) (*wire.ConfigShare, error) {
	return tryFetch(s, "get config", func() (*wire.ConfigShare, error) {
		return s.getConfig(ctx, wireless)
	})
}

func (s *Session) TrySetConfig(ctx context.Context, preset uint8, values []uint16) (uint8, error) {
	return s.trySetConfig(ctx, false, preset, values)
}

func (s *Session) trySetConfig(ctx context.Context, wireless bool, preset uint8, values []uint16) (uint8, error) {
	return tryFetch(s, "set config", func() (uint8, error) {
		return s.setConfig(ctx, wireless, preset, values)
	})
}

func (s *Session) TryGetSection(ctx context.Context, index uint8) (*wire.ProfileSection, error) {
	return s.tryGetSection(ctx, false, index)
}

func (s *Session) tryGetSection(ctx context.Context, wireless bool, index uint8) (*wire.ProfileSection, error) {
	return tryFetch(s, "get section", func() (*wire.ProfileSection, error) {
		return s.getSection(ctx, wireless, index)
	})
}

func (s *Session) TrySetSection(ctx context.Context, section wire.ProfileSection) (*wire.ProfileSection, error) {
	return s.trySetSection(ctx, false, section)
}

func (s *Session) trySetSection(ctx context.Context, wireless bool, section wire.ProfileSection) (*wire.ProfileSection, error) {
	return tryFetch(s, "set section", func() (*wire.ProfileSection, error) {
		return s.setSection(ctx, wireless, section)
	})
}

// sleepCtx sleeps for d unless the context ends first; it reports whether
// the sleep completed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
