package core

import (
	"context"
	"fmt"
	"time"

	"github.com/gkr-labs/ctrl/wire"
)

// call runs one correlated exchange: arm a slot, encode and send, then race
// the slot's resolution against the call timeout. On timeout the slot is
// disarmed so a stray late reply takes the unsolicited path instead of
// resolving a dead future.
func (s *Session) call(ctx context.Context, req wire.Request) (wire.Message, error) {
	kind := req.RequestKind()
	p := s.arm(kind)

	pkt, err := s.codec.Encode(req)
	if err != nil {
		s.disarm(kind, p)
		return nil, fmt.Errorf("encode %s request: %w", kind, err)
	}

	s.log.Debug().Stringer("kind", kind).
		Bool("wireless", req.RequestWireless()).Msg("request out")

	if err := s.dev.Send(pkt); err != nil {
		s.disarm(kind, p)
		return nil, fmt.Errorf("send %s request: %w", kind, err)
	}

	timer := time.NewTimer(s.cfg.CallTimeout)
	defer timer.Stop()

	select {
	case out := <-p.ch:
		return out.msg, out.err
	case <-timer.C:
		s.disarm(kind, p)
		return nil, &TimeoutError{Kind: kind}
	case <-ctx.Done():
		s.disarm(kind, p)
		return nil, ctx.Err()
	}
}

// GetStatus requests a status share and returns it raw.
func (s *Session) GetStatus(ctx context.Context) (*wire.Status, error) {
	return s.getStatus(ctx, false)
}

func (s *Session) getStatus(ctx context.Context, wireless bool) (*wire.Status, error) {
	msg, err := s.call(ctx, &wire.GetStatus{Wireless: wireless})
	if err != nil {
		return nil, err
	}
	st, ok := msg.(*wire.Status)
	if !ok {
		return nil, fmt.Errorf("status reply: unexpected %T", msg)
	}
	return st, nil
}

// GetConfig fetches the active tunable preset: its index and values.
func (s *Session) GetConfig(ctx context.Context) (*wire.ConfigShare, error) {
	return s.getConfig(ctx, false)
}

func (s *Session) getConfig(ctx context.Context, wireless bool) (*wire.ConfigShare, error) {
	msg, err := s.call(ctx, &wire.GetConfig{Wireless: wireless})
	if err != nil {
		return nil, err
	}
	cs, ok := msg.(*wire.ConfigShare)
	if !ok {
		return nil, fmt.Errorf("config reply: unexpected %T", msg)
	}
	s.storeConfig(cs)
	return cs, nil
}

// SetConfig writes a preset and returns the acknowledged preset index.
func (s *Session) SetConfig(ctx context.Context, preset uint8, values []uint16) (uint8, error) {
	return s.setConfig(ctx, false, preset, values)
}

func (s *Session) setConfig(ctx context.Context, wireless bool, preset uint8, values []uint16) (uint8, error) {
	msg, err := s.call(ctx, &wire.SetConfig{Wireless: wireless, Preset: preset, Values: values})
	if err != nil {
		return 0, err
	}
	cs, ok := msg.(*wire.ConfigShare)
	if !ok {
		return 0, fmt.Errorf("config ack: unexpected %T", msg)
	}
	s.storeConfig(cs)
	return cs.Preset, nil
}

// GetSection reads one profile section. The section path is the only one
// with mutual exclusion: the busy flag is taken for the duration of the
// exchange and always released.
func (s *Session) GetSection(ctx context.Context, index uint8) (*wire.ProfileSection, error) {
	return s.getSection(ctx, false, index)
}

func (s *Session) getSection(ctx context.Context, wireless bool, index uint8) (*wire.ProfileSection, error) {
	if err := s.acquireBusy(ctx); err != nil {
		return nil, err
	}
	defer s.releaseBusy()

	msg, err := s.call(ctx, &wire.GetSection{Wireless: wireless, Index: index})
	if err != nil {
		return nil, err
	}
	sec, ok := msg.(*wire.ProfileSection)
	if !ok {
		return nil, fmt.Errorf("section reply: unexpected %T", msg)
	}
	return sec, nil
}

// SetSection writes one profile section and returns the acknowledged
// section.
func (s *Session) SetSection(ctx context.Context, section wire.ProfileSection) (*wire.ProfileSection, error) {
	return s.setSection(ctx, false, section)
}

func (s *Session) setSection(ctx context.Context, wireless bool, section wire.ProfileSection) (*wire.ProfileSection, error) {
	if err := s.acquireBusy(ctx); err != nil {
		return nil, err
	}
	defer s.releaseBusy()

	msg, err := s.call(ctx, &wire.SetSection{Wireless: wireless, Section: section})
	if err != nil {
		return nil, err
	}
	sec, ok := msg.(*wire.ProfileSection)
	if !ok {
		return nil, fmt.Errorf("section ack: unexpected %T", msg)
	}
	return sec, nil
}

// acquireBusy waits for the section path to become free: not busy and the
// receive loop listening. After the polling budget it gives up with
// ErrBusyTimeout if still busy; if merely not listening it proceeds anyway
// and lets the call timeout diagnose the dead loop.
func (s *Session) acquireBusy(ctx context.Context) error {
	for i := 0; ; i++ {
		s.mu.Lock()
		if !s.busy && s.listening {
			s.busy = true
			s.mu.Unlock()
			return nil
		}
		stillBusy := s.busy
		if i >= s.cfg.BusyPollMax {
			if stillBusy {
				s.mu.Unlock()
				return ErrBusyTimeout
			}
			s.busy = true
			s.mu.Unlock()
			return nil
		}
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.cfg.BusyPollInterval):
		}
	}
}

func (s *Session) releaseBusy() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}
