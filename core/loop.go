package core

import "github.com/gkr-labs/ctrl/wire"

// readLoop is the single always-on receive operation. It re-arms itself
// after every dispatched packet, so message N is fully dispatched before
// message N+1 is read; that ordering is what makes one pending slot per
// kind sufficient.
//
// On any transport or decode error the loop stops for good. A session whose
// loop has died is no longer listening and every future request times out;
// restarting is the owner's job, via reconnect.
func (s *Session) readLoop() {
	for {
		pkt, err := s.dev.Receive(wire.PacketSize)
		if err != nil {
			s.log.Warn().Err(err).Str("path", s.info.Path).
				Msg("receive loop stopped: transport error")
			s.stopListening()
			return
		}
		msg, err := s.codec.Decode(pkt)
		if err != nil {
			s.log.Warn().Err(err).Str("path", s.info.Path).
				Msg("receive loop stopped: decode error")
			s.stopListening()
			return
		}
		s.dispatch(msg)
	}
}

func (s *Session) stopListening() {
	s.mu.Lock()
	s.listening = false
	s.mu.Unlock()
}

// dispatch routes one decoded message: solicited replies resolve their
// pending slot, everything else is a device-initiated event.
func (s *Session) dispatch(msg wire.Message) {
	switch m := msg.(type) {
	case *wire.LogEvent:
		buf := s.deviceLog
		if m.Wireless {
			buf = s.wirelessLog
		}
		buf.Append(m.Text)

	case *wire.Status:
		if p := s.take(wire.KindStatus); p != nil {
			p.resolve(msg)
			return
		}
		s.setFirmware(m.Firmware)

	case *wire.ConfigShare:
		if p := s.take(wire.KindConfig); p != nil {
			p.resolve(msg)
			return
		}
		s.invalidateConfig()

	case *wire.ProfileSection:
		if p := s.take(wire.KindSection); p != nil {
			p.resolve(msg)
			return
		}
		// the firmware never pushes sections on its own; a stray one is
		// a late reply whose request already timed out
		s.log.Debug().Uint8("index", m.Index).Msg("dropping unsolicited section")
	}
}
