package core

import (
	"fmt"
	"sync"

	"github.com/gkr-labs/ctrl/wire"
)

type outcome struct {
	msg wire.Message
	err error
}

// pending is the single-resolution correlation slot matching a future
// inbound reply to the request that triggered it. It completes exactly
// once.
type pending struct {
	ch   chan outcome
	once sync.Once
}

func newPending() *pending {
	return &pending{ch: make(chan outcome, 1)}
}

func (p *pending) resolve(m wire.Message) {
	p.complete(outcome{msg: m})
}

func (p *pending) fail(err error) {
	p.complete(outcome{err: err})
}

func (p *pending) complete(o outcome) {
	p.once.Do(func() { p.ch <- o })
}

// arm installs a fresh slot for kind. If a slot of that kind is still
// pending its waiter is failed with ErrSuperseded; re-pointing the old slot
// at the new exchange could hand a caller a reply triggered by somebody
// else's request.
func (s *Session) arm(kind wire.Kind) *pending {
	s.mu.Lock()
	old := s.pending[kind]
	p := newPending()
	s.pending[kind] = p
	s.mu.Unlock()

	if old != nil {
		s.log.Warn().Stringer("kind", kind).Msg("pending request superseded")
		old.fail(fmt.Errorf("%s request: %w", kind, ErrSuperseded))
	}
	return p
}

// take removes and returns the pending slot for kind, nil if none.
func (s *Session) take(kind wire.Kind) *pending {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.pending[kind]
	delete(s.pending, kind)
	return p
}

// disarm removes the slot only if it still belongs to p, so a timed-out
// request never tears down its successor's slot.
func (s *Session) disarm(kind wire.Kind, p *pending) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending[kind] == p {
		delete(s.pending, kind)
	}
}
