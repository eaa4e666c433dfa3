// Package core owns the protocol conversation with one device: the
// transport lifecycle, the receive loop that demultiplexes inbound
// messages, correlation of request/response pairs, and the wireless proxy
// view of a peripheral paired through a dongle.
//
// The usb package is not imported; transports are consumed through the Bus
// and Device interfaces below so this package builds and tests without
// libusb.
package core

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gkr-labs/ctrl/config"
	"github.com/gkr-labs/ctrl/logs"
	"github.com/gkr-labs/ctrl/wire"
)

// Bus enumerates devices and hands out transports. Implemented in the usb
// package.
type Bus interface {
	Enumerate() ([]Info, error)
	Has(path string) bool
	Connect(path string) (Device, error)
}

// Device is one byte-packet transport endpoint pair. The session drives the
// open/configure/claim sequence itself so each step's failure is
// distinguishable.
type Device interface {
	Open() error
	SetConfiguration(num int) error
	ClaimInterface(num int) error
	Send(p []byte) error
	Receive(max int) ([]byte, error)
	Product() string
	Serial() string
	Close(disconnected bool) error
}

type DeviceType int

const (
	TypeController DeviceType = iota
	TypeDongle
)

// Info describes an enumerated device.
type Info struct {
	Path      string
	VendorID  int
	ProductID int
	Type      DeviceType
	Revision  int // hardware revision, from the descriptor's bcdDevice major
}

const (
	usbConfigNum = 1
	usbIfaceNum  = 0

	deviceLogMax = 1000
)

type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected // transport up, firmware not yet known
	StateReady     // firmware version learned
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReady:
		return "ready"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var (
	ErrSuperseded   = errors.New("superseded by a newer request of the same kind")
	ErrBusyTimeout  = errors.New("session busy for too long")
	ErrNotConnected = errors.New("device not connected")
)

// TimeoutError is raised when no matching reply arrives within the call
// timeout. It names the request kind.
type TimeoutError struct {
	Kind wire.Kind
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s request timed out", e.Kind)
}

// Session owns one device's conversation. It is created when the transport
// handle is obtained and reused across reconnects of the same handle.
type Session struct {
	dev   Device
	codec wire.Codec
	cfg   *config.Config
	log   *logs.Log
	info  Info

	mu        sync.Mutex
	state     State
	listening bool
	busy      bool
	lastErr   error
	firmware  [3]uint8
	pending   map[wire.Kind]*pending

	cachedConfig *wire.ConfigShare
	onStale      func()

	deviceLog   *LogBuffer
	wirelessLog *LogBuffer
}

func New(info Info, dev Device, codec wire.Codec, cfg *config.Config, log *logs.Log) *Session {
	return &Session{
		dev:         dev,
		codec:       codec,
		cfg:         cfg,
		log:         log,
		info:        info,
		pending:     make(map[wire.Kind]*pending),
		deviceLog:   NewLogBuffer(deviceLogMax),
		wirelessLog: NewLogBuffer(deviceLogMax),
	}
}

// Open brings the transport up: open, select configuration, claim
// interface, then a zero-filled priming packet that starts the firmware's
// report pump. Any failing step records the fatal error and the receive
// loop is never started.
func (s *Session) Open() error {
	s.mu.Lock()
	if s.state != StateDisconnected {
		s.mu.Unlock()
		return fmt.Errorf("open %s: session already %s", s.info.Path, s.state)
	}
	s.state = StateConnecting
	s.mu.Unlock()

	if err := s.handshake(); err != nil {
		s.mu.Lock()
		s.lastErr = err
		s.state = StateDisconnected
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.state = StateConnected
	s.listening = true
	s.mu.Unlock()

	s.log.Debug().Str("path", s.info.Path).Msg("session open, starting receive loop")
	go s.readLoop()
	return nil
}

func (s *Session) handshake() error {
	if err := s.dev.Open(); err != nil {
		return fmt.Errorf("open: %w", err)
	}
	if err := s.dev.SetConfiguration(usbConfigNum); err != nil {
		return fmt.Errorf("set configuration: %w", err)
	}
	if err := s.dev.ClaimInterface(usbIfaceNum); err != nil {
		return fmt.Errorf("claim interface: %w", err)
	}
	if err := s.dev.Send(make([]byte, wire.PacketSize)); err != nil {
		return fmt.Errorf("priming packet: %w", err)
	}
	return nil
}

// HandleDisconnect resets the session to its zero state after the transport
// reports disconnection. In-flight correlations are left to fail through
// their own timeouts.
func (s *Session) HandleDisconnect() {
	s.mu.Lock()
	s.state = StateDisconnected
	s.listening = false
	s.busy = false
	s.firmware = [3]uint8{}
	s.cachedConfig = nil
	s.mu.Unlock()

	s.deviceLog.Clear()
	s.wirelessLog.Clear()
	s.log.Debug().Str("path", s.info.Path).Msg("session reset after disconnect")
}

func (s *Session) Info() Info {
	return s.info
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Listening reports whether the receive loop is running. A dead loop means
// every future request will time out; callers should reconnect.
func (s *Session) Listening() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listening
}

func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Session) connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateConnected || s.state == StateReady
}

func (s *Session) setFirmware(fw [3]uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.firmware = fw
	if fw != ([3]uint8{}) && s.state == StateConnected {
		s.state = StateReady
	}
}

func (s *Session) Firmware() [3]uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.firmware
}

// FirmwareKnown reports whether a firmware version was learned; the
// all-zero triple is the unknown sentinel.
func (s *Session) FirmwareKnown() bool {
	return s.Firmware() != [3]uint8{}
}

func (s *Session) FirmwareString() string {
	fw := s.Firmware()
	if fw == ([3]uint8{}) {
		return "unknown"
	}
	return fmt.Sprintf("%d.%d.%d", fw[0], fw[1], fw[2])
}

func (s *Session) Name() string {
	if p := s.dev.Product(); p != "" {
		return p
	}
	if s.info.Type == TypeDongle {
		return "GKR Dongle"
	}
	return "GKR Controller"
}

func (s *Session) Serial() string {
	return s.dev.Serial()
}

func (s *Session) IsController() bool { return s.info.Type == TypeController }
func (s *Session) IsDongle() bool     { return s.info.Type == TypeDongle }
func (s *Session) IsRev2() bool       { return s.info.Revision == 2 }
func (s *Session) IsRev3() bool       { return s.info.Revision == 3 }
func (s *Session) IsProxy() bool      { return false }

// Log is the primary device's log buffer; the wireless peripheral's buffer
// is reached through its Proxy.
func (s *Session) Log() *LogBuffer {
	return s.deviceLog
}

func (s *Session) ClearLog() {
	s.deviceLog.Clear()
}

// ClearLogs clears both the primary and the wireless buffer.
func (s *Session) ClearLogs() {
	s.deviceLog.Clear()
	s.wirelessLog.Clear()
}

// OnConfigStale registers a callback fired when an unsolicited config share
// invalidates cached preset data.
func (s *Session) OnConfigStale(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onStale = fn
}

// CachedConfig returns the last solicited config share, or nil if none is
// held or it was invalidated.
func (s *Session) CachedConfig() *wire.ConfigShare {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cachedConfig
}

func (s *Session) storeConfig(cs *wire.ConfigShare) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cachedConfig = cs
}

// invalidateConfig drops cached preset data. Unsolicited shares are not
// guaranteed authoritative, so the cache is dropped rather than replaced.
func (s *Session) invalidateConfig() {
	s.mu.Lock()
	s.cachedConfig = nil
	fn := s.onStale
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}
