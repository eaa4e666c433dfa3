package wire

// Message model for the GKR controller protocol.
//
// The wire format itself is owned by the firmware; this package only fixes
// the closed set of decoded variants the session layer dispatches on, the
// typed requests it can issue, and the codec boundary between them. The
// default BinaryCodec below speaks the framing used by the firmware
// emulator; the production codec is generated from the firmware sources and
// satisfies the same interface.

import "fmt"

// PacketSize is the fixed size of every packet in both directions.
const PacketSize = 64

// Kind tags the capability of a message or request. The session keeps at
// most one pending request per kind.
type Kind uint8

const (
	KindLog Kind = iota + 1
	KindStatus
	KindConfig
	KindSection
)

func (k Kind) String() string {
	switch k {
	case KindLog:
		return "log"
	case KindStatus:
		return "status"
	case KindConfig:
		return "config"
	case KindSection:
		return "section"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Message is one decoded inbound packet.
type Message interface {
	MessageKind() Kind
}

// LogEvent carries a chunk of device log text. Chunks are not aligned to
// lines; the session reassembles them. Wireless marks events originating
// from the proxied peripheral rather than the device on the cable.
type LogEvent struct {
	Text     string
	Wireless bool
}

func (*LogEvent) MessageKind() Kind { return KindLog }

// Status is the device status share. Firmware of [3]uint8{0, 0, 0} means
// the version is not known yet.
type Status struct {
	Firmware [3]uint8
	Raw      []byte
}

func (*Status) MessageKind() Kind { return KindStatus }

// ConfigShare carries one tunable preset: its index and values.
type ConfigShare struct {
	Preset uint8
	Values []uint16
}

func (*ConfigShare) MessageKind() Kind { return KindConfig }

// ProfileSection is one section of the stored profile blob.
type ProfileSection struct {
	Index uint8
	Data  []byte
}

func (*ProfileSection) MessageKind() Kind { return KindSection }

// Request is one outbound typed request. Wireless() reports whether the
// request must be tunneled to the paired peripheral through the dongle.
type Request interface {
	RequestKind() Kind
	RequestWireless() bool
}

type GetStatus struct {
	Wireless bool
}

func (*GetStatus) RequestKind() Kind { return KindStatus }
func (r *GetStatus) RequestWireless() bool { return r.Wireless }

type GetConfig struct {
	Wireless bool
}

func (*GetConfig) RequestKind() Kind { return KindConfig }
func (r *GetConfig) RequestWireless() bool { return r.Wireless }

type SetConfig struct {
	Wireless bool
	Preset   uint8
	Values   []uint16
}

func (*SetConfig) RequestKind() Kind { return KindConfig }
func (r *SetConfig) RequestWireless() bool { return r.Wireless }

type GetSection struct {
	Wireless bool
	Index    uint8
}

func (*GetSection) RequestKind() Kind { return KindSection }
func (r *GetSection) RequestWireless() bool { return r.Wireless }

type SetSection struct {
	Wireless bool
	Section  ProfileSection
}

func (*SetSection) RequestKind() Kind { return KindSection }
func (r *SetSection) RequestWireless() bool { return r.Wireless }

// Codec encodes typed requests into fixed-size packets and decodes inbound
// packets into message variants.
type Codec interface {
	Encode(req Request) ([]byte, error)
	Decode(pkt []byte) (Message, error)
}
