package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Framing of the emulator codec:
//
//	byte 0    opcode (outbound) / message kind (inbound)
//	byte 1    flags, bit 0 = wireless
//	byte 2    payload length
//	byte 3..  payload
//
// Everything past the payload is zero padding up to PacketSize.

const (
	opGetStatus  = 0x01
	opGetConfig  = 0x02
	opSetConfig  = 0x03
	opGetSection = 0x04
	opSetSection = 0x05

	msgLog     = 0x10
	msgStatus  = 0x11
	msgConfig  = 0x12
	msgSection = 0x13

	flagWireless = 0x01

	headerLen  = 3
	maxPayload = PacketSize - headerLen
)

var (
	ErrShortPacket   = errors.New("packet too short")
	ErrPayloadLength = errors.New("payload length out of bounds")
)

// BinaryCodec is the default Codec, speaking the emulator framing above.
type BinaryCodec struct{}

func (BinaryCodec) Encode(req Request) ([]byte, error) {
	pkt := make([]byte, PacketSize)
	if req.RequestWireless() {
		pkt[1] = flagWireless
	}

	var payload []byte
	switch r := req.(type) {
	case *GetStatus:
		pkt[0] = opGetStatus
	case *GetConfig:
		pkt[0] = opGetConfig
	case *SetConfig:
		pkt[0] = opSetConfig
		payload = make([]byte, 2+2*len(r.Values))
		payload[0] = r.Preset
		payload[1] = uint8(len(r.Values))
		for i, v := range r.Values {
			binary.LittleEndian.PutUint16(payload[2+2*i:], v)
		}
	case *SetSection:
		pkt[0] = opSetSection
		payload = append([]byte{r.Section.Index}, r.Section.Data...)
	case *GetSection:
		pkt[0] = opGetSection
		payload = []byte{r.Index}
	default:
		return nil, fmt.Errorf("unknown request type %T", req)
	}

	if len(payload) > maxPayload {
		return nil, ErrPayloadLength
	}
	pkt[2] = uint8(len(payload))
	copy(pkt[headerLen:], payload)
	return pkt, nil
}

// EncodeMessage builds an inbound-direction packet. Only the firmware does
// this in production; it is here for the emulator side and for tests.
func (BinaryCodec) EncodeMessage(m Message) ([]byte, error) {
	pkt := make([]byte, PacketSize)

	var payload []byte
	switch t := m.(type) {
	case *LogEvent:
		pkt[0] = msgLog
		if t.Wireless {
			pkt[1] = flagWireless
		}
		payload = []byte(t.Text)
	case *Status:
		pkt[0] = msgStatus
		payload = t.Firmware[:]
	case *ConfigShare:
		pkt[0] = msgConfig
		payload = make([]byte, 2+2*len(t.Values))
		payload[0] = t.Preset
		payload[1] = uint8(len(t.Values))
		for i, v := range t.Values {
			binary.LittleEndian.PutUint16(payload[2+2*i:], v)
		}
	case *ProfileSection:
		pkt[0] = msgSection
		payload = append([]byte{t.Index}, t.Data...)
	default:
		return nil, fmt.Errorf("unknown message type %T", m)
	}

	if len(payload) > maxPayload {
		return nil, ErrPayloadLength
	}
	pkt[2] = uint8(len(payload))
	copy(pkt[headerLen:], payload)
	return pkt, nil
}

func (BinaryCodec) Decode(pkt []byte) (Message, error) {
	if len(pkt) < headerLen {
		return nil, ErrShortPacket
	}
	wireless := pkt[1]&flagWireless != 0
	n := int(pkt[2])
	if n > len(pkt)-headerLen {
		return nil, ErrPayloadLength
	}
	payload := pkt[headerLen : headerLen+n]

	switch pkt[0] {
	case msgLog:
		return &LogEvent{
			Text:     string(payload),
			Wireless: wireless,
		}, nil
	case msgStatus:
		if n < 3 {
			return nil, ErrShortPacket
		}
		raw := make([]byte, n)
		copy(raw, payload)
		return &Status{
			Firmware: [3]uint8{payload[0], payload[1], payload[2]},
			Raw:      raw,
		}, nil
	case msgConfig:
		if n < 2 {
			return nil, ErrShortPacket
		}
		count := int(payload[1])
		if n < 2+2*count {
			return nil, ErrPayloadLength
		}
		values := make([]uint16, count)
		for i := range values {
			values[i] = binary.LittleEndian.Uint16(payload[2+2*i:])
		}
		return &ConfigShare{
			Preset: payload[0],
			Values: values,
		}, nil
	case msgSection:
		if n < 1 {
			return nil, ErrShortPacket
		}
		data := make([]byte, n-1)
		copy(data, payload[1:])
		return &ProfileSection{
			Index: payload[0],
			Data:  data,
		}, nil
	}
	return nil, fmt.Errorf("unknown message kind 0x%02x", pkt[0])
}
