package usb

import (
	"bytes"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/gkr-labs/ctrl/core"
)

// UDP transport for the firmware emulator: each emulator instance listens
// on a local UDP port and speaks the same fixed-size packets as the real
// device.

const (
	emulatorPrefix  = "emulator"
	emulatorNetwork = "udp"
	emulatorHost    = "127.0.0.1"

	pingTimeout = 500 * time.Millisecond
)

var (
	emulatorPing = []byte("PINGPING")
	emulatorPong = []byte("PONGPONG")
)

type UDP struct {
	ports []int
}

func InitUDP(ports []int) (*UDP, error) {
	return &UDP{ports: ports}, nil
}

func (b *UDP) Has(path string) bool {
	return strings.HasPrefix(path, emulatorPrefix)
}

func (b *UDP) Enumerate() ([]core.Info, error) {
	var infos []core.Info
	for _, port := range b.ports {
		if !b.ping(port) {
			continue
		}
		infos = append(infos, core.Info{
			Path:     emulatorPrefix + strconv.Itoa(port),
			Type:     core.TypeController,
			Revision: 3,
		})
	}
	return infos, nil
}

func (b *UDP) ping(port int) bool {
	conn, err := net.Dial(emulatorNetwork, addr(port))
	if err != nil {
		return false
	}
	defer conn.Close()

	if _, err := conn.Write(emulatorPing); err != nil {
		return false
	}
	if err := conn.SetReadDeadline(time.Now().Add(pingTimeout)); err != nil {
		return false
	}
	response := make([]byte, len(emulatorPong))
	if _, err := conn.Read(response); err != nil {
		return false
	}
	return bytes.Equal(response, emulatorPong)
}

func (b *UDP) Connect(path string) (core.Device, error) {
	port, err := strconv.Atoi(strings.TrimPrefix(path, emulatorPrefix))
	if err != nil {
		return nil, ErrNotFound
	}
	return &udpDevice{port: port}, nil
}

func addr(port int) string {
	return fmt.Sprintf("%s:%d", emulatorHost, port)
}

type udpDevice struct {
	port int
	conn net.Conn
}

func (d *udpDevice) Open() error {
	conn, err := net.Dial(emulatorNetwork, addr(d.port))
	if err != nil {
		return err
	}
	d.conn = conn
	return nil
}

// The emulator has no configurations or interfaces to speak of.
func (d *udpDevice) SetConfiguration(num int) error { return nil }
func (d *udpDevice) ClaimInterface(num int) error   { return nil }

func (d *udpDevice) Send(p []byte) error {
	if d.conn == nil {
		return errClosedDevice
	}
	_, err := d.conn.Write(p)
	return err
}

func (d *udpDevice) Receive(max int) ([]byte, error) {
	if d.conn == nil {
		return nil, errClosedDevice
	}
	buf := make([]byte, max)
	n, err := d.conn.Read(buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

func (d *udpDevice) Product() string { return "GKR Emulator" }

func (d *udpDevice) Serial() string {
	return emulatorPrefix + strconv.Itoa(d.port)
}

func (d *udpDevice) Close(disconnected bool) error {
	if d.conn == nil {
		return nil
	}
	conn := d.conn
	d.conn = nil
	return conn.Close()
}
