// Package usb implements the transports behind core.Bus and core.Device: a
// gousb-backed one for real hardware and a UDP one for the firmware
// emulator.
package usb

import (
	"errors"

	"github.com/gkr-labs/ctrl/core"
)

var (
	ErrNotFound = errors.New("device not found")

	errDisconnect   = errors.New("device disconnected during transfer")
	errClosedDevice = errors.New("closed device")
)

// USB fronts several backends behind one core.Bus.
type USB struct {
	buses []core.Bus
}

func Init(buses ...core.Bus) *USB {
	return &USB{buses: buses}
}

func (b *USB) Has(path string) bool {
	for _, bus := range b.buses {
		if bus.Has(path) {
			return true
		}
	}
	return false
}

func (b *USB) Enumerate() ([]core.Info, error) {
	var infos []core.Info
	for _, bus := range b.buses {
		l, err := bus.Enumerate()
		if err != nil {
			return nil, err
		}
		infos = append(infos, l...)
	}
	return infos, nil
}

func (b *USB) Connect(path string) (core.Device, error) {
	for _, bus := range b.buses {
		if bus.Has(path) {
			return bus.Connect(path)
		}
	}
	return nil, ErrNotFound
}
