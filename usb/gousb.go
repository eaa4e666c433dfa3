package usb

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/google/gousb"

	"github.com/gkr-labs/ctrl/config"
	"github.com/gkr-labs/ctrl/core"
	"github.com/gkr-labs/ctrl/logs"
)

const (
	gousbPrefix   = "usb"
	usbAltSetting = 0
	usbEpIn       = 0x81
	usbEpOut      = 0x01
)

// GoUSB is the libusb-backed bus.
type GoUSB struct {
	ctx *gousb.Context
	cfg *config.Config
	log *logs.Log
}

func InitGoUSB(cfg *config.Config, log *logs.Log) (*GoUSB, error) {
	return &GoUSB{
		ctx: gousb.NewContext(),
		cfg: cfg,
		log: log,
	}, nil
}

func (b *GoUSB) Close() {
	b.ctx.Close()
}

func (b *GoUSB) match(desc *gousb.DeviceDesc) (core.DeviceType, bool) {
	if int(desc.Vendor) != b.cfg.VendorID {
		return 0, false
	}
	switch int(desc.Product) {
	case b.cfg.ControllerProduct:
		return core.TypeController, true
	case b.cfg.DongleProduct:
		return core.TypeDongle, true
	}
	return 0, false
}

func devicePath(desc *gousb.DeviceDesc) string {
	return fmt.Sprintf("%s%d:%d", gousbPrefix, desc.Bus, desc.Address)
}

func (b *GoUSB) Has(path string) bool {
	return strings.HasPrefix(path, gousbPrefix)
}

// Enumerate lists matching devices. gousb has no descriptor-only walk, so
// the opener callback collects descriptors and declines to open anything.
func (b *GoUSB) Enumerate() ([]core.Info, error) {
	var infos []core.Info
	devs, err := b.ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		t, ok := b.match(desc)
		if ok {
			infos = append(infos, core.Info{
				Path:      devicePath(desc),
				VendorID:  int(desc.Vendor),
				ProductID: int(desc.Product),
				Type:      t,
				Revision:  int(desc.Device >> 8),
			})
		}
		return false
	})
	for _, d := range devs {
		d.Close()
	}
	if err != nil {
		return nil, err
	}
	return infos, nil
}

// Connect locates the device but does not open it; the session drives
// open/configure/claim itself.
func (b *GoUSB) Connect(path string) (core.Device, error) {
	if !b.Has(path) {
		return nil, ErrNotFound
	}
	return &goUSBDevice{bus: b, path: path}, nil
}

type goUSBDevice struct {
	bus  *GoUSB
	path string

	closed int32 // atomic

	dev  *gousb.Device
	cfg  *gousb.Config
	intf *gousb.Interface
	in   *gousb.InEndpoint
	out  *gousb.OutEndpoint

	product string
	serial  string
}

func (d *goUSBDevice) Open() error {
	devs, err := d.bus.ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return devicePath(desc) == d.path
	})
	if err != nil {
		for _, dd := range devs {
			dd.Close()
		}
		return err
	}
	if len(devs) == 0 {
		return ErrNotFound
	}
	d.dev = devs[0]
	for _, dd := range devs[1:] {
		dd.Close()
	}

	// a hidraw or joystick driver may hold the interface
	if err := d.dev.SetAutoDetach(true); err != nil {
		d.bus.log.Warn().Err(err).Msg("auto-detach not available")
	}
	if p, err := d.dev.Product(); err == nil {
		d.product = strings.TrimSpace(p)
	}
	if sn, err := d.dev.SerialNumber(); err == nil {
		d.serial = strings.TrimSpace(sn)
	}
	return nil
}

func (d *goUSBDevice) SetConfiguration(num int) error {
	cfg, err := d.dev.Config(num)
	if err != nil {
		return err
	}
	d.cfg = cfg
	return nil
}

func (d *goUSBDevice) ClaimInterface(num int) error {
	intf, err := d.cfg.Interface(num, usbAltSetting)
	if err != nil {
		return err
	}
	in, err := intf.InEndpoint(usbEpIn & 0x0f)
	if err != nil {
		intf.Close()
		return err
	}
	out, err := intf.OutEndpoint(usbEpOut)
	if err != nil {
		intf.Close()
		return err
	}
	d.intf, d.in, d.out = intf, in, out
	return nil
}

func (d *goUSBDevice) Send(p []byte) error {
	if atomic.LoadInt32(&d.closed) == 1 {
		return errClosedDevice
	}
	_, err := d.out.Write(p)
	if err != nil && isErrorDisconnect(err) {
		return errDisconnect
	}
	return err
}

func (d *goUSBDevice) Receive(max int) ([]byte, error) {
	buf := make([]byte, max)
	for {
		if atomic.LoadInt32(&d.closed) == 1 {
			return nil, errClosedDevice
		}
		n, err := d.in.Read(buf)
		if err != nil {
			if isErrorDisconnect(err) {
				return nil, errDisconnect
			}
			return nil, err
		}
		// empty interrupt transfers happen; skip them
		if n > 0 {
			return buf[:n], nil
		}
	}
}

func (d *goUSBDevice) Product() string { return d.product }
func (d *goUSBDevice) Serial() string  { return d.serial }

func (d *goUSBDevice) Close(disconnected bool) error {
	atomic.StoreInt32(&d.closed, 1)
	if d.intf != nil {
		d.intf.Close()
	}
	if d.cfg != nil {
		// releasing the config of a gone device fails; that is fine
		if err := d.cfg.Close(); err != nil && !disconnected {
			d.bus.log.Warn().Err(err).Msg("config close")
		}
	}
	if d.dev != nil {
		return d.dev.Close()
	}
	return nil
}

// according to libusb docs a disconnect should surface as NO_DEVICE only,
// but IO, PIPE and OTHER show up in practice too
func isErrorDisconnect(err error) bool {
	return errors.Is(err, gousb.ErrorNoDevice) ||
		errors.Is(err, gousb.ErrorIO) ||
		errors.Is(err, gousb.ErrorPipe) ||
		errors.Is(err, gousb.ErrorOther)
}
