//go:build !darwin

package hid

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	usbhid "rafaelmartins.com/p/usbhid"
)

type usbManager struct{}

func newManager() (Manager, error) { return &usbManager{}, nil }

func (m *usbManager) List() ([]Info, error) {
	devs, err := usbhid.Enumerate(nil)
	if err != nil {
		return nil, err
	}
	out := make([]Info, 0, len(devs))
	for _, d := range devs {
		out = append(out, usbInfo(d))
	}
	return out, nil
}

func (m *usbManager) Open(info Info) (Device, error) {
	d, err := usbhid.Get(func(dev *usbhid.Device) bool {
		return dev.Path() == info.Path
	}, true, false)
	if err != nil {
		return nil, err
	}
	return newUSBDevice(d), nil
}

func (m *usbManager) OpenVIDPID(vendorID, productID uint16) (Device, error) {
	d, err := usbhid.Get(func(dev *usbhid.Device) bool {
		return dev.VendorId() == vendorID && dev.ProductId() == productID
	}, true, false)
	if err != nil {
		return nil, err
	}
	return newUSBDevice(d), nil
}

func usbInfo(d *usbhid.Device) Info {
	return Info{
		Path:         d.Path(),
		VendorID:     d.VendorId(),
		ProductID:    d.ProductId(),
		Product:      d.Product(),
		Manufacturer: d.Manufacturer(),
		SerialNumber: d.SerialNumber(),
	}
}

type inputReport struct {
	id   byte
	data []byte
	err  error
}

// usbDevice adapts usbhid's blocking GetInputReport to the Device
// interface. Reads are pumped through a goroutine so ReadTimeout can
// give up without losing the report: the pump parks on the channel
// send until the next Read or ReadTimeout collects it.
type usbDevice struct {
	d    *usbhid.Device
	info Info

	pumpOnce  sync.Once
	closeOnce sync.Once
	reports   chan inputReport
	done      chan struct{}
}

func newUSBDevice(d *usbhid.Device) *usbDevice {
	return &usbDevice{
		d:       d,
		info:    usbInfo(d),
		reports: make(chan inputReport),
		done:    make(chan struct{}),
	}
}

func (d *usbDevice) Info() Info { return d.info }

func (d *usbDevice) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err := d.d.SetOutputReport(p[0], p[1:]); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (d *usbDevice) pump() {
	d.pumpOnce.Do(func() {
		go func() {
			defer close(d.reports)
			for {
				id, data, err := d.d.GetInputReport()
				select {
				case d.reports <- inputReport{id, data, err}:
					if err != nil {
						slog.Warn("failed to read input report, stopping pump",
							slog.Any("error", err), slog.String("path", d.info.Path))
						return
					}
				case <-d.done:
					return
				}
			}
		}()
	})
}

func (d *usbDevice) Read(p []byte) (int, error) {
	d.pump()
	r, ok := <-d.reports
	if !ok {
		return 0, errors.New("hid: device closed")
	}
	return fillReport(p, r)
}

func (d *usbDevice) ReadTimeout(p []byte, timeout time.Duration) (int, error) {
	d.pump()
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case r, ok := <-d.reports:
		if !ok {
			return 0, errors.New("hid: device closed")
		}
		return fillReport(p, r)
	case <-t.C:
		return 0, nil
	}
}

// fillReport reassembles the hidapi buffer convention from usbhid's
// split (id, data) return.
func fillReport(p []byte, r inputReport) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	if len(p) == 0 {
		return 0, nil
	}
	p[0] = r.id
	n := copy(p[1:], r.data)
	return n + 1, nil
}

func (d *usbDevice) SendFeatureReport(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err := d.d.SetFeatureReport(p[0], p[1:]); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (d *usbDevice) GetFeatureReport(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	data, err := d.d.GetFeatureReport(p[0])
	if err != nil {
		return 0, err
	}
	n := copy(p[1:], data)
	return n + 1, nil
}

func (d *usbDevice) Close() error {
	var err error
	d.closeOnce.Do(func() {
		close(d.done)
		err = d.d.Close()
	})
	return err
}
