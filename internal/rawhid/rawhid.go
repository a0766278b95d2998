// Package rawhid opens Stream Decks through the libusb-backed
// karalabe/usb bindings instead of the OS HID manager. It is the
// fallback for environments where hidraw device nodes are not
// accessible. The backend exposes plain interrupt report I/O only, no
// feature reports, so brightness, reset and identity queries are not
// available on this path.
package rawhid

import (
	"fmt"

	"github.com/karalabe/usb"
)

// Device is a Stream Deck opened over raw USB HID.
type Device struct {
	dev  usb.Device
	info usb.DeviceInfo
}

// List enumerates HID devices matching the vendor and product id.
// Either id may be zero to match anything.
func List(vendorID, productID uint16) ([]usb.DeviceInfo, error) {
	if !usb.Supported() {
		return nil, fmt.Errorf("rawhid: usb backend not built in")
	}
	infos, err := usb.EnumerateHid(vendorID, productID)
	if err != nil {
		return nil, fmt.Errorf("rawhid: enumerate: %w", err)
	}
	return infos, nil
}

// Open opens one enumerated device.
func Open(info usb.DeviceInfo) (*Device, error) {
	dev, err := info.Open()
	if err != nil {
		return nil, fmt.Errorf("rawhid: open %s: %w", info.Path, err)
	}
	return &Device{dev: dev, info: info}, nil
}

// OpenFirst opens the first device matching the vendor and product id.
func OpenFirst(vendorID, productID uint16) (*Device, error) {
	infos, err := List(vendorID, productID)
	if err != nil {
		return nil, err
	}
	if len(infos) == 0 {
		return nil, fmt.Errorf("rawhid: no device matching %04x:%04x", vendorID, productID)
	}
	return Open(infos[0])
}

func (d *Device) Info() usb.DeviceInfo { return d.info }

// Read reads one input report, blocking. The report id arrives as the
// first byte, matching the hidapi buffer convention.
func (d *Device) Read(p []byte) (int, error) {
	n, err := d.dev.Read(p)
	if err != nil {
		return n, fmt.Errorf("rawhid: read: %w", err)
	}
	return n, nil
}

// Write sends one output report, report id first.
func (d *Device) Write(p []byte) (int, error) {
	n, err := d.dev.Write(p)
	if err != nil {
		return n, fmt.Errorf("rawhid: write: %w", err)
	}
	return n, nil
}

func (d *Device) Close() error {
	return d.dev.Close()
}
