package hid

import (
	"errors"
	"time"
)

// ErrDeviceNotFound is returned by Manager.OpenVIDPID when no attached
// device matches.
var ErrDeviceNotFound = errors.New("device not found")

// Device represents an opened HID device capable of report I/O.
//
// All report buffers follow the hidapi convention: byte 0 carries the
// report id, the report data starts at byte 1. Read fills the buffer
// the same way, so parsers see the id as the first byte.
type Device interface {
	Write([]byte) (int, error) // send output report
	Read([]byte) (int, error)  // read input report, blocking

	// ReadTimeout reads an input report, waiting at most timeout.
	// It returns (0, nil) when no report arrived in time.
	ReadTimeout([]byte, time.Duration) (int, error)

	// SendFeatureReport and GetFeatureReport exchange control-channel
	// reports. GetFeatureReport reads the report selected by byte 0 of
	// the buffer into the rest of it.
	SendFeatureReport([]byte) (int, error)
	GetFeatureReport([]byte) (int, error)

	Info() Info
	Close() error
}

// Info represents a HID device descriptor.
type Info struct {
	Path         string
	VendorID     uint16
	ProductID    uint16
	Product      string
	Manufacturer string
	SerialNumber string
}

// Manager enumerates and opens HID devices.
type Manager interface {
	List() ([]Info, error)
	Open(info Info) (Device, error)
	OpenVIDPID(vendorID, productID uint16) (Device, error)
}

// NewManager returns the OS-specific HID manager.
func NewManager() (Manager, error) {
	return newManager()
}
