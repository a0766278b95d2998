package streamdeck

import (
	"image"
	"sync"
	"time"
)

// LockedDevice serializes access to a Device with one mutex per open
// device. Every operation takes the lock, identity queries included,
// since they all share the transport handle and the outbound buffer.
type LockedDevice struct {
	mu sync.Mutex
	d  *Device
}

func NewLockedDevice(d *Device) *LockedDevice {
	return &LockedDevice{d: d}
}

func (l *LockedDevice) Kind() Kind {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.d.Kind()
}

func (l *LockedDevice) Manufacturer() (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.d.Manufacturer()
}

func (l *LockedDevice) Product() (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.d.Product()
}

func (l *LockedDevice) SerialNumber() (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.d.SerialNumber()
}

func (l *LockedDevice) FirmwareVersion() (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.d.FirmwareVersion()
}

// ReadInput holds the lock for the duration of the read, so prefer a
// short timeout when other goroutines write images concurrently.
func (l *LockedDevice) ReadInput(timeout time.Duration) (InputEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.d.ReadInput(timeout)
}

func (l *LockedDevice) Reset() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.d.Reset()
}

func (l *LockedDevice) SetBrightness(percent uint8) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.d.SetBrightness(percent)
}

func (l *LockedDevice) WriteImage(key uint8, data []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.d.WriteImage(key, data)
}

func (l *LockedDevice) WriteLCD(x, y, w, h uint16, data []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.d.WriteLCD(x, y, w, h, data)
}

func (l *LockedDevice) SetButtonImage(key uint8, img image.Image) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.d.SetButtonImage(key, img)
}

func (l *LockedDevice) SetLCDImage(x, y uint16, img image.Image) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.d.SetLCDImage(x, y, img)
}

func (l *LockedDevice) ClearButtonImage(key uint8) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.d.ClearButtonImage(key)
}

func (l *LockedDevice) ClearAllButtonImages() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.d.ClearAllButtonImages()
}

func (l *LockedDevice) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.d.Close()
}
