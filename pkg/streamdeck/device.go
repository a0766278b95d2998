package streamdeck

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"syscall"
	"time"

	"github.com/seagrayinc/streamdeck-hid/pkg/hid"
)

// Device is an open session against one Stream Deck. It owns the
// transport handle and a single reusable outbound report buffer, so at
// most one operation may be in flight at a time. Wrap it in a
// LockedDevice when several goroutines share it.
type Device struct {
	kind   Kind
	dev    hid.Device
	frame  []byte // reusable outbound report, len == ImageReportLength
	closed bool
}

// NewDevice wraps an already-open transport handle in a session. The
// kind must be a recognized revision; KindUnknown is rejected.
func NewDevice(dev hid.Device, kind Kind) (*Device, error) {
	if kind == KindUnknown {
		return nil, fmt.Errorf("streamdeck: new device: %w", ErrUnknownKind)
	}
	return &Device{
		kind:  kind,
		dev:   dev,
		frame: make([]byte, kind.ImageReportLength()),
	}, nil
}

// Kind returns the hardware revision of the open device.
func (d *Device) Kind() Kind { return d.kind }

// Manufacturer returns the USB descriptor manufacturer string.
func (d *Device) Manufacturer() (string, error) {
	if d.closed {
		return "", ErrDeviceClosed
	}
	return d.dev.Info().Manufacturer, nil
}

// Product returns the USB descriptor product string.
func (d *Device) Product() (string, error) {
	if d.closed {
		return "", ErrDeviceClosed
	}
	return d.dev.Info().Product, nil
}

// SerialNumber queries the device's serial number over a feature
// report. The report id and response offset differ per revision family.
func (d *Device) SerialNumber() (string, error) {
	if d.closed {
		return "", ErrDeviceClosed
	}
	id, offset := serialRequest(d.kind)
	buf := make([]byte, d.kind.FeatureReportLength())
	buf[0] = id
	if _, err := d.dev.GetFeatureReport(buf); err != nil {
		return "", fmt.Errorf("streamdeck: read serial number: %w", err)
	}
	return extractString(buf[offset:]), nil
}

// FirmwareVersion queries the device's firmware revision string over a
// feature report.
func (d *Device) FirmwareVersion() (string, error) {
	if d.closed {
		return "", ErrDeviceClosed
	}
	id, offset := firmwareRequest(d.kind)
	buf := make([]byte, d.kind.FeatureReportLength())
	buf[0] = id
	if _, err := d.dev.GetFeatureReport(buf); err != nil {
		return "", fmt.Errorf("streamdeck: read firmware version: %w", err)
	}
	return extractString(buf[offset:]), nil
}

// ReadInput reads and decodes the next input report. A timeout of zero
// blocks until a report arrives. It returns (nil, nil) when the timeout
// expires, when the device reports "no event", or when the blocking
// read is interrupted by a signal; all other transport failures
// propagate.
func (d *Device) ReadInput(timeout time.Duration) (InputEvent, error) {
	if d.closed {
		return nil, ErrDeviceClosed
	}
	buf := make([]byte, d.kind.InputReportLength())
	var (
		n   int
		err error
	)
	if timeout > 0 {
		n, err = d.dev.ReadTimeout(buf, timeout)
	} else {
		n, err = d.dev.Read(buf)
	}
	if err != nil {
		if errors.Is(err, syscall.EINTR) {
			return nil, nil
		}
		return nil, fmt.Errorf("streamdeck: read input: %w", err)
	}
	return ParseInput(d.kind, buf[:n])
}

// Reset blanks all displays and returns the device to its idle logo.
func (d *Device) Reset() error {
	if d.closed {
		return ErrDeviceClosed
	}
	if _, err := d.dev.SendFeatureReport(resetReport(d.kind)); err != nil {
		return fmt.Errorf("streamdeck: reset: %w", err)
	}
	return nil
}

// SetBrightness sets the key backlight as a percentage. Values above
// 100 are passed through; their interpretation is hardware-defined.
func (d *Device) SetBrightness(percent uint8) error {
	if d.closed {
		return ErrDeviceClosed
	}
	if _, err := d.dev.SendFeatureReport(brightnessReport(d.kind, percent)); err != nil {
		return fmt.Errorf("streamdeck: set brightness: %w", err)
	}
	return nil
}

// WriteImage sends already-encoded image bytes to one key, chunked into
// as many report pages as the revision's payload capacity requires.
// The encoding must match the revision; see ConvertKeyImage. An empty
// payload writes nothing and succeeds.
func (d *Device) WriteImage(key uint8, data []byte) error {
	if d.closed {
		return ErrDeviceClosed
	}
	if !d.kind.HasPixelDisplay() {
		return fmt.Errorf("streamdeck: image write on %s: %w", d.kind, ErrUnsupportedOperation)
	}
	if int(key) >= d.kind.KeyCount() {
		return fmt.Errorf("streamdeck: key %d of %d: %w", key, d.kind.KeyCount(), ErrInvalidKeyIndex)
	}

	wireKey := d.kind.FlipKeyIndex(key)
	capacity := d.kind.ImageReportPayloadLength()
	frame := d.frame[:d.kind.ImageReportLength()]

	page := 0
	for remaining := len(data); remaining > 0; page++ {
		n := remaining
		if n > capacity {
			n = capacity
		}
		offset := len(data) - remaining

		header := imageReportHeader(d.kind, wireKey, page, n, n == remaining)
		copy(frame, header)
		copy(frame[len(header):], data[offset:offset+n])
		zeroFill(frame[len(header)+n:])

		if _, err := d.dev.Write(frame); err != nil {
			return fmt.Errorf("streamdeck: image page %d: %w", page, err)
		}
		remaining -= n
	}
	slog.Debug("image written", "kind", d.kind.String(), "key", key, "bytes", len(data), "pages", page)
	return nil
}

// WriteLCD sends already-encoded JPEG bytes to a region of the touch
// strip, chunked the same way as key image writes.
func (d *Device) WriteLCD(x, y, w, h uint16, data []byte) error {
	if d.closed {
		return ErrDeviceClosed
	}
	if !d.kind.HasSecondaryDisplay() {
		return fmt.Errorf("streamdeck: lcd write on %s: %w", d.kind, ErrUnsupportedOperation)
	}

	frame := d.frame[:lcdReportLength]

	page := 0
	for remaining := len(data); remaining > 0; page++ {
		n := remaining
		if n > lcdPayloadLength {
			n = lcdPayloadLength
		}
		offset := len(data) - remaining

		header := lcdReportHeader(x, y, w, h, page, n, n == remaining)
		copy(frame, header)
		copy(frame[len(header):], data[offset:offset+n])
		zeroFill(frame[len(header)+n:])

		if _, err := d.dev.Write(frame); err != nil {
			return fmt.Errorf("streamdeck: lcd page %d: %w", page, err)
		}
		remaining -= n
	}
	slog.Debug("lcd region written", "x", x, "y", y, "w", w, "h", h, "bytes", len(data), "pages", page)
	return nil
}

// SetButtonImage converts an image to the revision's native format and
// writes it to one key.
func (d *Device) SetButtonImage(key uint8, img image.Image) error {
	data, err := ConvertKeyImage(d.kind, img)
	if err != nil {
		return err
	}
	return d.WriteImage(key, data)
}

// SetLCDImage encodes an image at its natural size and writes it to the
// touch strip with its top-left corner at (x, y).
func (d *Device) SetLCDImage(x, y uint16, img image.Image) error {
	rect, err := NewImageRect(img)
	if err != nil {
		return err
	}
	return d.WriteLCD(x, y, uint16(rect.W), uint16(rect.H), rect.Data)
}

// ClearButtonImage writes the revision's blank image to one key.
func (d *Device) ClearButtonImage(key uint8) error {
	return d.WriteImage(key, d.kind.BlankKeyImage())
}

// ClearAllButtonImages writes the blank image to every key.
func (d *Device) ClearAllButtonImages() error {
	for key := 0; key < d.kind.KeyCount(); key++ {
		if err := d.ClearButtonImage(uint8(key)); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the transport handle. Every subsequent operation,
// including another Close, fails with ErrDeviceClosed.
func (d *Device) Close() error {
	if d.closed {
		return ErrDeviceClosed
	}
	d.closed = true
	if err := d.dev.Close(); err != nil {
		return fmt.Errorf("streamdeck: close: %w", err)
	}
	return nil
}

func zeroFill(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
