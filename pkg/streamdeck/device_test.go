package streamdeck

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"syscall"
	"testing"
	"time"

	"github.com/seagrayinc/streamdeck-hid/pkg/hid"
)

func newTestDevice(t *testing.T, k Kind) (*Device, *hid.MockDevice) {
	t.Helper()
	mock := hid.NewMockDevice(hid.Info{
		Path:         "mock",
		VendorID:     ElgatoVID,
		ProductID:    k.ProductID(),
		Product:      k.String(),
		Manufacturer: "Elgato",
		SerialNumber: "TEST0001",
	})
	d, err := NewDevice(mock, k)
	if err != nil {
		t.Fatalf("NewDevice failed: %v", err)
	}
	return d, mock
}

// patternBytes builds a payload with no zero bytes, so report padding
// is distinguishable from payload in the recorded frames.
func patternBytes(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i%251 + 1)
	}
	return b
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

func TestNewDeviceUnknownKind(t *testing.T) {
	_, err := NewDevice(hid.NewMockDevice(hid.Info{}), KindUnknown)
	if !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("err = %v, want ErrUnknownKind", err)
	}
}

func TestDeviceIdentityStrings(t *testing.T) {
	d, _ := newTestDevice(t, KindXL)
	if d.Kind() != KindXL {
		t.Errorf("Kind() = %v, want %v", d.Kind(), KindXL)
	}
	if got, err := d.Manufacturer(); err != nil || got != "Elgato" {
		t.Errorf("Manufacturer() = (%q, %v), want Elgato", got, err)
	}
	if got, err := d.Product(); err != nil || got != "Stream Deck XL" {
		t.Errorf("Product() = (%q, %v), want Stream Deck XL", got, err)
	}
}

func TestWriteImageChunking(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		key     uint8
		payload int
		pages   int
	}{
		{"mini single byte", KindMini, 0, 1, 1},
		{"mini exactly one page", KindMini, 5, 1008, 1},
		{"mini one byte over", KindMini, 1, 1009, 2},
		{"mini three pages", KindMini, 2, 2500, 3},
		{"original full bitmap", KindOriginal, 0, 15606, 2},
		{"xl one byte over", KindXL, 9, 1017, 2},
		{"plus single page", KindPlus, 7, 900, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, mock := newTestDevice(t, tt.kind)
			data := patternBytes(tt.payload)
			if err := d.WriteImage(tt.key, data); err != nil {
				t.Fatalf("WriteImage failed: %v", err)
			}
			if len(mock.Writes) != tt.pages {
				t.Fatalf("wrote %d pages, want %d", len(mock.Writes), tt.pages)
			}

			capacity := tt.kind.ImageReportPayloadLength()
			headerLen := tt.kind.ImageReportHeaderLength()
			var got []byte
			for i, frame := range mock.Writes {
				if len(frame) != tt.kind.ImageReportLength() {
					t.Fatalf("page %d is %d bytes, want %d", i, len(frame), tt.kind.ImageReportLength())
				}
				key, page, last := decodeImageHeader(t, tt.kind, frame)
				if key != tt.kind.FlipKeyIndex(tt.key) {
					t.Errorf("page %d wire key = %d, want %d", i, key, tt.kind.FlipKeyIndex(tt.key))
				}
				if page != i {
					t.Errorf("page number = %d, want %d", page, i)
				}
				if last != (i == tt.pages-1) {
					t.Errorf("page %d last flag = %v", i, last)
				}

				n := capacity
				if rem := len(data) - len(got); rem < n {
					n = rem
				}
				if headerLen == 8 {
					if enc := int(binary.LittleEndian.Uint16(frame[4:6])); enc != n {
						t.Errorf("page %d encoded length = %d, want %d", i, enc, n)
					}
				}
				if !allZero(frame[headerLen+n:]) {
					t.Errorf("page %d not zero-padded after payload", i)
				}
				got = append(got, frame[headerLen:headerLen+n]...)
			}
			if !bytes.Equal(got, data) {
				t.Error("reassembled payload differs from input")
			}
		})
	}
}

func TestWriteImageOriginalHeaderGolden(t *testing.T) {
	d, mock := newTestDevice(t, KindOriginal)
	if err := d.WriteImage(0, patternBytes(15606)); err != nil {
		t.Fatalf("WriteImage failed: %v", err)
	}

	// Logical key 0 lands on wire key 4, reported 1-based. Pages are
	// 1-based too, with byte 4 set while more pages follow.
	wantFirst := []byte{0x02, 0x01, 0x01, 0x00, 0x01, 0x05}
	wantFinal := []byte{0x02, 0x01, 0x02, 0x00, 0x00, 0x05}
	if got := mock.Writes[0][:6]; !bytes.Equal(got, wantFirst) {
		t.Errorf("first header = % x, want % x", got, wantFirst)
	}
	if got := mock.Writes[1][:6]; !bytes.Equal(got, wantFinal) {
		t.Errorf("final header = % x, want % x", got, wantFinal)
	}
}

func TestWriteImageEmptyPayload(t *testing.T) {
	d, mock := newTestDevice(t, KindXL)
	if err := d.WriteImage(0, nil); err != nil {
		t.Fatalf("WriteImage failed: %v", err)
	}
	if mock.IOCalls() != 0 {
		t.Errorf("empty payload issued %d transport calls", mock.IOCalls())
	}
}

func TestWriteImageValidation(t *testing.T) {
	t.Run("key out of range", func(t *testing.T) {
		d, mock := newTestDevice(t, KindMini)
		err := d.WriteImage(6, patternBytes(16))
		if !errors.Is(err, ErrInvalidKeyIndex) {
			t.Fatalf("err = %v, want ErrInvalidKeyIndex", err)
		}
		if mock.IOCalls() != 0 {
			t.Errorf("rejected write issued %d transport calls", mock.IOCalls())
		}
	})

	t.Run("no pixel display", func(t *testing.T) {
		d, mock := newTestDevice(t, KindPedal)
		err := d.WriteImage(0, patternBytes(16))
		if !errors.Is(err, ErrUnsupportedOperation) {
			t.Fatalf("err = %v, want ErrUnsupportedOperation", err)
		}
		if mock.IOCalls() != 0 {
			t.Errorf("rejected write issued %d transport calls", mock.IOCalls())
		}
	})
}

// A transport failure mid-image must stop the page loop where it
// happened and surface the cause; later pages of a dead write would
// desynchronize the device's reassembly state.
func TestWriteImageTransportError(t *testing.T) {
	d, mock := newTestDevice(t, KindXL)
	writeErr := errors.New("endpoint stalled")
	mock.WriteErr = writeErr
	mock.WriteErrAt = 1

	err := d.WriteImage(2, patternBytes(3*KindXL.ImageReportPayloadLength()))
	if !errors.Is(err, writeErr) {
		t.Fatalf("err = %v, want wrapped %v", err, writeErr)
	}
	if len(mock.Writes) != 1 {
		t.Errorf("pages sent before abort = %d, want 1", len(mock.Writes))
	}
}

func TestWriteLCDTransportError(t *testing.T) {
	d, mock := newTestDevice(t, KindPlus)
	writeErr := errors.New("endpoint stalled")
	mock.WriteErr = writeErr
	mock.WriteErrAt = 1

	err := d.WriteLCD(0, 0, 400, 100, patternBytes(2500))
	if !errors.Is(err, writeErr) {
		t.Fatalf("err = %v, want wrapped %v", err, writeErr)
	}
	if len(mock.Writes) != 1 {
		t.Errorf("pages sent before abort = %d, want 1", len(mock.Writes))
	}
}

func TestWriteLCDChunking(t *testing.T) {
	d, mock := newTestDevice(t, KindPlus)
	data := patternBytes(2500)
	if err := d.WriteLCD(100, 0, 400, 100, data); err != nil {
		t.Fatalf("WriteLCD failed: %v", err)
	}
	if len(mock.Writes) != 3 {
		t.Fatalf("wrote %d pages, want 3", len(mock.Writes))
	}

	var got []byte
	for i, frame := range mock.Writes {
		if len(frame) != 1024 {
			t.Fatalf("page %d is %d bytes, want 1024", i, len(frame))
		}
		if frame[0] != 0x02 || frame[1] != 0x0C {
			t.Fatalf("page %d header magic % x", i, frame[:2])
		}
		if x := binary.LittleEndian.Uint16(frame[2:4]); x != 100 {
			t.Errorf("page %d x = %d, want 100", i, x)
		}
		if y := binary.LittleEndian.Uint16(frame[4:6]); y != 0 {
			t.Errorf("page %d y = %d, want 0", i, y)
		}
		if w := binary.LittleEndian.Uint16(frame[6:8]); w != 400 {
			t.Errorf("page %d w = %d, want 400", i, w)
		}
		if h := binary.LittleEndian.Uint16(frame[8:10]); h != 100 {
			t.Errorf("page %d h = %d, want 100", i, h)
		}
		wantLast := byte(0)
		if i == 2 {
			wantLast = 1
		}
		if frame[10] != wantLast {
			t.Errorf("page %d last flag = %d, want %d", i, frame[10], wantLast)
		}
		if page := int(binary.LittleEndian.Uint16(frame[11:13])); page != i {
			t.Errorf("page number = %d, want %d", page, i)
		}
		n := int(binary.LittleEndian.Uint16(frame[13:15]))
		got = append(got, frame[16:16+n]...)
	}
	if !bytes.Equal(got, data) {
		t.Error("reassembled payload differs from input")
	}
}

func TestWriteLCDUnsupported(t *testing.T) {
	d, mock := newTestDevice(t, KindXL)
	err := d.WriteLCD(0, 0, 96, 96, patternBytes(64))
	if !errors.Is(err, ErrUnsupportedOperation) {
		t.Fatalf("err = %v, want ErrUnsupportedOperation", err)
	}
	if mock.IOCalls() != 0 {
		t.Errorf("rejected write issued %d transport calls", mock.IOCalls())
	}
}

func TestSetBrightnessReports(t *testing.T) {
	for _, k := range []Kind{KindOriginal, KindXLV2} {
		d, mock := newTestDevice(t, k)
		if err := d.SetBrightness(42); err != nil {
			t.Fatalf("%s: SetBrightness failed: %v", k, err)
		}
		if len(mock.FeatureSends) != 1 {
			t.Fatalf("%s: sent %d feature reports, want 1", k, len(mock.FeatureSends))
		}
		if want := brightnessReport(k, 42); !bytes.Equal(mock.FeatureSends[0], want) {
			t.Errorf("%s: report = % x, want % x", k, mock.FeatureSends[0], want)
		}
	}
}

func TestResetReports(t *testing.T) {
	for _, k := range []Kind{KindMini, KindPlus} {
		d, mock := newTestDevice(t, k)
		if err := d.Reset(); err != nil {
			t.Fatalf("%s: Reset failed: %v", k, err)
		}
		if want := resetReport(k); !bytes.Equal(mock.FeatureSends[0], want) {
			t.Errorf("%s: report = % x, want % x", k, mock.FeatureSends[0], want)
		}
	}
}

func TestSerialNumber(t *testing.T) {
	t.Run("modern", func(t *testing.T) {
		d, mock := newTestDevice(t, KindXL)
		resp := make([]byte, 32)
		resp[0] = 0x06
		copy(resp[2:], "CL18I1A00913")
		mock.SetFeatureResponse(0x06, resp)

		got, err := d.SerialNumber()
		if err != nil {
			t.Fatalf("SerialNumber failed: %v", err)
		}
		if got != "CL18I1A00913" {
			t.Errorf("serial = %q, want %q", got, "CL18I1A00913")
		}
	})

	t.Run("legacy", func(t *testing.T) {
		d, mock := newTestDevice(t, KindOriginal)
		resp := make([]byte, 17)
		resp[0] = 0x03
		copy(resp[5:], "AL15G1A01234")
		mock.SetFeatureResponse(0x03, resp)

		got, err := d.SerialNumber()
		if err != nil {
			t.Fatalf("SerialNumber failed: %v", err)
		}
		if got != "AL15G1A01234" {
			t.Errorf("serial = %q, want %q", got, "AL15G1A01234")
		}
	})
}

func TestFirmwareVersion(t *testing.T) {
	t.Run("modern", func(t *testing.T) {
		d, mock := newTestDevice(t, KindPlus)
		resp := make([]byte, 32)
		resp[0] = 0x05
		copy(resp[6:], "1.05.009")
		mock.SetFeatureResponse(0x05, resp)

		got, err := d.FirmwareVersion()
		if err != nil {
			t.Fatalf("FirmwareVersion failed: %v", err)
		}
		if got != "1.05.009" {
			t.Errorf("firmware = %q, want %q", got, "1.05.009")
		}
	})

	t.Run("legacy", func(t *testing.T) {
		d, mock := newTestDevice(t, KindMini)
		resp := make([]byte, 17)
		resp[0] = 0x04
		copy(resp[5:], "2.03.001")
		mock.SetFeatureResponse(0x04, resp)

		got, err := d.FirmwareVersion()
		if err != nil {
			t.Fatalf("FirmwareVersion failed: %v", err)
		}
		if got != "2.03.001" {
			t.Errorf("firmware = %q, want %q", got, "2.03.001")
		}
	})
}

func TestReadInput(t *testing.T) {
	t.Run("timeout", func(t *testing.T) {
		d, _ := newTestDevice(t, KindXL)
		ev, err := d.ReadInput(10 * time.Millisecond)
		if err != nil || ev != nil {
			t.Fatalf("ReadInput = (%#v, %v), want (nil, nil)", ev, err)
		}
	})

	t.Run("button event", func(t *testing.T) {
		d, mock := newTestDevice(t, KindXL)
		mock.QueueInput(prefixedButtons(4, 32, 6))

		ev, err := d.ReadInput(0)
		if err != nil {
			t.Fatalf("ReadInput failed: %v", err)
		}
		states, ok := ev.(ButtonStateChange)
		if !ok {
			t.Fatalf("event is %T, want ButtonStateChange", ev)
		}
		if !states[6] {
			t.Error("key 6 not pressed")
		}
	})

	t.Run("no event", func(t *testing.T) {
		d, mock := newTestDevice(t, KindXL)
		mock.QueueInput(make([]byte, KindXL.InputReportLength()))

		ev, err := d.ReadInput(0)
		if err != nil || ev != nil {
			t.Fatalf("ReadInput = (%#v, %v), want (nil, nil)", ev, err)
		}
	})
}

// A signal landing during a read surfaces as EINTR from the transport,
// possibly wrapped. That is the one failure read as no-event.
func TestReadInputInterrupted(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"bare", syscall.EINTR},
		{"wrapped", fmt.Errorf("hidraw read: %w", syscall.EINTR)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, timeout := range []time.Duration{0, 10 * time.Millisecond} {
				d, mock := newTestDevice(t, KindXL)
				mock.ReadErr = tc.err
				ev, err := d.ReadInput(timeout)
				if err != nil || ev != nil {
					t.Errorf("ReadInput(%v) = (%#v, %v), want (nil, nil)", timeout, ev, err)
				}
			}
		})
	}
}

func TestReadInputTransportError(t *testing.T) {
	readErr := errors.New("interface detached")
	for _, timeout := range []time.Duration{0, 10 * time.Millisecond} {
		d, mock := newTestDevice(t, KindXL)
		mock.ReadErr = readErr
		ev, err := d.ReadInput(timeout)
		if !errors.Is(err, readErr) {
			t.Errorf("ReadInput(%v) err = %v, want wrapped %v", timeout, err, readErr)
		}
		if ev != nil {
			t.Errorf("ReadInput(%v) event = %#v, want nil", timeout, ev)
		}
	}
}

func TestFeatureReportTransportError(t *testing.T) {
	featureErr := errors.New("pipe error")
	d, mock := newTestDevice(t, KindXL)
	mock.FeatureErr = featureErr

	ops := map[string]func() error{
		"Reset":         d.Reset,
		"SetBrightness": func() error { return d.SetBrightness(50) },
		"SerialNumber":  func() error { _, err := d.SerialNumber(); return err },
		"Firmware":      func() error { _, err := d.FirmwareVersion(); return err },
	}
	for name, op := range ops {
		if err := op(); !errors.Is(err, featureErr) {
			t.Errorf("%s: err = %v, want wrapped %v", name, err, featureErr)
		}
	}
}

func TestSetButtonImage(t *testing.T) {
	d, mock := newTestDevice(t, KindXL)
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for i := range img.Pix {
		img.Pix[i] = 0xFF
	}
	if err := d.SetButtonImage(2, img); err != nil {
		t.Fatalf("SetButtonImage failed: %v", err)
	}
	if len(mock.Writes) == 0 {
		t.Fatal("no reports written")
	}
	payload := mock.Writes[0][8:]
	if payload[0] != 0xFF || payload[1] != 0xD8 {
		t.Errorf("payload starts % x, want JPEG marker", payload[:2])
	}
}

func TestSetLCDImage(t *testing.T) {
	d, mock := newTestDevice(t, KindPlus)
	img := image.NewRGBA(image.Rect(0, 0, 64, 32))
	if err := d.SetLCDImage(200, 10, img); err != nil {
		t.Fatalf("SetLCDImage failed: %v", err)
	}
	if len(mock.Writes) == 0 {
		t.Fatal("no reports written")
	}
	frame := mock.Writes[0]
	if x := binary.LittleEndian.Uint16(frame[2:4]); x != 200 {
		t.Errorf("x = %d, want 200", x)
	}
	if w := binary.LittleEndian.Uint16(frame[6:8]); w != 64 {
		t.Errorf("w = %d, want 64", w)
	}
	if h := binary.LittleEndian.Uint16(frame[8:10]); h != 32 {
		t.Errorf("h = %d, want 32", h)
	}
}

func TestSetLCDImageUnsupported(t *testing.T) {
	d, _ := newTestDevice(t, KindMK2)
	err := d.SetLCDImage(0, 0, image.NewRGBA(image.Rect(0, 0, 8, 8)))
	if !errors.Is(err, ErrUnsupportedOperation) {
		t.Fatalf("err = %v, want ErrUnsupportedOperation", err)
	}
}

func TestClearButtonImage(t *testing.T) {
	d, mock := newTestDevice(t, KindXL)
	if err := d.ClearButtonImage(3); err != nil {
		t.Fatalf("ClearButtonImage failed: %v", err)
	}

	var got []byte
	for _, frame := range mock.Writes {
		key, _, _ := decodeImageHeader(t, KindXL, frame)
		if key != 3 {
			t.Errorf("wire key = %d, want 3", key)
		}
		n := int(binary.LittleEndian.Uint16(frame[4:6]))
		got = append(got, frame[8:8+n]...)
	}
	if !bytes.Equal(got, KindXL.BlankKeyImage()) {
		t.Error("cleared key payload is not the blank image")
	}
}

func TestClearAllButtonImages(t *testing.T) {
	d, mock := newTestDevice(t, KindMini)
	if err := d.ClearAllButtonImages(); err != nil {
		t.Fatalf("ClearAllButtonImages failed: %v", err)
	}

	seen := map[uint8]bool{}
	for _, frame := range mock.Writes {
		key, _, _ := decodeImageHeader(t, KindMini, frame)
		seen[key] = true
	}
	if len(seen) != KindMini.KeyCount() {
		t.Errorf("cleared %d distinct keys, want %d", len(seen), KindMini.KeyCount())
	}
}

func TestDeviceClose(t *testing.T) {
	d, mock := newTestDevice(t, KindPlus)
	if err := d.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !mock.IsClosed() {
		t.Error("transport handle not closed")
	}

	ops := map[string]func() error{
		"Reset":         d.Reset,
		"SetBrightness": func() error { return d.SetBrightness(50) },
		"WriteImage":    func() error { return d.WriteImage(0, patternBytes(8)) },
		"WriteLCD":      func() error { return d.WriteLCD(0, 0, 8, 8, patternBytes(8)) },
		"Manufacturer":  func() error { _, err := d.Manufacturer(); return err },
		"Product":       func() error { _, err := d.Product(); return err },
		"SerialNumber":  func() error { _, err := d.SerialNumber(); return err },
		"Firmware":      func() error { _, err := d.FirmwareVersion(); return err },
		"ReadInput":     func() error { _, err := d.ReadInput(0); return err },
		"Close":         d.Close,
	}
	for name, op := range ops {
		if err := op(); !errors.Is(err, ErrDeviceClosed) {
			t.Errorf("%s after close: err = %v, want ErrDeviceClosed", name, err)
		}
	}
}
