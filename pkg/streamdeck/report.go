package streamdeck

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"strings"
)

// Outbound report geometry for the Plus touch strip.
const (
	lcdReportLength  = 1024
	lcdHeaderLength  = 16
	lcdPayloadLength = lcdReportLength - lcdHeaderLength
)

// imageReportHeader builds the header that prefixes one page of a key
// image transfer. The first byte doubles as the HID report id. Three
// layouts exist:
//
//	Original:      16 bytes, 1-based page, 1-based pre-flipped key,
//	               byte 4 set while more pages follow
//	Mini/Mini MK2: same 16 bytes but with a 0-based page
//	everything else: 8 bytes, little-endian payload length and page,
//	               byte 3 set on the final page
//
// The flag polarity really is inverted between the two layouts; the
// hardware rejects transfers if it is normalized.
func imageReportHeader(k Kind, key uint8, page, payloadLen int, last bool) []byte {
	switch k.ImageReportHeaderLength() {
	case 16:
		pageByte := byte(page)
		if k == KindOriginal {
			pageByte = byte(page + 1)
		}
		var continues byte
		if !last {
			continues = 1
		}
		h := make([]byte, 16)
		h[0] = 0x02
		h[1] = 0x01
		h[2] = pageByte
		h[4] = continues
		h[5] = key + 1
		return h
	default:
		var done byte
		if last {
			done = 1
		}
		h := make([]byte, 8)
		h[0] = 0x02
		h[1] = 0x07
		h[2] = key
		h[3] = done
		binary.LittleEndian.PutUint16(h[4:6], uint16(payloadLen))
		binary.LittleEndian.PutUint16(h[6:8], uint16(page))
		return h
	}
}

// lcdReportHeader builds the 16-byte header for one page of a touch
// strip region write. All multi-byte fields are little-endian.
func lcdReportHeader(x, y, w, h uint16, page, payloadLen int, last bool) []byte {
	var done byte
	if last {
		done = 1
	}
	hdr := make([]byte, lcdHeaderLength)
	hdr[0] = 0x02
	hdr[1] = 0x0C
	binary.LittleEndian.PutUint16(hdr[2:4], x)
	binary.LittleEndian.PutUint16(hdr[4:6], y)
	binary.LittleEndian.PutUint16(hdr[6:8], w)
	binary.LittleEndian.PutUint16(hdr[8:10], h)
	hdr[10] = done
	binary.LittleEndian.PutUint16(hdr[11:13], uint16(page))
	binary.LittleEndian.PutUint16(hdr[13:15], uint16(payloadLen))
	return hdr
}

// brightnessReport builds the feature report that sets the backlight.
// The percentage byte is stored as given; interpretation of values
// above 100 is up to the hardware.
func brightnessReport(k Kind, percent uint8) []byte {
	b := make([]byte, k.FeatureReportLength())
	if k.legacyFeatures() {
		b[0] = 0x05
		b[1] = 0x55
		b[2] = 0xAA
		b[3] = 0xD1
		b[4] = 0x01
		b[5] = percent
	} else {
		b[0] = 0x03
		b[1] = 0x08
		b[2] = percent
	}
	return b
}

// resetReport builds the feature report that blanks all displays and
// returns the device to its idle logo.
func resetReport(k Kind) []byte {
	b := make([]byte, k.FeatureReportLength())
	if k.legacyFeatures() {
		b[0] = 0x0B
		b[1] = 0x63
	} else {
		b[0] = 0x03
		b[1] = 0x02
	}
	return b
}

// serialRequest returns the feature report id to query the serial
// number with, and the offset of the string within the response buffer.
func serialRequest(k Kind) (id byte, offset int) {
	if k.legacyFeatures() {
		return 0x03, 5
	}
	return 0x06, 2
}

// firmwareRequest returns the feature report id to query the firmware
// version with, and the offset of the string within the response buffer.
func firmwareRequest(k Kind) (id byte, offset int) {
	if k.legacyFeatures() {
		return 0x04, 5
	}
	return 0x05, 6
}

// extractString reads a NUL-terminated string out of a feature report
// response.
func extractString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// EncodeReportToString renders a report buffer as dash-separated hex
// for debug logging.
func EncodeReportToString(b []byte) string {
	hexDigits := hex.EncodeToString(b)
	var builder strings.Builder
	for i, r := range hexDigits {
		if i > 0 && i%2 == 0 {
			builder.WriteString("-")
		}
		builder.WriteRune(r)
	}
	return builder.String()
}
