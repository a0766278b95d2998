package streamdeck

// Kind identifies one hardware revision of the Stream Deck family.
// The set is closed: every operation in this package switches over it
// exhaustively, so a new revision only needs its constants filled in
// here and in the image format table.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindOriginal
	KindOriginalV2
	KindMini
	KindMiniMK2
	KindMK2
	KindXL
	KindXLV2
	KindPedal
	KindPlus
)

// USB identity. One vendor id, one product id per revision.
const (
	ElgatoVID uint16 = 0x0FD9

	PIDOriginal   uint16 = 0x0060
	PIDOriginalV2 uint16 = 0x006D
	PIDMini       uint16 = 0x0063
	PIDMiniMK2    uint16 = 0x0090
	PIDMK2        uint16 = 0x0080
	PIDXL         uint16 = 0x006C
	PIDXLV2       uint16 = 0x008F
	PIDPedal      uint16 = 0x0086
	PIDPlus       uint16 = 0x0084
)

// KindFromPID maps a USB product id to its Kind. Unknown product ids
// map to KindUnknown, which every operation rejects.
func KindFromPID(pid uint16) Kind {
	switch pid {
	case PIDOriginal:
		return KindOriginal
	case PIDOriginalV2:
		return KindOriginalV2
	case PIDMini:
		return KindMini
	case PIDMiniMK2:
		return KindMiniMK2
	case PIDMK2:
		return KindMK2
	case PIDXL:
		return KindXL
	case PIDXLV2:
		return KindXLV2
	case PIDPedal:
		return KindPedal
	case PIDPlus:
		return KindPlus
	default:
		return KindUnknown
	}
}

// ProductID returns the USB product id for the Kind, or 0 for KindUnknown.
func (k Kind) ProductID() uint16 {
	switch k {
	case KindOriginal:
		return PIDOriginal
	case KindOriginalV2:
		return PIDOriginalV2
	case KindMini:
		return PIDMini
	case KindMiniMK2:
		return PIDMiniMK2
	case KindMK2:
		return PIDMK2
	case KindXL:
		return PIDXL
	case KindXLV2:
		return PIDXLV2
	case KindPedal:
		return PIDPedal
	case KindPlus:
		return PIDPlus
	default:
		return 0
	}
}

func (k Kind) String() string {
	switch k {
	case KindOriginal:
		return "Stream Deck Original"
	case KindOriginalV2:
		return "Stream Deck Original V2"
	case KindMini:
		return "Stream Deck Mini"
	case KindMiniMK2:
		return "Stream Deck Mini MK2"
	case KindMK2:
		return "Stream Deck MK2"
	case KindXL:
		return "Stream Deck XL"
	case KindXLV2:
		return "Stream Deck XL V2"
	case KindPedal:
		return "Stream Deck Pedal"
	case KindPlus:
		return "Stream Deck Plus"
	default:
		return "unknown"
	}
}

// KeyCount returns the number of physical keys on the device.
func (k Kind) KeyCount() int {
	rows, cols := k.KeyLayout()
	return rows * cols
}

// KeyLayout returns the button matrix dimensions.
func (k Kind) KeyLayout() (rows, cols int) {
	switch k {
	case KindOriginal, KindOriginalV2, KindMK2:
		return 3, 5
	case KindMini, KindMiniMK2:
		return 2, 3
	case KindXL, KindXLV2:
		return 4, 8
	case KindPedal:
		return 1, 3
	case KindPlus:
		return 2, 4
	default:
		return 0, 0
	}
}

// EncoderCount returns the number of rotary encoders, zero for all
// revisions but the Plus.
func (k Kind) EncoderCount() int {
	if k == KindPlus {
		return 4
	}
	return 0
}

// HasButtonMatrix reports whether the device emits button state reports.
// True for every current revision; the input parser consults it before
// decoding button bytes.
func (k Kind) HasButtonMatrix() bool {
	return k != KindUnknown
}

// HasPixelDisplay reports whether the keys are individual displays that
// accept image writes. The Pedal's keys are blind switches.
func (k Kind) HasPixelDisplay() bool {
	switch k {
	case KindUnknown, KindPedal:
		return false
	default:
		return true
	}
}

// HasSecondaryDisplay reports whether the device carries the touch LCD
// strip between the key rows. Only the Plus does.
func (k Kind) HasSecondaryDisplay() bool {
	return k == KindPlus
}

// LCDStripSize returns the pixel dimensions of the secondary display,
// or zero values when there is none.
func (k Kind) LCDStripSize() (w, h int) {
	if k == KindPlus {
		return 800, 100
	}
	return 0, 0
}

// ImageReportLength returns the fixed length in bytes of one outbound
// image report, including the report id byte.
func (k Kind) ImageReportLength() int {
	if k == KindOriginal {
		return 8191
	}
	return 1024
}

// ImageReportHeaderLength returns the header size that prefixes every
// image report payload: 16 bytes on the bitmap-era revisions, 8 on the
// rest.
func (k Kind) ImageReportHeaderLength() int {
	switch k {
	case KindOriginal, KindMini, KindMiniMK2:
		return 16
	default:
		return 8
	}
}

// ImageReportPayloadLength returns how many image bytes fit in one
// report. The Original does not fill its oversized report; it expects
// exactly half of its 15606-byte key bitmap per page.
func (k Kind) ImageReportPayloadLength() int {
	if k == KindOriginal {
		return 7803
	}
	return k.ImageReportLength() - k.ImageReportHeaderLength()
}

// FeatureReportLength returns the buffer size used for brightness,
// reset, serial and firmware feature reports, including the report id.
func (k Kind) FeatureReportLength() int {
	if k.legacyFeatures() {
		return 17
	}
	return 32
}

// InputReportLength returns how many bytes to request from the
// transport when polling for input, including the report id.
func (k Kind) InputReportLength() int {
	switch {
	case k.HasSecondaryDisplay():
		n := 5 + k.EncoderCount()
		if n < 14 {
			n = 14
		}
		return n
	case k.legacyFeatures():
		return 1 + k.KeyCount()
	default:
		return 4 + k.KeyCount()
	}
}

// legacyFeatures reports whether the revision speaks the first
// generation control layout: 17-byte feature reports and 1-byte input
// report offsets. The split is the same for brightness, reset, serial,
// firmware and button parsing.
func (k Kind) legacyFeatures() bool {
	switch k {
	case KindOriginal, KindMini, KindMiniMK2:
		return true
	default:
		return false
	}
}

// FlipKeyIndex translates a logical key index to the wire index. The
// Original addresses keys mirrored within each row, so index 0 is the
// top-right key; every other revision counts left to right. The mapping
// is its own inverse and applies to image writes and button reads alike.
func (k Kind) FlipKeyIndex(key uint8) uint8 {
	if k != KindOriginal {
		return key
	}
	_, cols := k.KeyLayout()
	col := key % uint8(cols)
	return key - col + uint8(cols) - 1 - col
}
