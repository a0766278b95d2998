package streamdeck

import (
	"encoding/binary"
	"fmt"
)

// InputEvent is one decoded input report. Concrete types are
// ButtonStateChange, EncoderStateChange, EncoderTwist, TouchPress,
// TouchLongPress and TouchSwipe; callers dispatch with a type switch.
type InputEvent interface {
	inputEvent()
}

// ButtonStateChange carries the pressed state of every key, indexed by
// logical key number, after undoing the Original's column mirroring.
type ButtonStateChange []bool

// EncoderStateChange carries the pressed state of every rotary encoder.
type EncoderStateChange []bool

// EncoderTwist carries the signed rotation step of every rotary
// encoder. Positive values are clockwise.
type EncoderTwist []int8

// TouchPress is a short tap on the touch strip.
type TouchPress struct {
	X, Y uint16
}

// TouchLongPress is a held tap on the touch strip.
type TouchLongPress struct {
	X, Y uint16
}

// TouchSwipe is a drag gesture across the touch strip.
type TouchSwipe struct {
	StartX, StartY uint16
	EndX, EndY     uint16
}

func (ButtonStateChange) inputEvent()  {}
func (EncoderStateChange) inputEvent() {}
func (EncoderTwist) inputEvent()       {}
func (TouchPress) inputEvent()         {}
func (TouchLongPress) inputEvent()     {}
func (TouchSwipe) inputEvent()         {}

// Input report discriminants used by the Plus, which multiplexes
// buttons, touch strip and encoders over one report id.
const (
	plusEventButtons = 0x00
	plusEventTouch   = 0x02
	plusEventEncoder = 0x03

	touchEventPress     = 0x01
	touchEventLongPress = 0x02
	touchEventSwipe     = 0x03

	encoderEventPress = 0x00
	encoderEventTwist = 0x01
)

// ParseInput decodes one raw input report into a typed event. An empty
// report, or one whose first byte is zero, is "no event this poll" and
// yields (nil, nil). Reports carrying an unrecognized discriminant fail
// with ErrBadInputReport; polling may continue afterwards.
func ParseInput(k Kind, report []byte) (InputEvent, error) {
	if k == KindUnknown {
		return nil, fmt.Errorf("streamdeck: parse input: %w", ErrUnknownKind)
	}
	if len(report) == 0 || report[0] == 0 {
		return nil, nil
	}
	if !k.HasSecondaryDisplay() {
		offset := 4
		if k.legacyFeatures() {
			offset = 1
		}
		return parseButtonStates(k, report, offset)
	}
	if len(report) < 5 {
		return nil, fmt.Errorf("streamdeck: input report too short (%d bytes): %w", len(report), ErrBadInputReport)
	}
	switch report[1] {
	case plusEventButtons:
		return parseButtonStates(k, report, 4)
	case plusEventTouch:
		return parseTouch(report)
	case plusEventEncoder:
		return parseEncoders(k, report)
	default:
		return nil, fmt.Errorf("streamdeck: input report type 0x%02x: %w", report[1], ErrBadInputReport)
	}
}

func parseButtonStates(k Kind, report []byte, offset int) (InputEvent, error) {
	if !k.HasButtonMatrix() {
		return nil, fmt.Errorf("streamdeck: button report on %s: %w", k, ErrBadInputReport)
	}
	count := k.KeyCount()
	if len(report) < offset+count {
		return nil, fmt.Errorf("streamdeck: button report too short (%d bytes): %w", len(report), ErrBadInputReport)
	}
	states := make(ButtonStateChange, count)
	for i := range states {
		// Same mirror as the write path: logical key i sits at wire
		// index FlipKeyIndex(i). Identity everywhere but the Original.
		states[i] = report[offset+int(k.FlipKeyIndex(uint8(i)))] != 0
	}
	return states, nil
}

func parseTouch(report []byte) (InputEvent, error) {
	if len(report) < 10 {
		return nil, fmt.Errorf("streamdeck: touch report too short (%d bytes): %w", len(report), ErrBadInputReport)
	}
	switch report[4] {
	case touchEventPress:
		return TouchPress{
			X: binary.LittleEndian.Uint16(report[6:8]),
			Y: binary.LittleEndian.Uint16(report[8:10]),
		}, nil
	case touchEventLongPress:
		return TouchLongPress{
			X: binary.LittleEndian.Uint16(report[6:8]),
			Y: binary.LittleEndian.Uint16(report[8:10]),
		}, nil
	case touchEventSwipe:
		if len(report) < 14 {
			return nil, fmt.Errorf("streamdeck: swipe report too short (%d bytes): %w", len(report), ErrBadInputReport)
		}
		return TouchSwipe{
			StartX: binary.LittleEndian.Uint16(report[6:8]),
			StartY: binary.LittleEndian.Uint16(report[8:10]),
			EndX:   binary.LittleEndian.Uint16(report[10:12]),
			EndY:   binary.LittleEndian.Uint16(report[12:14]),
		}, nil
	default:
		return nil, fmt.Errorf("streamdeck: touch event 0x%02x: %w", report[4], ErrBadInputReport)
	}
}

func parseEncoders(k Kind, report []byte) (InputEvent, error) {
	count := k.EncoderCount()
	if len(report) < 5+count {
		return nil, fmt.Errorf("streamdeck: encoder report too short (%d bytes): %w", len(report), ErrBadInputReport)
	}
	switch report[4] {
	case encoderEventPress:
		states := make(EncoderStateChange, count)
		for i := range states {
			states[i] = report[5+i] != 0
		}
		return states, nil
	case encoderEventTwist:
		deltas := make(EncoderTwist, count)
		for i := range deltas {
			deltas[i] = int8(report[5+i])
		}
		return deltas, nil
	default:
		return nil, fmt.Errorf("streamdeck: encoder event 0x%02x: %w", report[4], ErrBadInputReport)
	}
}
