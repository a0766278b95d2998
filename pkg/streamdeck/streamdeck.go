// Package streamdeck implements the USB HID wire protocol spoken by the
// Elgato Stream Deck family of button panels: key image uploads,
// touch strip writes, brightness and reset feature reports, and input
// event decoding for buttons, rotary encoders and touch gestures.
//
// Every hardware revision differs in report layout, payload capacity
// and indexing order; Kind carries those constants and every operation
// branches on it exhaustively. The codec functions are pure; Device is
// the only stateful type.
package streamdeck

import (
	"fmt"

	"github.com/seagrayinc/streamdeck-hid/pkg/hid"
)

// DeviceInfo describes an attached Stream Deck before it is opened.
type DeviceInfo struct {
	Kind Kind
	hid.Info
}

// Enumerate lists the Stream Decks currently attached. Devices with the
// Elgato vendor id but an unrecognized product id are skipped.
func Enumerate(mgr hid.Manager) ([]DeviceInfo, error) {
	infos, err := mgr.List()
	if err != nil {
		return nil, fmt.Errorf("streamdeck: enumerate: %w", err)
	}
	var out []DeviceInfo
	for _, info := range infos {
		if info.VendorID != ElgatoVID {
			continue
		}
		kind := KindFromPID(info.ProductID)
		if kind == KindUnknown {
			continue
		}
		out = append(out, DeviceInfo{Kind: kind, Info: info})
	}
	return out, nil
}

// Open opens a session against one enumerated device.
func Open(mgr hid.Manager, info DeviceInfo) (*Device, error) {
	dev, err := mgr.Open(info.Info)
	if err != nil {
		return nil, fmt.Errorf("streamdeck: open %s: %w", info.Path, err)
	}
	return NewDevice(dev, info.Kind)
}

// OpenFirst opens the first attached Stream Deck, in enumeration order.
func OpenFirst(mgr hid.Manager) (*Device, error) {
	infos, err := Enumerate(mgr)
	if err != nil {
		return nil, err
	}
	if len(infos) == 0 {
		return nil, fmt.Errorf("streamdeck: %w", ErrNotConnected)
	}
	return Open(mgr, infos[0])
}

// OpenBySerial opens the attached Stream Deck with the given USB serial
// number.
func OpenBySerial(mgr hid.Manager, serial string) (*Device, error) {
	infos, err := Enumerate(mgr)
	if err != nil {
		return nil, err
	}
	for _, info := range infos {
		if info.SerialNumber == serial {
			return Open(mgr, info)
		}
	}
	return nil, fmt.Errorf("streamdeck: serial %q: %w", serial, ErrNotConnected)
}
