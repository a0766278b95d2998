package streamdeck

import "errors"

var (
	// ErrUnknownKind is returned when a product id does not map to a
	// known hardware revision, or when KindUnknown reaches an operation
	// that needs real device characteristics.
	ErrUnknownKind = errors.New("unrecognized device model")

	// ErrInvalidKeyIndex is returned when a key index is outside the
	// device's key range. No I/O is performed on this path.
	ErrInvalidKeyIndex = errors.New("key index out of range")

	// ErrUnsupportedOperation is returned when the device model lacks
	// the capability an operation needs, e.g. an LCD write on a model
	// without a touch strip. No I/O is performed on this path.
	ErrUnsupportedOperation = errors.New("operation not supported by device model")

	// ErrBadInputReport is returned when an inbound report carries a
	// discriminant byte outside the recognized set, or is too short to
	// decode. Polling may continue after this error.
	ErrBadInputReport = errors.New("malformed input report")

	// ErrDeviceClosed is returned by every operation after Close.
	ErrDeviceClosed = errors.New("device is closed")

	// ErrNotConnected is returned by the open helpers when no matching
	// device is attached.
	ErrNotConnected = errors.New("no device connected")
)
