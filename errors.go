package serialcomm

import "errors"

// Predefined error types for robust error handling
var (
	ErrPortOpen         = errors.New("failed to open serial port")
	ErrDeviceNotFound   = errors.New("serial device not found")
	ErrPermissionDenied = errors.New("permission denied accessing serial device")
	ErrDeviceInUse      = errors.New("serial device already in use")
	ErrInvalidBaudRate  = errors.New("invalid baud rate")
	ErrInvalidConfig    = errors.New("invalid serial configuration")

	// Codec errors
	ErrEncoding = errors.New("cannot encode message")

	// Session lifecycle errors
	ErrSessionClosed = errors.New("serial session is closed")
	ErrReaderRunning = errors.New("background reader already started")
	ErrInvalidCount  = errors.New("invalid repeat count")
)
