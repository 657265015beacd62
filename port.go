package serialcomm

import (
	"errors"
	"fmt"
	"strings"

	"go.bug.st/serial"
	"go.uber.org/zap"
)

// Port is the part of an open serial device a Session needs. Read returns
// (0, nil) when the read timeout expires without data.
type Port interface {
	Read(buf []byte) (int, error)
	Write(data []byte) (int, error)
	Close() error
}

// Ensure the driver port satisfies Port at compile time
var _ Port = serial.Port(nil)

// openPort opens device with the line settings and read timeout of config
func openPort(device string, config Config) (Port, error) {
	mode := &serial.Mode{
		BaudRate: config.BaudRate,
		DataBits: config.DataBits,
		Parity:   config.Parity.mode(),
		StopBits: config.StopBits.mode(),
	}
	if config.StopBits == StopBitsOnePointFive && mode.StopBits == serial.TwoStopBits {
		config.Logger.Debug("1.5 stop bits not supported on this platform, using 2", zap.String("port", device))
	}

	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, classifyOpenError(device, err)
	}

	if err := port.SetReadTimeout(config.ReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("%w %s: failed to set read timeout: %v", ErrPortOpen, device, err)
	}

	return port, nil
}

// classifyOpenError maps driver error codes onto the package sentinels. The
// result always matches ErrPortOpen.
func classifyOpenError(device string, err error) error {
	var portErr *serial.PortError
	if errors.As(err, &portErr) {
		if kind := openErrorKind(portErr.Code(), portErr.Error()); kind != nil {
			return fmt.Errorf("%w %s: %w (%v)", ErrPortOpen, device, kind, err)
		}
	}
	return fmt.Errorf("%w %s: %v", ErrPortOpen, device, err)
}

// openErrorKind picks the sentinel for a driver error code. The driver
// reports rejected line settings as InvalidSerialPort, so the message is
// checked to tell them apart from a device that is not a serial port.
func openErrorKind(code serial.PortErrorCode, msg string) error {
	switch code {
	case serial.PortNotFound:
		return ErrDeviceNotFound
	case serial.InvalidSerialPort:
		if strings.Contains(msg, "error configuring port") {
			return ErrInvalidConfig
		}
		return ErrDeviceNotFound
	case serial.PortBusy:
		return ErrDeviceInUse
	case serial.PermissionDenied:
		return ErrPermissionDenied
	case serial.InvalidSpeed:
		return ErrInvalidBaudRate
	case serial.InvalidDataBits, serial.InvalidParity, serial.InvalidStopBits, serial.InvalidTimeoutValue:
		return ErrInvalidConfig
	}
	return nil
}
