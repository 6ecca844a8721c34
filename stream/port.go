package stream

import (
	"fmt"
	"strings"
	"time"

	"go.bug.st/serial"
)

// Port defines the minimal transport surface the framing engine needs from
// a serial device. Read must honour a per-call timeout configured at open
// time: when no data arrives before the timeout it returns (0, nil) rather
// than blocking indefinitely. This abstraction enables unit testing without
// real serial hardware.
type Port interface {
	// Read reads up to len(p) bytes, returning (0, nil) when the read
	// timeout expires with no data available.
	Read(p []byte) (n int, err error)

	// ResetInputBuffer discards any bytes queued by the device driver
	// that have not yet been read.
	ResetInputBuffer() error

	// SetReadTimeout sets the per-call read timeout.
	SetReadTimeout(d time.Duration) error

	// Close closes the port.
	Close() error
}

// PortOptions describes the serial connection parameters used when opening
// a real port.
type PortOptions struct {
	BaudRate    int           `json:"baud_rate"`
	DataBits    int           `json:"data_bits"`
	StopBits    int           `json:"stop_bits"`
	Parity      string        `json:"parity"`
	ReadTimeout time.Duration `json:"-"`
}

// DefaultPortOptions returns the line parameters for the sensor's data
// port: 1,036,800 baud (115200 × 9) with a 1ms per-read timeout.
func DefaultPortOptions() PortOptions {
	return PortOptions{
		BaudRate:    1036800,
		DataBits:    8,
		StopBits:    1,
		Parity:      "N",
		ReadTimeout: time.Millisecond,
	}
}

// Normalize validates the options and applies defaults for any unset
// values.
func (o PortOptions) Normalize() (PortOptions, error) {
	opts := o

	if opts.BaudRate < 0 {
		return opts, fmt.Errorf("invalid baud rate %d", opts.BaudRate)
	}
	if opts.BaudRate == 0 {
		opts.BaudRate = 1036800
	}

	if opts.DataBits == 0 {
		opts.DataBits = 8
	}
	if opts.DataBits < 5 || opts.DataBits > 8 {
		return opts, fmt.Errorf("invalid data bits %d: must be between 5 and 8", opts.DataBits)
	}

	if opts.StopBits == 0 {
		opts.StopBits = 1
	}
	if opts.StopBits != 1 && opts.StopBits != 2 {
		return opts, fmt.Errorf("invalid stop bits %d: supported values are 1 or 2", opts.StopBits)
	}

	parity := strings.TrimSpace(strings.ToUpper(opts.Parity))
	if parity == "" {
		parity = "N"
	}
	switch parity {
	case "N", "NONE":
		parity = "N"
	case "E", "EVEN":
		parity = "E"
	case "O", "ODD":
		parity = "O"
	default:
		return opts, fmt.Errorf("unsupported parity %q: expected N, E, or O", opts.Parity)
	}
	opts.Parity = parity

	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = time.Millisecond
	}

	return opts, nil
}

// SerialMode converts the port options into the serial.Mode structure
// required by go.bug.st/serial when opening a port.
func (o PortOptions) SerialMode() (*serial.Mode, error) {
	opts, err := o.Normalize()
	if err != nil {
		return nil, err
	}

	mode := &serial.Mode{
		BaudRate: opts.BaudRate,
		DataBits: opts.DataBits,
	}

	switch opts.StopBits {
	case 1:
		mode.StopBits = serial.OneStopBit
	case 2:
		mode.StopBits = serial.TwoStopBits
	default:
		return nil, fmt.Errorf("unsupported stop bits %d", opts.StopBits)
	}

	switch opts.Parity {
	case "N":
		mode.Parity = serial.NoParity
	case "E":
		mode.Parity = serial.EvenParity
	case "O":
		mode.Parity = serial.OddParity
	default:
		return nil, fmt.Errorf("unsupported parity %q", opts.Parity)
	}

	return mode, nil
}

// OpenPort opens the serial device at path with the given options and
// configures its read timeout. The returned port satisfies Port.
func OpenPort(path string, opts PortOptions) (Port, error) {
	normalized, err := opts.Normalize()
	if err != nil {
		return nil, err
	}

	mode, err := normalized.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", path, err)
	}

	if err := port.SetReadTimeout(normalized.ReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", path, err)
	}

	return port, nil
}
