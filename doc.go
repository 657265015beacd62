// Package serialcomm provides interactive serial port communication: a
// session that reads incoming bytes in the background while the caller
// sends messages, renders traffic in several formats and optionally keeps
// an append-only transcript of everything that crossed the wire.
//
// # Basic Usage
//
// Open a session with default configuration (9600 8N1):
//
//	s, err := serialcomm.Open("/dev/ttyUSB0")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
//
//	if err := s.StartReader(); err != nil {
//	    log.Fatal(err)
//	}
//
//	payload, err := serialcomm.Encode("0x48656c6c6f")
//	err = s.Send(ctx, payload, 1, 0)
//
// # Configuration Options
//
// Use functional options for custom configuration:
//
//	s, err := serialcomm.Open("COM3",
//	    serialcomm.WithBaudRate(115200),
//	    serialcomm.WithParity(serialcomm.ParityEven),
//	    serialcomm.WithStopBits(serialcomm.StopBitsTwo),
//	    serialcomm.WithOutputFormat(serialcomm.FormatHex),
//	    serialcomm.WithTranscript("traffic.log", serialcomm.LogFormatCSV),
//	)
//
// # Encoding and Display
//
// Encode turns operator input into bytes. Input starting with 0x, 0b or 0o
// is read as a hexadecimal, binary or octal literal; anything else must be
// ASCII text:
//
//	serialcomm.Encode("0x41")       // []byte{0x41}
//	serialcomm.Encode("0b01000001") // []byte{0x41}
//	serialcomm.Encode("0o101")      // []byte{0x41}
//	serialcomm.Encode("AT")         // []byte("AT")
//
// FormatAuto, FormatFixed and Format render bytes for display:
//
//	serialcomm.FormatAuto([]byte{0x07})                        // "0x07"
//	serialcomm.FormatFixed([]byte("AB"), serialcomm.FormatBin) // "0b0100000101000010"
//
// # Repeated Sends
//
// Send repeats a payload with a delay between repetitions. Pass Forever
// to repeat until the context is cancelled:
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer stop()
//	err := s.Send(ctx, payload, serialcomm.Forever, 500*time.Millisecond)
//
// # Error Handling
//
// Use errors.Is() for error type checking:
//
//	if errors.Is(err, serialcomm.ErrPortOpen) {
//	    // Device missing, busy or rejecting the line settings
//	}
//	if errors.Is(err, serialcomm.ErrEncoding) {
//	    // Malformed literal or non-ASCII text
//	}
//
// # Default Configuration
//
//   - BaudRate: 9600
//   - DataBits: 8
//   - StopBits: 1
//   - Parity: None
//   - OutputFormat: autodetect
//   - ReadTimeout and PollInterval: 100ms
//   - CloseTimeout: 1s
package serialcomm
