package serialcomm

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// OutputFormat selects how bytes are rendered for display
type OutputFormat string

const (
	FormatAutodetect OutputFormat = "autodetect"
	FormatASCII      OutputFormat = "ascii"
	FormatHex        OutputFormat = "hex"
	FormatBin        OutputFormat = "bin"
	FormatOct        OutputFormat = "oct"
)

// Placeholders returned instead of an error when data cannot be rendered.
const (
	FormatErrorText       = "<format-error>"
	UnsupportedFormatText = "<unsupported-format>"
)

// OutputFormats lists every accepted display format, default first.
var OutputFormats = []OutputFormat{FormatAutodetect, FormatASCII, FormatHex, FormatBin, FormatOct}

// ParseOutputFormat validates a display format name
func ParseOutputFormat(s string) (OutputFormat, error) {
	f := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range OutputFormats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: unknown output format %q", ErrInvalidConfig, s)
}

// Encode converts operator input into the bytes to put on the wire.
//
// Input prefixed with 0x, 0b or 0o (any case) is read as a hexadecimal,
// binary or octal literal. Anything else must be plain ASCII text.
func Encode(text string) ([]byte, error) {
	if len(text) >= 2 && text[0] == '0' {
		switch text[1] {
		case 'x', 'X':
			return decodeHex(text[2:])
		case 'b', 'B':
			return decodeBin(text[2:])
		case 'o', 'O':
			return decodeOct(text[2:])
		}
	}

	for i := 0; i < len(text); i++ {
		if text[i] > 0x7f {
			return nil, fmt.Errorf("%w: non-ASCII character at offset %d", ErrEncoding, i)
		}
	}
	return []byte(text), nil
}

// decodeHex parses hex digits, ignoring spaces between pairs. An odd digit
// count gets a leading zero nibble.
func decodeHex(digits string) ([]byte, error) {
	digits = strings.ReplaceAll(digits, " ", "")
	if len(digits)%2 != 0 {
		digits = "0" + digits
	}
	data, err := hex.DecodeString(digits)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid hex literal: %v", ErrEncoding, err)
	}
	return data, nil
}

func decodeBin(digits string) ([]byte, error) {
	if digits == "" {
		return nil, fmt.Errorf("%w: empty binary literal", ErrEncoding)
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] != '0' && digits[i] != '1' {
			return nil, fmt.Errorf("%w: invalid binary digit %q", ErrEncoding, digits[i])
		}
	}

	width := (len(digits) + 7) / 8 * 8
	digits = strings.Repeat("0", width-len(digits)) + digits

	data := make([]byte, width/8)
	for i := range data {
		var b byte
		for _, bit := range digits[i*8 : i*8+8] {
			b = b<<1 | byte(bit-'0')
		}
		data[i] = b
	}
	return data, nil
}

// decodeOct returns the minimal big-endian representation, so 0o0 encodes
// to no bytes at all.
func decodeOct(digits string) ([]byte, error) {
	if digits == "" {
		return nil, fmt.Errorf("%w: empty octal literal", ErrEncoding)
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '7' {
			return nil, fmt.Errorf("%w: invalid octal digit %q", ErrEncoding, digits[i])
		}
	}
	value, ok := new(big.Int).SetString(digits, 8)
	if !ok {
		return nil, fmt.Errorf("%w: invalid octal literal %q", ErrEncoding, digits)
	}
	return value.Bytes(), nil
}

// FormatFixed renders data in an explicitly chosen format. It never fails:
// data that cannot be shown as requested yields FormatErrorText.
func FormatFixed(data []byte, format OutputFormat) string {
	switch format {
	case FormatASCII:
		for _, b := range data {
			if b > 0x7f {
				return FormatErrorText
			}
		}
		return string(data)
	case FormatHex:
		return "0x" + hex.EncodeToString(data)
	case FormatBin:
		var sb strings.Builder
		sb.Grow(2 + len(data)*8)
		sb.WriteString("0b")
		for _, b := range data {
			fmt.Fprintf(&sb, "%08b", b)
		}
		return sb.String()
	case FormatOct:
		var sb strings.Builder
		sb.Grow(2 + len(data)*3)
		sb.WriteString("0o")
		for _, b := range data {
			fmt.Fprintf(&sb, "%03o", b)
		}
		return sb.String()
	default:
		return UnsupportedFormatText
	}
}

// FormatAuto shows data as text when every byte is printable ASCII
// (whitespace included) and as hex otherwise.
func FormatAuto(data []byte) string {
	for _, b := range data {
		if !isPrintable(b) {
			return FormatFixed(data, FormatHex)
		}
	}
	return string(data)
}

// Format applies the display policy selected by format.
func Format(data []byte, format OutputFormat) string {
	if format == FormatAutodetect || format == "" {
		return FormatAuto(data)
	}
	return FormatFixed(data, format)
}

func isPrintable(b byte) bool {
	switch {
	case b >= 0x20 && b <= 0x7e:
		return true
	case b == '\t', b == '\n', b == '\r', b == '\v', b == '\f':
		return true
	}
	return false
}
