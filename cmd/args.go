/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/allbin/serialcomm"
	"github.com/allbin/serialcomm/internal/logging"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// spamForever is the --spam value that repeats until interrupted
const spamForever = "inf"

var maxDelayNanos = decimal.NewFromInt(math.MaxInt64)

// ArgumentError reports a malformed command line or configuration value.
// It is always returned before the port is opened.
type ArgumentError struct {
	Flag   string
	Value  string
	Reason string
}

func (e *ArgumentError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("--%s: %s", e.Flag, e.Reason)
	}
	return fmt.Sprintf("invalid value %q for --%s: %s", e.Value, e.Flag, e.Reason)
}

// ParseDelay parses a delay such as "500ms", "2s", "1.5m", "1h" or "250".
// A bare number is milliseconds.
func ParseDelay(s string) (time.Duration, error) {
	body, unit := splitDelayUnit(strings.TrimSpace(s))

	value, err := decimal.NewFromString(body)
	if err != nil {
		return 0, &ArgumentError{Flag: "delay", Value: s, Reason: "invalid time value"}
	}
	if value.IsNegative() {
		return 0, &ArgumentError{Flag: "delay", Value: s, Reason: "must not be negative"}
	}

	nanos := value.Mul(decimal.NewFromInt(int64(unit))).Round(0)
	if nanos.GreaterThan(maxDelayNanos) {
		return 0, &ArgumentError{Flag: "delay", Value: s, Reason: "too large"}
	}
	return time.Duration(nanos.IntPart()), nil
}

func splitDelayUnit(s string) (string, time.Duration) {
	switch {
	case strings.HasSuffix(s, "ms"):
		return s[:len(s)-2], time.Millisecond
	case strings.HasSuffix(s, "s"):
		return s[:len(s)-1], time.Second
	case strings.HasSuffix(s, "m"):
		return s[:len(s)-1], time.Minute
	case strings.HasSuffix(s, "h"):
		return s[:len(s)-1], time.Hour
	default:
		return s, time.Millisecond
	}
}

// ParseSpam parses a repeat count. Integer literals may carry a 0x, 0o or
// 0b prefix; a decimal with a leading zero is rejected. "inf" or an empty
// value repeats forever.
func ParseSpam(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, spamForever) {
		return serialcomm.Forever, nil
	}

	if digits := strings.TrimLeft(s, "+-"); len(digits) > 1 && digits[0] == '0' && (digits[1] == '_' || (digits[1] >= '0' && digits[1] <= '9')) {
		return 0, &ArgumentError{Flag: "spam", Value: s, Reason: "leading zeros are not allowed, use 0o for octal"}
	}

	n, err := strconv.ParseInt(s, 0, strconv.IntSize)
	if err != nil {
		return 0, &ArgumentError{Flag: "spam", Value: s, Reason: "not an integer"}
	}
	if n <= 0 {
		return 0, &ArgumentError{Flag: "spam", Value: s, Reason: "must be positive"}
	}
	return int(n), nil
}

// settings is the validated form of every root command flag
type settings struct {
	Port      string
	BaudRate  int
	Parity    serialcomm.Parity
	StopBits  serialcomm.StopBits
	ByteSize  int
	LogFile   string
	LogFormat serialcomm.LogFormat
	NoLogSent bool
	Message   string
	Spam      int
	Delay     time.Duration
	SendFile  string
	Verbose   bool
	OutFormat serialcomm.OutputFormat
	LogLevel  string
	DiagFile  string
}

// loadSettings validates the values visible through v, whether they came
// from flags, the environment or the config file.
func loadSettings(v *viper.Viper) (settings, error) {
	s := settings{
		Port:      strings.TrimSpace(v.GetString("port")),
		LogFile:   v.GetString("log-file"),
		NoLogSent: v.GetBool("no-log-sent"),
		Message:   v.GetString("message"),
		SendFile:  v.GetString("send-file"),
		Verbose:   v.GetBool("verbose"),
		LogLevel:  v.GetString("log-level"),
		DiagFile:  v.GetString("diag-file"),
	}

	if s.Port == "" {
		return s, &ArgumentError{Flag: "port", Reason: "a serial port is required"}
	}

	var err error
	if s.BaudRate, err = parsePositive("baudrate", v.GetString("baudrate")); err != nil {
		return s, err
	}

	if s.Parity, err = serialcomm.ParseParity(v.GetString("parity")); err != nil || len(strings.TrimSpace(v.GetString("parity"))) != 1 {
		return s, &ArgumentError{Flag: "parity", Value: v.GetString("parity"), Reason: "choose from N, E, O, M, S"}
	}

	if s.StopBits, err = serialcomm.ParseStopBits(v.GetString("stopbits")); err != nil {
		return s, &ArgumentError{Flag: "stopbits", Value: v.GetString("stopbits"), Reason: "choose from 1, 1.5, 2"}
	}

	if s.ByteSize, err = strconv.Atoi(strings.TrimSpace(v.GetString("bytesize"))); err != nil || s.ByteSize < 5 || s.ByteSize > 8 {
		return s, &ArgumentError{Flag: "bytesize", Value: v.GetString("bytesize"), Reason: "choose from 5, 6, 7, 8"}
	}

	if s.LogFormat, err = serialcomm.ParseLogFormat(v.GetString("log-format")); err != nil {
		return s, &ArgumentError{Flag: "log-format", Value: v.GetString("log-format"), Reason: "choose from plain, json, csv"}
	}

	if s.OutFormat, err = serialcomm.ParseOutputFormat(v.GetString("out-format")); err != nil {
		return s, &ArgumentError{Flag: "out-format", Value: v.GetString("out-format"), Reason: "choose from autodetect, ascii, hex, bin, oct"}
	}

	if s.Spam, err = ParseSpam(v.GetString("spam")); err != nil {
		return s, err
	}

	if s.Delay, err = ParseDelay(v.GetString("delay")); err != nil {
		return s, err
	}

	if _, err := logging.ParseLevel(s.LogLevel); err != nil {
		return s, &ArgumentError{Flag: "log-level", Value: s.LogLevel, Reason: "choose from debug, info, warn, error"}
	}

	return s, nil
}

func parsePositive(flag, value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, &ArgumentError{Flag: flag, Value: value, Reason: "not an integer"}
	}
	if n <= 0 {
		return 0, &ArgumentError{Flag: flag, Value: value, Reason: "must be positive"}
	}
	return n, nil
}

// sessionOptions translates the settings into session options
func (s settings) sessionOptions() []serialcomm.Option {
	opts := []serialcomm.Option{
		serialcomm.WithBaudRate(s.BaudRate),
		serialcomm.WithDataBits(s.ByteSize),
		serialcomm.WithParity(s.Parity),
		serialcomm.WithStopBits(s.StopBits),
		serialcomm.WithOutputFormat(s.OutFormat),
		serialcomm.WithVerbose(s.Verbose),
	}
	if s.LogFile != "" {
		opts = append(opts, serialcomm.WithTranscript(s.LogFile, s.LogFormat))
	}
	if s.NoLogSent {
		opts = append(opts, serialcomm.WithoutSentLogging())
	}
	return opts
}
