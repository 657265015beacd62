package cmd

import (
	"testing"

	"github.com/allbin/serialcomm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// parseSpamFlags parses args the way the root command does and returns the
// resulting repeat count.
func parseSpamFlags(t *testing.T, args []string) (int, error) {
	t.Helper()

	cmd := &cobra.Command{Use: "serialcomm"}
	addSessionFlags(cmd)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags(%q) failed: %v", args, err)
	}

	v := viper.New()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		t.Fatalf("BindPFlags failed: %v", err)
	}
	if err := applySpamArgument(cmd, v, cmd.Flags().Args()); err != nil {
		return 0, err
	}
	return ParseSpam(v.GetString("spam"))
}

func TestSpamArgument(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"default", []string{"-p", "/dev/ttyUSB0"}, 1},
		{"short with count", []string{"-p", "/dev/ttyUSB0", "-s", "5"}, 5},
		{"long with count", []string{"--spam", "7", "-p", "/dev/ttyUSB0"}, 7},
		{"bare short", []string{"-p", "/dev/ttyUSB0", "-s"}, serialcomm.Forever},
		{"bare long", []string{"--spam", "-p", "/dev/ttyUSB0"}, serialcomm.Forever},
		{"equals hex", []string{"--spam=0x10"}, 16},
		{"equals inf", []string{"--spam=inf"}, serialcomm.Forever},
		{"bare with hex count", []string{"-s", "0b11"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSpamFlags(t, tt.args)
			if err != nil {
				t.Fatalf("args %q: unexpected error: %v", tt.args, err)
			}
			if got != tt.want {
				t.Errorf("args %q: spam = %d, want %d", tt.args, got, tt.want)
			}
		})
	}
}

func TestSpamArgumentRejectsStrayArguments(t *testing.T) {
	tests := [][]string{
		{"-p", "/dev/ttyUSB0", "5"},
		{"--spam=3", "5"},
		{"-s", "5", "6"},
	}

	for _, args := range tests {
		if _, err := parseSpamFlags(t, args); err == nil {
			t.Errorf("args %q: expected an unexpected argument error", args)
		}
	}
}

func TestSpamArgumentInvalidCount(t *testing.T) {
	for _, args := range [][]string{{"-s", "0"}, {"-s", "010"}, {"--spam=-2"}} {
		if _, err := parseSpamFlags(t, args); err == nil {
			t.Errorf("args %q: expected an invalid count error", args)
		}
	}
}
