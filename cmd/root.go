/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/allbin/serialcomm"
	"github.com/allbin/serialcomm/internal/logging"
	"github.com/allbin/serialcomm/internal/tui/styles"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile   string
	configErr error
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "serialcomm",
	Short: "Interactive serial port communicator",
	Long: `Open a serial port, print everything it receives and send messages to it.

Incoming data is shown with a timestamp in the chosen output format. Messages
are plain ASCII unless prefixed with 0x (hex), 0b (binary) or 0o (octal).
Traffic can be appended to a transcript file in plain, csv or json format.

The command runs in one of three modes, checked in this order:
- --send-file: send the raw bytes of a file and exit
- --message:   send one message and exit
- otherwise:   read messages from the terminal until exit, quit or ctrl+d

Every flag can also be set in $HOME/.serialcomm.yaml or through an
environment variable such as SERIALCOMM_BAUDRATE.

Example usage:
  serialcomm -p /dev/ttyUSB0
  serialcomm -p COM3 -b 115200 --parity E --out-format hex
  serialcomm -p /dev/ttyACM0 -m AT+GMR -l traffic.log --log-format csv
  serialcomm -p /dev/ttyUSB0 -m 0x0206000300000099 -s 10 -d 500ms
  serialcomm -p /dev/ttyUSB0 -m PING -s -d 1s   # repeat until ctrl+c`,
	Args:          cobra.ArbitraryArgs,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runRoot,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", styles.Symbol(styles.StatusError), err)
		stop()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.serialcomm.yaml)")

	addSessionFlags(rootCmd)

	if err := viper.BindPFlags(rootCmd.Flags()); err != nil {
		configErr = fmt.Errorf("failed to bind flags: %w", err)
	}
}

// addSessionFlags registers the serial session flags on cmd
func addSessionFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("port", "p", "", "Serial port (e.g., COM3 or /dev/ttyUSB0)")
	f.IntP("baudrate", "b", 9600, "Baud rate")
	f.String("parity", "N", "Parity: N=None, E=Even, O=Odd, M=Mark, S=Space")
	f.String("stopbits", "1", "Stop bits: 1, 1.5 or 2")
	f.Int("bytesize", 8, "Byte size: 5, 6, 7 or 8")
	f.StringP("log-file", "l", "", "Path to log file for comms")
	f.String("log-format", string(serialcomm.LogFormatPlain), "Log file format: plain, json or csv")
	f.Bool("no-log-sent", false, "Don't log sent messages")
	f.StringP("message", "m", "", "Message to send on startup (prefix 0x/0b/0o for non-ASCII)")
	f.StringP("spam", "s", "1", "Repeat count: no value = infinite, e.g. -s or --spam=5")
	f.Lookup("spam").NoOptDefVal = spamForever
	f.StringP("delay", "d", "1", "Delay between spams in ms, or with suffix ms/s/m/h")
	f.String("send-file", "", "Send raw bytes from file and exit")
	f.BoolP("verbose", "v", false, "Show raw hex dumps")
	f.String("out-format", string(serialcomm.FormatAutodetect), "Incoming data display format: autodetect, ascii, hex, bin, oct")
	f.String("log-level", "warn", "Diagnostic log level: debug, info, warn, error")
	f.String("diag-file", "", "Write diagnostics to a rotating file instead of stderr")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName(".serialcomm")
	}

	viper.SetEnvPrefix("SERIALCOMM")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	if err := viper.ReadInConfig(); err != nil {
		// A missing default config file is fine, an explicit one is not
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || cfgFile != "" {
			configErr = fmt.Errorf("error reading config file: %w", err)
		}
	}
}

func runRoot(cmd *cobra.Command, args []string) error {
	if configErr != nil {
		return configErr
	}

	v := viper.GetViper()
	if err := applySpamArgument(cmd, v, args); err != nil {
		return err
	}

	s, err := loadSettings(v)
	if err != nil {
		return err
	}

	logger, err := newDiagnosticLogger(s)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	if path := v.ConfigFileUsed(); path != "" {
		logger.Info("Using config file", zap.String("path", path))
	}

	console := serialcomm.NewConsole(cmd.OutOrStdout())
	r := &runner{
		settings:  s,
		open:      openSession,
		newReader: terminalReader(console),
		console:   console,
		logger:    logger,
	}
	return r.run(cmd.Context())
}

// applySpamArgument handles "--spam 5". A bare --spam takes no value, so
// the count arrives as a positional argument.
func applySpamArgument(cmd *cobra.Command, v *viper.Viper, args []string) error {
	if len(args) == 0 {
		return nil
	}

	spam, _ := cmd.Flags().GetString("spam")
	if len(args) == 1 && cmd.Flags().Changed("spam") && spam == spamForever {
		v.Set("spam", args[0])
		return nil
	}
	return fmt.Errorf("unexpected argument %q", args[0])
}

func newDiagnosticLogger(s settings) (*zap.Logger, error) {
	cfg := logging.DefaultConfig()
	cfg.Level = s.LogLevel
	if s.DiagFile != "" {
		cfg.Output = s.DiagFile
		cfg.Format = "json"
	}

	logger, err := logging.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to set up diagnostics: %w", err)
	}
	return logger, nil
}
