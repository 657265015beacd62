/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/allbin/serialcomm"
	"github.com/allbin/serialcomm/internal/tui/styles"
	"github.com/spf13/cobra"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info <port>",
	Short: "Display detailed information about a serial port",
	Long: `Display detailed information about a serial port including USB metadata.

Examples:
  serialcomm info /dev/ttyUSB0
  serialcomm info COM3

For USB devices, this displays vendor/product IDs, the serial number and
the product name reported by the device.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		portPath := args[0]

		info, err := serialcomm.GetPortInfo(portPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s Error getting port info: %v\n", styles.Symbol(styles.StatusError), err)
			os.Exit(1)
		}

		printPortInfo(cmd.OutOrStdout(), info)
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func printPortInfo(w io.Writer, info *serialcomm.PortInfo) {
	fmt.Fprintf(w, "%s\n\n", styles.TitleStyle.Render("Port Information: "+info.Name))
	fmt.Fprintf(w, "  Type:        %s\n", getPortType(info.Name))
	fmt.Fprintf(w, "  Description: %s\n", info.Description)

	// USB Device Information
	if !info.IsUSB {
		return
	}
	fmt.Fprintf(w, "\n%s\n", styles.TitleStyle.Render("USB Device Information:"))
	if info.VendorID != "" {
		fmt.Fprintf(w, "  Vendor ID:    %s\n", info.VendorID)
	}
	if info.ProductID != "" {
		fmt.Fprintf(w, "  Product ID:   %s\n", info.ProductID)
	}
	if info.SerialNumber != "" {
		fmt.Fprintf(w, "  Serial:       %s\n", info.SerialNumber)
	}
	if info.Product != "" {
		fmt.Fprintf(w, "  Product:      %s\n", info.Product)
	}
}
