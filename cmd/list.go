/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/allbin/serialcomm"
	"github.com/allbin/serialcomm/internal/tui/styles"
	"github.com/evertras/bubble-table/table"
	"github.com/spf13/cobra"
)

const (
	columnKeyPort        = "port"
	columnKeyType        = "type"
	columnKeyDescription = "description"
	columnKeyUSB         = "usb"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available serial ports",
	Long: `List all serial ports found on the system.

Use this to find the value for --port. USB adapters also show their
vendor and product IDs.

Example usage:
  serialcomm list
  serialcomm list --filter usb
  serialcomm list --table`,
	Run: func(cmd *cobra.Command, args []string) {
		ports, err := serialcomm.ListPorts()
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s Error listing ports: %v\n", styles.Symbol(styles.StatusError), err)
			os.Exit(1)
		}

		// Get filter flag
		filterType, _ := cmd.Flags().GetString("filter")
		tableFormat, _ := cmd.Flags().GetBool("table")

		// Filter ports if requested
		filteredPorts, err := filterPorts(ports, filterType)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", styles.Symbol(styles.StatusError), err)
			os.Exit(1)
		}

		out := cmd.OutOrStdout()
		if len(filteredPorts) == 0 {
			if filterType != "" && filterType != "all" {
				fmt.Fprintf(out, "No serial ports found matching filter: %s\n", filterType)
			} else {
				fmt.Fprintln(out, "No serial ports found")
			}
			return
		}

		if tableFormat {
			renderTable(out, filteredPorts)
		} else {
			renderSimple(out, filteredPorts)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	// Add flags for filtering and table format
	listCmd.Flags().StringP("filter", "f", "", "Filter by port type: usb, standard, arm, all")
	listCmd.Flags().BoolP("table", "t", false, "Display output in a styled table format")
}

// filterPorts filters the port list based on the specified filter type
func filterPorts(ports []serialcomm.PortInfo, filterType string) ([]serialcomm.PortInfo, error) {
	filterType = strings.ToLower(filterType)
	if filterType == "" || filterType == "all" {
		return ports, nil
	}

	var filtered []serialcomm.PortInfo
	for _, port := range ports {
		switch filterType {
		case "usb":
			if port.IsUSB {
				filtered = append(filtered, port)
			}
		case "standard":
			if getPortType(port.Name) == "Standard Serial" {
				filtered = append(filtered, port)
			}
		case "arm":
			if getPortType(port.Name) == "ARM Serial" {
				filtered = append(filtered, port)
			}
		default:
			return nil, fmt.Errorf("unknown filter %q: choose from usb, standard, arm, all", filterType)
		}
	}
	return filtered, nil
}

// renderTable renders the port list in a styled static table format
func renderTable(w io.Writer, ports []serialcomm.PortInfo) {
	fmt.Fprintf(w, "Found %d serial port(s):\n\n", len(ports))

	columns := []table.Column{
		table.NewColumn(columnKeyPort, "Port", 22),
		table.NewColumn(columnKeyType, "Type", 16),
		table.NewColumn(columnKeyDescription, "Description", 28),
		table.NewColumn(columnKeyUSB, "VID:PID", 11),
	}

	rows := make([]table.Row, 0, len(ports))
	for _, port := range ports {
		usb := "-"
		if port.IsUSB && port.VendorID != "" {
			usb = port.VendorID + ":" + port.ProductID
		}
		rows = append(rows, table.NewRow(table.RowData{
			columnKeyPort:        port.Name,
			columnKeyType:        getPortType(port.Name),
			columnKeyDescription: describe(port),
			columnKeyUSB:         usb,
		}))
	}

	t := table.New(columns).
		WithRows(rows).
		HeaderStyle(styles.TableHeaderStyle).
		BorderRounded().
		WithBaseStyle(styles.TableBorderStyle)

	fmt.Fprintln(w, t.View())
}

// renderSimple renders the port list in simple text format
func renderSimple(w io.Writer, ports []serialcomm.PortInfo) {
	for _, port := range ports {
		fmt.Fprintln(w, port.Name)
	}
}

// describe prefers the product string reported by USB devices
func describe(port serialcomm.PortInfo) string {
	if port.Product != "" {
		return port.Product
	}
	return port.Description
}

// getPortType returns a more specific type classification for the port
func getPortType(path string) string {
	name := strings.ToLower(path)
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	switch {
	case strings.HasPrefix(name, "ttyusb"):
		return "USB Serial"
	case strings.HasPrefix(name, "ttyacm"):
		return "USB CDC/ACM"
	case strings.HasPrefix(name, "ttyama"):
		return "ARM Serial"
	case strings.HasPrefix(name, "ttymxc"):
		return "i.MX Serial"
	case strings.HasPrefix(name, "ttysac"):
		return "Samsung Serial"
	case strings.HasPrefix(name, "ttyths"):
		return "Tegra Serial"
	case strings.HasPrefix(name, "ttyo"):
		return "OMAP Serial"
	case strings.HasPrefix(name, "ttys"):
		return "Standard Serial"
	case strings.HasPrefix(name, "cu.usb"), strings.HasPrefix(name, "tty.usb"):
		return "USB Serial"
	case strings.HasPrefix(name, "com"):
		return "COM Port"
	default:
		return "Serial Port"
	}
}
