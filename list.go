package serialcomm

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"go.bug.st/serial/enumerator"
)

// PortInfo describes a serial port found on the system
type PortInfo struct {
	Name         string
	Description  string
	IsUSB        bool
	VendorID     string
	ProductID    string
	SerialNumber string
	Product      string
}

// ListPorts returns the serial ports present on the system, sorted by name
func ListPorts() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}

	ports := make([]PortInfo, 0, len(details))
	for _, d := range details {
		if d == nil {
			continue
		}
		ports = append(ports, portInfoFromDetails(d))
	}

	// Sort the ports for consistent ordering
	sort.Slice(ports, func(i, j int) bool {
		return ports[i].Name < ports[j].Name
	})
	return ports, nil
}

// GetPortInfo returns information about one port by name
func GetPortInfo(name string) (*PortInfo, error) {
	ports, err := ListPorts()
	if err != nil {
		return nil, err
	}
	for i := range ports {
		if ports[i].Name == name {
			return &ports[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, name)
}

func portInfoFromDetails(d *enumerator.PortDetails) PortInfo {
	return PortInfo{
		Name:         d.Name,
		Description:  getPortDescription(d.Name, d.IsUSB),
		IsUSB:        d.IsUSB,
		VendorID:     d.VID,
		ProductID:    d.PID,
		SerialNumber: d.SerialNumber,
		Product:      d.Product,
	}
}

// getPortDescription provides human-readable descriptions for different port types
func getPortDescription(name string, isUSB bool) string {
	base := filepath.Base(name)
	switch {
	case strings.HasPrefix(base, "ttyUSB"):
		return "USB Serial Port"
	case strings.HasPrefix(base, "ttyACM"):
		return "USB CDC/ACM Device"
	case strings.HasPrefix(base, "ttyAMA"):
		return "ARM Serial Port"
	case strings.HasPrefix(base, "ttymxc"):
		return "i.MX Serial Port"
	case strings.HasPrefix(base, "ttySAC"):
		return "Samsung Serial Port"
	case strings.HasPrefix(base, "ttyTHS"):
		return "Tegra Serial Port"
	case strings.HasPrefix(base, "ttyO"):
		return "OMAP Serial Port"
	case strings.HasPrefix(base, "ttyS"):
		return "Standard Serial Port"
	case strings.HasPrefix(base, "cu.usb"), strings.HasPrefix(base, "tty.usb"):
		return "USB Serial Port"
	case strings.HasPrefix(strings.ToUpper(base), "COM") && isUSB:
		return "USB Serial Port"
	case strings.HasPrefix(strings.ToUpper(base), "COM"):
		return "Communications Port"
	case isUSB:
		return "USB Serial Port"
	default:
		return "Serial Port"
	}
}
