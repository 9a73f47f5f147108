//go:build linux

// Package discovery holds the out-of-scope-adjacent interfaces a port-picker
// or bridge-picker UI would sit on top of: enumerating candidate serial
// devices (ports_linux.go) and discovering network serial bridges
// (bridge.go). Neither talks to a radio; both exist so a caller can build
// the transport.Transport this module's engine then drives.
package discovery

import (
	"fmt"

	"github.com/jochenvg/go-udev"
)

// Port is one candidate serial device, with the udev properties useful for
// telling candidates apart in a picker UI (vendor/product id, serial
// number) without opening the device.
type Port struct {
	DevNode      string
	VendorID     string
	ProductID    string
	SerialNumber string
	USBInterface string
}

// PortLister enumerates candidate serial devices present on the host.
type PortLister interface {
	ListPorts() ([]Port, error)
}

// UdevPortLister lists tty devices via libudev, the way a CHIRP-style tool
// enumerates /dev/serial/by-id before a human picks a port.
type UdevPortLister struct{}

// ListPorts enumerates the "tty" subsystem and reports every device node
// that carries a USB vendor id, skipping virtual ttys (ptys, console,
// platform UARTs with no USB ancestor) that are never clone cables.
func (UdevPortLister) ListPorts() ([]Port, error) {
	u := udev.Udev{}
	enum := u.NewEnumerate()
	if err := enum.AddMatchSubsystem("tty"); err != nil {
		return nil, fmt.Errorf("discovery: match tty subsystem: %w", err)
	}

	devices, err := enum.Devices()
	if err != nil {
		return nil, fmt.Errorf("discovery: enumerate tty devices: %w", err)
	}

	var ports []Port
	for _, d := range devices {
		vendor := d.PropertyValue("ID_VENDOR_ID")
		if vendor == "" {
			continue
		}
		devNode := d.Devnode()
		if devNode == "" {
			continue
		}
		ports = append(ports, Port{
			DevNode:      devNode,
			VendorID:     vendor,
			ProductID:    d.PropertyValue("ID_MODEL_ID"),
			SerialNumber: d.PropertyValue("ID_SERIAL_SHORT"),
			USBInterface: d.PropertyValue("ID_USB_INTERFACE_NUM"),
		})
	}

	return ports, nil
}
