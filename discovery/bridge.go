package discovery

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/brutella/dnssd"
)

// BridgeServiceType is the mDNS service type a network serial bridge (an
// ESP-Link or ser2net-style device fronting a USB-serial clone cable on a
// LAN) advertises itself under.
const BridgeServiceType = "_serial._tcp"

// Bridge is one discovered network serial bridge.
type Bridge struct {
	Name string
	Host string
	IPs  []net.IP
	Port int
}

// DiscoverBridges browses the local network for BridgeServiceType
// advertisements for window, using the same github.com/brutella/dnssd
// library dns_sd.go uses to announce a KISS-over-TCP service, run here in
// the opposite direction, as a browser rather than a responder, since a
// clone-cable bridge is something this module connects to rather than
// something it advertises.
func DiscoverBridges(ctx context.Context, window time.Duration) ([]Bridge, error) {
	ctx, cancel := context.WithTimeout(ctx, window)
	defer cancel()

	found := make(map[string]Bridge)

	add := func(e dnssd.BrowseEntry) {
		found[e.Name] = Bridge{
			Name: e.Name,
			Host: e.Host,
			IPs:  e.IPs,
			Port: e.Port,
		}
	}
	remove := func(e dnssd.BrowseEntry) {
		delete(found, e.Name)
	}

	if err := dnssd.LookupType(ctx, BridgeServiceType+".local.", add, remove); err != nil {
		if ctx.Err() == nil {
			return nil, fmt.Errorf("discovery: browse %s: %w", BridgeServiceType, err)
		}
	}

	out := make([]Bridge, 0, len(found))
	for _, b := range found {
		out = append(out, b)
	}
	return out, nil
}
