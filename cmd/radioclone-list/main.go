// Command radioclone-list prints the registered protocol and model
// descriptors, and optionally the serial ports and network bridges
// currently visible on the host.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/doismellburning/radioclone/discovery"
	"github.com/doismellburning/radioclone/protocol"
)

func main() {
	var (
		showPorts    = pflag.BoolP("ports", "P", false, "Also list candidate serial ports (udev).")
		showBridges  = pflag.BoolP("bridges", "B", false, "Also browse for network serial bridges (mDNS), for the browse window given by --bridge-window.")
		bridgeWindow = pflag.DurationP("bridge-window", "w", 2*time.Second, "How long to browse for network serial bridges.")
		help         = pflag.BoolP("help", "h", false, "Display help text.")
	)
	pflag.Parse()

	if *help {
		pflag.PrintDefaults()
		os.Exit(0)
	}

	reg, err := protocol.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Println("models:")
	for _, key := range reg.ModelKeys() {
		m, _ := reg.Model(key)
		resolved, err := reg.Resolve(key)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  %-24s resolve error: %v\n", key, err)
			continue
		}
		fmt.Printf("  %-24s %-28s protocol=%s memory_size=%d lossless=%t\n",
			key, m.DisplayName, m.ProtocolID, m.MemorySize, resolved.Protocol.MemoryFormat.Lossless)
	}

	if *showPorts {
		listPorts()
	}
	if *showBridges {
		listBridges(*bridgeWindow)
	}
}

func listPorts() {
	lister := discovery.UdevPortLister{}
	ports, err := lister.ListPorts()
	if err != nil {
		fmt.Fprintln(os.Stderr, "ports:", err)
		return
	}
	fmt.Println("ports:")
	for _, p := range ports {
		fmt.Printf("  %-16s vendor=%s product=%s serial=%s\n", p.DevNode, p.VendorID, p.ProductID, p.SerialNumber)
	}
}

func listBridges(window time.Duration) {
	bridges, err := discovery.DiscoverBridges(context.Background(), window)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bridges:", err)
		return
	}
	fmt.Println("bridges:")
	for _, b := range bridges {
		fmt.Printf("  %-24s host=%s port=%d ips=%v\n", b.Name, b.Host, b.Port, b.IPs)
	}
}
