// lshubs: List USB hubs and the virtual hub sets hub-reset would switch
//
// Nothing is powered off. Each hub is opened only to read its hub and BOS
// descriptors, so run it with the same permissions as hub-reset.
package main

import (
	"fmt"
	"os"

	"github.com/google/gousb"
	"github.com/google/gousb/usbid"
	"github.com/spf13/cobra"

	"github.com/herlein/hubreset/pkg/config"
	"github.com/herlein/hubreset/pkg/hubctl"
	"github.com/herlein/hubreset/pkg/logging"
	"github.com/herlein/hubreset/pkg/usbhost"
)

func main() {
	var (
		verbose bool
		debug   bool
	)
	cmd := &cobra.Command{
		Use:   "lshubs",
		Short: "List USB hubs with their port count and container ID",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			ctx := gousb.NewContext()
			defer ctx.Close()
			list(ctx, verbose, debug)
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (show virtual hub sets)")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Show debug messages")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func list(ctx *gousb.Context, verbose, debug bool) {
	log := logging.New(os.Stderr, debug)
	host := usbhost.NewGoUSBHost(ctx, config.DefaultControlTimeout, log)

	snapshot, err := host.Devices()
	if err != nil {
		log.WithError(err).Error("Enumeration incomplete")
	}

	var hubs []*gousb.DeviceDesc
	for _, desc := range snapshot {
		if desc.Class == gousb.ClassHub {
			hubs = append(hubs, desc)
		}
	}
	if len(hubs) == 0 {
		fmt.Println("No USB hubs found")
		return
	}

	fmt.Printf("Found %d hub(s):\n", len(hubs))
	fmt.Println()

	for i, desc := range hubs {
		info, err := hubctl.Resolve(host, desc)
		if err != nil {
			fmt.Printf("  #%d  %-10s %s  (error: %v)\n", i, usbhost.Location(desc), usbhost.VendorProduct(desc), err)
			continue
		}
		fmt.Printf("  #%d  %-10s %s  USB %s  %d ports\n",
			i, usbhost.Location(desc), info.Vendor, desc.Spec, info.Ports)

		if !verbose {
			continue
		}
		fmt.Printf("      Product:      %s\n", usbid.Describe(desc))
		if info.ContainerID == "" {
			fmt.Printf("      Container ID: (none)\n")
		} else {
			fmt.Printf("      Container ID: %s\n", info.UUID())
		}
		if info.Quirk != "" {
			fmt.Printf("      Quirk:        %s\n", info.Quirk)
		}
		set := hubctl.VirtualHubs(host, desc, log)
		fmt.Printf("      Virtual set:  ")
		for j, member := range set {
			if j > 0 {
				fmt.Print(", ")
			}
			fmt.Print(usbhost.Location(member))
		}
		fmt.Println()
		fmt.Println()
	}
}
