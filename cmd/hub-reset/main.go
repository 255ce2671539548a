// hub-reset power cycles a USB device through its upstream hub port
//
// Devices stuck in a state where a USB reset does not help (the RealSense
// T265 boot loader is the default target) can be recovered by cutting port
// power. On hubs with separate USB2 and USB3 halves both halves are
// switched, otherwise the device stays powered through the other link.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/gousb"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/herlein/hubreset/pkg/config"
	"github.com/herlein/hubreset/pkg/cycle"
	"github.com/herlein/hubreset/pkg/logging"
	"github.com/herlein/hubreset/pkg/usbhost"
)

type options struct {
	configPath  string
	vid         string
	pid         string
	timeout     time.Duration
	settle      time.Duration
	policy      string
	libusbDebug int
	requireCID  bool
	debug       bool
}

func main() {
	if err := newCommand(&options{}).Execute(); err != nil {
		os.Exit(1)
	}
}

// newCommand binds the command's flags to opts
func newCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hub-reset",
		Short: "Power cycle a USB device by switching its hub port off and on",
		Args:  cobra.NoArgs,
		// Per-device failures are only logged; the exit status stays 0
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			run(cfg, logging.New(os.Stdout, opts.debug))
			return nil
		},
		SilenceUsage: true,
	}

	defaults := config.DefaultConfig()
	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "JSON configuration file")
	flags.StringVar(&opts.vid, "vid", defaults.VendorID.String(), "Target vendor ID (hex)")
	flags.StringVar(&opts.pid, "pid", defaults.ProductID.String(), "Target product ID (hex)")
	flags.DurationVar(&opts.timeout, "timeout", defaults.ControlTimeout, "Control transfer timeout")
	flags.DurationVar(&opts.settle, "settle", defaults.SettleDelay, "Delay between power off and power on")
	flags.StringVar(&opts.policy, "policy", defaults.Policy, "Sweep policy after a failed transfer: stop-on-error or best-effort")
	flags.IntVar(&opts.libusbDebug, "libusb-debug", defaults.LibusbDebug, "libusb debug level (0..4)")
	flags.BoolVar(&opts.requireCID, "require-container-id", defaults.RequireContainerID,
		"Only pair hubs that report a container ID")
	// Debug output is on unless --debug=false
	flags.BoolVarP(&opts.debug, "debug", "d", true, "Show debug messages")
	return cmd
}

// load builds the configuration: defaults, then the config file, then any
// flags set explicitly on the command line
func (o *options) load(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if o.configPath != "" {
		loaded, err := config.LoadFromFile(o.configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("vid") {
		id, err := config.ParseID(o.vid)
		if err != nil {
			return nil, fmt.Errorf("--vid: %w", err)
		}
		cfg.VendorID = id
	}
	if flags.Changed("pid") {
		id, err := config.ParseID(o.pid)
		if err != nil {
			return nil, fmt.Errorf("--pid: %w", err)
		}
		cfg.ProductID = id
	}
	if flags.Changed("timeout") {
		cfg.ControlTimeout = o.timeout
	}
	if flags.Changed("settle") {
		cfg.SettleDelay = o.settle
	}
	if flags.Changed("policy") {
		cfg.Policy = o.policy
	}
	if flags.Changed("libusb-debug") {
		cfg.LibusbDebug = o.libusbDebug
	}
	if flags.Changed("require-container-id") {
		cfg.RequireContainerID = o.requireCID
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(cfg *config.Config, log *logrus.Logger) {
	log.Infof("USB hub port reset for %s...", cfg.Target())
	if unix.Geteuid() != 0 {
		log.Debug("Not running as root; hub control usually needs root or a udev rule")
	}

	ctx := gousb.NewContext()
	defer ctx.Close()
	ctx.Debug(cfg.LibusbDebug)

	host := usbhost.NewGoUSBHost(ctx, cfg.ControlTimeout, log)
	sum := cycle.NewRunner(host, cfg, log).Run()

	if sum.Targets == 0 {
		log.Infof("No %s devices found", cfg.Target())
	}
	log.WithFields(logrus.Fields{
		"targets": sum.Targets,
		"cycled":  sum.Cycled,
		"failed":  sum.Failed,
	}).Info("DONE...")
}
