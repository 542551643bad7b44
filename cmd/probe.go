// Package cmd holds the cobra subcommands that run beside the daemon:
// device probing, LED checks, and manual updates.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/HajjSalad/RaspberryPi-Cam-Streamer/internal/logging"
	"github.com/HajjSalad/RaspberryPi-Cam-Streamer/pkg/v4l2"
)

// CreateProbeCmd creates the probe command.
func CreateProbeCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "probe [device]",
		Short: "List capture devices and formats",
		Long: `Enumerates V4L2 capture devices. Without arguments lists every capture-capable ` +
			`device node; with a device path prints its pixel formats, frame sizes, and frame rates.`,
		Args: cobra.MaximumNArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			logging.Initialize(logging.Config{Level: "warn", Format: "text"})

			if len(args) == 1 {
				if err := probeDevice(args[0], verbose); err != nil {
					fmt.Fprintf(os.Stderr, "probe failed: %v\n", err)
					os.Exit(1)
				}
				return
			}

			devices, err := v4l2.FindDevices()
			if err != nil {
				fmt.Fprintf(os.Stderr, "device discovery failed: %v\n", err)
				os.Exit(1)
			}
			if len(devices) == 0 {
				fmt.Println("No capture devices found")
				return
			}

			for _, dev := range devices {
				fmt.Printf("%s  %s\n", dev.DevicePath, dev.DeviceName)
				if verbose {
					fmt.Printf("  id: %s  caps: 0x%08x\n", dev.DeviceID, dev.Caps)
				}
			}
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show device IDs and raw capability flags")

	return cmd
}

// probeDevice prints the format tree for one device node.
func probeDevice(path string, verbose bool) error {
	formats, err := v4l2.GetFormats(path)
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", path)
	for _, format := range formats {
		label := v4l2.FormatFourCC(format.PixelFormat)
		if format.Emulated {
			fmt.Printf("  %s  %s (emulated)\n", label, format.FormatName)
		} else {
			fmt.Printf("  %s  %s\n", label, format.FormatName)
		}

		resolutions, err := v4l2.GetResolutions(path, format.PixelFormat)
		if err != nil {
			fmt.Printf("    resolutions unavailable: %v\n", err)
			continue
		}

		for _, res := range resolutions {
			if !verbose {
				fmt.Printf("    %dx%d\n", res.Width, res.Height)
				continue
			}

			rates, err := v4l2.GetFramerates(path, format.PixelFormat, res.Width, res.Height)
			if err != nil {
				fmt.Printf("    %dx%d  rates unavailable: %v\n", res.Width, res.Height, err)
				continue
			}
			fmt.Printf("    %dx%d ", res.Width, res.Height)
			for i, rate := range rates {
				if i > 0 {
					fmt.Print(",")
				}
				fmt.Printf(" %.0f fps", rate.FPS())
			}
			fmt.Println()
		}
	}

	return nil
}
