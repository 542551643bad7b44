package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/HajjSalad/RaspberryPi-Cam-Streamer/internal/led"
	"github.com/HajjSalad/RaspberryPi-Cam-Streamer/internal/logging"
)

// CreateLEDCmd creates the led command.
func CreateLEDCmd() *cobra.Command {
	var delay time.Duration

	cmd := &cobra.Command{
		Use:       "led [state]",
		Short:     "Drive the status LEDs",
		Long:      `Sets the status LEDs to the named state, or cycles through streaming, stopped, and reset when no state is given. Useful for checking the wiring without starting a capture.`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"streaming", "stopped", "reset"},
		Run: func(_ *cobra.Command, args []string) {
			logging.Initialize(logging.Config{Level: "warn", Format: "text"})

			controller := led.New(logging.GetLogger("led"))
			defer controller.Close()

			fmt.Printf("LED backend: %s\n", controller.Describe())
			if !controller.Available() {
				fmt.Println("No LED hardware detected, commands will be no-ops")
			}

			if len(args) == 1 {
				if err := applyLEDState(controller, args[0]); err != nil {
					fmt.Fprintf(os.Stderr, "failed to set %s: %v\n", args[0], err)
					os.Exit(1)
				}
				fmt.Printf("Applied %s\n", args[0])
				return
			}

			// Cycle through all states so both LEDs get exercised
			for _, state := range []string{"streaming", "stopped", "reset"} {
				if err := applyLEDState(controller, state); err != nil {
					fmt.Fprintf(os.Stderr, "failed to set %s: %v\n", state, err)
					os.Exit(1)
				}
				fmt.Printf("Applied %s\n", state)
				if state != "reset" {
					time.Sleep(delay)
				}
			}
		},
	}

	cmd.Flags().DurationVar(&delay, "delay", 2*time.Second, "Pause between states when cycling")

	return cmd
}

func applyLEDState(controller led.Controller, state string) error {
	switch state {
	case "streaming":
		return controller.StreamOn()
	case "stopped":
		return controller.StreamOff()
	case "reset":
		return controller.Reset()
	default:
		return fmt.Errorf("unknown state %q", state)
	}
}
