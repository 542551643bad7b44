package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/HajjSalad/RaspberryPi-Cam-Streamer/internal/logging"
	"github.com/HajjSalad/RaspberryPi-Cam-Streamer/internal/updater"
)

// CreateUpdateCmd creates the update command.
func CreateUpdateCmd() *cobra.Command {
	var repository string
	var prerelease bool
	var apply bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Check for a newer release",
		Long: `Queries GitHub for the latest release and reports whether an update is ` +
			`available. With --apply the new binary replaces the running one and the ` +
			`previous version is kept for rollback.`,
		Run: func(_ *cobra.Command, _ []string) {
			logging.Initialize(logging.Config{Level: "warn", Format: "text"})

			svc, err := updater.NewService(&updater.Options{
				Repository: repository,
				Prerelease: prerelease,
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "updater unavailable: %v\n", err)
				os.Exit(1)
			}
			if !svc.IsEnabled() {
				fmt.Fprintf(os.Stderr, "updater disabled: %s\n", svc.DisabledReason())
				os.Exit(1)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			info, err := svc.CheckForUpdate(ctx)
			if err != nil {
				fmt.Fprintf(os.Stderr, "update check failed: %v\n", err)
				os.Exit(1)
			}

			fmt.Printf("Current version: %s\n", info.CurrentVersion)
			fmt.Printf("Latest version:  %s\n", info.LatestVersion)
			if !info.UpdateAvailable {
				fmt.Println("Already up to date")
				return
			}

			fmt.Printf("Update available: %s\n", info.ReleaseURL)
			if !apply {
				fmt.Println("Run again with --apply to install it")
				return
			}

			if err := svc.ApplyUpdate(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "update failed: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("Updated to %s\n", info.LatestVersion)
		},
	}

	cmd.Flags().StringVar(&repository, "repo", "HajjSalad/RaspberryPi-Cam-Streamer", "GitHub repository to update from")
	cmd.Flags().BoolVar(&prerelease, "prerelease", false, "Consider prerelease versions")
	cmd.Flags().BoolVar(&apply, "apply", false, "Download and install the update")

	return cmd
}
