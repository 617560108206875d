package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AquamanRanda/OnTIme/api/types/v1alpha1"
	"github.com/AquamanRanda/OnTIme/internal/ontimectl/util"
)

// newWatchCmd creates a command that follows live runtime state
func newWatchCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow live playback state",
		Long: `Connect to the server and print a line for every runtime state change
until interrupted. The stream reconnects automatically if the server
drops the connection.`,
		Example: `  # Follow the timer from a terminal
  ontimectl watch

  # Feed snapshots to another tool
  ontimectl watch --json | jq .timer.current`,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := newEngine()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			// Stop cleanly on interrupt so the websocket closes with a
			// close frame instead of a dropped TCP connection.
			shutdown := make(chan os.Signal, 1)
			signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(shutdown)
			go func() {
				<-shutdown
				cancel()
			}()

			out := cmd.OutOrStdout()
			unsubscribe := eng.Subscribe(func(snap v1alpha1.RuntimeSnapshot) {
				if jsonOut {
					_ = util.PrintJSONLine(out, snap)
					return
				}
				fmt.Fprintln(out, formatWatchLine(snap))
			})
			defer unsubscribe()

			return eng.Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print each update as a JSON line")

	return cmd
}

// formatWatchLine renders one snapshot as a single status line
func formatWatchLine(snap v1alpha1.RuntimeSnapshot) string {
	state := "unknown"
	if snap.Playback != nil {
		state = string(snap.Playback.State)
	}

	line := fmt.Sprintf("%s  playback=%s", util.FormatClock(snap.Clock), state)
	if snap.EventNow != nil {
		line += fmt.Sprintf("  now=%q", snap.EventNow.Title)
	}
	if snap.Timer != nil {
		line += fmt.Sprintf("  remaining=%s", util.FormatTimer(snap.Timer.Duration-snap.Timer.Current))
	}
	return line
}
