package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newPlaybackCmd creates the playback control command
func newPlaybackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "playback",
		Short: "Control playback",
		Long: `The playback command drives the server's timer: starting, pausing,
and stopping events, reloading the current timer, and stepping through
the rundown.

Commands are fire-and-forget. The server is the source of truth, so the
local view updates when the server reports the new state, not when the
command is sent.`,
	}

	cmd.AddCommand(
		newPlaybackStartCmd(),
		newPlaybackPauseCmd(),
		newPlaybackStopCmd(),
		newPlaybackReloadCmd(),
		newPlaybackNextCmd(),
		newPlaybackPreviousCmd(),
	)

	return cmd
}

// newPlaybackStartCmd creates a command for starting playback
func newPlaybackStartCmd() *cobra.Command {
	var (
		eventID string
		index   int
		cue     string
	)

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start playback",
		Long: `Start the selected event, or address a specific event by id, rundown
position, or cue label.`,
		Example: `  # Start the selected event
  ontimectl playback start

  # Start a specific event by id
  ontimectl playback start --event-id 21313f

  # Start the third event in the rundown
  ontimectl playback start --index 2

  # Start the event with cue label 10
  ontimectl playback start --cue 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			addressed := 0
			for _, set := range []bool{eventID != "", cmd.Flags().Changed("index"), cue != ""} {
				if set {
					addressed++
				}
			}
			if addressed > 1 {
				return fmt.Errorf("--event-id, --index and --cue are mutually exclusive")
			}

			c, err := getClient()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			switch {
			case eventID != "":
				err = c.StartID(ctx, eventID)
			case cmd.Flags().Changed("index"):
				err = c.StartIndex(ctx, index)
			case cue != "":
				err = c.StartCue(ctx, cue)
			default:
				err = c.Start(ctx)
			}
			if err != nil {
				return fmt.Errorf("error starting playback: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Playback started")
			return nil
		},
	}

	cmd.Flags().StringVar(&eventID, "event-id", "", "Start the event with this id")
	cmd.Flags().IntVar(&index, "index", 0, "Start the event at this rundown position")
	cmd.Flags().StringVar(&cue, "cue", "", "Start the event with this cue label")

	return cmd
}

func newPlaybackPauseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pause",
		Short: "Pause the running timer",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := getClient()
			if err != nil {
				return err
			}
			if err := c.Pause(cmd.Context()); err != nil {
				return fmt.Errorf("error pausing playback: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Playback paused")
			return nil
		},
	}
}

func newPlaybackStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop playback",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := getClient()
			if err != nil {
				return err
			}
			if err := c.Stop(cmd.Context()); err != nil {
				return fmt.Errorf("error stopping playback: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Playback stopped")
			return nil
		},
	}
}

func newPlaybackReloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Reload the current event's timer",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := getClient()
			if err != nil {
				return err
			}
			if err := c.Reload(cmd.Context()); err != nil {
				return fmt.Errorf("error reloading event: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Event reloaded")
			return nil
		},
	}
}

func newPlaybackNextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Start the next event",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := getClient()
			if err != nil {
				return err
			}
			if err := c.StartNext(cmd.Context()); err != nil {
				return fmt.Errorf("error starting next event: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Started next event")
			return nil
		},
	}
}

func newPlaybackPreviousCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "previous",
		Short: "Start the previous event",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := getClient()
			if err != nil {
				return err
			}
			if err := c.StartPrevious(cmd.Context()); err != nil {
				return fmt.Errorf("error starting previous event: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Started previous event")
			return nil
		},
	}
}
