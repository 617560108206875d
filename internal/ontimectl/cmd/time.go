package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// newAddtimeCmd creates a command for extending the running timer
func newAddtimeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "addtime SECONDS",
		Short: "Add time to the running timer",
		Example: `  # Give the speaker another minute
  ontimectl addtime 60`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seconds, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid seconds %q", args[0])
			}

			c, err := getClient()
			if err != nil {
				return err
			}

			if err := c.AddTime(cmd.Context(), seconds); err != nil {
				return fmt.Errorf("error adding time: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added %ds to the running timer\n", seconds)
			return nil
		},
	}
}

// newRemovetimeCmd creates a command for shortening the running timer
func newRemovetimeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "removetime SECONDS",
		Short: "Remove time from the running timer",
		Example: `  # Pull ten seconds from the running timer
  ontimectl removetime 10`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seconds, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid seconds %q", args[0])
			}

			c, err := getClient()
			if err != nil {
				return err
			}

			if err := c.RemoveTime(cmd.Context(), seconds); err != nil {
				return fmt.Errorf("error removing time: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed %ds from the running timer\n", seconds)
			return nil
		},
	}
}
