package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AquamanRanda/OnTIme/internal/ontimectl/util"
)

// newRundownCmd creates a command for listing the rundown with live status
func newRundownCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "rundown",
		Short: "List rundown events with live status",
		Long: `List the server's rundown in presentation order, with each event's
derived status and, for the active event, the time remaining.

The output can be formatted as a table (default), JSON, or YAML for
scripting.`,
		Example: `  # Show the rundown
  ontimectl rundown

  # Rundown as JSON with derived statuses
  ontimectl rundown -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := newEngine()
			if err != nil {
				return err
			}
			defer eng.Close()

			ctx := cmd.Context()
			if err := eng.Refresh(ctx); err != nil {
				return fmt.Errorf("error fetching rundown: %w", err)
			}
			// Without the poll endpoint every event shows as upcoming.
			_ = eng.Poll(ctx)

			statuses := eng.Statuses()

			switch output {
			case "json":
				return util.PrintJSON(cmd.OutOrStdout(), statuses)
			case "yaml":
				return util.PrintYAML(cmd.OutOrStdout(), statuses)
			default:
				tw := util.NewTabWriter(cmd.OutOrStdout())
				defer tw.Flush()

				fmt.Fprintf(tw, "CUE\tTITLE\tDURATION\tSTATUS\tREMAINING\n")

				for _, ev := range statuses {
					remaining := ""
					if ev.TimeRemaining != nil {
						remaining = util.FormatTimer(*ev.TimeRemaining)
					}

					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
						ev.Cue,
						ev.Title,
						util.FormatTimer(ev.Duration*1000),
						ev.Status,
						remaining)
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format (table, json, yaml)")

	return cmd
}
