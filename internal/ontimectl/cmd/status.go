package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AquamanRanda/OnTIme/api/types/v1alpha1"
	"github.com/AquamanRanda/OnTIme/internal/ontimectl/util"
)

// statusReport is the one-shot view printed by the status command
type statusReport struct {
	Server    string                    `json:"server" yaml:"server"`
	Reachable bool                      `json:"reachable" yaml:"reachable"`
	Project   *v1alpha1.ProjectData     `json:"project,omitempty" yaml:"project,omitempty"`
	Snapshot  *v1alpha1.RuntimeSnapshot `json:"snapshot,omitempty" yaml:"snapshot,omitempty"`
	Active    *v1alpha1.EventWithStatus `json:"active,omitempty" yaml:"active,omitempty"`
}

func newStatusCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show server and playback status",
		Long: `Show a one-shot view of the server: reachability, the loaded project,
and the current playback state. An unreachable server is reported, not
treated as a failure.`,
		Example: `  # Quick health and playback check
  ontimectl status

  # Machine-readable status for scripting
  ontimectl status -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := newEngine()
			if err != nil {
				return err
			}
			defer eng.Close()

			ctx := cmd.Context()
			server, _, err := resolveServer()
			if err != nil {
				return err
			}

			report := statusReport{Server: server}
			report.Reachable = eng.CheckHealth(ctx) == nil

			if report.Reachable {
				if err := eng.Refresh(ctx); err != nil {
					return fmt.Errorf("error fetching rundown: %w", err)
				}
				// Servers without the poll endpoint simply leave the
				// snapshot empty.
				_ = eng.Poll(ctx)

				if project, ok := eng.Project(); ok {
					report.Project = &project
				}
				if snap, ok := eng.Snapshot(); ok {
					report.Snapshot = &snap
				}
				for _, ev := range eng.Statuses() {
					if ev.Status == v1alpha1.EventStatusActive {
						active := ev
						report.Active = &active
						break
					}
				}
			}

			switch output {
			case "json":
				return util.PrintJSON(cmd.OutOrStdout(), report)
			case "yaml":
				return util.PrintYAML(cmd.OutOrStdout(), report)
			default:
				printStatus(cmd, report)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format (text, json, yaml)")

	return cmd
}

func printStatus(cmd *cobra.Command, report statusReport) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Server: %s\n", report.Server)
	fmt.Fprintf(out, "Reachable: %v\n", report.Reachable)

	if report.Project != nil {
		fmt.Fprintf(out, "Project: %s\n", report.Project.Title)
	}

	if report.Snapshot != nil {
		if report.Snapshot.Playback != nil {
			fmt.Fprintf(out, "Playback: %s\n", report.Snapshot.Playback.State)
		}
		if report.Snapshot.Clock > 0 {
			fmt.Fprintf(out, "Clock: %s\n", util.FormatClock(report.Snapshot.Clock))
		}
	}

	if report.Active != nil {
		line := report.Active.Title
		if report.Active.Cue != "" {
			line = fmt.Sprintf("%s (cue %s)", line, report.Active.Cue)
		}
		if report.Active.TimeRemaining != nil {
			line = fmt.Sprintf("%s, %s remaining", line, util.FormatTimer(*report.Active.TimeRemaining))
		}
		fmt.Fprintf(out, "Active: %s\n", line)
	}
}
