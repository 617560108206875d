package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AquamanRanda/OnTIme/api/types/v1alpha1"
)

// newEventCmd creates the event management command
func newEventCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event",
		Short: "Manage rundown events",
		Long: `The event command edits events on the server. The server owns the
rundown; edits are sent as partial updates and the local view follows
once the server confirms them.`,
	}

	cmd.AddCommand(newEventUpdateCmd())

	return cmd
}

// newEventUpdateCmd creates a command for patching event fields
func newEventUpdateCmd() *cobra.Command {
	var (
		title    string
		note     string
		cueLabel string
		colour   string
		skip     bool
		public   bool
		duration int64
		customs  []string
	)

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update an event",
		Long: `Update fields of a single event. Only the flags you pass are sent;
everything else is left untouched on the server.

Custom fields set with --custom are applied optimistically: the local
copy updates immediately and rolls back if the server rejects the edit.`,
		Example: `  # Retitle an event
  ontimectl event update 421b5a --title "Doors Open"

  # Mark an event skipped
  ontimectl event update 146dc4 --skip

  # Set a custom field
  ontimectl event update 421b5a --custom Image_Test=https://example.com/a.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]

			var update v1alpha1.EventUpdateRequest
			flags := cmd.Flags()
			if flags.Changed("title") {
				update.Title = &title
			}
			if flags.Changed("note") {
				update.Note = &note
			}
			if flags.Changed("cue") {
				update.Cue = &cueLabel
			}
			if flags.Changed("colour") {
				update.Colour = &colour
			}
			if flags.Changed("skip") {
				update.Skip = &skip
			}
			if flags.Changed("public") {
				update.IsPublic = &public
			}
			if flags.Changed("duration") {
				update.Duration = &duration
			}

			// Parse custom field assignments
			custom := make(map[string]string)
			for _, assign := range customs {
				parts := strings.SplitN(assign, "=", 2)
				if len(parts) != 2 {
					return fmt.Errorf("invalid custom format %q - use field=value", assign)
				}
				custom[parts[0]] = parts[1]
			}

			hasFieldUpdate := update != (v1alpha1.EventUpdateRequest{})
			if !hasFieldUpdate && len(custom) == 0 {
				return fmt.Errorf("nothing to update - pass at least one field flag")
			}

			eng, err := newEngine()
			if err != nil {
				return err
			}
			defer eng.Close()

			ctx := cmd.Context()
			if hasFieldUpdate {
				if _, err := eng.UpdateEvent(ctx, id, update); err != nil {
					return fmt.Errorf("error updating event: %w", err)
				}
			}

			if len(custom) > 0 {
				// Optimistic custom edits need the rundown loaded first.
				if err := eng.Refresh(ctx); err != nil {
					return fmt.Errorf("error fetching rundown: %w", err)
				}
				for field, value := range custom {
					if err := eng.UpdateCustomField(ctx, id, field, value); err != nil {
						return fmt.Errorf("error updating custom field %q: %w", field, err)
					}
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Event %q updated\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New event title")
	cmd.Flags().StringVar(&note, "note", "", "New production note")
	cmd.Flags().StringVar(&cueLabel, "cue", "", "New cue label")
	cmd.Flags().StringVar(&colour, "colour", "", "New display colour")
	cmd.Flags().BoolVar(&skip, "skip", false, "Exclude the event from scheduling")
	cmd.Flags().BoolVar(&public, "public", false, "Show the event on public views")
	cmd.Flags().Int64Var(&duration, "duration", 0, "New planned length in seconds")
	cmd.Flags().StringArrayVar(&customs, "custom", nil, "Set a custom field in field=value format (repeatable)")

	return cmd
}
