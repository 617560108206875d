package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AquamanRanda/OnTIme/internal/ontimectl/config"
	"github.com/AquamanRanda/OnTIme/internal/ontimectl/util"
)

// newConfigCmd creates the config command that manages CLI contexts and
// settings. Each context represents a different timer server, letting
// operators switch between venues or environments quickly.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long: `The config command provides subcommands for managing ontimectl's
configuration, including contexts for different server endpoints.

Each context represents a different timer server, allowing you to easily
switch between venues, rehearsal setups, and production servers.`,
	}

	cmd.AddCommand(
		newConfigViewCmd(),
		newConfigSetContextCmd(),
		newConfigUseContextCmd(),
		newConfigDeleteContextCmd(),
	)

	return cmd
}

// newConfigViewCmd creates a command for displaying the configuration
func newConfigViewCmd() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Display merged configuration",
		Long: `Display the current configuration settings, including all contexts
and which context is active.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch strings.ToLower(outputFormat) {
			case "yaml":
				return util.PrintYAML(cmd.OutOrStdout(), cfg)
			case "json":
				return util.PrintJSON(cmd.OutOrStdout(), cfg)
			default:
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Current Context: %s\n\n", cfg.CurrentContext)
				fmt.Fprintf(out, "Contexts:\n")
				for name, ctx := range cfg.Contexts {
					fmt.Fprintf(out, "- %s:\n", name)
					fmt.Fprintf(out, "    Server: %s\n", ctx.Server)
					if ctx.InsecureSkipVerify {
						fmt.Fprintf(out, "    InsecureSkipVerify: true\n")
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "Output format (text, json, yaml)")

	return cmd
}

// newConfigSetContextCmd creates a command for creating or updating contexts
func newConfigSetContextCmd() *cobra.Command {
	var (
		server          string
		insecureSkipTLS bool
	)

	cmd := &cobra.Command{
		Use:   "set-context NAME",
		Short: "Create or update a context",
		Long: `Create a new context or update an existing one with the specified
settings. The first context created automatically becomes current.`,
		Example: `  # Create a context for the venue server
  ontimectl config set-context venue --server=http://10.0.1.50:4001

  # Create a context with TLS verification disabled
  ontimectl config set-context staging --server=https://staging.example.com --insecure-skip-tls`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			if server == "" {
				return fmt.Errorf("server URL is required")
			}

			cfg.AddContext(name, &config.Context{
				Name:               name,
				Server:             server,
				InsecureSkipVerify: insecureSkipTLS,
			})

			// If this is the first context, automatically make it current
			if cfg.CurrentContext == "" {
				cfg.CurrentContext = name
			}

			if err := config.SaveConfig(cfg); err != nil {
				return fmt.Errorf("error saving config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Context %q updated\n", name)
			return nil
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "Server URL (required)")
	cmd.Flags().BoolVar(&insecureSkipTLS, "insecure-skip-tls", false, "Skip TLS certificate verification")

	cmd.MarkFlagRequired("server")

	return cmd
}

// newConfigUseContextCmd creates a command for switching between contexts
func newConfigUseContextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use-context NAME",
		Short: "Switch to a different context",
		Example: `  # Switch to the venue context
  ontimectl config use-context venue`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			if err := cfg.SetCurrentContext(name); err != nil {
				return fmt.Errorf("error setting current context: %w", err)
			}

			if err := config.SaveConfig(cfg); err != nil {
				return fmt.Errorf("error saving config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Switched to context %q\n", name)
			return nil
		},
	}
}

// newConfigDeleteContextCmd creates a command for removing contexts
func newConfigDeleteContextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-context NAME",
		Short: "Delete a context",
		Example: `  # Delete the 'staging' context
  ontimectl config delete-context staging`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			if err := cfg.RemoveContext(name); err != nil {
				return fmt.Errorf("error removing context: %w", err)
			}

			if err := config.SaveConfig(cfg); err != nil {
				return fmt.Errorf("error saving config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Context %q deleted\n", name)
			return nil
		},
	}
}
