// Package cmd implements the ontimectl CLI commands
package cmd

import (
	"crypto/tls"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/AquamanRanda/OnTIme/internal/ontime/client"
	"github.com/AquamanRanda/OnTIme/internal/ontime/engine"
	"github.com/AquamanRanda/OnTIme/internal/ontimectl/config"
)

var (
	cfgFile    string
	serverFlag string
	timeout    time.Duration
	verbose    bool
	cfg        *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ontimectl",
	Short: "Event timer control tool",
	Long: `ontimectl is a command line tool for driving a remote event timer
server. It can inspect the rundown, control playback, edit events, and
follow live timer state from the terminal.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.ontimectl/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", "", "Timer server address")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable diagnostic logging")

	// Add commands
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newRundownCmd())
	rootCmd.AddCommand(newPlaybackCmd())
	rootCmd.AddCommand(newAddtimeCmd())
	rootCmd.AddCommand(newRemovetimeCmd())
	rootCmd.AddCommand(newEventCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	var err error
	cfg, err = config.LoadConfig(cfgFile)
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}
}

// cliLogger returns the logger handed to library internals. Quiet by
// default so command output stays clean; --verbose turns on console
// diagnostics.
func cliLogger() zerolog.Logger {
	if !verbose {
		return zerolog.Nop()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}

// resolveServer picks the server for this invocation: the --server flag
// wins, then the ONTIME_SERVER environment variable, then the current
// context from the config file.
func resolveServer() (string, *tls.Config, error) {
	if serverFlag != "" {
		return serverFlag, nil, nil
	}
	if server := os.Getenv("ONTIME_SERVER"); server != "" {
		return server, nil, nil
	}
	if cfg != nil {
		if ctx, err := cfg.GetCurrentContext(); err == nil && ctx.Server != "" {
			var tlsConfig *tls.Config
			if ctx.InsecureSkipVerify {
				tlsConfig = &tls.Config{InsecureSkipVerify: true}
			}
			return ctx.Server, tlsConfig, nil
		}
	}
	return "", nil, fmt.Errorf("no server configured - pass --server, set ONTIME_SERVER, or add a context with 'ontimectl config set-context'")
}

// getClient creates an API client for one-shot commands
func getClient() (*client.Client, error) {
	server, tlsConfig, err := resolveServer()
	if err != nil {
		return nil, err
	}

	opts := []client.ClientOption{
		client.WithTimeout(timeout),
		client.WithLogger(cliLogger()),
	}
	if tlsConfig != nil {
		opts = append(opts, client.WithTLSConfig(tlsConfig))
	}

	c, err := client.NewClient(server, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}
	return c, nil
}

// newEngine creates a sync engine for commands that need local state or
// the streaming channel
func newEngine() (*engine.Engine, error) {
	server, tlsConfig, err := resolveServer()
	if err != nil {
		return nil, err
	}

	return engine.New(engine.Options{
		ServerURL:   server,
		HTTPTimeout: timeout,
		TLSConfig:   tlsConfig,
		Logger:      cliLogger(),
	})
}
