// The ontimesim command runs a simulated event timer server. It speaks
// the same REST and websocket protocol as a production server, backed by
// an in-memory rundown, so consoles can be exercised without one.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/AquamanRanda/OnTIme/api/types/v1alpha1"
	"github.com/AquamanRanda/OnTIme/internal/ontimesim"
)

func main() {
	addr := flag.String("addr", ":4001", "listen address")
	rundownPath := flag.String("rundown", "", "path to a rundown JSON file (default: built-in demo rundown)")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if !*debug {
		logger = logger.Level(zerolog.InfoLevel)
	}

	project, rundown, err := loadProduction(*rundownPath)
	if err != nil {
		logger.Error().Err(err).Str("path", *rundownPath).Msg("failed to load rundown")
		os.Exit(1)
	}

	state := ontimesim.NewState(project, rundown, logger)
	server := ontimesim.New(state, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("broadcast loop error")
		}
	}()

	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info().
			Str("addr", *addr).
			Int("events", len(rundown.Order)).
			Str("project", project.Title).
			Msg("starting simulated timer server")

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("server error")
			os.Exit(1)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	<-shutdown
	logger.Info().Msg("shutting down simulator...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown error")
	}

	logger.Info().Msg("simulator stopped")
}

// loadProduction returns the production to serve: the rundown file when
// one is given, the built-in demo otherwise.
func loadProduction(path string) (v1alpha1.ProjectData, v1alpha1.NormalisedRundown, error) {
	if path == "" {
		return demoProduction()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return v1alpha1.ProjectData{}, v1alpha1.NormalisedRundown{}, err
	}

	var rundown v1alpha1.NormalisedRundown
	if err := json.Unmarshal(data, &rundown); err != nil {
		return v1alpha1.ProjectData{}, v1alpha1.NormalisedRundown{}, fmt.Errorf("error decoding rundown: %w", err)
	}
	if len(rundown.Order) == 0 {
		return v1alpha1.ProjectData{}, v1alpha1.NormalisedRundown{}, errors.New("rundown has no events")
	}
	for _, id := range rundown.Order {
		if _, ok := rundown.Events[id]; !ok {
			return v1alpha1.ProjectData{}, v1alpha1.NormalisedRundown{}, fmt.Errorf("rundown order references unknown event %q", id)
		}
	}

	project := v1alpha1.ProjectData{Title: "Simulated Production"}
	return project, rundown, nil
}

func demoProduction() (v1alpha1.ProjectData, v1alpha1.NormalisedRundown, error) {
	project := v1alpha1.ProjectData{
		Title:       "Demo Conference",
		Description: "Built-in demo production",
	}

	rundown := v1alpha1.NormalisedRundown{
		Events: map[string]v1alpha1.Event{
			"d1a4f2": {
				ID: "d1a4f2", Title: "Doors Open", Cue: "1",
				Duration: 1800, TimerType: v1alpha1.TimerTypeCountDown,
				IsPublic: true, Colour: "#779BE7",
			},
			"b82c91": {
				ID: "b82c91", Title: "Welcome Address", Cue: "2",
				Duration: 600, TimerType: v1alpha1.TimerTypeCountDown,
				IsPublic: true, Colour: "#77C785",
				Custom: map[string]string{"presenter": "Alex Reed"},
			},
			"9e03dd": {
				ID: "9e03dd", Title: "Crew Reset", Cue: "2.1",
				Duration: 300, TimerType: v1alpha1.TimerTypeCountDown,
			},
			"f45a07": {
				ID: "f45a07", Title: "Keynote", Cue: "3",
				Duration: 2700, TimerType: v1alpha1.TimerTypeCountDown,
				IsPublic: true, Colour: "#FFCC78",
				TimeWarning: 300, TimeDanger: 60,
				Custom: map[string]string{"presenter": "Sam Okafor"},
			},
			"c1189b": {
				ID: "c1189b", Title: "Lunch Break", Cue: "4",
				Duration: 3600, TimerType: v1alpha1.TimerTypeClock,
				IsPublic: true,
			},
		},
		Order: []string{"d1a4f2", "b82c91", "9e03dd", "f45a07", "c1189b"},
		CustomFields: map[string]v1alpha1.CustomField{
			"presenter": {
				ID: "presenter", Label: "Presenter",
				Type: v1alpha1.CustomFieldText, Colour: "#FF7878",
			},
		},
		Revision: 1,
	}

	return project, rundown, nil
}
