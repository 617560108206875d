// Package util provides shared utilities for the CLI
package util

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"
)

// PrintJSON writes a JSON representation of v to w with proper indentation
func PrintJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintJSONLine writes v as a single compact JSON line for streaming output
func PrintJSONLine(w io.Writer, v interface{}) error {
	return json.NewEncoder(w).Encode(v)
}

// PrintYAML writes a YAML representation of v to w
func PrintYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// NewTabWriter creates a new tabwriter configured for CLI output
func NewTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// FormatTimer formats a millisecond timer value as a clock-style string.
// Negative values keep their sign so overruns read naturally.
func FormatTimer(ms int64) string {
	sign := ""
	if ms < 0 {
		sign = "-"
		ms = -ms
	}

	total := ms / 1000
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60

	if h > 0 {
		return fmt.Sprintf("%s%d:%02d:%02d", sign, h, m, s)
	}
	return fmt.Sprintf("%s%02d:%02d", sign, m, s)
}

// FormatClock formats an epoch-millisecond wall clock as local time
func FormatClock(ms int64) string {
	return time.UnixMilli(ms).Format("15:04:05")
}
