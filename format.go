package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	syncengine "github.com/tonimelisma/stellarsync/internal/sync"
)

// printResults writes sync run results as a table or JSON.
func printResults(out io.Writer, results []syncengine.Result, asJSON bool) {
	if len(results) == 0 {
		return
	}

	if asJSON {
		type resultJSON struct {
			Endpoint   string `json:"endpoint"`
			Mode       string `json:"mode"`
			Reason     string `json:"reason"`
			Created    int    `json:"created"`
			Updated    int    `json:"updated"`
			Deleted    int    `json:"deleted"`
			DurationMs int64  `json:"duration_ms"`
		}

		payload := make([]resultJSON, 0, len(results))
		for _, r := range results {
			payload = append(payload, resultJSON{
				Endpoint:   r.Endpoint,
				Mode:       string(r.Mode),
				Reason:     string(r.Reason),
				Created:    r.Created,
				Updated:    r.Updated,
				Deleted:    r.Deleted,
				DurationMs: r.Duration.Milliseconds(),
			})
		}

		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		_ = enc.Encode(payload)

		return
	}

	headers := []string{"ENDPOINT", "MODE", "REASON", "CREATED", "UPDATED", "DELETED", "DURATION"}
	rows := make([][]string, 0, len(results))

	for _, r := range results {
		rows = append(rows, []string{
			r.Endpoint,
			string(r.Mode),
			string(r.Reason),
			fmt.Sprintf("%d", r.Created),
			fmt.Sprintf("%d", r.Updated),
			fmt.Sprintf("%d", r.Deleted),
			r.Duration.Round(time.Millisecond).String(),
		})
	}

	printTable(out, headers, rows)
}

// formatMaybeTime returns a compact timestamp for display, or "-" for nil.
func formatMaybeTime(t *time.Time) string {
	if t == nil {
		return "-"
	}

	now := time.Now()

	// Same calendar year: show "Jan  2 15:04".
	if t.Year() == now.Year() {
		return t.Format("Jan _2 15:04")
	}

	return t.Format("Jan _2  2006")
}

// printTable writes aligned columns to the given writer.
// headers and each row must have the same length.
func printTable(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}

	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	printRow(w, headers, widths)

	for _, row := range rows {
		printRow(w, row, widths)
	}
}

func printRow(w io.Writer, cells []string, widths []int) {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		parts[i] = cell + strings.Repeat(" ", widths[i]-len(cell))
	}

	fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
}
