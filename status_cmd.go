package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	syncengine "github.com/tonimelisma/stellarsync/internal/sync"
)

// newStatusCmd builds the operational visibility command: per-endpoint run
// state, last counts, next full sync due, and the overall health
// classification.
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show per-endpoint sync state and overall health",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			defer a.Close()

			statuses, health, err := a.states.Overview(cmd.Context())
			if err != nil {
				return err
			}

			if flagJSON {
				return printStatusJSON(os.Stdout, statuses, health)
			}

			printStatusTable(os.Stdout, statuses, health)

			return nil
		},
	}
}

// statusJSON is the machine-readable shape of the status output.
type statusJSON struct {
	Health    syncengine.Health `json:"health"`
	Endpoints []endpointJSON    `json:"endpoints"`
}

type endpointJSON struct {
	Endpoint        string     `json:"endpoint"`
	Status          string     `json:"status"`
	LastSuccess     *time.Time `json:"last_success,omitempty"`
	LastFullSync    *time.Time `json:"last_full_sync,omitempty"`
	NextFullSyncDue *time.Time `json:"next_full_sync_due,omitempty"`
	Created         int        `json:"created"`
	Updated         int        `json:"updated"`
	Deleted         int        `json:"deleted"`
	DurationMs      int64      `json:"duration_ms"`
	LastError       string     `json:"last_error,omitempty"`
}

func printStatusJSON(out *os.File, statuses []syncengine.EndpointStatus, health syncengine.Health) error {
	payload := statusJSON{Health: health, Endpoints: make([]endpointJSON, 0, len(statuses))}

	for _, st := range statuses {
		payload.Endpoints = append(payload.Endpoints, endpointJSON{
			Endpoint:        st.EndpointName,
			Status:          string(st.Status),
			LastSuccess:     st.LastSuccessfulSyncAt,
			LastFullSync:    st.LastFullSyncAt,
			NextFullSyncDue: st.NextFullSyncDue,
			Created:         st.RecordsCreated,
			Updated:         st.RecordsUpdated,
			Deleted:         st.RecordsDeleted,
			DurationMs:      st.LastDurationMs,
			LastError:       st.LastErrorMessage,
		})
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	return enc.Encode(payload)
}

func printStatusTable(out *os.File, statuses []syncengine.EndpointStatus, health syncengine.Health) {
	fmt.Fprintf(out, "Health: %s\n\n", health)

	if len(statuses) == 0 {
		fmt.Fprintln(out, "No endpoints synced yet.")
		return
	}

	headers := []string{"ENDPOINT", "STATUS", "LAST SUCCESS", "NEXT FULL DUE", "C/U/D", "LAST ERROR"}
	rows := make([][]string, 0, len(statuses))

	for _, st := range statuses {
		rows = append(rows, []string{
			st.EndpointName,
			string(st.Status),
			formatMaybeTime(st.LastSuccessfulSyncAt),
			formatMaybeTime(st.NextFullSyncDue),
			fmt.Sprintf("%d/%d/%d", st.RecordsCreated, st.RecordsUpdated, st.RecordsDeleted),
			st.LastErrorMessage,
		})
	}

	printTable(out, headers, rows)
}
