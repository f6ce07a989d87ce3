package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	syncengine "github.com/tonimelisma/stellarsync/internal/sync"
)

func TestPrintResults(t *testing.T) {
	results := []syncengine.Result{
		{
			Endpoint: "categories",
			Mode:     syncengine.ModeFull,
			Reason:   syncengine.ReasonFirstSync,
			Counts:   syncengine.Counts{Created: 3, Updated: 1},
			Duration: 1230 * time.Millisecond,
		},
		{
			Endpoint: "companies",
			Mode:     syncengine.ModeDelta,
			Reason:   syncengine.ReasonDeltaEligible,
			Counts:   syncengine.Counts{Updated: 2},
			Duration: 80 * time.Millisecond,
		},
	}

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		printResults(&buf, results, false)

		lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
		require.Len(t, lines, 3)

		assert.Contains(t, lines[0], "ENDPOINT")
		assert.Contains(t, lines[0], "DURATION")
		assert.Contains(t, lines[1], "categories")
		assert.Contains(t, lines[1], "FIRST_SYNC")
		assert.Contains(t, lines[2], "delta")

		for _, line := range lines {
			assert.Equal(t, strings.TrimRight(line, " "), line, "no trailing padding")
		}
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		printResults(&buf, results, true)

		var decoded []map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		require.Len(t, decoded, 2)

		assert.Equal(t, "categories", decoded[0]["endpoint"])
		assert.Equal(t, float64(3), decoded[0]["created"])
		assert.Equal(t, float64(1230), decoded[0]["duration_ms"])
		assert.Equal(t, "delta", decoded[1]["mode"])
	})

	t.Run("empty results print nothing", func(t *testing.T) {
		var buf bytes.Buffer
		printResults(&buf, nil, false)
		printResults(&buf, nil, true)

		assert.Empty(t, buf.String())
	})
}

func TestFormatMaybeTime(t *testing.T) {
	assert.Equal(t, "-", formatMaybeTime(nil))

	thisYear := time.Date(time.Now().Year(), 3, 5, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, "Mar  5 09:30", formatMaybeTime(&thisYear))

	lastYear := time.Date(time.Now().Year()-1, 3, 5, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, "Mar  5  "+lastYear.Format("2006"), formatMaybeTime(&lastYear))
}
