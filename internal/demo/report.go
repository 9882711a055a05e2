package demo

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/sugawarayuuta/sonnet"

	"github.com/aradilov/chunkring"
)

// Report summarizes a demo run.
type Report struct {
	RunID          string          `json:"run_id"`
	Policy         Policy          `json:"policy"`
	Produced       int64           `json:"produced"`
	Consumed       int64           `json:"consumed"`
	Skipped        int64           `json:"skipped"`
	Superseded     int64           `json:"superseded"`
	DigestFailures int64           `json:"digest_failures"`
	Duration       time.Duration   `json:"duration_ns"`
	Stats          chunkring.Stats `json:"stats"`
}

// Balanced reports whether every produced item was consumed.
func (r *Report) Balanced() bool {
	return r.Produced == r.Consumed
}

// Write renders the report as "text" or "json".
func (r *Report) Write(w io.Writer, format string) error {
	switch format {
	case "json":
		return r.WriteJSON(w)
	case "text", "":
		return r.WriteText(w)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// WriteJSON writes the report as a single JSON document.
func (r *Report) WriteJSON(w io.Writer) error {
	b, err := sonnet.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}

// WriteText writes the report as aligned key/value lines.
func (r *Report) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	rows := []struct {
		key   string
		value any
	}{
		{"run", r.RunID},
		{"policy", r.Policy},
		{"produced", r.Produced},
		{"consumed", r.Consumed},
		{"skipped", r.Skipped},
		{"superseded", r.Superseded},
		{"digest failures", r.DigestFailures},
		{"duration", r.Duration},
		{"capacity", r.Stats.Capacity},
		{"chunk size", r.Stats.ChunkSize},
		{"producer claims", r.Stats.ProducerClaims},
		{"producer unavailable", r.Stats.ProducerUnavailable},
		{"consumer claims", r.Stats.ConsumerClaims},
		{"backoff spins", r.Stats.BackoffSpins},
		{"backoff yields", r.Stats.BackoffYields},
	}
	for _, row := range rows {
		if _, err := fmt.Fprintf(tw, "%s:\t%v\n", row.key, row.value); err != nil {
			return err
		}
	}
	return tw.Flush()
}
