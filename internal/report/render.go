package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Render writes the plain-text run summary: per-account success or
// failure, the run timestamp and the updated-of-total line.
func (r *RunReport) Render(w io.Writer) {
	fmt.Fprintf(w, "\nFinal Results (%s):\n", r.Platform)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Account", "Result"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
	})

	for _, success := range r.Successes {
		t.AppendRow(table.Row{"@" + success.Handle, formatCount(success.Count)})
	}
	for _, failure := range r.Failures {
		t.AppendRow(table.Row{"@" + failure.Handle, "not found"})
	}
	t.Render()

	fmt.Fprintf(w, "\nTimestamp: %s\n", r.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Successfully updated %d out of %d records in the store\n", r.Updated, r.Total)
	if len(r.Failures) > 0 {
		fmt.Fprintf(w, "Failed to get counts for %d accounts\n", len(r.Failures))
	}
}

// formatCount renders a count with thousands separators, truncating any
// fractional remainder from magnitude suffixes.
func formatCount(count float64) string {
	n := int64(count)
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}

	var out []byte
	for n > 0 {
		group := n % 1000
		n /= 1000
		if n > 0 {
			out = append([]byte(fmt.Sprintf(",%03d", group)), out...)
		} else {
			out = append([]byte(fmt.Sprintf("%d", group)), out...)
		}
	}
	return string(out)
}
