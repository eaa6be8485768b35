// Package report reconciles extraction outcomes against store records,
// builds bounded update batches and renders the run summary.
package report

import "time"

// Outcome is the terminal result of processing one account in one run.
// Either Count is set (OK) or FailureReason is set, never both.
type Outcome struct {
	Handle        string
	Count         float64
	OK            bool
	FailureReason string
	CapturedAt    time.Time
	Attempts      int
}

// Success creates a successful outcome.
func Success(handle string, count float64, attempts int) Outcome {
	return Outcome{
		Handle:     handle,
		Count:      count,
		OK:         true,
		CapturedAt: time.Now(),
		Attempts:   attempts,
	}
}

// Failure creates a failed outcome with a non-empty reason.
func Failure(handle string, reason string, attempts int) Outcome {
	if reason == "" {
		reason = "unknown failure"
	}
	return Outcome{
		Handle:        handle,
		FailureReason: reason,
		CapturedAt:    time.Now(),
		Attempts:      attempts,
	}
}

// AccountSuccess is one line of the report's success section.
type AccountSuccess struct {
	Handle string
	Count  float64
}

// AccountFailure is one line of the report's failure section.
type AccountFailure struct {
	Handle string
	Reason string
}

// RunReport aggregates one run for presentation. Extraction success and
// store persistence are tracked separately: an account can extract fine
// and still miss persistence when its batch is rejected.
type RunReport struct {
	RunID     string
	Platform  string
	Timestamp time.Time
	Successes []AccountSuccess
	Failures  []AccountFailure
	Total     int
	Extracted int
	Updated   int
}

// Build assembles a report from ordered outcomes. Outcome order is
// preserved in the success/failure sections.
func Build(runID, platform string, outcomes []Outcome, updated int) *RunReport {
	r := &RunReport{
		RunID:     runID,
		Platform:  platform,
		Timestamp: time.Now(),
		Total:     len(outcomes),
		Updated:   updated,
	}

	for _, outcome := range outcomes {
		if outcome.OK {
			r.Successes = append(r.Successes, AccountSuccess{
				Handle: outcome.Handle,
				Count:  outcome.Count,
			})
			r.Extracted++
		} else {
			r.Failures = append(r.Failures, AccountFailure{
				Handle: outcome.Handle,
				Reason: outcome.FailureReason,
			})
		}
	}
	return r
}
