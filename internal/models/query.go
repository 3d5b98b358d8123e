package models

import (
	"fmt"
	"time"
)

// QueryWindow bounds a half-open [Start, End) time range queried against the log store.
type QueryWindow struct {
	Start time.Time
	End   time.Time
}

// Duration returns the window length.
func (w QueryWindow) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Bisect splits the window at its midpoint. The two halves partition the
// original window: [Start, mid) and [mid, End).
func (w QueryWindow) Bisect() (QueryWindow, QueryWindow) {
	mid := w.Start.Add(w.Duration() / 2)
	return QueryWindow{Start: w.Start, End: mid}, QueryWindow{Start: mid, End: w.End}
}

// String renders the window as an RFC3339 range.
func (w QueryWindow) String() string {
	return fmt.Sprintf("%s to %s", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}

// QueryStatus enumerates log-store query states.
type QueryStatus string

const (
	StatusScheduled QueryStatus = "Scheduled"
	StatusRunning   QueryStatus = "Running"
	StatusComplete  QueryStatus = "Complete"
	StatusFailed    QueryStatus = "Failed"
	StatusCancelled QueryStatus = "Cancelled"
	StatusTimeout   QueryStatus = "Timeout"
	StatusUnknown   QueryStatus = "Unknown"
)

// Terminal reports whether the status ends the poll loop.
func (s QueryStatus) Terminal() bool {
	switch s {
	case StatusComplete, StatusFailed, StatusCancelled, StatusTimeout, StatusUnknown:
		return true
	}
	return false
}

// RawField is one field/value pair of a raw result row.
type RawField struct {
	Field string
	Value string
}

// RawRow is a single result row as returned by the log store, internal
// cursor field included.
type RawRow []RawField

// QueryOutcome is the terminal result of one log-store query. Rows are only
// populated when Status is Complete.
type QueryOutcome struct {
	Status  QueryStatus
	Rows    []RawRow
	Message string
}

// ExplainQueryStatus translates a terminal non-Complete status into
// human-readable guidance.
func ExplainQueryStatus(status QueryStatus) string {
	explanations := map[QueryStatus]string{
		StatusFailed:    "Query execution failed due to an internal error or invalid query",
		StatusCancelled: "Query was cancelled before completion (possibly by another process)",
		StatusTimeout:   "Query exceeded the maximum execution time limit",
		StatusUnknown:   "Query is in an unknown state (possibly due to service issues)",
	}

	explanation, ok := explanations[status]
	if !ok {
		explanation = fmt.Sprintf("Query ended with unexpected status: %s", status)
	}
	return explanation + ". Check the log store console for more details."
}
