// Package report persists and retrieves execution records so that past
// runs can be inspected after the fact.
package report

import "time"

// Record is the stored outcome of one execution.
type Record struct {
	ID      string   `json:"id"`
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
	Dir     string   `json:"dir,omitempty"`

	ExitCode  int    `json:"exit_code"`
	Stdout    string `json:"stdout,omitempty"`
	Stderr    string `json:"stderr,omitempty"`
	Truncated bool   `json:"truncated,omitempty"`

	// TimedOut marks a run that missed its deadline; Stdout/Stderr then
	// hold the partial output salvaged before the kill.
	TimedOut bool   `json:"timed_out,omitempty"`
	Timeout  string `json:"timeout,omitempty"`

	// Error is set for runs that failed before producing an exit code.
	Error string `json:"error,omitempty"`

	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// Store persists and retrieves execution records.
type Store interface {
	Save(rec *Record) error
	Load(id string) (*Record, error)
}
