package domain

import "strings"

// RunStatus is the lifecycle state of an import run or file.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

var runStatusLabels = map[RunStatus]string{
	RunPending:   "Pending",
	RunRunning:   "Running",
	RunCompleted: "Completed",
	RunFailed:    "Failed",
}

// Label returns a human-readable label for a run status.
func (s RunStatus) Label() string {
	if label, ok := runStatusLabels[s]; ok {
		return label
	}

	return "Unknown"
}

// Terminal reports whether no further transitions are expected.
func (s RunStatus) Terminal() bool {
	return s == RunCompleted || s == RunFailed
}

// ParseRunStatus returns the status for a given label (case-insensitive).
func ParseRunStatus(label string) (RunStatus, bool) {
	s := RunStatus(strings.ToLower(strings.TrimSpace(label)))
	_, ok := runStatusLabels[s]

	return s, ok
}
