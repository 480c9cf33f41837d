package models

import "fmt"

type CollectorState string

const (
	CollectorStateReady      CollectorState = "ready"
	CollectorStateConnecting CollectorState = "connecting"
	CollectorStateCollecting CollectorState = "collecting"
	CollectorStateCollected  CollectorState = "collected"
	CollectorStateError      CollectorState = "error"
)

func ParseCollectorState(s string) (CollectorState, error) {
	switch CollectorState(s) {
	case CollectorStateReady, CollectorStateConnecting, CollectorStateCollecting,
		CollectorStateCollected, CollectorStateError:
		return CollectorState(s), nil
	default:
		return "", fmt.Errorf("invalid collector state: %s", s)
	}
}

// CollectorStatus is the externally visible state of the collection service.
type CollectorStatus struct {
	State        CollectorState
	LastRunID    string
	Completeness float64
	Error        string
}
