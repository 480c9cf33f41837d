package models

import "time"

// SectionScore is the completeness ratio of one logical report section:
// populated fields over expected fields. Reporting only, never control flow.
type SectionScore struct {
	Section   string  `json:"section"`
	Populated int     `json:"populated"`
	Expected  int     `json:"expected"`
	Ratio     float64 `json:"ratio"`
}

// Inventory is the composite result of one collection run. Optional
// sub-collections that failed are present but empty; their gaps show up in
// the completeness scores instead of aborting the run.
type Inventory struct {
	Capability ClusterCapability `json:"capability"`
	Cluster    ClusterIdentity   `json:"cluster"`
	Hardware   []HardwareRecord  `json:"hardware"`
	Topology   *Topology         `json:"topology,omitempty"`

	Scores      []SectionScore `json:"scores"`
	CollectedAt time.Time      `json:"collected_at"`
}

// Completeness is the aggregate ratio across every section.
func (inv *Inventory) Completeness() float64 {
	var populated, expected int
	for _, s := range inv.Scores {
		populated += s.Populated
		expected += s.Expected
	}
	if expected == 0 {
		return 0
	}
	return float64(populated) / float64(expected)
}

// RecordsByRole filters the hardware list by role, preserving order.
func (inv *Inventory) RecordsByRole(role HardwareRole) []HardwareRecord {
	var out []HardwareRecord
	for _, r := range inv.Hardware {
		if r.Role == role {
			out = append(out, r)
		}
	}
	return out
}

// Run is one persisted collection run in the local history store.
type Run struct {
	ID           string
	Cluster      string
	Revision     Revision
	Firmware     string
	Completeness float64
	Inventory    []byte
	CreatedAt    time.Time
}
