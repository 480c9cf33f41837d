package models

import "fmt"

// Sentinel values for optional fields. Downstream renderers print these
// verbatim instead of guessing around missing keys.
const (
	ValueUnknown       = "unknown"
	ValueManualEntry   = "MANUAL ENTRY REQUIRED"
	RackUnitManualFill = -1
)

type HardwareRole string

const (
	RoleComputeNode      HardwareRole = "compute-node"
	RoleStorageNode      HardwareRole = "storage-node"
	RoleComputeEnclosure HardwareRole = "compute-enclosure"
	RoleStorageEnclosure HardwareRole = "storage-enclosure"
	RoleStorageTray      HardwareRole = "storage-tray"
)

func ParseHardwareRole(s string) (HardwareRole, error) {
	switch HardwareRole(s) {
	case RoleComputeNode, RoleStorageNode, RoleComputeEnclosure, RoleStorageEnclosure, RoleStorageTray:
		return HardwareRole(s), nil
	default:
		return "", fmt.Errorf("invalid hardware role: %s", s)
	}
}

// HardwareRecord is the canonical, revision-independent shape of a physical
// component. ID and Role are always set; optional fields carry explicit
// sentinels when the cluster did not (or could not) report them.
type HardwareRecord struct {
	ID        string       `json:"id"`
	Role      HardwareRole `json:"role"`
	Name      string       `json:"name"`
	Model     string       `json:"model"`
	Serial    string       `json:"serial"`
	Status    string       `json:"status"`
	Enclosure string       `json:"enclosure"`

	// RackUnit is the bottom rack unit the component occupies, or
	// RackUnitManualFill when it must be filled in by hand.
	RackUnit int `json:"rack_unit"`

	MgmtIP   string `json:"mgmt_ip"`
	DataIP   string `json:"data_ip"`
	BMCIP    string `json:"bmc_ip"`
	Firmware string `json:"firmware"`
	BMCFw    string `json:"bmc_fw"`
}

// ClusterIdentity is the cluster self-description pulled at probe time.
type ClusterIdentity struct {
	Name     string `json:"name"`
	UUID     string `json:"uuid"`
	Model    string `json:"model"`
	Serial   string `json:"serial"` // product serial tag; sentinel without serial tracking
	Firmware string `json:"firmware"`
	State    string `json:"state"`
	NodeCnt  int    `json:"node_count"`
}
