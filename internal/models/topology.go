package models

// NetworkLabel is the logical data network a cabled port belongs to. The
// label is derived from which switch a MAC was learned on (sorted switch IP
// order), never from the interface naming convention: in a properly cabled
// redundant deployment both networks appear on both switches.
type NetworkLabel string

const (
	NetworkA       NetworkLabel = "A"
	NetworkB       NetworkLabel = "B"
	NetworkUnknown NetworkLabel = "unknown"
)

// PortMapping associates one node network interface with the switch port it
// is physically cabled to. Derived per correlation run, never persisted by
// the cluster itself.
type PortMapping struct {
	NodeIP      string       `json:"node_ip"`
	NodeName    string       `json:"node_name"`
	Designation string       `json:"designation"` // enclosure index + node index + side
	Interface   string       `json:"interface"`
	MAC         string       `json:"mac"`
	SwitchIP    string       `json:"switch_ip"`
	SwitchPort  string       `json:"switch_port"`
	VLAN        string       `json:"vlan"`
	Network     NetworkLabel `json:"network"`
}

// IPLConnection is one physical inter-switch uplink, recorded once per link
// regardless of which side reported it.
type IPLConnection struct {
	SwitchA string `json:"switch_a"`
	PortA   string `json:"port_a"`
	SwitchB string `json:"switch_b"`
	PortB   string `json:"port_b"`
}

// CrossConnectionFinding documents a potential miswiring for human review:
// the network implied by the interface's local naming convention does not
// match the network the cable actually landed on. Diagnostic only.
type CrossConnectionFinding struct {
	NodeName  string       `json:"node_name"`
	Interface string       `json:"interface"`
	SwitchIP  string       `json:"switch_ip"`
	Port      string       `json:"port"`
	Actual    NetworkLabel `json:"actual"`
	Expected  NetworkLabel `json:"expected"`
}

// Topology is the correlated cabling picture of one run.
type Topology struct {
	Mappings []PortMapping            `json:"mappings"`
	IPLs     []IPLConnection          `json:"ipls"`
	Findings []CrossConnectionFinding `json:"findings"`
}
