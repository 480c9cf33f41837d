package topology

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/sanops/asbuilt/internal/models"
	"github.com/sanops/asbuilt/internal/util"
	srvErrors "github.com/sanops/asbuilt/pkg/errors"
)

// Node is the inventory slice the correlator needs: which hosts exist, how
// to reach them and what they are.
type Node struct {
	Hostname string
	MgmtIP   string
	Role     models.HardwareRole
	Vendor   string
}

// Candidate uplink ports queried for inter-switch links. The peer pair uses
// the two highest ports on every supported switch model.
var iplCandidatePorts = []string{"Eth1/31", "Eth1/32"}

// Correlator reconstructs physical node-to-switch cabling by crossing node
// interface MACs with switch MAC tables. One linear pipeline, one SSH call
// at a time.
type Correlator struct {
	nodes    []Node
	switches []string
	nodeSSH  CommandRunner
	swSSH    CommandRunner
	log      *zap.SugaredLogger
}

func NewCorrelator(nodes []Node, switches []string, nodeSSH, swSSH CommandRunner) *Correlator {
	sorted := append([]string(nil), switches...)
	sort.Strings(sorted)
	return &Correlator{
		nodes:    nodes,
		switches: sorted,
		nodeSSH:  nodeSSH,
		swSSH:    swSSH,
		log:      zap.S().Named("topology"),
	}
}

// Correlate runs the pipeline and returns whatever subset of mappings it
// could build. Per-switch failures degrade the result; losing the single
// representative compute node aborts, since the cluster-wide listings have
// no other source.
func (c *Correlator) Correlate(ctx context.Context) (*models.Topology, error) {
	hop, err := c.representativeNode()
	if err != nil {
		return nil, err
	}

	hostIPs, err := c.gatherHostIPs(ctx, hop)
	if err != nil {
		return nil, err
	}
	triples, err := c.gatherNodeMACs(ctx, hop)
	if err != nil {
		return nil, err
	}

	tables := c.gatherMACTables(ctx)

	topo := &models.Topology{}
	topo.Mappings = c.correlate(triples, hostIPs, tables)
	topo.IPLs = c.discoverIPLs(ctx)
	topo.Findings = findCrossConnections(topo.Mappings)

	c.log.Infow("correlation finished",
		"mappings", len(topo.Mappings),
		"ipls", len(topo.IPLs),
		"findings", len(topo.Findings),
	)
	return topo, nil
}

// representativeNode picks any reachable compute node for the single
// clustered-shell hop. Nodes whose management address resolved to the
// unknown sentinel are not dialable and are skipped.
func (c *Correlator) representativeNode() (Node, error) {
	for _, n := range c.nodes {
		if n.Role == models.RoleComputeNode && n.MgmtIP != "" && n.MgmtIP != models.ValueUnknown {
			return n, nil
		}
	}
	return Node{}, fmt.Errorf("no compute node with a management address in inventory")
}

func (c *Correlator) gatherHostIPs(ctx context.Context, hop Node) (map[string]string, error) {
	out, err := c.nodeSSH.Run(ctx, hop.MgmtIP, cmdHostDataIPs)
	if err != nil {
		return nil, srvErrors.NewSSHUnavailableError(hop.MgmtIP, err)
	}
	ips := parseHostDataIPs(out)
	c.log.Debugw("host data IPs gathered", "hosts", len(ips))
	return ips, nil
}

func (c *Correlator) gatherNodeMACs(ctx context.Context, hop Node) ([]nodeMAC, error) {
	out, err := c.nodeSSH.Run(ctx, hop.MgmtIP, cmdNodeMACs)
	if err != nil {
		return nil, srvErrors.NewSSHUnavailableError(hop.MgmtIP, err)
	}
	triples := parseNodeMACs(out)
	c.log.Debugw("node MACs gathered", "triples", len(triples))
	return triples, nil
}

// gatherMACTables pulls the MAC table of every switch. A failing switch is
// logged and treated as an empty table.
func (c *Correlator) gatherMACTables(ctx context.Context) map[string]map[string]macEntry {
	tables := make(map[string]map[string]macEntry, len(c.switches))
	for _, sw := range c.switches {
		out, err := c.swSSH.Run(ctx, sw, cmdMACTable)
		if err != nil {
			c.log.Warnw("switch MAC table unavailable", "switch", sw, "error", err)
			tables[sw] = map[string]macEntry{}
			continue
		}
		tables[sw] = parseMACTable(out)
	}
	return tables
}

// correlate looks every (node, interface, MAC) triple up in every switch
// table. The network label comes from which switch the MAC was learned on,
// by sorted switch IP order; interface names only indicate the local port
// slot, so they never decide the label.
func (c *Correlator) correlate(triples []nodeMAC, hostIPs map[string]string, tables map[string]map[string]macEntry) []models.PortMapping {
	ipToHost := make(map[string]string, len(hostIPs))
	for host, ip := range hostIPs {
		ipToHost[ip] = host
	}

	var mappings []models.PortMapping
	for _, t := range triples {
		for i, sw := range c.switches {
			entry, ok := tables[sw][t.MAC]
			if !ok {
				continue
			}
			host := ipToHost[t.NodeIP]
			mappings = append(mappings, models.PortMapping{
				NodeIP:      t.NodeIP,
				NodeName:    host,
				Designation: designationFor(host),
				Interface:   t.Interface,
				MAC:         t.MAC,
				SwitchIP:    sw,
				SwitchPort:  entry.Port,
				VLAN:        entry.VLAN,
				Network:     networkForSwitchIndex(i),
			})
		}
	}
	return mappings
}

func networkForSwitchIndex(i int) models.NetworkLabel {
	switch i {
	case 0:
		return models.NetworkA
	case 1:
		return models.NetworkB
	default:
		return models.NetworkUnknown
	}
}

// discoverIPLs queries the fixed candidate uplink ports of every switch for
// LLDP neighbors. A link reported by both sides collapses into one record,
// keyed by the unordered switch pair plus port.
func (c *Correlator) discoverIPLs(ctx context.Context) []models.IPLConnection {
	seen := make(map[string]bool)
	var ipls []models.IPLConnection
	for _, sw := range c.switches {
		for _, port := range iplCandidatePorts {
			out, err := c.swSSH.Run(ctx, sw, cmdLLDPPrefix+port)
			if err != nil {
				c.log.Warnw("LLDP query failed", "switch", sw, "port", port, "error", err)
				continue
			}
			neighbor := parseLLDPNeighbor(out)
			if neighbor == nil || !util.Contains(c.switches, neighbor.PeerIP) || neighbor.PeerIP == sw {
				continue
			}

			a, b := sw, neighbor.PeerIP
			if a > b {
				a, b = b, a
			}
			key := a + "|" + b + "|" + port
			if seen[key] {
				continue
			}
			seen[key] = true
			ipls = append(ipls, models.IPLConnection{
				SwitchA: a,
				PortA:   port,
				SwitchB: b,
				PortB:   neighbor.PeerPort,
			})
		}
	}
	return ipls
}

// ifaceNetworkRe reads the local port slot out of an interface name; the
// trailing index encodes the intended side (even slots cable to network A,
// odd slots to network B).
var ifaceNetworkRe = regexp.MustCompile(`(\d+)$`)

func expectedNetworkForInterface(iface string) models.NetworkLabel {
	m := ifaceNetworkRe.FindStringSubmatch(iface)
	if m == nil {
		return models.NetworkUnknown
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return models.NetworkUnknown
	}
	if n%2 == 0 {
		return models.NetworkA
	}
	return models.NetworkB
}

// findCrossConnections flags mappings whose cabled network differs from the
// one the interface slot was intended for. Diagnostic only, nothing is
// auto-corrected.
func findCrossConnections(mappings []models.PortMapping) []models.CrossConnectionFinding {
	var findings []models.CrossConnectionFinding
	for _, m := range mappings {
		expected := expectedNetworkForInterface(m.Interface)
		if expected == models.NetworkUnknown || expected == m.Network {
			continue
		}
		findings = append(findings, models.CrossConnectionFinding{
			NodeName:  m.NodeName,
			Interface: m.Interface,
			SwitchIP:  m.SwitchIP,
			Port:      m.SwitchPort,
			Actual:    m.Network,
			Expected:  expected,
		})
	}
	return findings
}

// designationFor derives the logical designation (enclosure index, node
// index, side) from the conventional hostname shape, e.g. "cbox2-cn3".
var hostnameRe = regexp.MustCompile(`^[a-z]+(\d+)-[a-z]+(\d+)$`)

func designationFor(hostname string) string {
	m := hostnameRe.FindStringSubmatch(hostname)
	if m == nil {
		return hostname
	}
	nodeIdx, _ := strconv.Atoi(m[2])
	side := "L"
	if nodeIdx%2 == 0 {
		side = "R"
	}
	return fmt.Sprintf("E%s-N%s-%s", m[1], m[2], side)
}
