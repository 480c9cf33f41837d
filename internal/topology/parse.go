package topology

import (
	"bufio"
	"regexp"
	"strings"

	"github.com/sanops/asbuilt/internal/util"
)

// Remote commands. The clustered-shell ones run once on a single reachable
// compute node and fan out to every cluster member; the switch ones run once
// per switch against the vendor CLI.
const (
	cmdHostDataIPs = `clush -a ip -o -4 addr show data0`
	cmdNodeMACs    = `clush -a 'echo "$(hostname -i):"; ip -o link show | sed "s/^/  /"'`
	cmdMACTable    = `show mac address-table`
	cmdLLDPPrefix  = `show lldp neighbors interface `
)

// hostDataIPRe matches one clustered-shell line of `ip -o -4 addr show`:
//
//	cn-1: 4: data0    inet 192.168.1.11/24 brd ... scope global data0
var hostDataIPRe = regexp.MustCompile(`^(\S+?):\s+\d+:\s+\S+\s+inet\s+(\d+\.\d+\.\d+\.\d+)/`)

// parseHostDataIPs maps hostname to data-plane IP, line by line. Lines that
// do not match the fixed shape are skipped, never fatal.
func parseHostDataIPs(output string) map[string]string {
	ips := make(map[string]string)
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		if m := hostDataIPRe.FindStringSubmatch(scanner.Text()); m != nil {
			ips[m[1]] = m[2]
		}
	}
	return ips
}

// nodeMAC is one (node, interface, MAC) triple from the cluster-wide
// interface listing.
type nodeMAC struct {
	NodeIP    string
	Interface string
	MAC       string
}

// macParseState names the two states of the interface-listing parser: a
// node-IP header line opens a context, indented lines under it belong to
// that node until the next header.
type macParseState int

const (
	awaitingNodeHeader macParseState = iota
	awaitingMACLine
)

var (
	nodeHeaderRe = regexp.MustCompile(`^(\d+\.\d+\.\d+\.\d+):\s*$`)
	macLineRe    = regexp.MustCompile(`^\s+\d+:\s+(\S+?)[:@].*link/ether\s+([0-9A-Fa-f:]+)`)
)

// parseNodeMACs walks the clustered interface listing with an explicit state
// machine. Loopbacks and lines without a link/ether are ignored; a malformed
// block only loses its own lines.
func parseNodeMACs(output string) []nodeMAC {
	var (
		triples []nodeMAC
		state   = awaitingNodeHeader
		node    string
	)

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()

		if m := nodeHeaderRe.FindStringSubmatch(line); m != nil {
			node = m[1]
			state = awaitingMACLine
			continue
		}

		if state != awaitingMACLine {
			continue
		}
		m := macLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		mac := util.NormalizeMAC(m[2])
		if mac == "" {
			continue
		}
		triples = append(triples, nodeMAC{NodeIP: node, Interface: m[1], MAC: mac})
	}
	return triples
}

// macEntry is one learned address on a switch.
type macEntry struct {
	Port string
	VLAN string
}

// parseMACTable turns a vendor `show mac address-table` dump into
// MAC → {port, VLAN}. Expected row shape:
//
//	* 100    aabb.ccdd.ee01   dynamic   0   F   F   Eth1/3
//
// Header rows, separators and anything else unparsable are skipped.
func parseMACTable(output string) map[string]macEntry {
	table := make(map[string]macEntry)
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 {
			continue
		}
		if fields[0] == "*" || fields[0] == "+" {
			fields = fields[1:]
		}
		if len(fields) < 3 {
			continue
		}
		mac := util.NormalizeMAC(fields[1])
		if mac == "" {
			continue
		}
		table[mac] = macEntry{
			VLAN: fields[0],
			Port: fields[len(fields)-1],
		}
	}
	return table
}

// lldpNeighbor is the peer reported on one local port.
type lldpNeighbor struct {
	PeerIP   string
	PeerPort string
}

var (
	lldpMgmtRe = regexp.MustCompile(`(?i)^\s*Management Address:\s+(\d+\.\d+\.\d+\.\d+)`)
	lldpPortRe = regexp.MustCompile(`(?i)^\s*Port id:\s+(\S+)`)
)

// parseLLDPNeighbor extracts the peer management address and port id from a
// per-interface LLDP detail dump. Returns nil when either is absent.
func parseLLDPNeighbor(output string) *lldpNeighbor {
	var n lldpNeighbor
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		if m := lldpMgmtRe.FindStringSubmatch(line); m != nil {
			n.PeerIP = m[1]
		}
		if m := lldpPortRe.FindStringSubmatch(line); m != nil {
			n.PeerPort = m[1]
		}
	}
	if n.PeerIP == "" || n.PeerPort == "" {
		return nil
	}
	return &n
}
