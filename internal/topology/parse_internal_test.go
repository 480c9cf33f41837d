package topology

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("parseHostDataIPs", func() {
	It("should map hostnames to data-plane IPs and skip noise", func() {
		out := `cbox1-cn1: 4: data0    inet 192.168.1.11/24 brd 192.168.1.255 scope global data0
cbox1-cn2: 4: data0    inet 192.168.1.12/24 brd 192.168.1.255 scope global data0
cbox1-cn3: clush: command timed out
dbox1-dn1: 4: data0    inet 192.168.1.21/24 brd 192.168.1.255 scope global data0`

		ips := parseHostDataIPs(out)
		Expect(ips).To(HaveLen(3))
		Expect(ips["cbox1-cn1"]).To(Equal("192.168.1.11"))
		Expect(ips["dbox1-dn1"]).To(Equal("192.168.1.21"))
		Expect(ips).NotTo(HaveKey("cbox1-cn3"))
	})
})

var _ = Describe("parseNodeMACs", func() {
	It("should attribute indented interface lines to the current node header", func() {
		out := `192.168.1.11:
  1: lo: <LOOPBACK,UP> mtu 65536 qdisc noqueue state UNKNOWN mode DEFAULT group default qlen 1000\    link/loopback 00:00:00:00:00:00 brd 00:00:00:00:00:00
  2: eth0: <BROADCAST,MULTICAST,UP> mtu 9000 qdisc mq state UP mode DEFAULT group default qlen 1000\    link/ether AA:BB:CC:DD:EE:01 brd ff:ff:ff:ff:ff:ff
  3: eth1: <BROADCAST,MULTICAST,UP> mtu 9000 qdisc mq state UP mode DEFAULT group default qlen 1000\    link/ether aa:bb:cc:dd:ee:02 brd ff:ff:ff:ff:ff:ff
192.168.1.12:
  2: eth0: <BROADCAST,MULTICAST,UP> mtu 9000 qdisc mq state UP mode DEFAULT group default qlen 1000\    link/ether aa:bb:cc:dd:ee:03 brd ff:ff:ff:ff:ff:ff`

		triples := parseNodeMACs(out)
		Expect(triples).To(HaveLen(3))
		Expect(triples[0]).To(Equal(nodeMAC{NodeIP: "192.168.1.11", Interface: "eth0", MAC: "aa:bb:cc:dd:ee:01"}))
		Expect(triples[1]).To(Equal(nodeMAC{NodeIP: "192.168.1.11", Interface: "eth1", MAC: "aa:bb:cc:dd:ee:02"}))
		Expect(triples[2]).To(Equal(nodeMAC{NodeIP: "192.168.1.12", Interface: "eth0", MAC: "aa:bb:cc:dd:ee:03"}))
	})

	It("should ignore interface lines before the first node header", func() {
		out := `  2: eth0: <UP> mtu 9000 state UP\    link/ether aa:bb:cc:dd:ee:99 brd ff:ff:ff:ff:ff:ff
192.168.1.11:
  2: eth0: <UP> mtu 9000 state UP\    link/ether aa:bb:cc:dd:ee:01 brd ff:ff:ff:ff:ff:ff`

		triples := parseNodeMACs(out)
		Expect(triples).To(HaveLen(1))
		Expect(triples[0].NodeIP).To(Equal("192.168.1.11"))
	})
})

var _ = Describe("parseMACTable", func() {
	It("should parse table rows and skip headers and separators", func() {
		out := `Legend:
        * - primary entry, G - Gateway MAC, (R) - Routed MAC
   VLAN     MAC Address      Type      age     Secure NTFY Ports
---------+-----------------+--------+---------+------+----+------------------
*  100     aabb.ccdd.ee01   dynamic   0         F      F    Eth1/3
*  100     aabb.ccdd.ee02   dynamic   0         F      F    Eth1/4
+  200     AABB.CCDD.EE03   static    -         F      F    Eth1/7`

		table := parseMACTable(out)
		Expect(table).To(HaveLen(3))
		Expect(table["aa:bb:cc:dd:ee:01"]).To(Equal(macEntry{Port: "Eth1/3", VLAN: "100"}))
		Expect(table["aa:bb:cc:dd:ee:03"]).To(Equal(macEntry{Port: "Eth1/7", VLAN: "200"}))
	})
})

var _ = Describe("parseLLDPNeighbor", func() {
	It("should extract the peer management address and port id", func() {
		out := `Chassis id: aabb.ccdd.0001
Port id: Eth1/31
Local Port id: Eth1/31
Port Description: inter-peer link
System Name: switch-b
Management Address: 10.100.2.2`

		n := parseLLDPNeighbor(out)
		Expect(n).NotTo(BeNil())
		Expect(n.PeerIP).To(Equal("10.100.2.2"))
		Expect(n.PeerPort).To(Equal("Eth1/31"))
	})

	It("should return nil when no neighbor is present", func() {
		Expect(parseLLDPNeighbor("Total entries displayed: 0")).To(BeNil())
	})
})
