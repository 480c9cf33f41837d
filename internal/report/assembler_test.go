package report_test

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/xuri/excelize/v2"

	"github.com/sanops/asbuilt/internal/models"
	"github.com/sanops/asbuilt/internal/report"
	"github.com/sanops/asbuilt/pkg/scheduler"
)

func sampleInventory() *models.Inventory {
	return &models.Inventory{
		Capability: models.NewClusterCapability(7, "5.3.0"),
		Cluster: models.ClusterIdentity{
			Name: "grid-01", UUID: "c3a1", Model: "GX-4400", Serial: "PSNT001",
			Firmware: "5.3.0", State: "healthy", NodeCnt: 3,
		},
		Hardware: []models.HardwareRecord{
			{
				ID: "cn-1", Role: models.RoleComputeNode, Name: "cn-1", Model: "CN",
				Serial: "SN1", Status: "ok", Enclosure: "cbox-1", RackUnit: 17,
				MgmtIP: "10.0.0.1", Firmware: "5.3.0", BMCFw: models.ValueUnknown,
			},
			{
				ID: "sn-1", Role: models.RoleStorageNode, Name: "sn-1", Model: "SN",
				Serial: "SN9", Status: "ok", RackUnit: models.RackUnitManualFill,
				MgmtIP: "10.0.1.1", Firmware: "5.3.0",
			},
		},
		Topology: &models.Topology{
			Mappings: []models.PortMapping{
				{
					NodeIP: "10.0.0.1", NodeName: "cn-1", Designation: "E1-N1-L",
					Interface: "eth0", MAC: "aa:bb:cc:00:11:22",
					SwitchIP: "10.9.0.1", SwitchPort: "Eth1/3", VLAN: "100",
					Network: models.NetworkA,
				},
			},
			IPLs: []models.IPLConnection{
				{SwitchA: "10.9.0.1", PortA: "Eth1/31", SwitchB: "10.9.0.2", PortB: "Eth1/31"},
			},
			Findings: []models.CrossConnectionFinding{
				{
					NodeName: "cn-1", Interface: "eth0", SwitchIP: "10.9.0.2",
					Port: "Eth1/4", Actual: models.NetworkB, Expected: models.NetworkA,
				},
			},
		},
		Scores: []models.SectionScore{
			{Section: "cluster", Populated: 6, Expected: 6, Ratio: 1},
			{Section: "compute-nodes", Populated: 5, Expected: 5, Ratio: 1},
		},
		CollectedAt: time.Date(2026, 8, 12, 10, 0, 0, 0, time.UTC),
	}
}

var _ = Describe("Assembler", func() {
	var (
		ctx   context.Context
		dir   string
		sched *scheduler.Scheduler
	)

	BeforeEach(func() {
		ctx = context.Background()
		dir = GinkgoT().TempDir()
		sched = scheduler.NewScheduler(4)
	})

	AfterEach(func() {
		sched.Close()
	})

	It("should write all four artifact kinds", func() {
		// Given a complete inventory
		inv := sampleInventory()

		// When the assembler runs
		paths, err := report.NewAssembler(dir, sched).Write(ctx, inv)

		// Then every artifact exists on disk
		Expect(err).NotTo(HaveOccurred())
		Expect(paths).To(HaveLen(4))
		for _, name := range []string{"asbuilt.json", "asbuilt.xlsx", "asbuilt.pdf", "cluster.csv"} {
			Expect(filepath.Join(dir, name)).To(BeAnExistingFile())
		}
	})

	It("should round-trip the inventory through the JSON artifact", func() {
		inv := sampleInventory()
		_, err := report.NewAssembler(dir, sched).Write(ctx, inv)
		Expect(err).NotTo(HaveOccurred())

		data, err := os.ReadFile(filepath.Join(dir, "asbuilt.json"))
		Expect(err).NotTo(HaveOccurred())

		var got models.Inventory
		Expect(json.Unmarshal(data, &got)).To(Succeed())
		Expect(got.Cluster.Name).To(Equal("grid-01"))
		Expect(got.Capability.RackPositions).To(BeTrue())
		Expect(got.Topology.IPLs).To(HaveLen(1))
	})

	It("should render unknown rack units as the manual-entry sentinel in CSV", func() {
		// Given a storage node whose rack unit could not be collected
		inv := sampleInventory()

		// When the CSV artifacts are written
		_, err := report.NewAssembler(dir, sched).Write(ctx, inv)
		Expect(err).NotTo(HaveOccurred())

		// Then the storage-nodes CSV carries the sentinel, not a number
		f, err := os.Open(filepath.Join(dir, "storage-nodes.csv"))
		Expect(err).NotTo(HaveOccurred())
		defer f.Close()

		rows, err := csv.NewReader(f).ReadAll()
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(2))
		Expect(rows[1]).To(ContainElement(models.ValueManualEntry))

		// And the compute-nodes CSV renders the known unit as U17
		f2, err := os.Open(filepath.Join(dir, "compute-nodes.csv"))
		Expect(err).NotTo(HaveOccurred())
		defer f2.Close()

		rows2, err := csv.NewReader(f2).ReadAll()
		Expect(err).NotTo(HaveOccurred())
		Expect(rows2[1]).To(ContainElement("U17"))
	})

	It("should write header-only CSVs for empty sections", func() {
		inv := sampleInventory()
		_, err := report.NewAssembler(dir, sched).Write(ctx, inv)
		Expect(err).NotTo(HaveOccurred())

		f, err := os.Open(filepath.Join(dir, "storage-trays.csv"))
		Expect(err).NotTo(HaveOccurred())
		defer f.Close()

		rows, err := csv.NewReader(f).ReadAll()
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(1))
	})

	It("should build a workbook with one sheet per section plus topology and completeness", func() {
		inv := sampleInventory()
		_, err := report.NewAssembler(dir, sched).Write(ctx, inv)
		Expect(err).NotTo(HaveOccurred())

		wb, err := excelize.OpenFile(filepath.Join(dir, "asbuilt.xlsx"))
		Expect(err).NotTo(HaveOccurred())
		defer wb.Close()

		sheets := wb.GetSheetList()
		Expect(sheets).To(ContainElements("Cluster", "Compute Nodes", "Storage Nodes", "Topology", "Completeness"))
		Expect(sheets).NotTo(ContainElement("Sheet1"))

		// Sheet rows carry the source endpoint footer for manual re-pulls
		rows, err := wb.GetRows("Compute Nodes")
		Expect(err).NotTo(HaveOccurred())
		Expect(rows[len(rows)-1][0]).To(Equal("Source: GET /api/v7/compute/nodes"))
	})

	It("should skip topology artifacts when correlation did not run", func() {
		inv := sampleInventory()
		inv.Topology = nil

		_, err := report.NewAssembler(dir, sched).Write(ctx, inv)
		Expect(err).NotTo(HaveOccurred())

		Expect(filepath.Join(dir, "port-mappings.csv")).NotTo(BeAnExistingFile())

		wb, err := excelize.OpenFile(filepath.Join(dir, "asbuilt.xlsx"))
		Expect(err).NotTo(HaveOccurred())
		defer wb.Close()
		Expect(wb.GetSheetList()).NotTo(ContainElement("Topology"))
	})

	It("should produce a parsable PDF summary", func() {
		inv := sampleInventory()
		_, err := report.NewAssembler(dir, sched).Write(ctx, inv)
		Expect(err).NotTo(HaveOccurred())

		data, err := os.ReadFile(filepath.Join(dir, "asbuilt.pdf"))
		Expect(err).NotTo(HaveOccurred())
		Expect(len(data)).To(BeNumerically(">", 500))
		Expect(string(data[:5])).To(Equal("%PDF-"))
	})

	It("should fail the assembly when the output directory is not writable", func() {
		inv := sampleInventory()
		blocked := filepath.Join(dir, "blocked")
		Expect(os.WriteFile(blocked, []byte("not a dir"), 0o644)).To(Succeed())

		_, err := report.NewAssembler(blocked, sched).Write(ctx, inv)
		Expect(err).To(HaveOccurred())
	})
})
