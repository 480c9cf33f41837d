package collect_test

import (
	"context"
	"encoding/json"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sanops/asbuilt/internal/collect"
	"github.com/sanops/asbuilt/internal/models"
	"github.com/sanops/asbuilt/pkg/gridapi"
)

// fakeAPI serves canned payloads per endpoint path; absent paths behave like
// 404s from the real client.
type fakeAPI struct {
	payloads map[string]string
	failing  map[string]error
}

func (f *fakeAPI) GetJSON(_ context.Context, path string, out any) (bool, error) {
	if err, ok := f.failing[path]; ok {
		return false, err
	}
	raw, ok := f.payloads[path]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return true, err
	}
	return true, nil
}

var _ = Describe("Collector", func() {
	var (
		ctx context.Context
		api *fakeAPI
	)

	clusterPayload := `{
		"name": "grid-01", "uuid": "c3a1", "model": "GX-4400",
		"psnt": "PSNT001", "sw_version": "5.3.0", "state": "healthy", "node_count": 3
	}`

	BeforeEach(func() {
		ctx = context.Background()
		api = &fakeAPI{
			payloads: map[string]string{
				gridapi.EndpointClusterSelf: clusterPayload,
				gridapi.EndpointComputeEnclosures: `[
					{"id": "cbox-1", "name": "cbox-1", "model": "CBOX", "serial_number": "CB001", "status": "ok", "rack_u": "U20"}
				]`,
				gridapi.EndpointComputeNodes: `[
					{"id": "cn-1", "name": "cn-1", "model": "CN", "serial_number": "SN1", "status": "ok", "rack_u": "U17", "mgmt_ip": "10.0.0.1"},
					{"id": "cn-2", "name": "cn-2", "model": "CN", "sn": "SN2", "state": "ok", "position": "18", "ip": "10.0.0.2"}
				]`,
				gridapi.EndpointStorageNodes: `[
					{"id": "dn-1", "name": "dn-1", "model": "DN", "serial_number": "SN3", "status": "ok", "rack_u": "U21", "mgmt_ip": "10.0.0.3"}
				]`,
			},
		}
	})

	newInventory := func(firmware string) *models.Inventory {
		cap := models.NewClusterCapability(7, firmware)
		inv, err := collect.New(api, cap).CollectAll(ctx)
		Expect(err).NotTo(HaveOccurred())
		return inv
	}

	// Given a v7 cluster on firmware 5.3.0 with explicit rack-unit fields
	// When the full collection runs
	// Then every record carries a real rack position and no section has gaps
	It("should populate rack positions when the capability allows it", func() {
		inv := newInventory("5.3.0")

		nodes := append(
			inv.RecordsByRole(models.RoleComputeNode),
			inv.RecordsByRole(models.RoleStorageNode)...,
		)
		Expect(nodes).To(HaveLen(3))
		for _, rec := range nodes {
			Expect(rec.RackUnit).NotTo(Equal(models.RackUnitManualFill), rec.ID)
		}

		for _, score := range inv.Scores {
			Expect(score.Ratio).To(BeNumerically("==", 1), score.Section)
		}
		Expect(inv.Completeness()).To(BeNumerically("==", 1))
	})

	// Given the same payloads but firmware 5.1.0, below the feature threshold
	// When the full collection runs
	// Then the capability gate wins over payload presence: rack positions and
	// the product serial resolve to the manual-entry sentinels
	It("should ignore payload rack positions when the capability gates them", func() {
		inv := newInventory("5.1.0")

		Expect(inv.Capability.RackPositions).To(BeFalse())
		Expect(inv.Capability.SerialTracking).To(BeFalse())

		for _, rec := range inv.Hardware {
			Expect(rec.RackUnit).To(Equal(models.RackUnitManualFill), rec.ID)
		}
		Expect(inv.Cluster.Serial).To(Equal(models.ValueManualEntry))
	})

	// Given a node without its own rack position but an enclosure with one
	// When the collection runs
	// Then the node inherits the enclosure position
	It("should enrich node rack positions from the owning enclosure", func() {
		api.payloads[gridapi.EndpointComputeNodes] = `[
			{"id": "cn-1", "name": "cn-1", "model": "CN", "serial_number": "SN1", "status": "ok", "enclosure": "cbox-1", "mgmt_ip": "10.0.0.1"}
		]`

		inv := newInventory("5.3.0")
		nodes := inv.RecordsByRole(models.RoleComputeNode)
		Expect(nodes).To(HaveLen(1))
		Expect(nodes[0].RackUnit).To(Equal(20))
	})

	// Given a revision that does not expose storage trays
	// When the collection runs
	// Then the missing endpoint degrades nothing
	It("should treat missing optional endpoints as normal", func() {
		inv := newInventory("5.3.0")
		Expect(inv.RecordsByRole(models.RoleStorageTray)).To(BeEmpty())
		Expect(inv.Completeness()).To(BeNumerically("==", 1))
	})

	It("should degrade, not abort, when a single section fails", func() {
		api.failing = map[string]error{
			gridapi.EndpointStorageNodes: fmt.Errorf("connection reset"),
		}

		inv := newInventory("5.3.0")
		Expect(inv.RecordsByRole(models.RoleStorageNode)).To(BeEmpty())
		Expect(inv.Completeness()).To(BeNumerically("<", 1))
	})

	It("should keep serial tracking out of expectations on old revisions", func() {
		cap := models.NewClusterCapability(4, "5.3.0")
		inv, err := collect.New(api, cap).CollectAll(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(inv.Cluster.Serial).To(Equal(models.ValueManualEntry))
		Expect(inv.Completeness()).To(BeNumerically("==", 1))
	})
})

var _ = Describe("ParseRackUnit", func() {
	It("should parse the accepted forms and fall back to the sentinel", func() {
		Expect(collect.ParseRackUnit("U17")).To(Equal(17))
		Expect(collect.ParseRackUnit("u17")).To(Equal(17))
		Expect(collect.ParseRackUnit("17")).To(Equal(17))
		Expect(collect.ParseRackUnit(" U3 ")).To(Equal(3))
		Expect(collect.ParseRackUnit("")).To(Equal(models.RackUnitManualFill))
		Expect(collect.ParseRackUnit("U")).To(Equal(models.RackUnitManualFill))
		Expect(collect.ParseRackUnit("top-of-rack")).To(Equal(models.RackUnitManualFill))
		Expect(collect.ParseRackUnit("0")).To(Equal(models.RackUnitManualFill))
		Expect(collect.ParseRackUnit("U99")).To(Equal(models.RackUnitManualFill))
		Expect(collect.ParseRackUnit("-4")).To(Equal(models.RackUnitManualFill))
	})
})
