package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/sanops/asbuilt/internal/models"
)

// Hardware roles in render order, shared by the CSV and workbook writers.
var hardwareSheets = []struct {
	title string
	file  string
	role  models.HardwareRole
}{
	{"Compute Nodes", "compute-nodes.csv", models.RoleComputeNode},
	{"Storage Nodes", "storage-nodes.csv", models.RoleStorageNode},
	{"Compute Enclosures", "compute-enclosures.csv", models.RoleComputeEnclosure},
	{"Storage Enclosures", "storage-enclosures.csv", models.RoleStorageEnclosure},
	{"Storage Trays", "storage-trays.csv", models.RoleStorageTray},
}

var hardwareHeader = []string{
	"Name", "Model", "Serial", "Status", "Enclosure", "Rack Unit",
	"Mgmt IP", "Data IP", "BMC IP", "Firmware", "BMC Firmware",
}

func hardwareRow(r models.HardwareRecord) []string {
	return []string{
		r.Name, r.Model, r.Serial, r.Status, r.Enclosure, rackUnitCell(r.RackUnit),
		r.MgmtIP, r.DataIP, r.BMCIP, r.Firmware, r.BMCFw,
	}
}

var clusterHeader = []string{
	"Name", "UUID", "Model", "Serial", "Firmware", "State", "Node Count", "API Revision",
}

func clusterRow(inv *models.Inventory) []string {
	c := inv.Cluster
	return []string{
		c.Name, c.UUID, c.Model, c.Serial, c.Firmware, c.State,
		fmt.Sprintf("%d", c.NodeCnt), inv.Capability.Revision.String(),
	}
}

var portMappingHeader = []string{
	"Node", "Designation", "Interface", "MAC", "Switch IP", "Switch Port", "VLAN", "Network",
}

func portMappingRow(m models.PortMapping) []string {
	return []string{
		m.NodeName, m.Designation, m.Interface, m.MAC,
		m.SwitchIP, m.SwitchPort, m.VLAN, string(m.Network),
	}
}

// writeCSVs emits one file per logical section. Sections with no records
// still get a file with just the header row so the artifact set is stable
// across clusters.
func writeCSVs(_ context.Context, dir string, inv *models.Inventory) (string, error) {
	if err := writeCSVFile(dir, "cluster.csv", clusterHeader, [][]string{clusterRow(inv)}); err != nil {
		return "", err
	}

	for _, sheet := range hardwareSheets {
		var rows [][]string
		for _, r := range inv.RecordsByRole(sheet.role) {
			rows = append(rows, hardwareRow(r))
		}
		if err := writeCSVFile(dir, sheet.file, hardwareHeader, rows); err != nil {
			return "", err
		}
	}

	if inv.Topology != nil {
		var rows [][]string
		for _, m := range inv.Topology.Mappings {
			rows = append(rows, portMappingRow(m))
		}
		if err := writeCSVFile(dir, "port-mappings.csv", portMappingHeader, rows); err != nil {
			return "", err
		}
	}

	return dir, nil
}

func writeCSVFile(dir, name string, header []string, rows [][]string) error {
	f, err := os.Create(artifactPath(dir, name))
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}
