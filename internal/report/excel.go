package report

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/sanops/asbuilt/internal/models"
	"github.com/sanops/asbuilt/internal/util"
	"github.com/sanops/asbuilt/pkg/gridapi"
)

const workbookArtifactName = "asbuilt.xlsx"

// Source endpoints per sheet, shown in the sheet footer so an operator can
// re-pull the raw data by hand.
var sheetEndpoints = map[string]string{
	"Compute Nodes":      gridapi.EndpointComputeNodes,
	"Storage Nodes":      gridapi.EndpointStorageNodes,
	"Compute Enclosures": gridapi.EndpointComputeEnclosures,
	"Storage Enclosures": gridapi.EndpointStorageEnclosures,
	"Storage Trays":      gridapi.EndpointStorageTrays,
}

// writeWorkbook renders the multi-sheet workbook: one cluster sheet, one
// sheet per hardware section, a topology sheet when correlation ran, and a
// completeness sheet.
func writeWorkbook(_ context.Context, dir string, inv *models.Inventory) (string, error) {
	wb := excelize.NewFile()
	defer wb.Close()

	if err := writeClusterSheet(wb, inv); err != nil {
		return "", err
	}
	for _, sheet := range hardwareSheets {
		var rows [][]string
		for _, r := range inv.RecordsByRole(sheet.role) {
			rows = append(rows, hardwareRow(r))
		}
		if err := writeSheet(wb, sheet.title, hardwareHeader, rows, inv.Capability.Revision); err != nil {
			return "", err
		}
	}
	if inv.Topology != nil {
		if err := writeTopologySheet(wb, inv.Topology); err != nil {
			return "", err
		}
	}
	if err := writeScoreSheet(wb, inv); err != nil {
		return "", err
	}

	// The default sheet excelize creates is superfluous once ours exist.
	if err := wb.DeleteSheet("Sheet1"); err != nil {
		return "", err
	}

	path := artifactPath(dir, workbookArtifactName)
	if err := wb.SaveAs(path); err != nil {
		return "", err
	}
	return path, nil
}

func writeClusterSheet(wb *excelize.File, inv *models.Inventory) error {
	const name = "Cluster"
	if _, err := wb.NewSheet(name); err != nil {
		return err
	}

	row := clusterRow(inv)
	for i, label := range clusterHeader {
		labelCell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		valueCell, err := excelize.CoordinatesToCellName(2, i+1)
		if err != nil {
			return err
		}
		if err := wb.SetCellValue(name, labelCell, label); err != nil {
			return err
		}
		if err := wb.SetCellValue(name, valueCell, row[i]); err != nil {
			return err
		}
	}
	return setSourceFooter(wb, name, len(clusterHeader)+2, gridapi.EndpointClusterSelf, inv.Capability.Revision)
}

func writeSheet(wb *excelize.File, name string, header []string, rows [][]string, rev models.Revision) error {
	if _, err := wb.NewSheet(name); err != nil {
		return err
	}
	if err := setRow(wb, name, 1, header); err != nil {
		return err
	}
	for i, row := range rows {
		if err := setRow(wb, name, i+2, row); err != nil {
			return err
		}
	}
	if endpoint, ok := sheetEndpoints[name]; ok {
		return setSourceFooter(wb, name, len(rows)+3, endpoint, rev)
	}
	return nil
}

func writeTopologySheet(wb *excelize.File, topo *models.Topology) error {
	const name = "Topology"
	if _, err := wb.NewSheet(name); err != nil {
		return err
	}
	if err := setRow(wb, name, 1, portMappingHeader); err != nil {
		return err
	}
	row := 2
	for _, m := range topo.Mappings {
		if err := setRow(wb, name, row, portMappingRow(m)); err != nil {
			return err
		}
		row++
	}

	if len(topo.IPLs) > 0 {
		row++
		if err := setRow(wb, name, row, []string{"Switch A", "Port A", "Switch B", "Port B"}); err != nil {
			return err
		}
		row++
		for _, ipl := range topo.IPLs {
			if err := setRow(wb, name, row, []string{ipl.SwitchA, ipl.PortA, ipl.SwitchB, ipl.PortB}); err != nil {
				return err
			}
			row++
		}
	}

	if len(topo.Findings) > 0 {
		row++
		if err := setRow(wb, name, row, []string{"Node", "Interface", "Switch IP", "Port", "Actual", "Expected"}); err != nil {
			return err
		}
		row++
		for _, f := range topo.Findings {
			cells := []string{f.NodeName, f.Interface, f.SwitchIP, f.Port, string(f.Actual), string(f.Expected)}
			if err := setRow(wb, name, row, cells); err != nil {
				return err
			}
			row++
		}
	}
	return nil
}

func writeScoreSheet(wb *excelize.File, inv *models.Inventory) error {
	const name = "Completeness"
	if _, err := wb.NewSheet(name); err != nil {
		return err
	}
	if err := setRow(wb, name, 1, []string{"Section", "Populated", "Expected", "Ratio"}); err != nil {
		return err
	}
	for i, s := range inv.Scores {
		cells := []string{s.Section, fmt.Sprintf("%d", s.Populated), fmt.Sprintf("%d", s.Expected), fmt.Sprintf("%.2f", s.Ratio)}
		if err := setRow(wb, name, i+2, cells); err != nil {
			return err
		}
	}
	cell, err := excelize.CoordinatesToCellName(1, len(inv.Scores)+3)
	if err != nil {
		return err
	}
	return wb.SetCellValue(name, cell, fmt.Sprintf("Overall: %v%%", util.Percent(inv.Completeness())))
}

func setRow(wb *excelize.File, sheet string, row int, cells []string) error {
	for i, v := range cells {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := wb.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func setSourceFooter(wb *excelize.File, sheet string, row int, endpoint string, rev models.Revision) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return wb.SetCellValue(sheet, cell, fmt.Sprintf("Source: GET /api/%s/%s", rev, endpoint))
}
