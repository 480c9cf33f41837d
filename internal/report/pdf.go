package report

import (
	"context"
	"fmt"

	"github.com/go-pdf/fpdf"

	"github.com/sanops/asbuilt/internal/models"
	"github.com/sanops/asbuilt/internal/util"
)

const pdfArtifactName = "asbuilt.pdf"

// writePDF renders the human-facing summary: cluster identity, per-section
// counts and completeness, and any cabling findings that need review.
func writePDF(_ context.Context, dir string, inv *models.Inventory) (string, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Cluster As-Built Report", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Cluster As-Built Report", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, fmt.Sprintf("Collected %s, API revision %s",
		inv.CollectedAt.Format("2006-01-02 15:04 MST"), inv.Capability.Revision), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdfSection(pdf, "Cluster")
	row := clusterRow(inv)
	for i, label := range clusterHeader {
		pdfKV(pdf, label, row[i])
	}
	pdf.Ln(4)

	pdfSection(pdf, "Hardware")
	for _, sheet := range hardwareSheets {
		count := len(inv.RecordsByRole(sheet.role))
		pdfKV(pdf, sheet.title, fmt.Sprintf("%d", count))
	}
	pdf.Ln(4)

	pdfSection(pdf, "Completeness")
	for _, s := range inv.Scores {
		pdfKV(pdf, s.Section, fmt.Sprintf("%d/%d (%.0f%%)", s.Populated, s.Expected, s.Ratio*100))
	}
	pdfKV(pdf, "Overall", fmt.Sprintf("%v%%", util.Percent(inv.Completeness())))
	pdf.Ln(4)

	if inv.Topology != nil {
		pdfSection(pdf, "Topology")
		pdfKV(pdf, "Port mappings", fmt.Sprintf("%d", len(inv.Topology.Mappings)))
		pdfKV(pdf, "Inter-switch links", fmt.Sprintf("%d", len(inv.Topology.IPLs)))
		if len(inv.Topology.Findings) == 0 {
			pdfKV(pdf, "Cabling findings", "none")
		} else {
			pdf.Ln(2)
			pdf.SetFont("Helvetica", "B", 10)
			pdf.CellFormat(0, 6, fmt.Sprintf("%d cabling findings need review:", len(inv.Topology.Findings)), "", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 9)
			for _, f := range inv.Topology.Findings {
				line := fmt.Sprintf("%s %s landed on network %s via %s %s, expected network %s",
					f.NodeName, f.Interface, f.Actual, f.SwitchIP, f.Port, f.Expected)
				pdf.CellFormat(0, 5, line, "", 1, "L", false, 0, "")
			}
		}
	}

	path := artifactPath(dir, pdfArtifactName)
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", err
	}
	return path, nil
}

func pdfSection(pdf *fpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
}

func pdfKV(pdf *fpdf.Fpdf, label, value string) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(55, 5, label, "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 5, value, "", 1, "L", false, 0, "")
}
