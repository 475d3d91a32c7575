package xlsx

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/mover-verification/internal/core/domain"
	"github.com/kirillkom/mover-verification/internal/core/ports"
)

const (
	reportsSheet = "Rapports"
	checksSheet  = "Contrôles"
)

var _ ports.ReportExporter = (*Exporter)(nil)

// Exporter renders a mover's report history as a workbook: one row per
// report, and the checks of the newest report on a second sheet.
type Exporter struct{}

func NewExporter() *Exporter {
	return &Exporter{}
}

func (e *Exporter) WriteReports(w io.Writer, mover domain.Mover, reports []domain.VerificationReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", reportsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(checksSheet); err != nil {
		return fmt.Errorf("create checks sheet: %w", err)
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := writeRows(f, reportsSheet, header, []any{"Date", "Statut", "Score", "Alertes", "Avertissements"}, reportRows(reports)); err != nil {
		return err
	}

	var checks [][]any
	if len(reports) > 0 {
		checks = checkRows(reports[0])
	}
	if err := writeRows(f, checksSheet, header, []any{"Contrôle", "Résultat", "Sévérité", "Message"}, checks); err != nil {
		return err
	}

	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   fmt.Sprintf("Rapports de vérification - %s", mover.CompanyName),
		Subject: mover.ID,
	}); err != nil {
		return fmt.Errorf("set doc props: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func reportRows(reports []domain.VerificationReport) [][]any {
	rows := make([][]any, 0, len(reports))
	for _, r := range reports {
		alerts := make([]string, 0, len(r.Alerts))
		for _, a := range r.Alerts {
			alerts = append(alerts, a.Message)
		}
		warnings := make([]string, 0, len(r.ExpirationWarnings))
		for _, w := range r.ExpirationWarnings {
			warnings = append(warnings, w.Message)
		}
		rows = append(rows, []any{
			r.CreatedAt.UTC().Format("2006-01-02 15:04"),
			string(r.OverallStatus),
			r.Score,
			strings.Join(alerts, "\n"),
			strings.Join(warnings, "\n"),
		})
	}
	return rows
}

func checkRows(report domain.VerificationReport) [][]any {
	rows := make([][]any, 0, len(report.Checks))
	for _, c := range report.Checks {
		result := "OK"
		if !c.Passed {
			result = "Échec"
		}
		rows = append(rows, []any{string(c.Type), result, string(c.Severity), c.Message})
	}
	return rows
}

func writeRows(f *excelize.File, sheet string, headerStyle int, header []any, rows [][]any) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return fmt.Errorf("header range: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("row cell: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}
