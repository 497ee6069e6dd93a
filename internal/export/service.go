package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mediread/vault/internal/entity"
	"github.com/mediread/vault/internal/repository"
)

// Service produces XLSX bytes from the stored documents.
type Service struct {
	docs   repository.DocumentStore
	logger *slog.Logger
}

func NewService(docs repository.DocumentStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{docs: docs, logger: logger}
}

// ExportXLSX returns a workbook with three sheets: one row per document,
// one row per medication, and one row per lab result, each carrying its
// source document and date.
func (s *Service) ExportXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	docs, err := s.docs.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}

	f := excelize.NewFile()
	if err := writeDocumentsSheet(f, docs); err != nil {
		return nil, err
	}
	if err := writeMedicationsSheet(f, docs); err != nil {
		return nil, err
	}
	if err := writeLabsSheet(f, docs); err != nil {
		return nil, err
	}
	// excelize seeds the workbook with "Sheet1"
	_ = f.DeleteSheet("Sheet1")
	if idx, _ := f.GetSheetIndex("Documents"); idx != -1 {
		f.SetActiveSheet(idx)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"documents", len(docs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func newSheet(f *excelize.File, name string, headers []string) error {
	if _, err := f.NewSheet(name); err != nil {
		return err
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(name, cell, h); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

func writeDocumentsSheet(f *excelize.File, docs []entity.Document) error {
	const sheet = "Documents"
	if err := newSheet(f, sheet, []string{
		"File Name", "Document Type", "Document Date", "Uploaded At", "Text Length",
	}); err != nil {
		return err
	}
	row := 2
	for _, d := range docs {
		writeRow(f, sheet, row, []any{
			d.FileName,
			string(d.Extracted.DocumentType),
			d.DocumentDate,
			d.UploadedAt,
			len(d.RawText),
		})
		row++
	}
	_ = f.SetColWidth(sheet, "A", "A", 36)
	_ = f.SetColWidth(sheet, "B", "B", 22)
	_ = f.SetColWidth(sheet, "C", "D", 20)
	return nil
}

func writeMedicationsSheet(f *excelize.File, docs []entity.Document) error {
	const sheet = "Medications"
	if err := newSheet(f, sheet, []string{
		"Medicine", "Dosage", "Frequency", "Duration", "Instructions", "Source Document", "Document Date",
	}); err != nil {
		return err
	}
	row := 2
	for _, d := range docs {
		if d.Extracted.DocumentType != entity.DocTypePrescription || d.Extracted.Prescription == nil {
			continue
		}
		for _, m := range d.Extracted.Prescription.Medications {
			writeRow(f, sheet, row, []any{
				deref(m.MedicineName),
				deref(m.Dosage),
				deref(m.Frequency),
				deref(m.Duration),
				deref(m.Instructions),
				d.FileName,
				d.DocumentDate,
			})
			row++
		}
	}
	_ = f.SetColWidth(sheet, "A", "A", 28)
	_ = f.SetColWidth(sheet, "B", "E", 20)
	_ = f.SetColWidth(sheet, "F", "F", 36)
	return nil
}

func writeLabsSheet(f *excelize.File, docs []entity.Document) error {
	const sheet = "Lab Results"
	if err := newSheet(f, sheet, []string{
		"Test", "Value", "Unit", "Reference Range", "Flag", "Source Document", "Document Date",
	}); err != nil {
		return err
	}
	row := 2
	for _, d := range docs {
		if d.Extracted.DocumentType != entity.DocTypeTestReport || d.Extracted.TestReport == nil {
			continue
		}
		for _, t := range d.Extracted.TestReport.TestResults {
			flag := ""
			if t.AbnormalFlag != nil {
				flag = string(*t.AbnormalFlag)
			}
			writeRow(f, sheet, row, []any{
				deref(t.TestName),
				t.Value.String(),
				deref(t.Unit),
				deref(t.ReferenceRange),
				flag,
				d.FileName,
				d.DocumentDate,
			})
			row++
		}
	}
	_ = f.SetColWidth(sheet, "A", "A", 28)
	_ = f.SetColWidth(sheet, "B", "E", 16)
	_ = f.SetColWidth(sheet, "F", "F", 36)
	return nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
