// Package xlsxexport renders invoice records as an XLSX workbook.
package xlsxexport

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"notascan/internal/domain"
)

const sheet = "Invoices"

// columns defines the header row.
var columns = []interface{}{
	"ID",
	"CNPJ",
	"Issue Date",
	"Total Amount",
	"Image Hash",
	"Status",
	"Created At",
	"Updated At",
}

// Write renders the invoices into a single-sheet workbook and writes it to w.
func Write(w io.Writer, invoices []domain.Invoice) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("removing default sheet: %w", err)
	}

	if err := f.SetSheetRow(sheet, "A1", &columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, inv := range invoices {
		row := []interface{}{
			inv.ID,
			strOrEmpty(inv.CNPJ),
			strOrEmpty(inv.IssueDate),
			amountOrEmpty(inv.TotalAmount),
			inv.ImageHash,
			string(inv.Status),
			inv.CreatedAt.Format(time.RFC3339),
			inv.UpdatedAt.Format(time.RFC3339),
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// amountOrEmpty keeps absent amounts as blank cells rather than zeros.
func amountOrEmpty(f *float64) interface{} {
	if f == nil {
		return ""
	}
	return *f
}
