package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jordanlanch/realtycrm/pkg/models"
)

// ContentType is the MIME type of the generated workbook
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const summarySheet = "Summary"

var headers = map[string][]string{
	"lead":     {"ID", "Name", "Email", "Phone", "Source", "Score", "Budget", "Budget Max", "Assigned To", "Created At"},
	"property": {"ID", "Title", "Address", "City", "Type", "Price", "Bedrooms", "Bathrooms", "Square Feet", "Created At"},
	"deal":     {"ID", "Lead ID", "Property ID", "Deal Value", "Offer Amount", "Commission", "Expected Close", "Assigned To", "Created At"},
}

// Filename returns the download name of a board export
func Filename(kind string, at time.Time) string {
	return fmt.Sprintf("%s-pipeline-%s.xlsx", kind, at.UTC().Format("20060102-1504"))
}

// WriteBoard renders a pipeline board as a workbook: a summary sheet with
// the count per column, then one sheet per column in board order.
func WriteBoard(w io.Writer, board models.BoardResponse) error {
	cols, ok := headers[board.Kind]
	if !ok {
		return fmt.Errorf("unsupported board kind %q", board.Kind)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	if err := writeHeader(f, summarySheet, []string{"Column", "Status", "Count"}, headerStyle); err != nil {
		return err
	}
	for i, col := range board.Columns {
		row := []any{col.Label, col.ID, col.Count}
		if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return fmt.Errorf("failed to write summary row: %w", err)
		}
	}
	f.SetColWidth(summarySheet, "A", "C", 18)

	for _, col := range board.Columns {
		sheet := sheetName(col.Label)
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
		}
		if err := writeHeader(f, sheet, cols, headerStyle); err != nil {
			return err
		}
		for i, item := range col.Items {
			row, err := itemRow(item)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
				return fmt.Errorf("failed to write row: %w", err)
			}
		}
		last, _ := excelize.ColumnNumberToName(len(cols))
		f.SetColWidth(sheet, "A", last, 16)
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, cols []string, style int) error {
	row := make([]any, len(cols))
	for i, c := range cols {
		row[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &row); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(cols), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, style)
}

// sheetName strips the characters Excel rejects and caps the length at 31
func sheetName(label string) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '-'
		}
		return r
	}, label)
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}

func itemRow(item any) ([]any, error) {
	switch v := item.(type) {
	case models.Lead:
		return leadRow(&v), nil
	case *models.Lead:
		return leadRow(v), nil
	case models.Property:
		return propertyRow(&v), nil
	case *models.Property:
		return propertyRow(v), nil
	case models.Deal:
		return dealRow(&v), nil
	case *models.Deal:
		return dealRow(v), nil
	default:
		return nil, fmt.Errorf("unsupported board item %T", item)
	}
}

func leadRow(l *models.Lead) []any {
	return []any{l.ID, l.FullName(), l.Email, l.Phone, l.Source, l.Score, l.Budget, l.BudgetMax, l.AssignedTo, l.CreatedAt}
}

func propertyRow(p *models.Property) []any {
	return []any{p.ID, p.Title, p.Address, p.City, p.PropertyType, p.Price, p.Bedrooms, p.Bathrooms, p.SquareFeet, p.CreatedAt}
}

func dealRow(d *models.Deal) []any {
	var closeDate any
	if d.ExpectedCloseDate != nil {
		closeDate = *d.ExpectedCloseDate
	}
	return []any{d.ID, d.LeadID, d.PropertyID, d.DealValue, d.OfferAmount, d.Commission, closeDate, d.AssignedTo, d.CreatedAt}
}
