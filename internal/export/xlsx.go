package export

import (
	"fmt"
	"io"
	"time"

	"cleanbook/internal/models"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Bookings"

var headers = []string{
	"ID", "Created", "Status", "Service", "Quantity", "Price",
	"Customer", "Email", "Phone", "Service date", "Notes",
}

var statusFill = map[models.BookingStatus]string{
	models.StatusPending:   "#FFF2CC",
	models.StatusConfirmed: "#DDEBF7",
	models.StatusCompleted: "#E2EFDA",
	models.StatusCancelled: "#F8CBAD",
}

// WriteBookings renders bookings as a single-sheet workbook, one row each,
// in the order given.
func WriteBookings(w io.Writer, bookings []models.Booking) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("error renaming sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9D9D9"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("error creating header style: %w", err)
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, h)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	_ = f.SetCellStyle(sheetName, "A1", lastCol+"1", headerStyle)

	statusStyles := make(map[models.BookingStatus]int, len(statusFill))
	for status, color := range statusFill {
		id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
		if err != nil {
			return fmt.Errorf("error creating status style: %w", err)
		}
		statusStyles[status] = id
	}

	for i, b := range bookings {
		row := i + 2
		values := []any{
			b.ID,
			b.CreatedAt.UTC().Format(time.RFC3339),
			string(b.Status),
			b.ServiceType,
			b.Quantity,
			b.Price,
			b.CustomerName,
			b.CustomerEmail,
			b.CustomerPhone,
			deref(b.ServiceDate),
			deref(b.Notes),
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("error writing row %d: %w", row, err)
		}

		if style, ok := statusStyles[b.Status]; ok {
			statusCell, _ := excelize.CoordinatesToCellName(3, row)
			_ = f.SetCellStyle(sheetName, statusCell, statusCell, style)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 8)
	_ = f.SetColWidth(sheetName, "B", "C", 22)
	_ = f.SetColWidth(sheetName, "D", lastCol, 20)
	_ = f.SetPanes(sheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}

// FileName is the download name for an export produced at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("bookings_%s.xlsx", t.UTC().Format("2006-01-02_150405"))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
