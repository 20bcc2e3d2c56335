package report

import (
	"fmt"
	"io"
	"time"

	"foodcourt-dashboard/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	OrdersSheet  = "Orders"
	SummarySheet = "Summary"
	ContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var orderHeader = []any{
	"ID", "Queue", "Kios", "Customer", "Status", "Payment", "Items", "Total",
	"Created", "Paid", "Ready", "Completed", "Notes",
}

// FileName is the download name for an export taken at t.
func FileName(t time.Time) string {
	return "orders-" + t.Format("20060102-150405") + ".xlsx"
}

// WriteXLSX writes orders and their summary as a two-sheet workbook.
func WriteXLSX(w io.Writer, orders []models.Order, sum Summary, generatedAt time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", OrdersSheet); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("report: style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 3}) // #,##0
	if err != nil {
		return fmt.Errorf("report: style: %w", err)
	}

	if err := f.SetSheetRow(OrdersSheet, "A1", &orderHeader); err != nil {
		return fmt.Errorf("report: header: %w", err)
	}
	_ = f.SetRowStyle(OrdersSheet, 1, 1, bold)

	for i, o := range orders {
		row := []any{
			o.ID, o.QueueNumber, o.KiosName, o.CustomerName, string(o.Status), string(o.PaymentMethod),
			itemCount(o), o.TotalAmount,
			stamp(&o.CreatedAt), stamp(o.PaidAt), stamp(o.ReadyAt), stamp(o.CompletedAt), o.Notes,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(OrdersSheet, cell, &row); err != nil {
			return fmt.Errorf("report: row %d: %w", i+2, err)
		}
	}
	if len(orders) > 0 {
		_ = f.SetCellStyle(OrdersSheet, "H2", fmt.Sprintf("H%d", len(orders)+1), money)
	}
	_ = f.SetColWidth(OrdersSheet, "B", "D", 18)
	_ = f.SetColWidth(OrdersSheet, "I", "L", 20)

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	rows := [][]any{
		{"Generated", generatedAt.Format(time.DateTime)},
		{"Orders", sum.Total},
		{"Revenue", sum.Revenue},
		{"In progress", sum.InProgress},
		{"Completed today", sum.CompletedToday},
	}
	for _, st := range models.OrderStatuses {
		rows = append(rows, []any{"Status " + string(st), sum.ByStatus[st]})
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SummarySheet, cell, &r); err != nil {
			return fmt.Errorf("report: summary row %d: %w", i+1, err)
		}
	}
	_ = f.SetCellStyle(SummarySheet, "A1", fmt.Sprintf("A%d", len(rows)), bold)
	_ = f.SetCellStyle(SummarySheet, "B3", "B3", money)
	_ = f.SetColWidth(SummarySheet, "A", "A", 20)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("report: write: %w", err)
	}
	return nil
}

func itemCount(o models.Order) int {
	n := 0
	for _, it := range o.OrderItems {
		n += it.Quantity
	}
	return n
}

func stamp(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(time.DateTime)
}
