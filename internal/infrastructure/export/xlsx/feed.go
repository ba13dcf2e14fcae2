package xlsx

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/paperbox/internal/core/domain"
)

const sheetName = "Reminders"

var header = []any{"Created", "Due on", "Type", "Priority", "Read", "Document", "Category", "Message"}

// WriteFeed renders the owner's notification list as a single-sheet workbook.
func WriteFeed(w io.Writer, notifications []domain.Notification) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return fmt.Errorf("open stream writer: %w", err)
	}
	if err := sw.SetColWidth(1, 2, 14); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := sw.SetColWidth(6, 6, 28); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := sw.SetColWidth(8, 8, 72); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, n := range notifications {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := sw.SetRow(cell, row(n)); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush stream writer: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func row(n domain.Notification) []any {
	title, category := "", ""
	if n.Document != nil {
		title = n.Document.Title
		category = string(n.Document.Category)
	}
	read := "no"
	if n.Read {
		read = "yes"
	}
	return []any{
		n.CreatedAt.UTC().Format("2006-01-02 15:04"),
		n.DueOn.Format(domain.DateLayout),
		string(n.Type),
		n.Priority,
		read,
		title,
		category,
		n.Message,
	}
}

// Exporter adapts WriteFeed to the feed export port.
type Exporter struct{}

func NewExporter() Exporter {
	return Exporter{}
}

func (Exporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (Exporter) FileExtension() string {
	return "xlsx"
}

func (Exporter) WriteFeed(w io.Writer, notifications []domain.Notification) error {
	return WriteFeed(w, notifications)
}
