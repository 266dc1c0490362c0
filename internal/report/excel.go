// Package report exports availability snapshots to Excel for lot operators.
package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"campark/internal/engine"
	"campark/internal/model"
	"campark/internal/occupancy"
)

// ExcelWriter writes tabular data to Excel format.
type ExcelWriter interface {
	AddSheet(name string) error
	WriteHeader(columns []string) error
	WriteRow(row []interface{}) error
	Save(w io.Writer) error
	SaveToFile(path string) error
}

// ExcelizeWriter implements ExcelWriter using the excelize library.
type ExcelizeWriter struct {
	file         *excelize.File
	currentSheet string
	currentRow   int
}

// NewExcelizeWriter creates a new Excel writer.
func NewExcelizeWriter() *ExcelizeWriter {
	return &ExcelizeWriter{file: excelize.NewFile()}
}

// AddSheet adds a new sheet with the given name.
func (w *ExcelizeWriter) AddSheet(name string) error {
	// Excel caps sheet names at 31 chars.
	if len(name) > 31 {
		name = name[:31]
	}

	if w.currentSheet == "" {
		w.file.SetSheetName("Sheet1", name)
	} else {
		if _, err := w.file.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	w.currentSheet = name
	w.currentRow = 1
	return nil
}

// WriteHeader writes bold column headers to the current sheet.
func (w *ExcelizeWriter) WriteHeader(columns []string) error {
	if w.currentSheet == "" {
		return fmt.Errorf("no active sheet")
	}

	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, w.currentRow)
		if err != nil {
			return err
		}
		if err := w.file.SetCellValue(w.currentSheet, cell, col); err != nil {
			return err
		}
	}

	style, err := w.file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err == nil {
		startCell, _ := excelize.CoordinatesToCellName(1, w.currentRow)
		endCell, _ := excelize.CoordinatesToCellName(len(columns), w.currentRow)
		_ = w.file.SetCellStyle(w.currentSheet, startCell, endCell, style)
	}

	w.currentRow++
	return nil
}

// WriteRow writes a data row to the current sheet.
func (w *ExcelizeWriter) WriteRow(row []interface{}) error {
	if w.currentSheet == "" {
		return fmt.Errorf("no active sheet")
	}

	for i, val := range row {
		cell, err := excelize.CoordinatesToCellName(i+1, w.currentRow)
		if err != nil {
			return err
		}
		if err := w.file.SetCellValue(w.currentSheet, cell, val); err != nil {
			return err
		}
	}

	w.currentRow++
	return nil
}

// Save writes the Excel file to the writer.
func (w *ExcelizeWriter) Save(wr io.Writer) error { return w.file.Write(wr) }

// SaveToFile writes the Excel file to disk.
func (w *ExcelizeWriter) SaveToFile(path string) error { return w.file.SaveAs(path) }

// Close releases resources.
func (w *ExcelizeWriter) Close() error { return w.file.Close() }

// Exporter builds the availability report: one sheet per lot listing every
// generated slot over the engine's day horizon, plus an optional observation
// sheet when an occupancy store is attached.
type Exporter struct {
	engine *engine.Engine
	store  *occupancy.Store // optional
}

// NewExporter creates a report exporter. store may be nil.
func NewExporter(eng *engine.Engine, store *occupancy.Store) *Exporter {
	return &Exporter{engine: eng, store: store}
}

// Export writes the report with the given writer.
func (e *Exporter) Export(ctx context.Context, w ExcelWriter) error {
	for _, lot := range e.engine.Lots() {
		if err := e.exportLot(ctx, w, lot); err != nil {
			return fmt.Errorf("export lot %s: %w", lot.ID, err)
		}
	}
	if e.store != nil {
		if err := e.exportObservations(ctx, w); err != nil {
			return err
		}
	}
	return nil
}

func (e *Exporter) exportLot(ctx context.Context, w ExcelWriter, lot model.Lot) error {
	flow, err := e.engine.StartFlow(ctx, lot.ID, model.VehicleNormal)
	if err != nil {
		return err
	}
	defer e.engine.EndFlow(flow.ID)

	if err := w.AddSheet(lot.Name); err != nil {
		return err
	}
	if err := w.WriteHeader([]string{"Date", "Slot", "Remaining", "Available", "Day available", "Day capacity"}); err != nil {
		return err
	}

	for _, day := range flow.Days {
		if len(day.Slots) == 0 {
			if err := w.WriteRow([]interface{}{day.Date.Format("2006-01-02"), "closed", 0, false, 0, day.Capacity}); err != nil {
				return err
			}
			continue
		}
		for _, slot := range day.Slots {
			if err := w.WriteRow([]interface{}{
				day.Date.Format("2006-01-02"),
				slot.TimeText,
				slot.Remaining,
				slot.Available,
				day.Available,
				day.Capacity,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Exporter) exportObservations(ctx context.Context, w ExcelWriter) error {
	if err := w.AddSheet("Observations"); err != nil {
		return err
	}
	if err := w.WriteHeader([]string{"Lot", "Floor", "Zone", "Remaining", "Observed at"}); err != nil {
		return err
	}
	since := time.Now().AddDate(0, 0, -7)
	for _, lot := range e.engine.Lots() {
		obs, err := e.store.History(ctx, lot.ID, since)
		if err != nil {
			return fmt.Errorf("history for %s: %w", lot.ID, err)
		}
		for _, o := range obs {
			if err := w.WriteRow([]interface{}{o.LotID, o.Floor, o.Zone, o.Remaining, o.ObservedAt.Format(time.RFC3339)}); err != nil {
				return err
			}
		}
	}
	return nil
}
