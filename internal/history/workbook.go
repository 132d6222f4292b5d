package history

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/xuri/excelize/v2"
)

const (
	// AttemptsSheet holds one row per graded submission.
	AttemptsSheet = "History"

	// ResultsSheet holds one row per completed session.
	ResultsSheet = "Results"

	timeLayout = "2006-01-02 15:04:05"
	dateLayout = "2006-01-02"
)

var attemptHeader = []string{"Timestamp", "Student", "Grade", "Topic", "Difficulty", "Question", "Answer", "Verdict"}
var resultHeader = []string{"Date", "Name", "Topic", "Score", "Grade"}

// WorkbookSink appends records to an xlsx workbook on disk.
// The workbook and its sheets are created on first use. Appends are
// serialized; the background writer may call concurrently with the UI.
type WorkbookSink struct {
	mu   sync.Mutex
	path string
}

// NewWorkbookSink creates a sink writing to the workbook at path.
func NewWorkbookSink(path string) *WorkbookSink {
	return &WorkbookSink{path: path}
}

// Append writes one attempt row to the History sheet.
func (w *WorkbookSink) Append(ctx context.Context, rec Record) error {
	row := []any{
		rec.Timestamp.Format(timeLayout),
		rec.Student,
		rec.Grade,
		rec.Topic,
		rec.Tier,
		rec.Question,
		rec.Answer,
		rec.Verdict,
	}
	return w.appendRow(ctx, AttemptsSheet, attemptHeader, row)
}

// AppendResult writes one session summary row to the Results sheet.
func (w *WorkbookSink) AppendResult(ctx context.Context, res Result) error {
	row := []any{
		res.Date.Format(dateLayout),
		res.Student,
		res.Topic,
		fmt.Sprintf("%.0f", res.Score),
		res.Grade,
	}
	return w.appendRow(ctx, ResultsSheet, resultHeader, row)
}

func (w *WorkbookSink) appendRow(ctx context.Context, sheet string, header []string, row []any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	f, created, err := w.open()
	if err != nil {
		return err
	}
	defer f.Close()

	if err := ensureSheet(f, sheet, header, created); err != nil {
		return err
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	next := len(rows) + 1
	for col, val := range row {
		cell, err := excelize.CoordinatesToCellName(col+1, next)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, val); err != nil {
			return fmt.Errorf("set cell %s: %w", cell, err)
		}
	}

	if created {
		return f.SaveAs(w.path)
	}
	return f.Save()
}

// open loads the workbook, creating a fresh one if the file is missing.
func (w *WorkbookSink) open() (f *excelize.File, created bool, err error) {
	f, err = excelize.OpenFile(w.path)
	if err == nil {
		return f, false, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return excelize.NewFile(), true, nil
	}
	return nil, false, fmt.Errorf("open workbook %q: %w", w.path, err)
}

// ensureSheet creates the sheet with its header row if it doesn't exist.
func ensureSheet(f *excelize.File, sheet string, header []string, freshFile bool) error {
	idx, err := f.GetSheetIndex(sheet)
	if err != nil {
		return fmt.Errorf("sheet index: %w", err)
	}
	if idx >= 0 {
		return nil
	}

	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %q: %w", sheet, err)
	}
	for col, name := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return err
		}
	}

	// Drop the default sheet left behind by NewFile.
	if freshFile && sheet != "Sheet1" {
		_ = f.DeleteSheet("Sheet1")
	}

	return nil
}
