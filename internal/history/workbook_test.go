package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func testRecord(i int) Record {
	return Record{
		Timestamp: time.Date(2026, 3, 14, 10, 30, i, 0, time.UTC),
		Student:   "Anaya",
		Grade:     "Grade 6",
		Topic:     "Fractions",
		Tier:      "Easy",
		Question:  "What is 1/2 + 1/4?",
		Answer:    "3/4",
		Verdict:   "correct",
	}
}

func TestWorkbookSink_CreatesFileWithHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.xlsx")
	sink := NewWorkbookSink(path)

	if err := sink.Append(context.Background(), testRecord(0)); err != nil {
		t.Fatalf("Append: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(AttemptsSheet)
	if err != nil {
		t.Fatalf("read sheet: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 row, got %d rows", len(rows))
	}
	if rows[0][0] != "Timestamp" || rows[0][7] != "Verdict" {
		t.Errorf("unexpected header: %v", rows[0])
	}
	if rows[1][1] != "Anaya" || rows[1][7] != "correct" {
		t.Errorf("unexpected data row: %v", rows[1])
	}

	// NewFile's default sheet must be gone.
	if idx, _ := f.GetSheetIndex("Sheet1"); idx >= 0 {
		t.Error("default Sheet1 should have been removed from a fresh workbook")
	}
}

func TestWorkbookSink_AppendsAcrossReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.xlsx")

	sink := NewWorkbookSink(path)
	for i := 0; i < 3; i++ {
		if err := sink.Append(context.Background(), testRecord(i)); err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}

	// A second sink on the same path keeps appending, not overwriting.
	sink2 := NewWorkbookSink(path)
	if err := sink2.Append(context.Background(), testRecord(3)); err != nil {
		t.Fatalf("Append via second sink: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(AttemptsSheet)
	if err != nil {
		t.Fatalf("read sheet: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("expected header + 4 rows, got %d", len(rows))
	}
}

func TestWorkbookSink_ResultsSheetIsSeparate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.xlsx")
	sink := NewWorkbookSink(path)

	if err := sink.Append(context.Background(), testRecord(0)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := sink.AppendResult(context.Background(), Result{
		Date:    time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		Student: "Anaya",
		Topic:   "Fractions",
		Score:   80,
		Grade:   "Grade 6",
	}); err != nil {
		t.Fatalf("AppendResult: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(ResultsSheet)
	if err != nil {
		t.Fatalf("read results sheet: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 result row, got %d", len(rows))
	}
	if rows[0][1] != "Name" {
		t.Errorf("unexpected results header: %v", rows[0])
	}
	if rows[1][0] != "2026-03-14" || rows[1][3] != "80" {
		t.Errorf("unexpected result row: %v", rows[1])
	}

	// The attempts sheet is untouched by result rows.
	attempts, err := f.GetRows(AttemptsSheet)
	if err != nil {
		t.Fatalf("read attempts sheet: %v", err)
	}
	if len(attempts) != 2 {
		t.Errorf("expected header + 1 attempt row, got %d", len(attempts))
	}
}

func TestWorkbookSink_CancelledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.xlsx")
	sink := NewWorkbookSink(path)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := sink.Append(ctx, testRecord(0)); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
