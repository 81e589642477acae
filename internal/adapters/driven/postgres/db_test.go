package postgres

import (
	"database/sql"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/custodia-labs/lectern/internal/core/domain"
)

// fakeRow assigns values positionally, converting to the destination type.
type fakeRow struct {
	values []any
	err    error
}

func (f fakeRow) Scan(dest ...any) error {
	if f.err != nil {
		return f.err
	}
	if len(dest) != len(f.values) {
		return errors.New("column count mismatch")
	}
	for i, d := range dest {
		target := reflect.ValueOf(d).Elem()
		target.Set(reflect.ValueOf(f.values[i]).Convert(target.Type()))
	}
	return nil
}

func TestNullTime(t *testing.T) {
	if NullTime(nil).Valid {
		t.Error("expected invalid NullTime for nil")
	}

	now := time.Now()
	nt := NullTime(&now)
	if !nt.Valid || !nt.Time.Equal(now) {
		t.Errorf("unexpected NullTime %+v", nt)
	}

	if TimePtr(sql.NullTime{}) != nil {
		t.Error("expected nil pointer for invalid NullTime")
	}
	p := TimePtr(nt)
	if p == nil || !p.Equal(now) {
		t.Errorf("unexpected pointer %v", p)
	}
	if &nt.Time == p {
		t.Error("expected TimePtr to copy the value")
	}
}

func TestMarshalChunks(t *testing.T) {
	data, err := marshalChunks(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("expected empty JSON array, got %s", data)
	}

	data, err = marshalChunks([]domain.Chunk{{ID: 1, Content: "cells", WordCount: 1, Type: domain.ChunkTypeSection}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(data), `"type":"section"`) {
		t.Errorf("unexpected chunk JSON %s", data)
	}
}

func resourceRow(extractionDate sql.NullTime, chunks []byte) fakeRow {
	return fakeRow{values: []any{
		"res-1", "cells.pdf", "/uploads/res-1/cells.pdf", int64(2048), "application/pdf",
		"biology", "teacher-1", time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		"completed", extractionDate, 3, 120, "Cells divide.", chunks,
		"basic", "created", "/uploads/res-1/cells_content.json",
	}}
}

func TestScanResource(t *testing.T) {
	extracted := time.Date(2026, 3, 2, 9, 1, 0, 0, time.UTC)
	row := resourceRow(
		sql.NullTime{Time: extracted, Valid: true},
		[]byte(`[{"id":1,"section":1,"content":"Cells divide.","wordCount":2,"type":"section","summary":"Cells divide."}]`),
	)

	r, err := scanResource(row)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.ID != "res-1" || r.FileSize != 2048 || r.SubjectID != "biology" {
		t.Errorf("unexpected identity %+v", r)
	}
	if r.ExtractionStatus != domain.ExtractionStatusCompleted || r.JSONFileStatus != domain.JSONFileStatusCreated {
		t.Errorf("unexpected statuses %s/%s", r.ExtractionStatus, r.JSONFileStatus)
	}
	if r.ExtractionDate == nil || !r.ExtractionDate.Equal(extracted) {
		t.Errorf("unexpected extraction date %v", r.ExtractionDate)
	}
	if len(r.TextChunks) != 1 || r.TextChunks[0].Type != domain.ChunkTypeSection {
		t.Errorf("unexpected chunks %+v", r.TextChunks)
	}
	if r.ProcessingMethod != domain.ProcessingMethodBasic {
		t.Errorf("unexpected method %s", r.ProcessingMethod)
	}
}

func TestScanResource_NoChunks(t *testing.T) {
	r, err := scanResource(resourceRow(sql.NullTime{}, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.ExtractionDate != nil {
		t.Errorf("expected nil extraction date, got %v", r.ExtractionDate)
	}
	if r.TextChunks != nil {
		t.Errorf("expected no chunks, got %+v", r.TextChunks)
	}
}

func TestScanResource_Errors(t *testing.T) {
	if _, err := scanResource(fakeRow{err: sql.ErrNoRows}); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected ErrNoRows passed through, got %v", err)
	}
	if _, err := scanResource(resourceRow(sql.NullTime{}, []byte(`{not json`))); err == nil {
		t.Error("expected error for malformed chunk JSON")
	}
}

func TestLockKey(t *testing.T) {
	if got := lockKey("resource:res-1"); got != "lectern:lock:resource:res-1" {
		t.Errorf("unexpected lock key %s", got)
	}
}
