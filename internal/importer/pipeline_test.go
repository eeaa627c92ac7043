package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/dnayak/lifelog/internal/domain"
	"github.com/google/uuid"
)

type fakeWriter struct {
	created  []domain.CreateEventParams
	failWhen func(domain.CreateEventParams) error
}

func (f *fakeWriter) CreateEvent(ctx context.Context, p domain.CreateEventParams) (*domain.Event, error) {
	if f.failWhen != nil {
		if err := f.failWhen(p); err != nil {
			return nil, err
		}
	}
	f.created = append(f.created, p)
	return &domain.Event{
		ID:        uuid.NewString(),
		OwnerID:   p.OwnerID,
		Timestamp: p.Timestamp,
		EventType: p.EventType,
		Data:      p.Data,
		Tags:      domain.NormalizeTags(p.Tags),
		Source:    p.Source,
	}, nil
}

func newTestPipeline(t *testing.T) (*Pipeline, *fakeWriter) {
	t.Helper()
	w := &fakeWriter{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewPipeline(w, logger), w
}

func TestImportBatch_MixedValidity(t *testing.T) {
	p, w := newTestPipeline(t)

	records := []Record{
		{EventType: "sleep", Timestamp: json.Number("1700000000")},
		{EventType: "mood", Timestamp: "not-a-date"},
		{EventType: "", Timestamp: json.Number("1700000000")},
		{EventType: "run", Timestamp: "2023-11-14T22:13:20Z", Tags: json.RawMessage(`["health","health","am"]`)},
	}

	report := p.ImportBatch(context.Background(), "owner-1", records)

	if report.Total != 4 {
		t.Fatalf("total: got %d, want 4", report.Total)
	}
	if report.Imported != 2 {
		t.Fatalf("imported: got %d, want 2", report.Imported)
	}
	if len(report.Errors) != 2 {
		t.Fatalf("errors: got %d, want 2: %v", len(report.Errors), report.Errors)
	}
	if !strings.HasPrefix(report.Errors[0], "record 2:") {
		t.Errorf("first error should reference record 2, got %q", report.Errors[0])
	}
	if !strings.HasPrefix(report.Errors[1], "record 3:") {
		t.Errorf("second error should reference record 3, got %q", report.Errors[1])
	}

	if len(w.created) != 2 {
		t.Fatalf("writer saw %d creates, want 2", len(w.created))
	}
	if w.created[0].Timestamp != 1700000000000 {
		t.Errorf("seconds timestamp not scaled: %d", w.created[0].Timestamp)
	}
}

func TestImportBatch_BadDataIsRowError(t *testing.T) {
	p, w := newTestPipeline(t)

	report := p.ImportBatch(context.Background(), "owner-1", []Record{
		{EventType: "sleep", Timestamp: json.Number("1700000000"), Data: json.RawMessage(`{"nested":{"bad":1}}`)},
		{EventType: "mood", Timestamp: json.Number("1700000000"), Data: json.RawMessage(`{"score":4}`)},
		{EventType: "run", Timestamp: json.Number("1700000000"), Tags: json.RawMessage(`"not-an-array"`)},
	})

	if report.Imported != 1 || len(report.Errors) != 2 {
		t.Fatalf("got imported=%d errors=%v, want 1 imported, 2 errors", report.Imported, report.Errors)
	}
	if !strings.HasPrefix(report.Errors[0], "record 1:") || !strings.Contains(report.Errors[0], "data") {
		t.Errorf("first error should blame record 1's data: %q", report.Errors[0])
	}
	if !strings.HasPrefix(report.Errors[1], "record 3:") || !strings.Contains(report.Errors[1], "tags") {
		t.Errorf("second error should blame record 3's tags: %q", report.Errors[1])
	}
	if len(w.created) != 1 || w.created[0].EventType != "mood" {
		t.Errorf("only the clean record should land: %#v", w.created)
	}
}

func TestImportBatch_StampsSource(t *testing.T) {
	p, w := newTestPipeline(t)

	// A caller-supplied source must be ignored.
	p.ImportBatch(context.Background(), "owner-1", []Record{
		{EventType: "sleep", Timestamp: json.Number("1700000000"), Source: "manual"},
	})

	if w.created[0].Source != domain.SourceJSONImport {
		t.Errorf("source: got %q, want %q", w.created[0].Source, domain.SourceJSONImport)
	}
}

func TestImportBatch_DefaultsTimestamp(t *testing.T) {
	p, w := newTestPipeline(t)

	report := p.ImportBatch(context.Background(), "owner-1", []Record{{EventType: "sleep"}})

	if report.Imported != 1 {
		t.Fatalf("imported: got %d, want 1", report.Imported)
	}
	if w.created[0].Timestamp == 0 {
		t.Error("absent timestamp should default to ingestion time")
	}
}

func TestImportBatch_RowStoreFailureDoesNotAbort(t *testing.T) {
	p, w := newTestPipeline(t)
	w.failWhen = func(params domain.CreateEventParams) error {
		if params.EventType == "broken" {
			return fmt.Errorf("insert failed")
		}
		return nil
	}

	report := p.ImportBatch(context.Background(), "owner-1", []Record{
		{EventType: "ok", Timestamp: json.Number("1700000000")},
		{EventType: "broken", Timestamp: json.Number("1700000000")},
		{EventType: "ok", Timestamp: json.Number("1700000000")},
	})

	if report.Imported != 2 || len(report.Errors) != 1 {
		t.Fatalf("got imported=%d errors=%d, want 2/1", report.Imported, len(report.Errors))
	}
	if !strings.HasPrefix(report.Errors[0], "record 2:") {
		t.Errorf("error should reference record 2, got %q", report.Errors[0])
	}
}

func TestImportCSV_RowIsolation(t *testing.T) {
	p, w := newTestPipeline(t)

	input := strings.Join([]string{
		"timestamp,event_type,data,tags",
		`1700000000,sleep,"{""hours"":7.5}","[""health""]"`,
		`1700000100,mood,"{not valid json}",`,
		`2023-11-14T22:13:20Z,run,,"[""health"",""am""]"`,
	}, "\n")

	report, err := p.ImportCSV(context.Background(), "owner-1", strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Total != 3 {
		t.Fatalf("total: got %d, want 3", report.Total)
	}
	if report.Imported != 2 {
		t.Fatalf("imported: got %d, want 2", report.Imported)
	}
	if len(report.Errors) != 1 {
		t.Fatalf("errors: got %v, want exactly one", report.Errors)
	}
	// Row 2 lives on line 3, counting the header as line 1.
	if !strings.HasPrefix(report.Errors[0], "line 3:") {
		t.Errorf("error should reference line 3, got %q", report.Errors[0])
	}

	if len(w.created) != 2 {
		t.Fatalf("writer saw %d creates, want 2", len(w.created))
	}
	first := w.created[0]
	if first.Source != domain.SourceCSVImport {
		t.Errorf("source: got %q, want %q", first.Source, domain.SourceCSVImport)
	}
	hours, ok := first.Data.Get("hours")
	if !ok || hours.Kind != domain.KindNumber || hours.Num.String() != "7.5" {
		t.Errorf("data cell not decoded: %#v", first.Data)
	}
	if len(w.created[1].Tags) != 2 {
		t.Errorf("tags cell not decoded: %#v", w.created[1].Tags)
	}
}

func TestImportCSV_MissingRequiredColumn(t *testing.T) {
	p, w := newTestPipeline(t)

	input := "timestamp,data\n1700000000,\n"
	_, err := p.ImportCSV(context.Background(), "owner-1", strings.NewReader(input))
	if err == nil {
		t.Fatal("missing event_type column should fail the whole batch")
	}
	if !domain.IsValidation(err) {
		t.Errorf("expected a validation error, got %v", err)
	}
	if len(w.created) != 0 {
		t.Errorf("no rows may be written when the header is rejected, saw %d", len(w.created))
	}
}

func TestImportCSV_HeaderColumnsAnyOrder(t *testing.T) {
	p, w := newTestPipeline(t)

	input := "Event_Type, Timestamp\nsleep,1700000000\n"
	report, err := p.ImportCSV(context.Background(), "owner-1", strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Imported != 1 {
		t.Fatalf("imported: got %d, want 1", report.Imported)
	}
	if w.created[0].EventType != "sleep" {
		t.Errorf("columns mapped wrong: %#v", w.created[0])
	}
}

func TestImportCSV_SkipsBlankLines(t *testing.T) {
	p, _ := newTestPipeline(t)

	input := "timestamp,event_type\n\n1700000000,sleep\n   \n1700000100,mood\n"
	report, err := p.ImportCSV(context.Background(), "owner-1", strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Total != 2 || report.Imported != 2 {
		t.Errorf("blank lines should not count: %+v", report)
	}
}

func TestPreviewCSV_BoundsSampleButCountsAll(t *testing.T) {
	p, w := newTestPipeline(t)

	var b strings.Builder
	b.WriteString("timestamp,event_type,data\n")
	for i := 0; i < 50; i++ {
		fmt.Fprintf(&b, "%d,entry,\n", 1700000000+i)
	}

	pv, err := p.PreviewCSV(strings.NewReader(b.String()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !pv.Valid {
		t.Error("header satisfies the contract, preview should be valid")
	}
	if pv.TotalRows != 50 {
		t.Errorf("total_rows: got %d, want 50", pv.TotalRows)
	}
	if len(pv.Rows) != PreviewSampleRows {
		t.Errorf("sample: got %d rows, want %d", len(pv.Rows), PreviewSampleRows)
	}
	if got := pv.Columns; len(got) != 3 || got[0] != "timestamp" || got[2] != "data" {
		t.Errorf("columns: got %v", got)
	}
	if len(w.created) != 0 {
		t.Errorf("preview must not write, saw %d creates", len(w.created))
	}
}

func TestPreviewCSV_RowErrorsInSample(t *testing.T) {
	p, _ := newTestPipeline(t)

	input := "timestamp,event_type\nnot-a-date,sleep\n1700000000,mood\n"
	pv, err := p.PreviewCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pv.Rows) != 2 {
		t.Fatalf("sample: got %d rows, want 2", len(pv.Rows))
	}
	if pv.Rows[0].Error == "" {
		t.Error("first sample row should carry its error")
	}
	if pv.Rows[1].Error != "" || pv.Rows[1].Values["event_type"] != "mood" {
		t.Errorf("second sample row should be decoded: %+v", pv.Rows[1])
	}
}

func TestPreviewCSV_InvalidHeaderContract(t *testing.T) {
	p, _ := newTestPipeline(t)

	pv, err := p.PreviewCSV(strings.NewReader("timestamp,notes\n1700000000,hi\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pv.Valid {
		t.Error("missing event_type column should make the preview invalid")
	}
	if pv.TotalRows != 1 {
		t.Errorf("total_rows still counted: got %d, want 1", pv.TotalRows)
	}
	if len(pv.Columns) != 2 {
		t.Errorf("detected columns should be reported: %v", pv.Columns)
	}
}
