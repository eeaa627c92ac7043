package importer

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/dnayak/lifelog/internal/domain"
)

// PreviewSampleRows bounds how many data rows a preview decodes.
const PreviewSampleRows = 5

// Lines longer than this are rejected by the scanner rather than truncated.
const maxLineBytes = 1 << 20

// EventWriter is the slice of the event store the pipeline needs.
type EventWriter interface {
	CreateEvent(ctx context.Context, p domain.CreateEventParams) (*domain.Event, error)
}

// Pipeline normalizes batches of loosely typed records and writes them one
// at a time. Rows are processed strictly sequentially so error indices stay
// aligned with input positions.
type Pipeline struct {
	writer EventWriter
	logger *slog.Logger
}

func NewPipeline(writer EventWriter, logger *slog.Logger) *Pipeline {
	return &Pipeline{writer: writer, logger: logger}
}

// Record is one record of a structured batch. Timestamp is string or number
// (decode request bodies with UseNumber); nil means "default to now". Data
// and Tags stay raw until the record is processed, so one malformed record
// surfaces as a row error instead of poisoning the whole batch decode. Any
// caller-supplied source is ignored: the entry mode stamps its own.
type Record struct {
	EventType string          `json:"event_type"`
	Timestamp any             `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
	Tags      json.RawMessage `json:"tags,omitempty"`
	Source    string          `json:"source,omitempty"`
}

// Report accounts for every record of a batch: Imported + len(Errors) ==
// Total, always. Each error string carries a 1-based record or line
// reference.
type Report struct {
	Imported int      `json:"imported"`
	Total    int      `json:"total"`
	Errors   []string `json:"errors"`
}

// Preview is the result of a dry run over delimited text: the detected
// columns, the data-row count of the whole input, and a bounded sample of
// decoded rows. Nothing is written.
type Preview struct {
	Valid     bool         `json:"valid"`
	Columns   []string     `json:"columns"`
	TotalRows int          `json:"total_rows"`
	Rows      []PreviewRow `json:"preview"`
}

// PreviewRow carries either the decoded values of a sample row or the error
// that row would produce on import.
type PreviewRow struct {
	Line   int            `json:"line"`
	Values map[string]any `json:"values,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// ImportBatch runs structured-batch mode: records are already decoded, each
// is normalized and inserted independently. A failing record is recorded and
// skipped; the batch never aborts on a row.
func (p *Pipeline) ImportBatch(ctx context.Context, ownerID string, records []Record) Report {
	report := Report{Total: len(records), Errors: []string{}}
	for i, rec := range records {
		if err := p.importOne(ctx, ownerID, rec, domain.SourceJSONImport); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("record %d: %v", i+1, err))
			continue
		}
		report.Imported++
	}
	p.logger.Info("batch import finished",
		"owner_id", ownerID, "imported", report.Imported, "total", report.Total, "errors", len(report.Errors))
	return report
}

// ImportCSV runs text mode: the input is parsed line by line, the first line
// being the header. A missing required column fails the whole batch before
// any row is touched; everything after that is per-row.
func (p *Pipeline) ImportCSV(ctx context.Context, ownerID string, r io.Reader) (Report, error) {
	lines, err := readLines(r)
	if err != nil {
		return Report{}, err
	}
	cols, err := parseHeader(lines)
	if err != nil {
		return Report{}, err
	}

	report := Report{Errors: []string{}}
	for i, line := range lines[1:] {
		lineNum := i + 2 // header is line 1
		if strings.TrimSpace(line) == "" {
			continue
		}
		report.Total++

		row, err := parseRow(cols, line)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("line %d: %v", lineNum, err))
			continue
		}
		_, err = p.writer.CreateEvent(ctx, domain.CreateEventParams{
			OwnerID:   ownerID,
			EventType: row.eventType,
			Timestamp: row.timestamp,
			Data:      row.data,
			Tags:      row.tags,
			Source:    domain.SourceCSVImport,
		})
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("line %d: %v", lineNum, err))
			continue
		}
		report.Imported++
	}
	p.logger.Info("csv import finished",
		"owner_id", ownerID, "imported", report.Imported, "total", report.Total, "errors", len(report.Errors))
	return report, nil
}

// PreviewCSV runs the same per-row normalization as ImportCSV over at most
// PreviewSampleRows data rows, counts every data row of the input, and
// performs no writes. A header that fails the column contract yields
// Valid=false rather than an error, so callers can show what was detected.
func (p *Pipeline) PreviewCSV(r io.Reader) (Preview, error) {
	lines, err := readLines(r)
	if err != nil {
		return Preview{}, err
	}
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return Preview{}, domain.Validationf("input is empty")
	}

	header, err := ParseLine(lines[0])
	if err != nil {
		return Preview{}, domain.Validationf("invalid header: %v", err)
	}
	pv := Preview{Columns: cleanColumns(header), Rows: []PreviewRow{}}

	cols, headerErr := parseHeader(lines)
	pv.Valid = headerErr == nil

	for i, line := range lines[1:] {
		lineNum := i + 2
		if strings.TrimSpace(line) == "" {
			continue
		}
		pv.TotalRows++
		if !pv.Valid || len(pv.Rows) >= PreviewSampleRows {
			continue
		}

		row, err := parseRow(cols, line)
		if err != nil {
			pv.Rows = append(pv.Rows, PreviewRow{Line: lineNum, Error: err.Error()})
			continue
		}
		values := map[string]any{
			"timestamp":  row.timestamp,
			"event_type": row.eventType,
		}
		if cols.data >= 0 {
			values["data"] = row.data
		}
		if cols.tags >= 0 {
			values["tags"] = row.tags
		}
		pv.Rows = append(pv.Rows, PreviewRow{Line: lineNum, Values: values})
	}
	return pv, nil
}

func (p *Pipeline) importOne(ctx context.Context, ownerID string, rec Record, source string) error {
	eventType := strings.TrimSpace(rec.EventType)
	if eventType == "" {
		return domain.Validationf("event_type is required")
	}

	var ts int64
	if rec.Timestamp == nil {
		ts = time.Now().UnixMilli()
	} else {
		var err error
		ts, err = NormalizeTimestamp(rec.Timestamp)
		if err != nil {
			return err
		}
	}

	var data *domain.EventData
	if len(rec.Data) > 0 && string(rec.Data) != "null" {
		data = domain.NewEventData()
		if err := json.Unmarshal(rec.Data, data); err != nil {
			return fmt.Errorf("invalid data: %v", err)
		}
	}

	var tags []string
	if len(rec.Tags) > 0 && string(rec.Tags) != "null" {
		if err := json.Unmarshal(rec.Tags, &tags); err != nil {
			return fmt.Errorf("invalid tags: %v", err)
		}
	}

	_, err := p.writer.CreateEvent(ctx, domain.CreateEventParams{
		OwnerID:   ownerID,
		EventType: eventType,
		Timestamp: ts,
		Data:      data,
		Tags:      tags,
		Source:    source,
	})
	return err
}

// colIndex maps the recognized columns to their positions; -1 means absent.
type colIndex struct {
	timestamp int
	eventType int
	data      int
	tags      int
	width     int
}

type parsedRow struct {
	timestamp int64
	eventType string
	data      *domain.EventData
	tags      []string
}

func parseHeader(lines []string) (colIndex, error) {
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return colIndex{}, domain.Validationf("input is empty")
	}
	header, err := ParseLine(lines[0])
	if err != nil {
		return colIndex{}, domain.Validationf("invalid header: %v", err)
	}

	cols := colIndex{timestamp: -1, eventType: -1, data: -1, tags: -1, width: len(header)}
	for i, name := range cleanColumns(header) {
		switch name {
		case "timestamp":
			if cols.timestamp < 0 {
				cols.timestamp = i
			}
		case "event_type":
			if cols.eventType < 0 {
				cols.eventType = i
			}
		case "data":
			if cols.data < 0 {
				cols.data = i
			}
		case "tags":
			if cols.tags < 0 {
				cols.tags = i
			}
		}
	}
	if cols.timestamp < 0 {
		return colIndex{}, domain.Validationf("missing required column %q", "timestamp")
	}
	if cols.eventType < 0 {
		return colIndex{}, domain.Validationf("missing required column %q", "event_type")
	}
	return cols, nil
}

// parseRow tokenizes one data line and normalizes the recognized cells. Any
// failure here is a row-level error: it names the problem but never stops
// the batch.
func parseRow(cols colIndex, line string) (parsedRow, error) {
	fields, err := ParseLine(line)
	if err != nil {
		return parsedRow{}, err
	}
	if len(fields) < cols.width {
		return parsedRow{}, fmt.Errorf("row has %d columns, expected %d", len(fields), cols.width)
	}

	var row parsedRow
	row.timestamp, err = NormalizeTimestamp(fields[cols.timestamp])
	if err != nil {
		return parsedRow{}, err
	}

	row.eventType = strings.TrimSpace(fields[cols.eventType])
	if row.eventType == "" {
		return parsedRow{}, fmt.Errorf("event_type is required")
	}

	if cols.data >= 0 {
		if cell := strings.TrimSpace(fields[cols.data]); cell != "" {
			row.data = domain.NewEventData()
			if err := json.Unmarshal([]byte(cell), row.data); err != nil {
				return parsedRow{}, fmt.Errorf("invalid data: %v", err)
			}
		}
	}
	if cols.tags >= 0 {
		if cell := strings.TrimSpace(fields[cols.tags]); cell != "" {
			if err := json.Unmarshal([]byte(cell), &row.tags); err != nil {
				return parsedRow{}, fmt.Errorf("invalid tags: %v", err)
			}
		}
	}
	return row, nil
}

func cleanColumns(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = strings.ToLower(strings.TrimSpace(h))
	}
	return out
}

func readLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, domain.Validationf("reading input: %v", err)
	}
	return lines, nil
}
