package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/dnayak/lifelog/internal/domain"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Every batch, whatever mix of good and bad rows it contains, must satisfy
// imported + len(errors) == total.
func TestProperty_BatchAccounting(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	properties.Property("imported plus errors equals total", prop.ForAll(
		func(shape []bool) bool {
			records := make([]Record, len(shape))
			for i, good := range shape {
				if good {
					records[i] = Record{EventType: "entry", Timestamp: json.Number("1700000000")}
				} else {
					records[i] = Record{EventType: "entry", Timestamp: "definitely-not-a-timestamp"}
				}
			}

			p := NewPipeline(&fakeWriter{}, logger)
			report := p.ImportBatch(context.Background(), "owner-prop", records)

			if report.Total != len(records) {
				return false
			}
			return report.Imported+len(report.Errors) == report.Total
		},
		gen.SliceOf(gen.Bool()),
	))

	properties.Property("store failures still balance the ledger", prop.ForAll(
		func(n int, failEvery int) bool {
			w := &fakeWriter{}
			count := 0
			w.failWhen = func(domain.CreateEventParams) error {
				count++
				if count%failEvery == 0 {
					return fmt.Errorf("synthetic insert failure")
				}
				return nil
			}

			records := make([]Record, n)
			for i := range records {
				records[i] = Record{EventType: "entry", Timestamp: json.Number("1700000000")}
			}

			p := NewPipeline(w, logger)
			report := p.ImportBatch(context.Background(), "owner-prop", records)
			return report.Imported+len(report.Errors) == report.Total && report.Total == n
		},
		gen.IntRange(0, 200),
		gen.IntRange(1, 5),
	))

	properties.TestingRun(t)
}

// Numeric normalization always lands on the millisecond side of the
// threshold rule: values below it are scaled by exactly 1000, values at or
// above it are untouched.
func TestProperty_TimestampThreshold(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("below threshold scales by 1000", prop.ForAll(
		func(n int64) bool {
			got, err := NormalizeTimestamp(n)
			return err == nil && got == n*1000
		},
		gen.Int64Range(0, epochMillisThreshold-1),
	))

	properties.Property("at or above threshold passes through", prop.ForAll(
		func(n int64) bool {
			got, err := NormalizeTimestamp(n)
			return err == nil && got == n
		},
		gen.Int64Range(epochMillisThreshold, 4_000_000_000_000),
	))

	properties.Property("numeric strings behave like numbers", prop.ForAll(
		func(n int64) bool {
			fromNumber, err1 := NormalizeTimestamp(n)
			fromString, err2 := NormalizeTimestamp(fmt.Sprintf("%d", n))
			return err1 == nil && err2 == nil && fromNumber == fromString
		},
		gen.Int64Range(0, 4_000_000_000_000),
	))

	properties.TestingRun(t)
}
