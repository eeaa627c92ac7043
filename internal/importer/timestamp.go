package importer

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/dnayak/lifelog/internal/domain"
)

// Values at or above this are already epoch milliseconds; anything below is
// epoch seconds and gets scaled. The boundary itself (10,000,000,000) is
// milliseconds.
const epochMillisThreshold = 10_000_000_000

// Calendar layouts accepted for string timestamps. Layouts without a zone
// offset are interpreted as UTC, which is what time.Parse does.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// NormalizeTimestamp canonicalizes any accepted timestamp encoding into
// epoch milliseconds. Numbers follow the seconds-vs-milliseconds threshold
// rule; strings are tried as numbers first (CSV cells arrive as text), then
// as calendar timestamps.
func NormalizeTimestamp(raw any) (int64, error) {
	switch v := raw.(type) {
	case int64:
		return scaleEpoch(v), nil
	case int:
		return scaleEpoch(int64(v)), nil
	case float64:
		return scaleEpochFloat(v), nil
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return scaleEpoch(n), nil
		}
		if f, err := v.Float64(); err == nil {
			return scaleEpochFloat(f), nil
		}
		return 0, domain.Validationf("invalid timestamp %q", v.String())
	case string:
		return normalizeString(v)
	}
	return 0, domain.Validationf("invalid timestamp: expected number or string, got %T", raw)
}

func normalizeString(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, domain.Validationf("invalid timestamp: empty value")
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return scaleEpoch(n), nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return scaleEpochFloat(f), nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UnixMilli(), nil
		}
	}
	return 0, domain.Validationf("invalid timestamp %q", s)
}

func scaleEpoch(n int64) int64 {
	if n < epochMillisThreshold {
		return n * 1000
	}
	return n
}

func scaleEpochFloat(f float64) int64 {
	if f < epochMillisThreshold {
		return int64(f * 1000)
	}
	return int64(f)
}
