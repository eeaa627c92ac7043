package importer

import (
	"strings"

	"github.com/dnayak/lifelog/internal/domain"
)

// ParseLine tokenizes one physical line of comma-separated text. A field may
// be wrapped in double quotes; inside quotes a doubled quote is one literal
// quote and commas are ordinary characters. Unquoted fields are trimmed of
// surrounding whitespace, quoted fields are kept verbatim.
//
// One line is exactly one record. Embedded newlines inside a quoted field
// are not supported, so a quote still open at end of line is an error rather
// than a continuation.
func ParseLine(line string) ([]string, error) {
	var fields []string
	i := 0
	for {
		field, next, err := parseField(line, i)
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
		if next < 0 {
			return fields, nil
		}
		i = next
	}
}

// parseField consumes one field starting at position start. It returns the
// field value and the position just past the delimiting comma, or -1 when
// the line is exhausted.
func parseField(line string, start int) (string, int, error) {
	i := start
	// Leading whitespace before an opening quote is not part of the field.
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}

	if i < len(line) && line[i] == '"' {
		var b strings.Builder
		i++
		for {
			if i >= len(line) {
				return "", 0, domain.Validationf("unterminated quoted field at position %d", start+1)
			}
			if line[i] == '"' {
				if i+1 < len(line) && line[i+1] == '"' {
					b.WriteByte('"')
					i += 2
					continue
				}
				i++
				break
			}
			b.WriteByte(line[i])
			i++
		}
		// Only whitespace may sit between the closing quote and the comma.
		for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
			i++
		}
		if i >= len(line) {
			return b.String(), -1, nil
		}
		if line[i] != ',' {
			return "", 0, domain.Validationf("unexpected character %q after closing quote at position %d", line[i], i+1)
		}
		return b.String(), i + 1, nil
	}

	end := strings.IndexByte(line[i:], ',')
	if end < 0 {
		return strings.TrimSpace(line[i:]), -1, nil
	}
	return strings.TrimSpace(line[i : i+end]), i + end + 1, nil
}
