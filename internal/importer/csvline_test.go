package importer

import (
	"reflect"
	"testing"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{"plain fields", "a,b,c", []string{"a", "b", "c"}},
		{"quoted comma", `a,"b,c",d`, []string{"a", "b,c", "d"}},
		{"doubled quote", `a,"b""c",d`, []string{"a", `b"c`, "d"}},
		{"unquoted fields trimmed", " a , b ,c ", []string{"a", "b", "c"}},
		{"quoted whitespace kept", `" a ",b`, []string{" a ", "b"}},
		{"empty fields", "a,,c", []string{"a", "", "c"}},
		{"trailing comma", "a,b,", []string{"a", "b", ""}},
		{"single field", "alone", []string{"alone"}},
		{"quoted json object", `1700000000,sleep,"{""hours"":7.5}"`, []string{"1700000000", "sleep", `{"hours":7.5}`}},
		{"whitespace before quote", `a,  "b" ,c`, []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLine(tt.line)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestParseLine_Errors(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"unterminated quote", `a,"bc`},
		{"embedded newline not supported", `a,"b`},
		{"garbage after closing quote", `a,"b"x,c`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseLine(tt.line); err == nil {
				t.Errorf("ParseLine(%q) should fail", tt.line)
			}
		})
	}
}
