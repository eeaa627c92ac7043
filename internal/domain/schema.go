package domain

import (
	"fmt"
	"regexp"
)

// Field types a schema may declare. These are descriptive only: nothing at
// write time checks an event against its nominal schema.
const (
	FieldString   = "string"
	FieldNumber   = "number"
	FieldDecimal  = "decimal"
	FieldBoolean  = "boolean"
	FieldDate     = "date"
	FieldDatetime = "datetime"
)

var fieldTypes = map[string]bool{
	FieldString:   true,
	FieldNumber:   true,
	FieldDecimal:  true,
	FieldBoolean:  true,
	FieldDate:     true,
	FieldDatetime: true,
}

var schemaNameRe = regexp.MustCompile(`^[a-z0-9_]+$`)

// EventSchema is a named field template for one event type. It corresponds
// to events only by convention: Event.EventType matching Name is not
// enforced anywhere, and deleting a schema leaves matching events untouched.
type EventSchema struct {
	ID          string            `json:"id"`
	OwnerID     string            `json:"owner_id"`
	Name        string            `json:"name"`
	Label       string            `json:"label"`
	Fields      []FieldDefinition `json:"fields"`
	Icon        string            `json:"icon,omitempty"`
	Color       string            `json:"color,omitempty"`
	DefaultTags []string          `json:"default_tags"`
	CreatedAt   int64             `json:"created_at"`
}

type FieldDefinition struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
	Primary  bool   `json:"primary"`
	Unit     string `json:"unit,omitempty"`
}

type CreateSchemaParams struct {
	OwnerID     string
	Name        string
	Label       string
	Fields      []FieldDefinition
	Icon        string
	Color       string
	DefaultTags []string
}

// UpdateSchemaParams deliberately has no Name field: a schema's name is
// immutable once created.
type UpdateSchemaParams struct {
	Label       *string
	Fields      *[]FieldDefinition
	Icon        *string
	Color       *string
	DefaultTags *[]string
}

// ValidateSchemaName enforces the lowercase-alphanumeric/underscore pattern.
func ValidateSchemaName(name string) error {
	if name == "" {
		return Validationf("name is required")
	}
	if !schemaNameRe.MatchString(name) {
		return Validationf("name %q must contain only lowercase letters, digits, and underscores", name)
	}
	return nil
}

// ValidateFields checks a schema field list: at least one field, each with a
// name and a known type.
func ValidateFields(fields []FieldDefinition) error {
	if len(fields) == 0 {
		return Validationf("at least one field is required")
	}
	for i, f := range fields {
		if f.Name == "" {
			return Validationf("field %d: name is required", i+1)
		}
		if !fieldTypes[f.Type] {
			return &ValidationError{Message: fmt.Sprintf("field %q: unknown type %q", f.Name, f.Type)}
		}
	}
	return nil
}
