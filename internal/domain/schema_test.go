package domain

import "testing"

func TestValidateSchemaName(t *testing.T) {
	valid := []string{"sleep", "blood_pressure", "mood2", "a"}
	for _, name := range valid {
		if err := ValidateSchemaName(name); err != nil {
			t.Errorf("ValidateSchemaName(%q) should pass: %v", name, err)
		}
	}

	invalid := []string{"", "Sleep", "blood-pressure", "mood 2", "café", "UPPER"}
	for _, name := range invalid {
		if err := ValidateSchemaName(name); err == nil {
			t.Errorf("ValidateSchemaName(%q) should fail", name)
		}
	}
}

func TestValidateFields(t *testing.T) {
	if err := ValidateFields(nil); err == nil {
		t.Error("empty field list should fail")
	}

	if err := ValidateFields([]FieldDefinition{
		{Name: "hours", Type: FieldDecimal, Required: true, Primary: true},
		{Name: "quality", Type: FieldNumber},
	}); err != nil {
		t.Errorf("valid fields should pass: %v", err)
	}

	if err := ValidateFields([]FieldDefinition{{Name: "", Type: FieldString}}); err == nil {
		t.Error("unnamed field should fail")
	}
	if err := ValidateFields([]FieldDefinition{{Name: "x", Type: "float"}}); err == nil {
		t.Error("unknown field type should fail")
	}
}
