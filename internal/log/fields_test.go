package log

import (
	"errors"
	"testing"
)

func TestLogFieldsBuilder(t *testing.T) {
	fields := NewFields().
		WithOperation("POST /upload").
		WithError(errors.New("boom")).
		WithHTTPResponse(422, 12, false)

	slice := fields.ToSlice()
	if len(slice) != 10 {
		t.Fatalf("slice length = %d, want 10", len(slice))
	}

	got := make(map[string]any)
	for i := 0; i < len(slice); i += 2 {
		got[slice[i].(string)] = slice[i+1]
	}
	if got[FieldOperation] != "POST /upload" {
		t.Errorf("operation = %v", got[FieldOperation])
	}
	if got[FieldError] != "boom" {
		t.Errorf("error = %v", got[FieldError])
	}
	if got[FieldStatusCode] != 422 || got[FieldSuccess] != false {
		t.Errorf("http fields = %v / %v", got[FieldStatusCode], got[FieldSuccess])
	}
}

func TestLogFieldsNilErrorOmitted(t *testing.T) {
	if _, ok := NewFields().WithError(nil)[FieldError]; ok {
		t.Fatal("nil error should not add a field")
	}
}
