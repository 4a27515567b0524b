package domain

import "testing"

func TestNewRowPadsToLayerWidth(t *testing.T) {
	row := NewRow(LayerKnowledge, "Math", "Algebra")
	if len(row.Fields) != ExpectedColumnCount(LayerKnowledge) {
		t.Fatalf("expected %d fields, got %d", ExpectedColumnCount(LayerKnowledge), len(row.Fields))
	}
	if row.Fields[4] != "" {
		t.Errorf("expected padded knowledge field, got %q", row.Fields[4])
	}

	row = NewRow(LayerSubject, "Math", "extra")
	if len(row.Fields) != 1 {
		t.Errorf("expected extra fields to be dropped, got %v", row.Fields)
	}
}

func TestRowName(t *testing.T) {
	tests := []struct {
		name string
		row  Row
		want string
	}{
		{"subject", NewRow(LayerSubject, "Math"), "Math"},
		{"theme", NewRow(LayerTheme, "Math", "Algebra - basics", "Equations"), "Equations"},
		{"knowledge", NewRow(LayerKnowledge, "Math", "Algebra", "Equations", "Part 1", "Solve x"), "Solve x"},
		{"specific", NewRow(LayerSpecificKnowledge, "Math", "Algebra", "Equations", "Part 1", "Solve x", "Quiz"), "Solve x"},
		{"empty", Row{Layer: LayerTheme}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.row.Name(); got != tt.want {
				t.Errorf("Name() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCleanFieldCollapsesNewlines(t *testing.T) {
	if got := CleanField("  first\nsecond\r\n "); got != "first second" {
		t.Errorf("CleanField() = %q", got)
	}
}

func TestCleanFieldComposesDiacritics(t *testing.T) {
	decomposed := "Mate\u0301ria\u0301l"
	if got := CleanField(decomposed); got != "Mat\u00e9ri\u00e1l" {
		t.Errorf("CleanField() = %q", got)
	}
}

func TestDeletedRow(t *testing.T) {
	row := DeletedRow(LayerPackage, 42)
	if row.IsEmpty() {
		t.Fatal("expected deleted marker row to carry text")
	}
	if row.Name() != "deleted item - ID: 42" {
		t.Errorf("unexpected marker %q", row.Name())
	}
}
