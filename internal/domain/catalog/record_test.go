package catalog

import "testing"

func TestFormatPersonName(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"last and first", "DOE^JOHN", "Doe, John"},
		{"single component", "DOE", "Doe"},
		{"empty", "", ""},
		{"extra components dropped", "DOE^JOHN^MR", "Doe, John"},
		{"already mixed case", "van Dyke^Mary", "Van Dyke, Mary"},
		{"whitespace trimmed", " DOE ^ JOHN ", "Doe, John"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatPersonName(tt.raw); got != tt.want {
				t.Errorf("FormatPersonName(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseStudyDate_Valid(t *testing.T) {
	got, err := ParseStudyDate("20240115")
	if err != nil {
		t.Fatalf("ParseStudyDate() error = %v", err)
	}
	if got.Year() != 2024 || got.Month() != 1 || got.Day() != 15 {
		t.Errorf("ParseStudyDate() = %v, want 2024-01-15", got)
	}
}

func TestParseStudyDate_Invalid(t *testing.T) {
	for _, raw := range []string{"", "2024", "20241301", "20240230", "2024-01-15", "notadate"} {
		if _, err := ParseStudyDate(raw); err == nil {
			t.Errorf("ParseStudyDate(%q) should fail", raw)
		}
	}
}
