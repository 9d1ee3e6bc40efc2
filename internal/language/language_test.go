package language

import "testing"

func TestToISO2(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "en"},
		{"EN", "en"},
		{"es", "es"},
		{"spa", "es"},
		{"fre", "fr"},
		{"ger", "de"},
		{"chi", "zh"},
		{"dut", "nl"},
		{"english", "en"},
		{"Español", "es"},
		{"castellano", "es"},
		{"Deutsch", "de"},
		{"es-MX", "es"},
		{"pt_BR", "pt"},
		{"fr-CA", "fr"},
		{"xy", "xy"},
		{"elvish", ""},
		{"", ""},
		{" ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ToISO2(tt.input); got != tt.expected {
				t.Fatalf("ToISO2(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	tests := map[string]string{
		"es":       "Spanish",
		"es-ES":    "Spanish",
		"français": "French",
		"":         "Unknown",
		"xx":       "XX",
	}
	for input, want := range tests {
		if got := DisplayName(input); got != want {
			t.Fatalf("DisplayName(%q) = %q, want %q", input, got, want)
		}
	}
}
