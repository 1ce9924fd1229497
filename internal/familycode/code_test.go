package familycode

import "testing"

func TestGenerate(t *testing.T) {
	codes := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := Generate()
		if err != nil {
			t.Fatalf("Generate() error: %v", err)
		}

		if len(code) != CodeLength {
			t.Errorf("code length %d, want %d: %s", len(code), CodeLength, code)
		}
		if !ValidateFormat(code) {
			t.Errorf("generated code fails format check: %s", code)
		}

		if codes[code] {
			t.Errorf("duplicate code generated: %s", code)
		}
		codes[code] = true
	}
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		name string
		code string
		want bool
	}{
		{"valid code", "AB3DEF9H", true},
		{"all digits", "12345678", true},
		{"too short", "AB3DEF9", false},
		{"too long", "AB3DEF9HX", false},
		{"lowercase", "ab3def9h", false},
		{"with separator", "AB3D-EF9H", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateFormat(tt.code); got != tt.want {
				t.Errorf("ValidateFormat(%q) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already normal", "AB3DEF9H", "AB3DEF9H"},
		{"lowercase with dash", "ab3d-ef9h", "AB3DEF9H"},
		{"surrounding whitespace", "  AB3DEF9H ", "AB3DEF9H"},
		{"display format round trip", FormatCode("AB3DEF9H"), "AB3DEF9H"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatCode(t *testing.T) {
	if got := FormatCode("AB3DEF9H"); got != "AB3D-EF9H" {
		t.Errorf("FormatCode = %q, want AB3D-EF9H", got)
	}
	// Unexpected lengths pass through untouched
	if got := FormatCode("ABC"); got != "ABC" {
		t.Errorf("FormatCode short input = %q, want ABC", got)
	}
}
