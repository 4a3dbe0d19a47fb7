package core

import "testing"

func TestCharToMorse(t *testing.T) {
	tests := []struct {
		in   rune
		want string
	}{
		{'A', ".-"},
		{'a', ".-"},
		{'S', "..."},
		{'O', "---"},
		{'q', "--.-"},
		{'Z', "--.."},
		{'0', "-----"},
		{'5', "....."},
		{'9', "----."},
		{' ', "/"},
		{'!', ""},
		{'é', ""},
	}

	for _, tt := range tests {
		if got := CharToMorse(tt.in); got != tt.want {
			t.Errorf("CharToMorse(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSymbolTableRoundTrip(t *testing.T) {
	seen := make(map[string]byte)
	for i := 0; i < SymbolCount; i++ {
		char, code := SymbolCode(i)
		if prev, dup := seen[code]; dup {
			t.Errorf("code %q used by %c and %c", code, prev, char)
		}
		seen[code] = char

		if got := DecodeSymbol(code); got != char {
			t.Errorf("DecodeSymbol(%q) = %c, want %c", code, got, char)
		}
		if got := CharToMorse(rune(char)); got != code {
			t.Errorf("CharToMorse(%c) = %q, want %q", char, got, code)
		}
	}

	if c, code := SymbolCode(SymbolCount); c != 0 || code != "" {
		t.Errorf("SymbolCode out of range = %c %q", c, code)
	}
}

func TestDecodeSymbolUnknown(t *testing.T) {
	for _, code := range []string{"", "......", "-.-.-.", "x"} {
		if got := DecodeSymbol(code); got != UnknownSymbol {
			t.Errorf("DecodeSymbol(%q) = %c, want %c", code, got, UnknownSymbol)
		}
	}
}
