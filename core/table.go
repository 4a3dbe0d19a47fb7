// Morse symbol table
// Letters occupy indices 0-25, digits 26-35
package core

// SymbolCount is the number of entries in the symbol table
const SymbolCount = 36

// UnknownSymbol is emitted by the decoder for codes not in the table
const UnknownSymbol = '?'

var morseTable = [SymbolCount]string{
	".-", "-...", "-.-.", "-..", ".", "..-.", "--.", "....", "..", ".---", // A-J
	"-.-", ".-..", "--", "-.", "---", ".--.", "--.-", ".-.", "...", "-", // K-T
	"..-", "...-", ".--", "-..-", "-.--", "--..", // U-Z
	"-----", ".----", "..---", "...--", "....-", ".....", "-....", "--...", "---..", "----.", // 0-9
}

// CharToMorse returns the Morse code for a single character.
// Letters are case-insensitive, a space maps to the word separator "/",
// and unsupported characters return an empty string.
func CharToMorse(r rune) string {
	switch {
	case r >= 'A' && r <= 'Z':
		return morseTable[r-'A']
	case r >= 'a' && r <= 'z':
		return morseTable[r-'a']
	case r >= '0' && r <= '9':
		return morseTable[r-'0'+26]
	case r == ' ':
		return "/"
	}
	return ""
}

// DecodeSymbol returns the character for one Morse symbol, or UnknownSymbol
func DecodeSymbol(code string) byte {
	for i := 0; i < SymbolCount; i++ {
		if morseTable[i] == code {
			return symbolChar(i)
		}
	}
	return UnknownSymbol
}

// SymbolCode returns the character and code stored at table index i
func SymbolCode(i int) (byte, string) {
	if i < 0 || i >= SymbolCount {
		return 0, ""
	}
	return symbolChar(i), morseTable[i]
}

func symbolChar(i int) byte {
	if i < 26 {
		return byte('A' + i)
	}
	return byte('0' + i - 26)
}
