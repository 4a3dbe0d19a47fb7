package core

// MorseToText decodes a Morse string.
// ' ' ends a symbol, '/' ends a symbol and a word. Unknown symbols decode
// to UnknownSymbol and characters outside the token set are ignored.
func MorseToText(morse string) string {
	result := make([]byte, 0, len(morse)/2+1)
	var current [8]byte
	var symbol []byte = current[:0]

	flush := func() {
		if len(symbol) > 0 {
			result = append(result, DecodeSymbol(string(symbol)))
			symbol = symbol[:0]
		}
	}

	for i := 0; i < len(morse); i++ {
		switch c := morse[i]; c {
		case '.', '-':
			symbol = append(symbol, c)
		case ' ':
			flush()
		case '/':
			flush()
			result = append(result, ' ')
		}
	}
	flush()

	return string(result)
}
