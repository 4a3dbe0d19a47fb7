package standalone

import "strings"

// ParseLine classifies a console line.
// Settings follow the Grbl convention: "$WPM=25", "$STOP", "$?".
func ParseLine(line string) Line {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return Line{Kind: LineEmpty}
	case line[0] == ';':
		return Line{Kind: LineComment, Text: line[1:]}
	case line[0] == '$':
		key, value, _ := strings.Cut(line[1:], "=")
		return Line{
			Kind:  LineSetting,
			Key:   strings.ToUpper(strings.TrimSpace(key)),
			Value: strings.TrimSpace(value),
		}
	}
	return Line{Kind: LineText, Text: line}
}
