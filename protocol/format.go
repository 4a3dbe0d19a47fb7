package protocol

import (
	"errors"
	"fmt"
	"strings"
)

// ParamKind is the wire type of a message parameter
type ParamKind uint8

const (
	ParamUint   ParamKind = iota // %u, %c, %hu
	ParamInt                     // %i, %hi
	ParamBytes                   // %*s, %.*s
)

// Param is one "name=%x" entry of a message format
type Param struct {
	Name string
	Kind ParamKind
}

// ErrBadFormat is returned for format strings that cannot be parsed
var ErrBadFormat = errors.New("bad message format")

// ParseFormat splits a format such as "pin=%u text=%*s" into parameters
func ParseFormat(format string) ([]Param, error) {
	fields := strings.Fields(format)
	params := make([]Param, 0, len(fields))
	for _, field := range fields {
		name, verb, ok := strings.Cut(field, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: %q", ErrBadFormat, field)
		}
		var kind ParamKind
		switch verb {
		case "%u", "%c", "%hu":
			kind = ParamUint
		case "%i", "%hi":
			kind = ParamInt
		case "%*s", "%.*s":
			kind = ParamBytes
		default:
			return nil, fmt.Errorf("%w: unknown type %q for %s", ErrBadFormat, verb, name)
		}
		params = append(params, Param{Name: name, Kind: kind})
	}
	return params, nil
}

// EncodeArgs writes args in parameter order.
// Integers accept any Go integer type or bool; bytes accept string or []byte.
func EncodeArgs(output OutputBuffer, params []Param, args []any) error {
	if len(args) != len(params) {
		return fmt.Errorf("expected %d arguments, got %d", len(params), len(args))
	}
	for i, p := range params {
		switch p.Kind {
		case ParamUint, ParamInt:
			v, err := toInt32(args[i])
			if err != nil {
				return fmt.Errorf("argument %s: %w", p.Name, err)
			}
			EncodeVLQInt(output, v)
		case ParamBytes:
			switch v := args[i].(type) {
			case string:
				EncodeVLQString(output, v)
			case []byte:
				EncodeVLQBytes(output, v)
			default:
				return fmt.Errorf("argument %s: want string or []byte, got %T", p.Name, args[i])
			}
		}
	}
	return nil
}

// Values are decoded message parameters keyed by name
type Values map[string]any

// Uint returns an integer parameter, 0 when absent
func (v Values) Uint(name string) uint32 {
	switch x := v[name].(type) {
	case uint32:
		return x
	case int32:
		return uint32(x)
	}
	return 0
}

// Bool returns an integer parameter as a flag
func (v Values) Bool(name string) bool {
	return v.Uint(name) != 0
}

// String returns a byte-string parameter, "" when absent
func (v Values) String(name string) string {
	if b, ok := v[name].([]byte); ok {
		return string(b)
	}
	return ""
}

// DecodeArgs reads one value per parameter and advances data
func DecodeArgs(data *[]byte, params []Param) (Values, error) {
	values := make(Values, len(params))
	for _, p := range params {
		switch p.Kind {
		case ParamUint:
			v, err := DecodeVLQUint(data)
			if err != nil {
				return nil, fmt.Errorf("parameter %s: %w", p.Name, err)
			}
			values[p.Name] = v
		case ParamInt:
			v, err := DecodeVLQInt(data)
			if err != nil {
				return nil, fmt.Errorf("parameter %s: %w", p.Name, err)
			}
			values[p.Name] = v
		case ParamBytes:
			b, err := DecodeVLQBytes(data)
			if err != nil {
				return nil, fmt.Errorf("parameter %s: %w", p.Name, err)
			}
			values[p.Name] = append([]byte(nil), b...)
		}
	}
	return values, nil
}

func toInt32(arg any) (int32, error) {
	switch v := arg.(type) {
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case int:
		return int32(v), nil
	case int32:
		return v, nil
	case int64:
		return int32(v), nil
	case uint:
		return int32(v), nil
	case uint8:
		return int32(v), nil
	case uint16:
		return int32(v), nil
	case uint32:
		return int32(v), nil
	case uint64:
		return int32(v), nil
	}
	return 0, fmt.Errorf("want integer, got %T", arg)
}
