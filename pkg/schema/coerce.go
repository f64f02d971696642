package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// Coerce converts the text form of a value to the declared type. Storage
// backends round-trip values as text, so coercion is applied to generated,
// existing, and overridden values alike.
func (t VarType) Coerce(raw string) (any, error) {
	switch t {
	case TypeString, "":
		return raw, nil
	case TypeInt:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a valid integer", raw)
		}
		return n, nil
	case TypeFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a valid float", raw)
		}
		return f, nil
	case TypeBool:
		return parseBool(raw)
	default:
		return nil, fmt.Errorf("unknown variable type %q", t)
	}
}

// parseBool accepts the spellings commonly found in env files, not just the
// strconv set.
func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "y", "yes", "on":
		return true, nil
	case "0", "f", "false", "n", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("%q is not a valid boolean", raw)
}
