package condition

import (
	"log/slog"
	"strings"
)

var (
	truthy = map[string]struct{}{"true": {}, "on": {}, "yes": {}, "1": {}}
	falsy  = map[string]struct{}{
		"false": {}, "off": {}, "no": {}, "0": {},
		"unavailable": {}, "unknown": {}, "none": {}, "": {},
	}
)

// ParseBool coerces a rendered state or template output. recognized is false for
// strings that are neither a known token nor a number; those coerce to false.
func ParseBool(raw string) (value bool, recognized bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if _, ok := truthy[s]; ok {
		return true, true
	}
	if _, ok := falsy[s]; ok {
		return false, true
	}
	if f, err := parseNumber(s); err == nil {
		return f != 0, true
	}
	return false, false
}

// Truthy is ParseBool with the unrecognized case logged. An unrecognized token is
// treated as false; this is the documented fail-closed policy.
func Truthy(raw string, logger *slog.Logger) bool {
	v, recognized := ParseBool(raw)
	if !recognized && logger != nil {
		logger.Warn("unrecognized boolean token, treating as false", "value", raw)
	}
	return v
}
