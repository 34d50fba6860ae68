package schema

import "sort"

// Field is one declared setting.
type Field struct {
	Type     Type
	Required bool
}

// Fields maps setting keys to their declaration.
type Fields map[string]Field

// Required declares a key that must be present.
func Required(t Type) Field { return Field{Type: t, Required: true} }

// Optional declares a key that may be absent; when present it must match t.
func Optional(t Type) Field { return Field{Type: t} }

// Validate checks data against the declared fields. Keys not declared are ignored
// so unknown settings survive. A failure is returned as SettingErrors ordered by key.
func Validate(fields Fields, data map[string]any) error {
	if len(fields) == 0 {
		return nil
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs SettingErrors
	for _, key := range keys {
		field := fields[key]
		value, exists := data[key]
		if !exists || value == nil {
			if field.Required {
				errs = append(errs, &SettingError{Setting: key, Err: ErrRequired})
			}
			continue
		}
		if err := field.Type.Validate(value); err != nil {
			errs = append(errs, &SettingError{Setting: key, Value: value, Err: err})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
