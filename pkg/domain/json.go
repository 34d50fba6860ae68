package domain

import (
	"encoding/json"
	"reflect"
	"strings"
)

// jsonKeys collects the JSON object keys declared by a struct, following embedded
// structs the same way encoding/json flattens them.
func jsonKeys(v any) map[string]struct{} {
	keys := make(map[string]struct{})
	collectKeys(reflect.TypeOf(v), keys)
	return keys
}

func collectKeys(t reflect.Type, keys map[string]struct{}) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name := strings.Split(tag, ",")[0]
		if f.Anonymous && name == "" && f.Type.Kind() == reflect.Struct {
			collectKeys(f.Type, keys)
			continue
		}
		if !f.IsExported() {
			continue
		}
		if name == "" {
			name = f.Name
		}
		keys[name] = struct{}{}
	}
}

// marshalWithExtra encodes v and then adds the keys of extra and force that v did not
// already produce. Output keys are sorted, so encoding is deterministic.
func marshalWithExtra(v any, extra, force map[string]any) ([]byte, error) {
	base, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if len(extra) == 0 && len(force) == 0 {
		return base, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(base, &obj); err != nil {
		return nil, err
	}
	for _, bag := range []map[string]any{extra, force} {
		for k, val := range bag {
			if _, exists := obj[k]; exists {
				continue
			}
			raw, err := json.Marshal(val)
			if err != nil {
				return nil, err
			}
			obj[k] = raw
		}
	}
	return json.Marshal(obj)
}

// extraFields returns the keys of a JSON object that are not in known.
func extraFields(data []byte, known map[string]struct{}) (map[string]any, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, err
	}
	var extra map[string]any
	for k, raw := range obj {
		if _, ok := known[k]; ok {
			continue
		}
		var val any
		if err := json.Unmarshal(raw, &val); err != nil {
			return nil, err
		}
		if extra == nil {
			extra = make(map[string]any)
		}
		extra[k] = val
	}
	return extra, nil
}

// CloneMap deep-copies a generic JSON-like map. A nil map stays nil.
func CloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = CloneValue(v)
	}
	return out
}

// CloneValue deep-copies maps and slices inside a generic value.
func CloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = CloneValue(e)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}

func jsonString(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
