package validator

import "github.com/aretw0/ultracard/pkg/domain"

// Merge deep-merges override over base and returns a new map. Nested maps merge key by
// key; any other override value replaces the base value, including lists.
func Merge(base, override map[string]any) map[string]any {
	if base == nil && override == nil {
		return nil
	}
	out := domain.CloneMap(base)
	if out == nil {
		out = make(map[string]any, len(override))
	}
	for k, v := range override {
		bm, baseIsMap := out[k].(map[string]any)
		om, overIsMap := v.(map[string]any)
		if baseIsMap && overIsMap {
			out[k] = Merge(bm, om)
			continue
		}
		out[k] = domain.CloneValue(v)
	}
	return out
}
