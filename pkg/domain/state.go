package domain

// EntityState is the externally observed state of one entity.
type EntityState struct {
	State      string         `json:"state"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Attribute returns the named attribute; a missing attribute or a nil value reports
// false, which evaluators treat as "no value".
func (s EntityState) Attribute(name string) (any, bool) {
	if s.Attributes == nil {
		return nil, false
	}
	v, ok := s.Attributes[name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}
