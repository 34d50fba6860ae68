package domain

import "encoding/json"

// ModuleType identifies a module implementation in the registry.
type ModuleType string

// Layout module types. A module of one of these types owns ordered children and may
// not itself be placed inside another layout module.
const (
	ModuleHorizontal ModuleType = "horizontal"
	ModuleVertical   ModuleType = "vertical"
	ModuleAccordion  ModuleType = "accordion"
	ModulePopup      ModuleType = "popup"
	ModuleSlider     ModuleType = "slider"
)

var layoutTypes = map[ModuleType]struct{}{
	ModuleHorizontal: {},
	ModuleVertical:   {},
	ModuleAccordion:  {},
	ModulePopup:      {},
	ModuleSlider:     {},
}

// IsLayoutType reports whether t belongs to the closed set of container types.
func IsLayoutType(t ModuleType) bool {
	_, ok := layoutTypes[t]
	return ok
}

// Row is a horizontal band of columns.
type Row struct {
	ID           string   `json:"id"`
	Name         string   `json:"name,omitempty"`
	ColumnLayout string   `json:"column_layout,omitempty"`
	Columns      []Column `json:"columns"`
	Visibility

	// Style holds design keys (background, padding, gap...) that the core never reads.
	Style map[string]any `json:"-"`
}

// Column is a vertical stack of modules inside a row.
type Column struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name,omitempty"`
	VerticalAlignment   string   `json:"vertical_alignment,omitempty"`
	HorizontalAlignment string   `json:"horizontal_alignment,omitempty"`
	Modules             []Module `json:"modules"`
	Visibility

	Style map[string]any `json:"-"`
}

// Module is one content block. When Type is a layout type, Modules holds its
// children; for every other type Modules stays nil.
type Module struct {
	ID      string     `json:"id"`
	Type    ModuleType `json:"type"`
	Name    string     `json:"name,omitempty"`
	Modules []Module   `json:"modules,omitempty"`
	Visibility
	Animation

	// Fields carries the type-specific settings owned by the module implementation.
	Fields map[string]any `json:"-"`
}

// IsLayout reports whether the module is a container.
func (m Module) IsLayout() bool { return IsLayoutType(m.Type) }

// Animation holds the intro/outro and state-triggered animation settings of a module.
type Animation struct {
	IntroAnimation       string `json:"intro_animation,omitempty"`
	OutroAnimation       string `json:"outro_animation,omitempty"`
	AnimationDuration    string `json:"animation_duration,omitempty"`
	AnimationDelay       string `json:"animation_delay,omitempty"`
	AnimationTiming      string `json:"animation_timing,omitempty"`
	AnimationType        string `json:"animation_type,omitempty"`
	AnimationEntity      string `json:"animation_entity,omitempty"`
	AnimationTriggerType string `json:"animation_trigger_type,omitempty"`
	AnimationAttribute   string `json:"animation_attribute,omitempty"`
	AnimationState       string `json:"animation_state,omitempty"`
}

// Trigger types for state-driven animations.
const (
	TriggerState     = "state"
	TriggerAttribute = "attribute"
)

type (
	rowPlain    Row
	columnPlain Column
	modulePlain Module
)

var (
	rowKeys    = jsonKeys(rowPlain{})
	columnKeys = jsonKeys(columnPlain{})
	moduleKeys = jsonKeys(modulePlain{})
)

func (r Row) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(rowPlain(r), r.Style, nil)
}

func (r *Row) UnmarshalJSON(data []byte) error {
	var p rowPlain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := extraFields(data, rowKeys)
	if err != nil {
		return err
	}
	p.Style = extra
	*r = Row(p)
	return nil
}

func (c Column) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(columnPlain(c), c.Style, nil)
}

func (c *Column) UnmarshalJSON(data []byte) error {
	var p columnPlain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := extraFields(data, columnKeys)
	if err != nil {
		return err
	}
	p.Style = extra
	*c = Column(p)
	return nil
}

func (m Module) MarshalJSON() ([]byte, error) {
	var force map[string]any
	if m.IsLayout() && len(m.Modules) == 0 {
		force = map[string]any{"modules": []any{}}
	}
	return marshalWithExtra(modulePlain(m), m.Fields, force)
}

func (m *Module) UnmarshalJSON(data []byte) error {
	var p modulePlain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := extraFields(data, moduleKeys)
	if err != nil {
		return err
	}
	p.Fields = extra
	*m = Module(p)
	return nil
}

// Clone returns a deep copy of the row.
func (r Row) Clone() Row {
	out := r
	out.Visibility = r.Visibility.Clone()
	out.Style = CloneMap(r.Style)
	if r.Columns != nil {
		out.Columns = make([]Column, len(r.Columns))
		for i, c := range r.Columns {
			out.Columns[i] = c.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the column.
func (c Column) Clone() Column {
	out := c
	out.Visibility = c.Visibility.Clone()
	out.Style = CloneMap(c.Style)
	out.Modules = cloneModules(c.Modules)
	return out
}

// Clone returns a deep copy of the module, including layout children.
func (m Module) Clone() Module {
	out := m
	out.Visibility = m.Visibility.Clone()
	out.Fields = CloneMap(m.Fields)
	out.Modules = cloneModules(m.Modules)
	return out
}

func cloneModules(in []Module) []Module {
	if in == nil {
		return nil
	}
	out := make([]Module, len(in))
	for i, m := range in {
		out[i] = m.Clone()
	}
	return out
}

// IsModuleKey reports whether key is a modeled module attribute rather than a
// type-specific field.
func IsModuleKey(key string) bool {
	_, ok := moduleKeys[key]
	return ok
}
