package domain

import (
	"fmt"
	"strconv"
)

// DisplayMode selects how the enabled conditions of a node combine.
type DisplayMode string

const (
	// DisplayAlways shows the node regardless of its conditions.
	DisplayAlways DisplayMode = "always"
	// DisplayEvery requires all enabled conditions to hold (true when there are none).
	DisplayEvery DisplayMode = "every"
	// DisplayAny requires at least one enabled condition to hold (false when there are none).
	DisplayAny DisplayMode = "any"
)

// Visibility is the rule set carried by rows, columns and modules.
type Visibility struct {
	DisplayMode       DisplayMode `json:"display_mode,omitempty"`
	DisplayConditions []Condition `json:"display_conditions,omitempty"`
	TemplateMode      bool        `json:"template_mode,omitempty"`
	Template          string      `json:"template,omitempty"`
}

// Clone returns a deep copy of the rule set.
func (v Visibility) Clone() Visibility {
	out := v
	if v.DisplayConditions != nil {
		out.DisplayConditions = make([]Condition, len(v.DisplayConditions))
		for i, c := range v.DisplayConditions {
			out.DisplayConditions[i] = c.Clone()
		}
	}
	return out
}

// ConditionType is the kind of a display condition.
type ConditionType string

const (
	ConditionEntityState     ConditionType = "entity_state"
	ConditionEntityAttribute ConditionType = "entity_attribute"
	ConditionTime            ConditionType = "time"
	ConditionTemplate        ConditionType = "template"
)

// Operator compares an observed value with a condition operand.
type Operator string

const (
	OpEqual       Operator = "="
	OpNotEqual    Operator = "!="
	OpGreater     Operator = ">"
	OpGreaterEq   Operator = ">="
	OpLess        Operator = "<"
	OpLessEq      Operator = "<="
	OpContains    Operator = "contains"
	OpNotContains Operator = "not_contains"
	OpHasValue    Operator = "has_value"
	OpNoValue     Operator = "no_value"
)

// IsNumeric reports whether the operator compares parsed numbers.
func (o Operator) IsNumeric() bool {
	switch o {
	case OpGreater, OpGreaterEq, OpLess, OpLessEq:
		return true
	}
	return false
}

// Condition is one visibility rule.
type Condition struct {
	ID        string        `json:"id"`
	Type      ConditionType `json:"type"`
	Entity    string        `json:"entity,omitempty"`
	Attribute string        `json:"attribute,omitempty"`
	Operator  Operator      `json:"operator,omitempty"`
	Value     any           `json:"value,omitempty"`
	TimeFrom  string        `json:"time_from,omitempty"`
	TimeTo    string        `json:"time_to,omitempty"`
	Template  string        `json:"template,omitempty"`
	Enabled   *bool         `json:"enabled,omitempty"`
}

// IsEnabled treats an absent flag as enabled.
func (c Condition) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// ValueString renders the operand the way entity states are rendered: numbers without
// a trailing ".0", booleans as "true"/"false", nil as "".
func (c Condition) ValueString() string {
	return StringValue(c.Value)
}

// Clone returns a copy that does not share the Enabled pointer or a composite operand.
func (c Condition) Clone() Condition {
	out := c
	if c.Enabled != nil {
		e := *c.Enabled
		out.Enabled = &e
	}
	out.Value = CloneValue(c.Value)
	return out
}

// StringValue formats a generic JSON value as a state string.
func StringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case fmt.Stringer:
		return t.String()
	default:
		b, err := jsonString(t)
		if err != nil {
			return ""
		}
		return b
	}
}
