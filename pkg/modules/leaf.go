package modules

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/aretw0/ultracard/pkg/domain"
	"github.com/aretw0/ultracard/pkg/registry"
	"github.com/aretw0/ultracard/pkg/schema"
)

// Leaf module types.
const (
	TypeText      domain.ModuleType = "text"
	TypeIcon      domain.ModuleType = "icon"
	TypeSeparator domain.ModuleType = "separator"
	TypeImage     domain.ModuleType = "image"
	TypeBar       domain.ModuleType = "bar"
)

var alignments = []string{"left", "center", "right"}

// TextSettings configures a text module.
type TextSettings struct {
	Text      string  `mapstructure:"text"`
	FontSize  float64 `mapstructure:"font_size"`
	Color     string  `mapstructure:"color"`
	Alignment string  `mapstructure:"alignment"`
	Bold      bool    `mapstructure:"bold"`
}

// Text renders static text.
func Text() registry.ModuleHandler {
	return &handler[TextSettings]{
		meta: registry.Metadata{
			Type:        TypeText,
			Title:       "Text",
			Description: "Static text with basic typography",
			Icon:        "mdi:format-text",
			Category:    "content",
			Tags:        []string{"label", "title", "typography"},
		},
		fields: schema.Fields{
			"text":      schema.Optional(schema.String()),
			"font_size": schema.Optional(schema.Number()),
			"color":     schema.Optional(schema.String()),
			"alignment": schema.Optional(schema.Enum(alignments...)),
			"bold":      schema.Optional(schema.Bool()),
		},
		defaults: func() TextSettings {
			return TextSettings{Text: "Sample Text", FontSize: 16, Alignment: "left"}
		},
		form: []registry.SettingField{
			{Key: "text", Label: "Text", Kind: registry.FieldText},
			{Key: "font_size", Label: "Font size", Kind: registry.FieldNumber},
			{Key: "color", Label: "Color", Kind: registry.FieldColor},
			{Key: "alignment", Label: "Alignment", Kind: registry.FieldSelect, Options: alignments},
			{Key: "bold", Label: "Bold", Kind: registry.FieldToggle},
		},
		preview: func(s TextSettings, _ domain.Module, _ registry.RenderContext) string {
			if s.Bold && s.Text != "" {
				return "**" + s.Text + "**"
			}
			return s.Text
		},
	}
}

// IconSettings configures an icon module.
type IconSettings struct {
	Icon      string  `mapstructure:"icon"`
	Entity    string  `mapstructure:"entity"`
	Size      float64 `mapstructure:"icon_size"`
	Color     string  `mapstructure:"icon_color"`
	ShowState bool    `mapstructure:"show_state"`
}

// Icon renders an icon, optionally labelled with an entity state.
func Icon() registry.ModuleHandler {
	return &handler[IconSettings]{
		meta: registry.Metadata{
			Type:        TypeIcon,
			Title:       "Icon",
			Description: "Icon bound to an entity",
			Icon:        "mdi:emoticon-outline",
			Category:    "content",
			Tags:        []string{"entity", "state", "symbol"},
		},
		fields: schema.Fields{
			"icon":       schema.Optional(schema.String()),
			"entity":     schema.Optional(schema.String()),
			"icon_size":  schema.Optional(schema.Number()),
			"icon_color": schema.Optional(schema.String()),
			"show_state": schema.Optional(schema.Bool()),
		},
		defaults: func() IconSettings {
			return IconSettings{Icon: "mdi:star", Size: 24}
		},
		form: []registry.SettingField{
			{Key: "icon", Label: "Icon", Kind: registry.FieldIcon},
			{Key: "entity", Label: "Entity", Kind: registry.FieldEntity},
			{Key: "icon_size", Label: "Size", Kind: registry.FieldNumber},
			{Key: "icon_color", Label: "Color", Kind: registry.FieldColor},
			{Key: "show_state", Label: "Show state", Kind: registry.FieldToggle},
		},
		preview: func(s IconSettings, _ domain.Module, rc registry.RenderContext) string {
			out := "`" + s.Icon + "`"
			if s.ShowState && s.Entity != "" {
				out += " " + entityState(rc, s.Entity)
			}
			return out
		},
	}
}

// SeparatorSettings configures a separator module.
type SeparatorSettings struct {
	Style     string  `mapstructure:"separator_style"`
	Thickness float64 `mapstructure:"thickness"`
	Color     string  `mapstructure:"color"`
}

var separatorStyles = []string{"line", "double_line", "dotted", "dashed", "blank"}

// Separator renders a horizontal rule or spacer.
func Separator() registry.ModuleHandler {
	return &handler[SeparatorSettings]{
		meta: registry.Metadata{
			Type:        TypeSeparator,
			Title:       "Separator",
			Description: "Divider between modules",
			Icon:        "mdi:minus",
			Category:    "layout",
			Tags:        []string{"divider", "spacer", "line"},
		},
		fields: schema.Fields{
			"separator_style": schema.Optional(schema.Enum(separatorStyles...)),
			"thickness":       schema.Optional(schema.Number()),
			"color":           schema.Optional(schema.String()),
		},
		defaults: func() SeparatorSettings {
			return SeparatorSettings{Style: "line", Thickness: 1}
		},
		form: []registry.SettingField{
			{Key: "separator_style", Label: "Style", Kind: registry.FieldSelect, Options: separatorStyles},
			{Key: "thickness", Label: "Thickness", Kind: registry.FieldNumber},
			{Key: "color", Label: "Color", Kind: registry.FieldColor},
		},
		preview: func(s SeparatorSettings, _ domain.Module, _ registry.RenderContext) string {
			if s.Style == "blank" {
				return ""
			}
			return "---"
		},
	}
}

// ImageSettings configures an image module.
type ImageSettings struct {
	Source string  `mapstructure:"image_type"`
	URL    string  `mapstructure:"image_url"`
	Entity string  `mapstructure:"image_entity"`
	Width  float64 `mapstructure:"width"`
	Alt    string  `mapstructure:"alt_text"`
}

var imageSources = []string{"default", "url", "entity"}

// Image renders a picture from a URL or an entity picture.
func Image() registry.ModuleHandler {
	return &handler[ImageSettings]{
		meta: registry.Metadata{
			Type:        TypeImage,
			Title:       "Image",
			Description: "Picture from a URL or an entity",
			Icon:        "mdi:image",
			Category:    "media",
			Tags:        []string{"picture", "photo", "camera"},
		},
		fields: schema.Fields{
			"image_type":   schema.Optional(schema.Enum(imageSources...)),
			"image_url":    schema.Optional(schema.String()),
			"image_entity": schema.Optional(schema.String()),
			"width":        schema.Optional(schema.Number()),
			"alt_text":     schema.Optional(schema.String()),
		},
		defaults: func() ImageSettings {
			return ImageSettings{Source: "default", Width: 100}
		},
		form: []registry.SettingField{
			{Key: "image_type", Label: "Source", Kind: registry.FieldSelect, Options: imageSources},
			{Key: "image_url", Label: "URL", Kind: registry.FieldText},
			{Key: "image_entity", Label: "Entity", Kind: registry.FieldEntity},
			{Key: "width", Label: "Width (%)", Kind: registry.FieldNumber},
			{Key: "alt_text", Label: "Alt text", Kind: registry.FieldText},
		},
		preview: func(s ImageSettings, m domain.Module, rc registry.RenderContext) string {
			src := s.URL
			if s.Source == "entity" && s.Entity != "" {
				src = entityAttribute(rc, s.Entity, "entity_picture")
			}
			alt := s.Alt
			if alt == "" {
				alt = m.Name
			}
			if src == "" {
				return "_(image)_"
			}
			return fmt.Sprintf("![%s](%s)", alt, src)
		},
	}
}

// BarSettings configures a progress bar module.
type BarSettings struct {
	Entity string  `mapstructure:"entity"`
	Min    float64 `mapstructure:"min_value"`
	Max    float64 `mapstructure:"max_value"`
	Unit   string  `mapstructure:"unit"`
	Width  float64 `mapstructure:"bar_width"`
	Color  string  `mapstructure:"bar_color"`
}

// Bar renders a numeric entity as a progress bar.
func Bar() registry.ModuleHandler {
	return &handler[BarSettings]{
		meta: registry.Metadata{
			Type:        TypeBar,
			Title:       "Bar",
			Description: "Progress bar driven by a numeric entity",
			Icon:        "mdi:chart-bar",
			Category:    "data",
			Tags:        []string{"progress", "gauge", "battery", "percentage"},
		},
		fields: schema.Fields{
			"entity":    schema.Optional(schema.String()),
			"min_value": schema.Optional(schema.Number()),
			"max_value": schema.Optional(schema.Number()),
			"unit":      schema.Optional(schema.String()),
			"bar_width": schema.Optional(schema.Number()),
			"bar_color": schema.Optional(schema.String()),
		},
		defaults: func() BarSettings {
			return BarSettings{Max: 100, Width: 100, Unit: "%"}
		},
		form: []registry.SettingField{
			{Key: "entity", Label: "Entity", Kind: registry.FieldEntity},
			{Key: "min_value", Label: "Minimum", Kind: registry.FieldNumber},
			{Key: "max_value", Label: "Maximum", Kind: registry.FieldNumber},
			{Key: "unit", Label: "Unit", Kind: registry.FieldText},
			{Key: "bar_width", Label: "Width (%)", Kind: registry.FieldNumber},
			{Key: "bar_color", Label: "Color", Kind: registry.FieldColor},
		},
		preview: func(s BarSettings, _ domain.Module, rc registry.RenderContext) string {
			raw := entityState(rc, s.Entity)
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil || s.Max <= s.Min {
				return "`[" + strings.Repeat("░", barCells) + "]`"
			}
			return progress(v, s.Min, s.Max, raw+s.Unit)
		},
	}
}

const barCells = 10

func progress(v, lo, hi float64, label string) string {
	ratio := math.Max(0, math.Min(1, (v-lo)/(hi-lo)))
	filled := int(math.Round(ratio * barCells))
	return fmt.Sprintf("`[%s%s]` %s", strings.Repeat("▓", filled), strings.Repeat("░", barCells-filled), label)
}

func entityState(rc registry.RenderContext, entityID string) string {
	if rc.Snapshot == nil || entityID == "" {
		return ""
	}
	st, ok := rc.Snapshot.State(entityID)
	if !ok {
		return "unavailable"
	}
	return st.State
}

func entityAttribute(rc registry.RenderContext, entityID, attr string) string {
	if rc.Snapshot == nil {
		return ""
	}
	st, ok := rc.Snapshot.State(entityID)
	if !ok {
		return ""
	}
	v, _ := st.Attribute(attr)
	return domain.StringValue(v)
}
