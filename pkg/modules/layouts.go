package modules

import (
	"fmt"

	"github.com/aretw0/ultracard/pkg/domain"
	"github.com/aretw0/ultracard/pkg/registry"
	"github.com/aretw0/ultracard/pkg/schema"
)

var (
	justify  = []string{"flex-start", "center", "flex-end", "space-between", "space-around"}
	triggers = []string{"button", "icon", "page_load", "logic"}
)

// HorizontalSettings configures a horizontal layout.
type HorizontalSettings struct {
	Gap       float64 `mapstructure:"gap"`
	Alignment string  `mapstructure:"alignment"`
	Wrap      bool    `mapstructure:"wrap"`
}

// Horizontal places its children side by side.
func Horizontal() registry.ModuleHandler {
	return &handler[HorizontalSettings]{
		meta: registry.Metadata{
			Type:        domain.ModuleHorizontal,
			Title:       "Horizontal Layout",
			Description: "Arrange modules in a row",
			Icon:        "mdi:view-column",
			Category:    "layout",
			Tags:        []string{"container", "row", "flex"},
		},
		fields: schema.Fields{
			"gap":       schema.Optional(schema.Number()),
			"alignment": schema.Optional(schema.Enum(justify...)),
			"wrap":      schema.Optional(schema.Bool()),
		},
		defaults: func() HorizontalSettings {
			return HorizontalSettings{Gap: 8, Alignment: "flex-start"}
		},
		form: []registry.SettingField{
			{Key: "gap", Label: "Gap", Kind: registry.FieldNumber},
			{Key: "alignment", Label: "Alignment", Kind: registry.FieldSelect, Options: justify},
			{Key: "wrap", Label: "Wrap", Kind: registry.FieldToggle},
		},
		preview: func(_ HorizontalSettings, m domain.Module, _ registry.RenderContext) string {
			return layoutHeading("Horizontal", m)
		},
	}
}

// VerticalSettings configures a vertical layout.
type VerticalSettings struct {
	Gap       float64 `mapstructure:"gap"`
	Alignment string  `mapstructure:"alignment"`
}

// Vertical stacks its children.
func Vertical() registry.ModuleHandler {
	return &handler[VerticalSettings]{
		meta: registry.Metadata{
			Type:        domain.ModuleVertical,
			Title:       "Vertical Layout",
			Description: "Stack modules in a column",
			Icon:        "mdi:view-sequential",
			Category:    "layout",
			Tags:        []string{"container", "column", "stack"},
		},
		fields: schema.Fields{
			"gap":       schema.Optional(schema.Number()),
			"alignment": schema.Optional(schema.Enum(justify...)),
		},
		defaults: func() VerticalSettings {
			return VerticalSettings{Gap: 8, Alignment: "flex-start"}
		},
		form: []registry.SettingField{
			{Key: "gap", Label: "Gap", Kind: registry.FieldNumber},
			{Key: "alignment", Label: "Alignment", Kind: registry.FieldSelect, Options: justify},
		},
		preview: func(_ VerticalSettings, m domain.Module, _ registry.RenderContext) string {
			return layoutHeading("Vertical", m)
		},
	}
}

// AccordionSettings configures an accordion.
type AccordionSettings struct {
	Title         string `mapstructure:"title_text"`
	Icon          string `mapstructure:"icon"`
	OpenByDefault bool   `mapstructure:"default_open"`
}

// Accordion hides its children behind a collapsible header.
func Accordion() registry.ModuleHandler {
	return &handler[AccordionSettings]{
		meta: registry.Metadata{
			Type:        domain.ModuleAccordion,
			Title:       "Accordion",
			Description: "Collapsible section holding modules",
			Icon:        "mdi:arrow-expand-vertical",
			Category:    "layout",
			Tags:        []string{"container", "collapse", "expand"},
		},
		fields: schema.Fields{
			"title_text":   schema.Optional(schema.String()),
			"icon":         schema.Optional(schema.String()),
			"default_open": schema.Optional(schema.Bool()),
		},
		defaults: func() AccordionSettings {
			return AccordionSettings{Title: "Accordion", Icon: "mdi:chevron-down"}
		},
		form: []registry.SettingField{
			{Key: "title_text", Label: "Title", Kind: registry.FieldText},
			{Key: "icon", Label: "Icon", Kind: registry.FieldIcon},
			{Key: "default_open", Label: "Open by default", Kind: registry.FieldToggle},
		},
		preview: func(s AccordionSettings, _ domain.Module, _ registry.RenderContext) string {
			marker := "▸"
			if s.OpenByDefault {
				marker = "▾"
			}
			return fmt.Sprintf("%s **%s**", marker, s.Title)
		},
	}
}

// PopupSettings configures a popup.
type PopupSettings struct {
	Title       string `mapstructure:"title_text"`
	TriggerType string `mapstructure:"trigger_type"`
	ButtonText  string `mapstructure:"trigger_button_text"`
	AutoClose   bool   `mapstructure:"auto_close"`
}

// Popup shows its children in a dialog opened by a trigger.
func Popup() registry.ModuleHandler {
	return &handler[PopupSettings]{
		meta: registry.Metadata{
			Type:        domain.ModulePopup,
			Title:       "Popup",
			Description: "Dialog with modules, opened by a trigger",
			Icon:        "mdi:window-maximize",
			Category:    "layout",
			Tags:        []string{"container", "dialog", "modal"},
		},
		fields: schema.Fields{
			"title_text":          schema.Optional(schema.String()),
			"trigger_type":        schema.Optional(schema.Enum(triggers...)),
			"trigger_button_text": schema.Optional(schema.String()),
			"auto_close":          schema.Optional(schema.Bool()),
		},
		defaults: func() PopupSettings {
			return PopupSettings{Title: "Popup", TriggerType: "button", ButtonText: "Open", AutoClose: true}
		},
		form: []registry.SettingField{
			{Key: "title_text", Label: "Title", Kind: registry.FieldText},
			{Key: "trigger_type", Label: "Trigger", Kind: registry.FieldSelect, Options: triggers},
			{Key: "trigger_button_text", Label: "Button text", Kind: registry.FieldText},
			{Key: "auto_close", Label: "Close on outside click", Kind: registry.FieldToggle},
		},
		preview: func(s PopupSettings, _ domain.Module, _ registry.RenderContext) string {
			return fmt.Sprintf("[%s] _(popup: %s)_", s.ButtonText, s.Title)
		},
	}
}

// SliderSettings configures a slider.
type SliderSettings struct {
	Autoplay       bool    `mapstructure:"auto_play"`
	Interval       float64 `mapstructure:"auto_play_delay"`
	Loop           bool    `mapstructure:"loop"`
	ShowPagination bool    `mapstructure:"show_pagination"`
}

// Slider pages through its children one at a time.
func Slider() registry.ModuleHandler {
	return &handler[SliderSettings]{
		meta: registry.Metadata{
			Type:        domain.ModuleSlider,
			Title:       "Slider",
			Description: "Carousel paging through modules",
			Icon:        "mdi:view-carousel",
			Category:    "layout",
			Tags:        []string{"container", "carousel", "pages"},
		},
		fields: schema.Fields{
			"auto_play":       schema.Optional(schema.Bool()),
			"auto_play_delay": schema.Optional(schema.Number()),
			"loop":            schema.Optional(schema.Bool()),
			"show_pagination": schema.Optional(schema.Bool()),
		},
		defaults: func() SliderSettings {
			return SliderSettings{Interval: 3000, Loop: true, ShowPagination: true}
		},
		form: []registry.SettingField{
			{Key: "auto_play", Label: "Autoplay", Kind: registry.FieldToggle},
			{Key: "auto_play_delay", Label: "Delay (ms)", Kind: registry.FieldNumber},
			{Key: "loop", Label: "Loop", Kind: registry.FieldToggle},
			{Key: "show_pagination", Label: "Pagination", Kind: registry.FieldToggle},
		},
		preview: func(_ SliderSettings, m domain.Module, _ registry.RenderContext) string {
			return fmt.Sprintf("_(slider: %d slides)_", len(m.Modules))
		},
	}
}

func layoutHeading(kind string, m domain.Module) string {
	if m.Name != "" {
		return fmt.Sprintf("_%s: %s_", kind, m.Name)
	}
	return fmt.Sprintf("_%s_", kind)
}
