package domain

import "encoding/json"

// CardType is the fixed discriminator of a persisted card document.
const CardType = "custom:ultra-card"

// CardConfig is the root of a card document.
type CardConfig struct {
	Type             string   `json:"type"`
	Layout           Layout   `json:"layout"`
	CardBackground   string   `json:"card_background,omitempty"`
	CardBorderRadius *float64 `json:"card_border_radius,omitempty"`
	CardPadding      *float64 `json:"card_padding,omitempty"`
	CardMargin       *float64 `json:"card_margin,omitempty"`

	// Extra keeps root keys this package does not model so they survive a round trip.
	Extra map[string]any `json:"-"`
}

// Layout is the ordered list of rows; order is visual order.
type Layout struct {
	Rows []Row `json:"rows"`
}

// NewCard returns an empty card document with a valid discriminator.
func NewCard() CardConfig {
	return CardConfig{Type: CardType, Layout: Layout{Rows: []Row{}}}
}

var cardKeys = jsonKeys(cardConfigPlain{})

type cardConfigPlain CardConfig

func (c CardConfig) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(cardConfigPlain(c), c.Extra, nil)
}

func (c *CardConfig) UnmarshalJSON(data []byte) error {
	var p cardConfigPlain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := extraFields(data, cardKeys)
	if err != nil {
		return err
	}
	p.Extra = extra
	*c = CardConfig(p)
	return nil
}

// Clone returns a deep copy of the card.
func (c CardConfig) Clone() CardConfig {
	out := c
	out.Layout = c.Layout.Clone()
	out.CardBorderRadius = cloneFloat(c.CardBorderRadius)
	out.CardPadding = cloneFloat(c.CardPadding)
	out.CardMargin = cloneFloat(c.CardMargin)
	out.Extra = CloneMap(c.Extra)
	return out
}

// Clone returns a deep copy of the layout. A nil row slice stays nil.
func (l Layout) Clone() Layout {
	if l.Rows == nil {
		return Layout{}
	}
	rows := make([]Row, len(l.Rows))
	for i, r := range l.Rows {
		rows[i] = r.Clone()
	}
	return Layout{Rows: rows}
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
