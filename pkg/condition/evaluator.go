package condition

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/ultracard/internal/logging"
	"github.com/aretw0/ultracard/pkg/domain"
)

// Evaluator decides single conditions. It holds no state besides its logger and is
// safe for concurrent use.
type Evaluator struct {
	logger *slog.Logger
}

// Option configures the Evaluator.
type Option func(*Evaluator)

// WithLogger configures a logger for evaluation failures.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) {
		e.logger = logger
	}
}

// New creates an Evaluator.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate returns whether the condition holds in the snapshot. Disabled conditions
// are the caller's concern; Evaluate looks only at the rule itself.
func (e *Evaluator) Evaluate(c domain.Condition, snap Snapshot) bool {
	switch c.Type {
	case domain.ConditionEntityState:
		return e.entityState(c, snap)
	case domain.ConditionEntityAttribute:
		return e.entityAttribute(c, snap)
	case domain.ConditionTime:
		return e.timeWindow(c, snap.Now())
	case domain.ConditionTemplate:
		if strings.TrimSpace(c.Template) == "" {
			return false
		}
		return snap.Template(c.Template)
	default:
		e.logger.Warn("unknown condition type", "condition_id", c.ID, "type", c.Type)
		return false
	}
}

func (e *Evaluator) entityState(c domain.Condition, snap Snapshot) bool {
	if c.Entity == "" {
		return false
	}
	st, ok := snap.State(c.Entity)
	if !ok {
		return e.compare(c, nil, false)
	}
	return e.compare(c, st.State, true)
}

func (e *Evaluator) entityAttribute(c domain.Condition, snap Snapshot) bool {
	if c.Entity == "" || c.Attribute == "" {
		return false
	}
	st, ok := snap.State(c.Entity)
	if !ok {
		return e.compare(c, nil, false)
	}
	v, ok := st.Attribute(c.Attribute)
	return e.compare(c, v, ok)
}

// compare applies the operator. present is false when the entity or attribute is
// missing, which only has_value/no_value can match.
func (e *Evaluator) compare(c domain.Condition, observed any, present bool) bool {
	op := c.Operator
	if op == "" {
		op = domain.OpEqual
	}
	text := domain.StringValue(observed)
	hasValue := present && text != ""

	switch op {
	case domain.OpHasValue:
		return hasValue
	case domain.OpNoValue:
		return !hasValue
	}
	if !present {
		return false
	}

	operand := c.ValueString()
	switch op {
	case domain.OpEqual:
		return text == operand
	case domain.OpNotEqual:
		return text != operand
	case domain.OpContains:
		return contains(observed, operand)
	case domain.OpNotContains:
		return !contains(observed, operand)
	case domain.OpGreater, domain.OpGreaterEq, domain.OpLess, domain.OpLessEq:
		left, errL := parseNumber(text)
		right, errR := parseNumber(operand)
		if errL != nil || errR != nil {
			e.logger.Debug("non-numeric operand for numeric operator",
				"condition_id", c.ID, "operator", op, "observed", text, "value", operand)
			return false
		}
		switch op {
		case domain.OpGreater:
			return left > right
		case domain.OpGreaterEq:
			return left >= right
		case domain.OpLess:
			return left < right
		default:
			return left <= right
		}
	default:
		e.logger.Warn("unknown operator", "condition_id", c.ID, "operator", op)
		return false
	}
}

// contains matches substrings of scalar values and elements of list attributes.
func contains(observed any, operand string) bool {
	if list, ok := observed.([]any); ok {
		for _, item := range list {
			if domain.StringValue(item) == operand {
				return true
			}
		}
		return false
	}
	return strings.Contains(domain.StringValue(observed), operand)
}

var errNotFinite = errors.New("not a finite number")

// parseNumber accepts finite decimal numbers only; "inf" and "nan" are not states a
// numeric comparison can order.
func parseNumber(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("%q: %w", s, errNotFinite)
	}
	return f, nil
}

func (e *Evaluator) timeWindow(c domain.Condition, now time.Time) bool {
	from, err := parseClock(c.TimeFrom, 0)
	if err != nil {
		e.logger.Warn("invalid time condition", "condition_id", c.ID, "time_from", c.TimeFrom, "err", err)
		return false
	}
	to, err := parseClock(c.TimeTo, 23*60+59)
	if err != nil {
		e.logger.Warn("invalid time condition", "condition_id", c.ID, "time_to", c.TimeTo, "err", err)
		return false
	}
	return InWindow(now.Hour()*60+now.Minute(), from, to)
}

// InWindow tests a minute-of-day against [from, to]. A window with from > to wraps
// past midnight.
func InWindow(minute, from, to int) bool {
	if from <= to {
		return minute >= from && minute <= to
	}
	return minute >= from || minute <= to
}

// parseClock reads "HH:MM" (seconds, if present, are ignored) as minute-of-day.
func parseClock(s string, fallback int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback, nil
	}
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	return h*60 + m, nil
}

// ValidClock reports whether s is a well-formed HH:MM time.
func ValidClock(s string) bool {
	_, err := parseClock(s, 0)
	return err == nil && strings.TrimSpace(s) != ""
}
