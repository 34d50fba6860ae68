package condition

import (
	"sync"
	"time"

	"github.com/aretw0/ultracard/pkg/domain"
	"github.com/aretw0/ultracard/pkg/ports"
)

// Snapshot is the read-only view of the outside world for one evaluation pass.
type Snapshot interface {
	State(entityID string) (domain.EntityState, bool)
	Now() time.Time
	// Template returns the boolean result of a template expression, false when it
	// cannot be evaluated.
	Template(expr string) bool
}

// Static is a fixed snapshot, mostly useful in tests.
type Static struct {
	States    map[string]domain.EntityState
	At        time.Time
	Templates map[string]bool
}

func (s Static) State(entityID string) (domain.EntityState, bool) {
	st, ok := s.States[entityID]
	return st, ok
}

func (s Static) Now() time.Time { return s.At }

func (s Static) Template(expr string) bool { return s.Templates[expr] }

// Memo captures a live state reader for one pass: the first read of each entity and
// each template is remembered and every later read returns the same value.
type Memo struct {
	reader    ports.StateReader
	now       time.Time
	templates func(string) bool

	mu       sync.Mutex
	states   map[string]memoState
	rendered map[string]bool
}

type memoState struct {
	state domain.EntityState
	ok    bool
}

// NewMemo pins now and wraps reader. templates may be nil, in which case template
// expressions evaluate to false.
func NewMemo(reader ports.StateReader, now time.Time, templates func(string) bool) *Memo {
	return &Memo{
		reader:    reader,
		now:       now,
		templates: templates,
		states:    make(map[string]memoState),
		rendered:  make(map[string]bool),
	}
}

func (m *Memo) State(entityID string) (domain.EntityState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.states[entityID]; ok {
		return s.state, s.ok
	}
	var s memoState
	if m.reader != nil {
		s.state, s.ok = m.reader.State(entityID)
	}
	m.states[entityID] = s
	return s.state, s.ok
}

func (m *Memo) Now() time.Time { return m.now }

func (m *Memo) Template(expr string) bool {
	m.mu.Lock()
	if v, ok := m.rendered[expr]; ok {
		m.mu.Unlock()
		return v
	}
	m.mu.Unlock()

	v := false
	if m.templates != nil {
		v = m.templates(expr)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.rendered[expr]; ok {
		return prev
	}
	m.rendered[expr] = v
	return v
}
