// Package ids mints node identifiers and checks their shape.
//
// Identifiers are "<prefix>-<suffix>" where prefix is the node kind or module type
// ("row", "col", "text", "horizontal"...). The default generator uses the first 12 hex
// digits of a UUIDv4 as suffix; tests use a deterministic sequence.
package ids

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Prefixes for structural nodes. Modules use their type as prefix.
const (
	PrefixRow       = "row"
	PrefixColumn    = "col"
	PrefixCondition = "condition"
)

// Generator mints a new identifier for the given prefix.
type Generator interface {
	New(prefix string) string
}

// UUIDGenerator mints random identifiers.
type UUIDGenerator struct{}

// New returns prefix-<12 hex digits>.
func (UUIDGenerator) New(prefix string) string {
	u := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%s-%s", sanitize(prefix), u[:12])
}

// Sequence mints prefix-1, prefix-2, ... per prefix. Safe for concurrent use.
type Sequence struct {
	mu   sync.Mutex
	next map[string]int
}

// NewSequence creates a deterministic generator.
func NewSequence() *Sequence {
	return &Sequence{next: make(map[string]int)}
}

// New returns the next identifier for prefix.
func (s *Sequence) New(prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := sanitize(prefix)
	s.next[p]++
	return fmt.Sprintf("%s-%d", p, s.next[p])
}

// Default is the generator used when none is injected.
var Default Generator = UUIDGenerator{}

var shape = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.:-]*$`)

// Valid reports whether id is non-empty and made of URL-safe characters.
func Valid(id string) bool {
	return shape.MatchString(id)
}

func sanitize(prefix string) string {
	p := strings.TrimSpace(prefix)
	if p == "" {
		return "node"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, p)
}

// Unique returns id if it is not in taken, otherwise the first of id-2, id-3, ... that
// is free. The result is deterministic for a given taken set.
func Unique(id string, taken map[string]struct{}) string {
	if _, used := taken[id]; !used {
		return id
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s-%d", id, n)
		if _, used := taken[candidate]; !used {
			return candidate
		}
	}
}
