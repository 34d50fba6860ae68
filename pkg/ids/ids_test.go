package ids

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUUIDGenerator(t *testing.T) {
	g := UUIDGenerator{}
	a := g.New("text")
	b := g.New("text")

	assert.NotEqual(t, a, b)
	assert.Regexp(t, `^text-[0-9a-f]{12}$`, a)
	assert.True(t, Valid(a))
	assert.Regexp(t, `^node-`, g.New(""))
}

func TestSequence(t *testing.T) {
	s := NewSequence()
	assert.Equal(t, "row-1", s.New(PrefixRow))
	assert.Equal(t, "row-2", s.New(PrefixRow))
	assert.Equal(t, "col-1", s.New(PrefixColumn))
	assert.Equal(t, "custom_x-1", s.New("custom:x"))
}

func TestUnique(t *testing.T) {
	taken := map[string]struct{}{"a": {}, "a-2": {}}
	assert.Equal(t, "b", Unique("b", taken))
	assert.Equal(t, "a-3", Unique("a", taken))
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("row-1"))
	assert.True(t, Valid("module.sensor_1"))
	assert.False(t, Valid(""))
	assert.False(t, Valid("has space"))
	assert.False(t, Valid("-leading"))
}
