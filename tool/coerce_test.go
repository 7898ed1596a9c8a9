package tool

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bpowers/agentcore/schema"
)

func TestCoerceBasicTypes(t *testing.T) {
	assert.Equal(t, 3, Coerce("3", &schema.JSON{Type: schema.Integer}))
	assert.Equal(t, 3, Coerce(float64(3), &schema.JSON{Type: schema.Integer}))
	assert.Equal(t, 2.5, Coerce("2.5", &schema.JSON{Type: schema.Number}))
	assert.Equal(t, true, Coerce("yes", &schema.JSON{Type: schema.Boolean}))
	assert.Equal(t, false, Coerce("nope", &schema.JSON{Type: schema.Boolean}))
	assert.Equal(t, "5", Coerce(5, &schema.JSON{Type: schema.String}))
}

func TestCoerceLeavesUnparsableValuesUnmodified(t *testing.T) {
	assert.Equal(t, "abc", Coerce("abc", &schema.JSON{Type: schema.Integer}))
}

func TestCoerceNilSchemaPassesThrough(t *testing.T) {
	assert.Equal(t, "abc", Coerce("abc", nil))
}

func TestCoerceArrayRecurses(t *testing.T) {
	s := &schema.JSON{Type: schema.Array, Items: &schema.JSON{Type: schema.Integer}}
	out := Coerce([]any{"1", "2", "3"}, s)
	assert.Equal(t, []any{1, 2, 3}, out)
}

func TestCoerceObjectRecursesKnownPropertiesOnly(t *testing.T) {
	s := &schema.JSON{
		Type: schema.Object,
		Properties: map[string]*schema.JSON{
			"count": {Type: schema.Integer},
		},
	}
	out := Coerce(map[string]any{"count": "4", "extra": "left alone"}, s)
	obj, ok := out.(map[string]any)
	assert.True(t, ok)
	assert.Equal(t, 4, obj["count"])
	assert.Equal(t, "left alone", obj["extra"])
}
