package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleArgs struct {
	Path     string   `json:"path,omitzero" desc:"a path"`
	Count    int      `json:"count"`
	Tags     []string `json:"tags,omitempty"`
	Internal string   `json:"-"`
	unexported string
}

func TestFromStructDerivesPropertiesAndRequired(t *testing.T) {
	s := FromStruct(sampleArgs{})
	require.NotNil(t, s)
	assert.Equal(t, Object, s.Type)

	require.Contains(t, s.Properties, "path")
	assert.Equal(t, String, s.Properties["path"].Type)
	assert.Equal(t, "a path", s.Properties["path"].Description)

	require.Contains(t, s.Properties, "count")
	assert.Equal(t, Integer, s.Properties["count"].Type)

	require.Contains(t, s.Properties, "tags")
	assert.Equal(t, Array, s.Properties["tags"].Type)
	assert.Equal(t, String, s.Properties["tags"].Items.Type)

	assert.NotContains(t, s.Properties, "internal")
	assert.NotContains(t, s.Properties, "unexported")

	assert.Contains(t, s.Required, "count")
	assert.NotContains(t, s.Required, "path")
	assert.NotContains(t, s.Required, "tags")
}

func TestFromStructFallsBackToSnakeCaseWithoutJSONTag(t *testing.T) {
	type noTags struct {
		FileName string
	}
	s := FromStruct(noTags{})
	assert.Contains(t, s.Properties, "file_name")
}

func TestFromStructNonStructReturnsBareObject(t *testing.T) {
	s := FromStruct(42)
	assert.Equal(t, Object, s.Type)
	assert.Nil(t, s.Properties)
}

func TestFromStructDereferencesPointer(t *testing.T) {
	s := FromStruct(&sampleArgs{})
	assert.Contains(t, s.Properties, "path")
}

func TestFromStructNestedStruct(t *testing.T) {
	type inner struct {
		Name string `json:"name"`
	}
	type outer struct {
		Inner inner `json:"inner"`
	}
	s := FromStruct(outer{})
	require.Contains(t, s.Properties, "inner")
	assert.Equal(t, Object, s.Properties["inner"].Type)
	assert.Contains(t, s.Properties["inner"].Properties, "name")
}
