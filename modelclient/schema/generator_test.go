package schema

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

type sampleIntent struct {
	Route      string   `json:"route" jsonschema:"required,enum=TEXTSEARCH,NEARBY,LANDMARK"`
	Confidence float64  `json:"confidence" jsonschema:"required,minimum=0,maximum=1"`
	CityText   *string  `json:"cityText,omitempty"`
	Tags       []string `json:"tags,omitempty" jsonschema:"maxItems=5"`
}

func TestGenerator_StructFields(t *testing.T) {
	g := NewGenerator()
	s, err := g.Generate(reflect.TypeOf(sampleIntent{}))
	require.NoError(t, err)
	require.Equal(t, TypeObject, s.Type)
	require.ElementsMatch(t, []string{"route", "confidence"}, s.Required)

	route := s.Properties["route"]
	require.Equal(t, TypeString, route.Type)
	require.Equal(t, []any{"TEXTSEARCH", "NEARBY", "LANDMARK"}, route.Enum)

	conf := s.Properties["confidence"]
	require.NotNil(t, conf.Minimum)
	require.Equal(t, 0.0, *conf.Minimum)
	require.NotNil(t, conf.Maximum)
	require.Equal(t, 1.0, *conf.Maximum)

	tags := s.Properties["tags"]
	require.Equal(t, TypeArray, tags.Type)
	require.NotNil(t, tags.MaxItems)
	require.Equal(t, 5, *tags.MaxItems)
}

func TestGenerator_RecursiveTypeDoesNotLoop(t *testing.T) {
	type node struct {
		Next *node `json:"next,omitempty"`
	}
	g := NewGenerator()
	s, err := g.Generate(reflect.TypeOf(node{}))
	require.NoError(t, err)
	require.Equal(t, TypeObject, s.Type)
}
