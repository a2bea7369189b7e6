package spec

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderedMapKeepsInsertionOrder(t *testing.T) {
	t.Parallel()
	m := NewOrderedMap[int]()
	m.Set("zeta", 1)
	m.Set("alpha", 2)
	m.Set("mid", 3)
	m.Set("zeta", 4)

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, m.Keys())
	v, ok := m.Get("zeta")
	assert.True(t, ok)
	assert.Equal(t, 4, v)

	m.Delete("alpha")
	assert.Equal(t, []string{"zeta", "mid"}, m.Keys())
	assert.Equal(t, 2, m.Len())

	raw, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":4,"mid":3}`, string(raw))

	var nilMap *OrderedMap[int]
	assert.Equal(t, 0, nilMap.Len())
	assert.Nil(t, nilMap.Keys())
	assert.False(t, nilMap.Has("x"))
}

func TestTypesMarshal(t *testing.T) {
	t.Parallel()
	single, err := json.Marshal(Types{TypeString})
	require.NoError(t, err)
	assert.Equal(t, `"string"`, string(single))

	multi, err := json.Marshal(Types{TypeString, TypeNull})
	require.NoError(t, err)
	assert.Equal(t, `["string","null"]`, string(multi))

	assert.Equal(t, TypeString, Types{TypeNull, TypeString}.Primary())
	assert.True(t, Types{TypeString, TypeNull}.Is(TypeNull))
}

func TestEncodeKeepsDeclarationOrder(t *testing.T) {
	t.Parallel()
	doc := validDocument()
	pet, _ := doc.Components.Schemas.Get("Pet")
	pet.SetProperty("age", NewType(TypeInteger))

	out, err := Encode(doc, FormatJSON)
	require.NoError(t, err)
	s := string(out)
	assert.True(t, strings.HasSuffix(s, "\n"))
	assert.Less(t, strings.Index(s, `"openapi"`), strings.Index(s, `"info"`))
	assert.Less(t, strings.Index(s, `"paths"`), strings.Index(s, `"components"`))
	comps := s[strings.Index(s, `"components"`):]
	assert.Less(t, strings.Index(comps, `"id"`), strings.Index(comps, `"name"`))
	assert.Less(t, strings.Index(comps, `"name"`), strings.Index(comps, `"age"`))

	y, err := Encode(doc, FormatYAML)
	require.NoError(t, err)
	ys := string(y)
	assert.True(t, strings.HasPrefix(ys, "openapi: 3.0.3\n"))
	ycomps := ys[strings.Index(ys, "components:"):]
	assert.Less(t, strings.Index(ycomps, "id:"), strings.Index(ycomps, "name:"))
	assert.Less(t, strings.Index(ycomps, "name:"), strings.Index(ycomps, "age:"))
	assert.Contains(t, ys, "#/components/schemas/Pet")
}

func TestEncodeIsStable(t *testing.T) {
	t.Parallel()
	a, err := Encode(validDocument(), FormatYAML)
	require.NoError(t, err)
	b, err := Encode(validDocument(), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestParseFormat(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]Format{"": FormatJSON, "JSON": FormatJSON, "yml": FormatYAML, " yaml ": FormatYAML} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("toml")
	assert.Error(t, err)
}

func TestSecurityRequirementScopesSerializeAsList(t *testing.T) {
	t.Parallel()
	raw, err := json.Marshal(SecurityRequirements{NewSecurityRequirement("bearerAuth")})
	require.NoError(t, err)
	assert.Equal(t, `[{"bearerAuth":[]}]`, string(raw))

	m, ok := ParseMethod("Patch")
	assert.True(t, ok)
	assert.Equal(t, PATCH, m)
	_, ok = ParseMethod("CONNECT")
	assert.False(t, ok)
}
