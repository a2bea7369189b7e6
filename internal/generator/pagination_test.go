package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark3labs/rulespec/internal/spec"
)

func TestPaginationEnvelopes(t *testing.T) {
	t.Parallel()
	item := spec.RefTo("Product")

	tests := []struct {
		name    string
		typ     string
		keys    []string
		without []string
	}{
		{
			name: "length aware",
			typ:  "LengthAwarePaginator",
			keys: []string{"data", "current_page", "first_page_url", "from", "last_page", "last_page_url",
				"links", "next_page_url", "path", "per_page", "prev_page_url", "to", "total"},
		},
		{
			name:    "simple",
			typ:     "simple",
			keys:    []string{"data", "first_page_url", "from", "next_page_url", "path", "per_page", "prev_page_url", "to"},
			without: []string{"total", "last_page", "current_page", "links"},
		},
		{
			name:    "cursor",
			typ:     "cursorPaginate",
			keys:    []string{"data", "path", "per_page", "next_cursor", "next_page_url", "prev_cursor", "prev_page_url"},
			without: []string{"total", "current_page", "from", "to"},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := PaginationSchema(tt.typ, item)
			assert.Equal(t, tt.keys, s.Properties.Keys())
			assert.Equal(t, tt.keys, s.Required)
			for _, k := range tt.without {
				assert.False(t, s.Properties.Has(k), k)
			}
			data := s.Property("data")
			require.NotNil(t, data)
			assert.Same(t, item, data.Items)
		})
	}
}

func TestPaginationCursorFieldsAreNullable(t *testing.T) {
	t.Parallel()
	s := PaginationSchema(PaginationCursor, spec.NewObject())
	for _, k := range []string{"next_cursor", "prev_cursor", "next_page_url", "prev_page_url"} {
		assert.True(t, s.Property(k).Nullable, k)
	}
}

func TestPaginationNoneReturnsItem(t *testing.T) {
	t.Parallel()
	item := spec.NewObject()
	assert.Same(t, item, PaginationSchema("none", item))
	assert.Same(t, item, PaginationSchema("unknown", item))
	assert.Equal(t, PaginationNone, NormalizePaginationType(""))
}

func TestWrapResource(t *testing.T) {
	t.Parallel()
	item := spec.RefTo("User")

	bare := WrapResource(item, PaginationNone, false, "")
	assert.Same(t, item, bare)

	wrapped := WrapResource(item, PaginationNone, true, "data")
	assert.Equal(t, []string{"data"}, wrapped.Required)
	assert.Equal(t, spec.TypeArray, wrapped.Property("data").Type.Primary())

	paged := WrapResource(item, PaginationSimple, true, "items")
	assert.True(t, paged.Properties.Has("data"))
	assert.False(t, paged.Properties.Has("items"))
}

func TestSuccessStatus(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 201, SuccessStatus(spec.POST, 0, true))
	assert.Equal(t, 204, SuccessStatus(spec.DELETE, 0, false))
	assert.Equal(t, 200, SuccessStatus(spec.DELETE, 0, true))
	assert.Equal(t, 200, SuccessStatus(spec.GET, 0, false))
	assert.Equal(t, 202, SuccessStatus(spec.POST, 202, true))
}
