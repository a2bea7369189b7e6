package generator

import (
	"strings"

	"github.com/mark3labs/rulespec/internal/spec"
)

// Pagination strategies.
const (
	PaginationLengthAware = "length_aware"
	PaginationSimple      = "simple"
	PaginationCursor      = "cursor"
	PaginationNone        = "none"
)

// NormalizePaginationType maps paginator class names and aliases to a
// strategy. Unknown values yield PaginationNone.
func NormalizePaginationType(t string) string {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "length_aware", "lengthaware", "lengthawarepaginator", "paginate":
		return PaginationLengthAware
	case "simple", "simplepaginator", "simplepaginate":
		return PaginationSimple
	case "cursor", "cursorpaginator", "cursorpaginate":
		return PaginationCursor
	default:
		return PaginationNone
	}
}

// PaginationSchema wraps the item schema data in the envelope of the given
// strategy. Every key of an envelope is always present; "none" and unknown
// strategies return data unchanged.
func PaginationSchema(paginationType string, data *spec.Schema) *spec.Schema {
	switch NormalizePaginationType(paginationType) {
	case PaginationLengthAware:
		return envelope(data, true)
	case PaginationSimple:
		return envelope(data, false)
	case PaginationCursor:
		return cursorEnvelope(data)
	default:
		return data
	}
}

func envelope(data *spec.Schema, lengthAware bool) *spec.Schema {
	s := spec.NewObject()
	s.SetProperty("data", spec.NewArray(data))
	if lengthAware {
		s.SetProperty("current_page", intExample(1))
	}
	s.SetProperty("first_page_url", urlExample("https://api.example.com/items?page=1", false))
	s.SetProperty("from", intExample(1))
	if lengthAware {
		s.SetProperty("last_page", intExample(5))
		s.SetProperty("last_page_url", urlExample("https://api.example.com/items?page=5", false))
		s.SetProperty("links", spec.NewArray(pageLink()))
	}
	s.SetProperty("next_page_url", urlExample("https://api.example.com/items?page=2", true))
	s.SetProperty("path", urlExample("https://api.example.com/items", false))
	s.SetProperty("per_page", intExample(15))
	s.SetProperty("prev_page_url", urlExample(nil, true))
	s.SetProperty("to", intExample(15))
	if lengthAware {
		s.SetProperty("total", intExample(75))
	}
	s.Required = s.Properties.Keys()
	return s
}

func cursorEnvelope(data *spec.Schema) *spec.Schema {
	s := spec.NewObject()
	s.SetProperty("data", spec.NewArray(data))
	s.SetProperty("path", urlExample("https://api.example.com/items", false))
	s.SetProperty("per_page", intExample(15))
	s.SetProperty("next_cursor", nullableString("eyJpZCI6MTUsIl9wb2ludHNUb05leHRJdGVtcyI6dHJ1ZX0"))
	s.SetProperty("next_page_url", urlExample("https://api.example.com/items?cursor=eyJpZCI6MTV9", true))
	s.SetProperty("prev_cursor", nullableString(nil))
	s.SetProperty("prev_page_url", urlExample(nil, true))
	s.Required = s.Properties.Keys()
	return s
}

func pageLink() *spec.Schema {
	s := spec.NewObject()
	s.SetProperty("url", urlExample("https://api.example.com/items?page=1", true))
	label := spec.NewType(spec.TypeString)
	label.Example = "1"
	s.SetProperty("label", label)
	active := spec.NewType(spec.TypeBoolean)
	active.Example = true
	s.SetProperty("active", active)
	s.Required = []string{"url", "label", "active"}
	return s
}

func intExample(v int) *spec.Schema {
	s := spec.NewType(spec.TypeInteger)
	s.Example = v
	return s
}

func urlExample(v any, nullable bool) *spec.Schema {
	s := spec.NewType(spec.TypeString)
	s.Format = "uri"
	s.Nullable = nullable
	if v != nil {
		s.Example = v
	}
	return s
}

func nullableString(v any) *spec.Schema {
	s := spec.NewType(spec.TypeString)
	s.Nullable = true
	if v != nil {
		s.Example = v
	}
	return s
}
