package generator

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mark3labs/rulespec/internal/analysis"
)

var resourceActions = map[string]string{
	"index":   "List %s",
	"show":    "Get %s",
	"store":   "Create %s",
	"create":  "Show create form for %s",
	"edit":    "Show edit form for %s",
	"update":  "Update %s",
	"destroy": "Delete %s",
}

var methodVerbs = map[string]string{
	"GET":     "Get",
	"POST":    "Create",
	"PUT":     "Update",
	"PATCH":   "Update",
	"DELETE":  "Delete",
	"HEAD":    "Head",
	"OPTIONS": "Options",
}

// Summary returns the operation summary. An analyzed summary wins; resource
// controller actions get "List users", "Create user" style summaries; other
// actions are title-cased; without an action the method and URI are used.
func Summary(route analysis.Route, method string, ca *analysis.ControllerAnalysis) string {
	if ca != nil && strings.TrimSpace(ca.Summary) != "" {
		return strings.TrimSpace(ca.Summary)
	}
	noun := strings.ToLower(TagFromURI(route.URI))
	if noun == strings.ToLower(DefaultTag) {
		noun = "resource"
	}
	if tmpl, ok := resourceActions[route.Action]; ok {
		if route.Action == "index" {
			return strings.Replace(tmpl, "%s", Plural(noun), 1)
		}
		return strings.Replace(tmpl, "%s", noun, 1)
	}
	if route.Action != "" && route.Action != "__invoke" {
		return Title(strings.Join(splitWords(route.Action), " "))
	}
	verb := methodVerbs[strings.ToUpper(method)]
	if verb == "" {
		verb = Title(strings.ToLower(method))
	}
	if strings.ToUpper(method) == "GET" && !strings.HasSuffix(strings.TrimRight(route.URI, "/"), "}") {
		return "List " + Plural(noun)
	}
	return verb + " " + noun
}

var wordBoundaryRe = regexp.MustCompile(`([a-z0-9])([A-Z])`)

// splitWords splits camelCase, snake_case, kebab-case and dotted names.
func splitWords(s string) []string {
	s = wordBoundaryRe.ReplaceAllString(s, "$1 $2")
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == '-' || r == '.' || r == ' ' || r == '/' || r == ':' || r == '{' || r == '}' || r == '?'
	})
}

// camel joins words as lowerCamelCase.
func camel(words []string) string {
	var b strings.Builder
	for i, w := range words {
		if w == "" {
			continue
		}
		if i == 0 {
			b.WriteString(strings.ToLower(w[:1]) + w[1:])
			continue
		}
		b.WriteString(strings.ToUpper(w[:1]) + w[1:])
	}
	return b.String()
}

// OperationIDs hands out unique operation ids for one document.
type OperationIDs struct {
	seen map[string]int
}

// NewOperationIDs returns an empty id allocator.
func NewOperationIDs() *OperationIDs {
	return &OperationIDs{seen: map[string]int{}}
}

// Next returns a unique id for the operation. Named routes use the camelized
// route name ("users.index" becomes "usersIndex") suffixed with the method
// when the route declares several; other routes combine the method and URI
// segments ("GET api/users/{id}" becomes "getApiUsersId"). Collisions get a
// numeric suffix.
func (o *OperationIDs) Next(route analysis.Route, method string, multiMethod bool) string {
	var base string
	if route.Name != "" {
		base = camel(splitWords(route.Name))
		if multiMethod {
			base += Title(strings.ToLower(method))
		}
	}
	if base == "" {
		base = camel(append([]string{strings.ToLower(method)}, splitWords(route.URI)...))
	}
	if base == "" {
		base = "operation"
	}
	o.seen[base]++
	if n := o.seen[base]; n > 1 {
		id := base + strconv.Itoa(n)
		for o.seen[id] > 0 {
			n++
			id = base + strconv.Itoa(n)
		}
		o.seen[id]++
		return id
	}
	return base
}
