package generator

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mark3labs/rulespec/internal/analysis"
	"github.com/mark3labs/rulespec/internal/config"
	"github.com/mark3labs/rulespec/internal/spec"
)

// DefaultTag is used when no tag can be derived from a URI.
const DefaultTag = "Default"

var versionSegmentRe = regexp.MustCompile(`^v\d+(\.\d+)*$`)

type tagRule struct {
	re  *regexp.Regexp
	tag string
}

// Tagger assigns tags to routes and collects the tags in use.
type Tagger struct {
	rules        []tagRule
	descriptions map[string]string
	groups       []config.TagGroup
	used         []string
	seen         map[string]struct{}
}

// NewTagger compiles the configured URI rules. Rules with an invalid pattern
// or an empty tag are skipped.
func NewTagger(cfg *config.Config) *Tagger {
	t := &Tagger{
		descriptions: cfg.TagDescriptions,
		groups:       cfg.ParsedTagGroups(),
		seen:         map[string]struct{}{},
	}
	for _, r := range cfg.Tags {
		if strings.TrimSpace(r.Tag) == "" {
			continue
		}
		re, err := analysis.CompileURIPattern(strings.TrimPrefix(r.Pattern, "/"))
		if err != nil {
			continue
		}
		t.rules = append(t.rules, tagRule{re: re, tag: r.Tag})
	}
	return t
}

// Tags returns the tags of a route and records them as used.
func (t *Tagger) Tags(route analysis.Route) []string {
	uri := strings.TrimPrefix(route.URI, "/")
	tag := ""
	for _, r := range t.rules {
		if r.re.MatchString(uri) {
			tag = r.tag
			break
		}
	}
	if tag == "" {
		tag = TagFromURI(uri)
	}
	if _, ok := t.seen[tag]; !ok {
		t.seen[tag] = struct{}{}
		t.used = append(t.used, tag)
	}
	return []string{tag}
}

// TagFromURI derives a tag from the first meaningful URI segment, skipping
// an "api" prefix, version segments and parameters: "api/v1/order-items/{id}"
// becomes "Order Item".
func TagFromURI(uri string) string {
	for _, seg := range strings.Split(strings.Trim(uri, "/"), "/") {
		lower := strings.ToLower(seg)
		if seg == "" || lower == "api" || versionSegmentRe.MatchString(lower) || strings.HasPrefix(seg, "{") {
			continue
		}
		words := strings.Fields(strings.NewReplacer("-", " ", "_", " ", ".", " ").Replace(seg))
		if len(words) == 0 {
			continue
		}
		words[len(words)-1] = Singular(words[len(words)-1])
		return Title(strings.Join(words, " "))
	}
	return DefaultTag
}

// Document returns the tag objects of the used tags in first-use order and
// the tag groups restricted to them. Configured descriptions and groups for
// unused tags are dropped.
func (t *Tagger) Document() ([]spec.Tag, []spec.TagGroup) {
	var tags []spec.Tag
	for _, name := range t.used {
		tags = append(tags, spec.Tag{Name: name, Description: t.descriptions[name]})
	}
	var groups []spec.TagGroup
	for _, g := range t.groups {
		var kept []string
		for _, name := range g.Tags {
			if _, ok := t.seen[name]; ok {
				kept = append(kept, name)
			}
		}
		if len(kept) > 0 {
			groups = append(groups, spec.TagGroup{Name: g.Name, Tags: kept})
		}
	}
	return tags, groups
}

// Title upper-cases the first letter of every word.
func Title(s string) string {
	return cases.Title(language.English).String(s)
}

var irregularPlurals = map[string]string{
	"people":   "person",
	"children": "child",
	"men":      "man",
	"women":    "woman",
	"mice":     "mouse",
	"data":     "data",
	"media":    "media",
	"news":     "news",
	"series":   "series",
	"statuses": "status",
	"analyses": "analysis",
}

// Singular returns a best-effort English singular of a lower- or mixed-case word.
func Singular(word string) string {
	lower := strings.ToLower(word)
	if s, ok := irregularPlurals[lower]; ok {
		return matchCase(word, s)
	}
	switch {
	case strings.HasSuffix(lower, "ies") && len(lower) > 3:
		return word[:len(word)-3] + matchCase(word[len(word)-3:], "y")
	case strings.HasSuffix(lower, "sses"), strings.HasSuffix(lower, "shes"),
		strings.HasSuffix(lower, "ches"), strings.HasSuffix(lower, "xes"), strings.HasSuffix(lower, "zzes"):
		return word[:len(word)-2]
	case strings.HasSuffix(lower, "ss"), strings.HasSuffix(lower, "us"), strings.HasSuffix(lower, "is"):
		return word
	case strings.HasSuffix(lower, "s") && len(lower) > 1:
		return word[:len(word)-1]
	}
	return word
}

// Plural returns a best-effort English plural.
func Plural(word string) string {
	lower := strings.ToLower(word)
	for p, s := range irregularPlurals {
		if s == lower && p != s {
			return matchCase(word, p)
		}
	}
	switch {
	case strings.HasSuffix(lower, "y") && len(lower) > 1 && !strings.ContainsRune("aeiou", rune(lower[len(lower)-2])):
		return word[:len(word)-1] + matchCase(word[len(word)-1:], "ies")
	case strings.HasSuffix(lower, "s"), strings.HasSuffix(lower, "x"), strings.HasSuffix(lower, "z"),
		strings.HasSuffix(lower, "ch"), strings.HasSuffix(lower, "sh"):
		return word + matchCase(word[len(word)-1:], "es")
	}
	return word + matchCase(word[len(word)-1:], "s")
}

func matchCase(ref, s string) string {
	if ref != "" && strings.ToUpper(ref) == ref && strings.ToLower(ref) != ref {
		return strings.ToUpper(s)
	}
	return s
}
