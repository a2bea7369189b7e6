package example

import (
	"encoding/base64"
	"math"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/mark3labs/rulespec/internal/spec"
)

func (f *Factory) fromFormat(c *Context) (any, bool) {
	s := c.Schema
	if s.Type.Primary() != spec.TypeString && len(s.Type) > 0 {
		return nil, false
	}
	var v string
	switch s.Format {
	case "email":
		v = strings.ToLower(f.faker.Email())
	case "uri", "url", "uri-reference":
		v = f.faker.URL()
	case "uuid":
		v = f.uuid()
	case "date":
		v = f.timestamp(s, -f.days(0, 365))
	case "date-time":
		v = f.timestamp(&spec.Schema{}, -f.days(0, 365))
	case "time":
		v = f.now.Add(-f.days(0, 1)).Format("15:04:05")
	case "password":
		v = "********"
	case "ipv4":
		v = f.faker.IPv4Address()
	case "ipv6":
		v = f.faker.IPv6Address()
	case "hostname":
		v = f.faker.DomainName()
	case "binary", "byte":
		buf := make([]byte, 12)
		f.faker.Rand.Read(buf)
		v = base64.StdEncoding.EncodeToString(buf)
	default:
		return nil, false
	}
	return v, true
}

func (f *Factory) fromType(c *Context) (any, bool) {
	s := c.Schema
	switch s.Type.Primary() {
	case spec.TypeInteger:
		return f.intIn(s, 1, 1000), true
	case spec.TypeNumber:
		return f.floatIn(s, 1, 1000), true
	case spec.TypeBoolean:
		return f.faker.Bool(), true
	case spec.TypeObject:
		return map[string]any{}, true
	case spec.TypeArray:
		return []any{}, true
	case spec.TypeString, "":
		return f.text(s), true
	}
	return nil, false
}

// text picks a generation strategy by the allowed length: a word for short
// fields, a few words for medium ones, a sentence otherwise.
func (f *Factory) text(s *spec.Schema) string {
	if s.Pattern != "" {
		if re := compilePattern(s.Pattern); re != nil {
			for i := 0; i < 5; i++ {
				if v := f.faker.Regex(s.Pattern); re.MatchString(v) {
					return v
				}
			}
		}
	}
	minLen, maxLen := 0, 0
	if s.MinLength != nil {
		minLen = *s.MinLength
	}
	if s.MaxLength != nil {
		maxLen = *s.MaxLength
	}
	var v string
	switch {
	case maxLen > 0 && maxLen <= 10:
		v = f.faker.LoremIpsumWord()
	case maxLen > 0 && maxLen <= 50:
		v = strings.TrimSuffix(f.faker.Sentence(3), ".")
	case minLen > 50:
		v = f.faker.Sentence(min(minLen/5+1, 20))
	default:
		v = strings.TrimSuffix(f.faker.Sentence(5), ".")
	}
	if n := utf8.RuneCountInString(v); n < minLen {
		word := " " + f.faker.LoremIpsumWord()
		w := utf8.RuneCountInString(word)
		v += strings.Repeat(word, (minLen-n+w-1)/w)
	}
	if maxLen > 0 && utf8.RuneCountInString(v) > maxLen {
		v = strings.TrimSpace(string([]rune(v)[:maxLen]))
		if n := utf8.RuneCountInString(v); n < minLen {
			v += strings.Repeat("x", minLen-n)
		}
	}
	return v
}

var (
	patternMu    sync.Mutex
	patternCache = map[string]*regexp.Regexp{}
)

func compilePattern(p string) *regexp.Regexp {
	patternMu.Lock()
	defer patternMu.Unlock()
	if re, ok := patternCache[p]; ok {
		return re
	}
	re, err := regexp.Compile(p)
	if err != nil {
		re = nil
	}
	patternCache[p] = re
	return re
}

var formatRes = map[string]*regexp.Regexp{
	"date":      regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),
	"date-time": regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})$`),
	"email":     regexp.MustCompile(`^[^@\s]+@[^@\s]+$`),
	"uuid":      regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`),
	"uri":       regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*:`),
}

// Conforms reports whether v satisfies the type, format, bounds, pattern
// and enum of s. It is used to reject heuristic values that do not fit.
func Conforms(v any, s *spec.Schema) bool {
	if s == nil {
		return true
	}
	if v == nil {
		return nullable(s)
	}
	switch s.Type.Primary() {
	case spec.TypeString, "":
		str, ok := v.(string)
		if !ok {
			return s.Type.Primary() == "" && len(s.Type) == 0
		}
		if re, ok := formatRes[s.Format]; ok && !re.MatchString(str) {
			return false
		}
		n := utf8.RuneCountInString(str)
		if s.MinLength != nil && n < *s.MinLength {
			return false
		}
		if s.MaxLength != nil && n > *s.MaxLength {
			return false
		}
		if s.Pattern != "" {
			if re := compilePattern(s.Pattern); re != nil && !re.MatchString(str) {
				return false
			}
		}
	case spec.TypeInteger:
		n, ok := toFloat(v)
		if !ok || n != math.Trunc(n) || !inRange(n, s) {
			return false
		}
	case spec.TypeNumber:
		n, ok := toFloat(v)
		if !ok || !inRange(n, s) {
			return false
		}
	case spec.TypeBoolean:
		if _, ok := v.(bool); !ok {
			return false
		}
	case spec.TypeArray:
		if _, ok := v.([]any); !ok {
			return false
		}
	case spec.TypeObject:
		if _, ok := v.(map[string]any); !ok {
			return false
		}
	}
	if len(s.Enum) > 0 {
		for _, e := range s.Enum {
			if reflect.DeepEqual(e, v) {
				return true
			}
		}
		return false
	}
	return true
}

func inRange(n float64, s *spec.Schema) bool {
	if s.Minimum != nil && n < *s.Minimum {
		return false
	}
	if s.Maximum != nil && n > *s.Maximum {
		return false
	}
	return true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}
