package generator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/rulespec/internal/analysis"
	"github.com/mark3labs/rulespec/internal/rules"
	"github.com/mark3labs/rulespec/internal/spec"
)

// Error catalog messages.
const (
	MessageUnauthenticated = "Unauthenticated."
	MessageForbidden       = "This action is unauthorized."
	MessageNotFound        = "Resource not found."
	MessageServerError     = "Server Error"
	MessageInvalid         = "The given data was invalid."
)

var errorCatalog = map[int]struct {
	description string
	message     string
}{
	401: {"Unauthenticated", MessageUnauthenticated},
	403: {"Forbidden", MessageForbidden},
	404: {"Not Found", MessageNotFound},
	500: {"Server Error", MessageServerError},
}

// ErrorResponse returns the catalog response for status, or nil when the
// status has no catalog entry. 422 is built by ValidationErrorResponse.
func ErrorResponse(status int) *spec.Response {
	entry, ok := errorCatalog[status]
	if !ok {
		return nil
	}
	s := spec.NewObject()
	msg := spec.NewType(spec.TypeString)
	msg.Example = entry.message
	s.SetProperty("message", msg)
	s.Required = []string{"message"}
	return &spec.Response{
		Description: entry.description,
		Content:     spec.JSONContent(s, map[string]any{"message": entry.message}),
	}
}

// DefaultErrorResponses selects the catalog responses that apply to one
// operation: 401 and 403 for authenticated routes, 404 for methods addressing
// an existing resource, 500 always. With hasValidation a generic 422 is added
// in status order; callers replace it with a field-specific one through
// MergeResponses.
func DefaultErrorResponses(method string, requiresAuth, hasValidation bool) *spec.OrderedMap[*spec.Response] {
	out := spec.NewOrderedMap[*spec.Response]()
	if requiresAuth {
		out.Set("401", ErrorResponse(401))
		out.Set("403", ErrorResponse(403))
	}
	switch strings.ToUpper(method) {
	case "GET", "PUT", "PATCH", "DELETE":
		out.Set("404", ErrorResponse(404))
	}
	if hasValidation {
		out.Set("422", ValidationErrorResponse(nil, nil))
	}
	out.Set("500", ErrorResponse(500))
	return out
}

// MergeResponses copies src into dst. Existing status codes are replaced in
// place so that no status appears twice.
func MergeResponses(dst, src *spec.OrderedMap[*spec.Response]) {
	src.Each(func(code string, r *spec.Response) { dst.Set(code, r) })
}

// ValidationErrorResponse builds the 422 response listing every validated
// field under "errors", each with one example message.
func ValidationErrorResponse(fields []*rules.FieldDescriptor, rs *analysis.RuleSet) *spec.Response {
	errs := spec.NewObject()
	example := map[string]any{}
	var order []string
	for _, f := range flatten(fields) {
		key := f.Name
		if errs.Properties.Has(key) {
			continue
		}
		errs.SetProperty(key, spec.NewArray(spec.NewType(spec.TypeString)))
		if msg := FieldMessage(f, rs); msg != "" {
			example[key] = []any{msg}
			order = append(order, msg)
		}
	}

	s := spec.NewObject()
	msg := spec.NewType(spec.TypeString)
	s.SetProperty("message", msg)
	s.SetProperty("errors", errs)
	s.Required = []string{"message", "errors"}

	summary := MessageInvalid
	if len(order) > 0 {
		summary = order[0]
		if n := len(order) - 1; n == 1 {
			summary += " (and 1 more error)"
		} else if n > 1 {
			summary += fmt.Sprintf(" (and %d more errors)", n)
		}
	}
	msg.Example = summary
	return &spec.Response{
		Description: "Validation Error",
		Content:     spec.JSONContent(s, map[string]any{"message": summary, "errors": example}),
	}
}

// flatten lists every descriptor carrying rules, depth first, in declaration order.
func flatten(fields []*rules.FieldDescriptor) []*rules.FieldDescriptor {
	var out []*rules.FieldDescriptor
	for _, f := range fields {
		f.Walk(func(d *rules.FieldDescriptor) {
			if len(d.Tokens) > 0 {
				out = append(out, d)
			}
		})
	}
	return out
}

// FieldMessage returns the example validation message of a field. A
// required-family rule wins; otherwise the first rule with a known message
// is used. Custom messages ("field.rule" or "rule") and attribute labels
// from rs take precedence over the built-in templates.
func FieldMessage(f *rules.FieldDescriptor, rs *analysis.RuleSet) string {
	var chosen *rules.Token
	for i := range f.Tokens {
		if isRequiredRule(f.Tokens[i].Name) {
			chosen = &f.Tokens[i]
			break
		}
	}
	if chosen == nil {
		for i := range f.Tokens {
			if custom(rs, f.Name, f.Tokens[i].Name) != "" || template(f, f.Tokens[i]) != "" {
				chosen = &f.Tokens[i]
				break
			}
		}
	}
	if chosen == nil {
		return ""
	}
	msg := custom(rs, f.Name, chosen.Name)
	if msg == "" {
		msg = template(f, *chosen)
	}
	return substitute(msg, attribute(f, rs), *chosen)
}

func isRequiredRule(name string) bool {
	return name == "required" || (strings.HasPrefix(name, "required_") && name != "required_array_keys")
}

func custom(rs *analysis.RuleSet, field, rule string) string {
	if rs == nil {
		return ""
	}
	if m, ok := rs.Messages[field+"."+rule]; ok {
		return m
	}
	return rs.Messages[rule]
}

func attribute(f *rules.FieldDescriptor, rs *analysis.RuleSet) string {
	if rs != nil {
		if a, ok := rs.Attributes[f.Name]; ok && a != "" {
			return a
		}
	}
	name := f.Name
	if i := strings.LastIndex(name, "."); i >= 0 && name[i+1:] != "*" {
		name = name[i+1:]
	}
	return strings.ReplaceAll(strings.ReplaceAll(name, "_", " "), ".*", "")
}

func substitute(msg, attr string, tok rules.Token) string {
	repl := []string{
		":attribute", attr,
		":min", tok.Param(0),
		":max", tok.Param(len(tok.Params) - 1),
		":size", tok.Param(0),
		":digits", tok.Param(0),
		":value", tok.Param(0),
		":other", tok.Param(0),
		":date", tok.Param(0),
		":format", tok.Param(0),
		":values", strings.Join(tok.Params, ", "),
	}
	return strings.NewReplacer(repl...).Replace(msg)
}

var simpleTemplates = map[string]string{
	"required":         "The :attribute field is required.",
	"accepted":         "The :attribute field must be accepted.",
	"declined":         "The :attribute field must be declined.",
	"active_url":       "The :attribute field must be a valid URL.",
	"after":            "The :attribute field must be a date after :date.",
	"after_or_equal":   "The :attribute field must be a date after or equal to :date.",
	"alpha":            "The :attribute field must only contain letters.",
	"alpha_dash":       "The :attribute field must only contain letters, numbers, dashes, and underscores.",
	"alpha_num":        "The :attribute field must only contain letters and numbers.",
	"array":            "The :attribute field must be an array.",
	"before":           "The :attribute field must be a date before :date.",
	"before_or_equal":  "The :attribute field must be a date before or equal to :date.",
	"boolean":          "The :attribute field must be true or false.",
	"confirmed":        "The :attribute field confirmation does not match.",
	"current_password": "The password is incorrect.",
	"date":             "The :attribute field must be a valid date.",
	"date_equals":      "The :attribute field must be a date equal to :date.",
	"date_format":      "The :attribute field must match the format :format.",
	"different":        "The :attribute field and :other must be different.",
	"digits":           "The :attribute field must be :digits digits.",
	"digits_between":   "The :attribute field must be between :min and :max digits.",
	"dimensions":       "The :attribute field has invalid image dimensions.",
	"distinct":         "The :attribute field has a duplicate value.",
	"email":            "The :attribute field must be a valid email address.",
	"enum":             "The selected :attribute is invalid.",
	"exists":           "The selected :attribute is invalid.",
	"file":             "The :attribute field must be a file.",
	"filled":           "The :attribute field must have a value.",
	"image":            "The :attribute field must be an image.",
	"in":               "The selected :attribute is invalid.",
	"integer":          "The :attribute field must be an integer.",
	"ip":               "The :attribute field must be a valid IP address.",
	"ipv4":             "The :attribute field must be a valid IPv4 address.",
	"ipv6":             "The :attribute field must be a valid IPv6 address.",
	"json":             "The :attribute field must be a valid JSON string.",
	"lowercase":        "The :attribute field must be lowercase.",
	"mac_address":      "The :attribute field must be a valid MAC address.",
	"mimes":            "The :attribute field must be a file of type: :values.",
	"mimetypes":        "The :attribute field must be a file of type: :values.",
	"not_in":           "The selected :attribute is invalid.",
	"not_regex":        "The :attribute field format is invalid.",
	"numeric":          "The :attribute field must be a number.",
	"password":         "The password is incorrect.",
	"present":          "The :attribute field must be present.",
	"prohibited":       "The :attribute field is prohibited.",
	"regex":            "The :attribute field format is invalid.",
	"same":             "The :attribute field must match :other.",
	"string":           "The :attribute field must be a string.",
	"timezone":         "The :attribute field must be a valid timezone.",
	"unique":           "The :attribute has already been taken.",
	"uppercase":        "The :attribute field must be uppercase.",
	"url":              "The :attribute field must be a valid URL.",
	"ulid":             "The :attribute field must be a valid ULID.",
	"uuid":             "The :attribute field must be a valid UUID.",
}

// sized templates depend on the field type: numeric, file, array or string.
var sizedTemplates = map[string][4]string{
	"min": {
		"The :attribute field must be at least :min.",
		"The :attribute field must be at least :min kilobytes.",
		"The :attribute field must have at least :min items.",
		"The :attribute field must be at least :min characters.",
	},
	"max": {
		"The :attribute field must not be greater than :max.",
		"The :attribute field must not be greater than :max kilobytes.",
		"The :attribute field must not have more than :max items.",
		"The :attribute field must not be greater than :max characters.",
	},
	"between": {
		"The :attribute field must be between :min and :max.",
		"The :attribute field must be between :min and :max kilobytes.",
		"The :attribute field must have between :min and :max items.",
		"The :attribute field must be between :min and :max characters.",
	},
	"size": {
		"The :attribute field must be :size.",
		"The :attribute field must be :size kilobytes.",
		"The :attribute field must contain :size items.",
		"The :attribute field must be :size characters.",
	},
	"gt": {
		"The :attribute field must be greater than :value.",
		"The :attribute field must be greater than :value kilobytes.",
		"The :attribute field must have more than :value items.",
		"The :attribute field must be greater than :value characters.",
	},
	"gte": {
		"The :attribute field must be greater than or equal to :value.",
		"The :attribute field must be greater than or equal to :value kilobytes.",
		"The :attribute field must have :value items or more.",
		"The :attribute field must be greater than or equal to :value characters.",
	},
	"lt": {
		"The :attribute field must be less than :value.",
		"The :attribute field must be less than :value kilobytes.",
		"The :attribute field must have less than :value items.",
		"The :attribute field must be less than :value characters.",
	},
	"lte": {
		"The :attribute field must be less than or equal to :value.",
		"The :attribute field must be less than or equal to :value kilobytes.",
		"The :attribute field must not have more than :value items.",
		"The :attribute field must be less than or equal to :value characters.",
	},
}

func template(f *rules.FieldDescriptor, tok rules.Token) string {
	if isRequiredRule(tok.Name) {
		return simpleTemplates["required"]
	}
	if t, ok := simpleTemplates[tok.Name]; ok {
		return t
	}
	sized, ok := sizedTemplates[tok.Name]
	if !ok {
		return ""
	}
	switch f.Type {
	case rules.TypeInteger, rules.TypeNumber:
		return sized[0]
	case rules.TypeFile:
		return sized[1]
	case rules.TypeArray:
		return sized[2]
	default:
		return sized[3]
	}
}

// statusCode renders a numeric status as a response key.
func statusCode(code int) string {
	return strconv.Itoa(code)
}
