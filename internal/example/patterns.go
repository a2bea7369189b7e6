package example

import (
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mark3labs/rulespec/internal/spec"
)

// Pattern is one entry of the field-name registry.
type Pattern struct {
	Name     string
	Match    func(c *Context) bool
	Generate func(c *Context) (any, bool)
}

func exact(names ...string) func(*Context) bool {
	return func(c *Context) bool {
		for _, n := range names {
			if c.Normalized == n {
				return true
			}
		}
		return false
	}
}

func contains(parts ...string) func(*Context) bool {
	return func(c *Context) bool {
		for _, p := range parts {
			if strings.Contains(c.Normalized, p) {
				return true
			}
		}
		return false
	}
}

func suffix(parts ...string) func(*Context) bool {
	return func(c *Context) bool {
		for _, p := range parts {
			if strings.HasSuffix(c.Normalized, p) {
				return true
			}
		}
		return false
	}
}

func anyOf(ms ...func(*Context) bool) func(*Context) bool {
	return func(c *Context) bool {
		for _, m := range ms {
			if m(c) {
				return true
			}
		}
		return false
	}
}

var boolPrefixRe = regexp.MustCompile(`^(is|has|can|should|was)([_\-A-Z]|$)`)

var imageSizes = []struct {
	words []string
	w, h  int
}{
	{[]string{"avatar", "profilepicture", "profilephoto"}, 200, 200},
	{[]string{"banner", "cover", "header", "hero"}, 1200, 300},
	{[]string{"thumbnail", "thumb"}, 150, 150},
	{[]string{"logo", "icon"}, 128, 128},
	{[]string{"image", "photo", "picture", "img"}, 640, 480},
}

// DefaultPatterns returns the built-in name heuristics in match order.
func DefaultPatterns() []Pattern {
	return []Pattern{
		{Name: "email", Match: contains("email"), Generate: func(c *Context) (any, bool) {
			return strings.ToLower(c.Faker().Email()), true
		}},
		{Name: "uuid", Match: anyOf(suffix("uuid", "guid"), func(c *Context) bool { return c.Schema.Format == "uuid" }), Generate: func(c *Context) (any, bool) {
			return c.Factory.uuid(), true
		}},
		{Name: "phone", Match: anyOf(contains("phone", "mobile", "fax"), exact("tel", "telephone")), Generate: func(c *Context) (any, bool) {
			if strings.HasPrefix(c.Factory.locale, "ja") {
				return "090-" + c.Faker().Numerify("####-####"), true
			}
			return c.Faker().Numerify("+1-###-###-####"), true
		}},
		{Name: "deleted", Match: anyOf(exact("deletedat", "deletedon", "archivedat", "removedat")), Generate: func(c *Context) (any, bool) {
			if nullable(c.Schema) && c.Factory.faker.Rand.Float64() < 0.8 {
				return nil, true
			}
			return c.Factory.timestamp(c.Schema, -c.Factory.days(30, 365)), true
		}},
		{Name: "updated", Match: exact("updatedat", "updatedon", "modifiedat", "lastlogin", "lastloginat", "lastseenat"), Generate: func(c *Context) (any, bool) {
			return c.Factory.timestamp(c.Schema, -c.Factory.days(0, 7)), true
		}},
		{Name: "expires", Match: anyOf(contains("expire", "expiry", "deadline", "due"), exact("validuntil", "endsat", "scheduledat")), Generate: func(c *Context) (any, bool) {
			return c.Factory.timestamp(c.Schema, c.Factory.days(1, 365)), true
		}},
		{Name: "birth", Match: anyOf(exact("dob", "birthday", "birthdate", "dateofbirth")), Generate: func(c *Context) (any, bool) {
			return c.Factory.timestamp(c.Schema, -c.Factory.days(18*365, 70*365)), true
		}},
		{Name: "timestamp", Match: anyOf(func(c *Context) bool { return strings.HasSuffix(strings.ToLower(c.Name), "_at") }, exact("createdat", "createdon", "publishedat", "verifiedat", "emailverifiedat", "timestamp")), Generate: func(c *Context) (any, bool) {
			return c.Factory.timestamp(c.Schema, -c.Factory.days(30, 365)), true
		}},
		{Name: "image", Match: func(c *Context) bool { _, _, ok := imageSize(c.Normalized); return ok }, Generate: func(c *Context) (any, bool) {
			w, h, _ := imageSize(c.Normalized)
			return c.Faker().ImageURL(w, h), true
		}},
		{Name: "url", Match: anyOf(contains("url", "website", "homepage", "link")), Generate: func(c *Context) (any, bool) {
			return c.Faker().URL(), true
		}},
		{Name: "price", Match: contains("price", "amount", "cost", "total", "balance", "salary", "fee", "subtotal", "tax"), Generate: func(c *Context) (any, bool) {
			if c.Schema.Type.Primary() == spec.TypeInteger {
				return c.Factory.intIn(c.Schema, 100, 100000), true
			}
			return c.Factory.floatIn(c.Schema, 1, 1000), true
		}},
		{Name: "quantity", Match: anyOf(contains("quantity", "qty", "stock"), suffix("count")), Generate: func(c *Context) (any, bool) {
			return c.Factory.numberIn(c.Schema, 1, 100), true
		}},
		{Name: "rating", Match: contains("rating", "stars"), Generate: func(c *Context) (any, bool) {
			if c.Schema.Type.Primary() == spec.TypeNumber {
				return math.Round(c.Factory.floatIn(c.Schema, 1, 5)*10) / 10, true
			}
			return c.Factory.intIn(c.Schema, 1, 5), true
		}},
		{Name: "score", Match: contains("score", "percent", "progress"), Generate: func(c *Context) (any, bool) {
			return c.Factory.numberIn(c.Schema, 0, 100), true
		}},
		{Name: "age", Match: exact("age"), Generate: func(c *Context) (any, bool) {
			return c.Factory.intIn(c.Schema, 18, 80), true
		}},
		{Name: "latitude", Match: exact("lat", "latitude"), Generate: func(c *Context) (any, bool) {
			return math.Round(c.Faker().Latitude()*1e6) / 1e6, true
		}},
		{Name: "longitude", Match: exact("lng", "lon", "longitude"), Generate: func(c *Context) (any, bool) {
			return math.Round(c.Faker().Longitude()*1e6) / 1e6, true
		}},
		{Name: "boolean", Match: func(c *Context) bool { return boolPrefixRe.MatchString(c.Name) }, Generate: func(c *Context) (any, bool) {
			return c.Faker().Bool(), true
		}},
		{Name: "id", Match: anyOf(exact("id"), func(c *Context) bool {
			return strings.HasSuffix(strings.ToLower(c.Name), "_id") || strings.HasSuffix(c.Name, "Id")
		}), Generate: func(c *Context) (any, bool) {
			if c.Schema.Type.Primary() == spec.TypeString {
				return c.Factory.uuid(), true
			}
			return c.Factory.intIn(c.Schema, 1, 1000), true
		}},
		{Name: "first_name", Match: exact("firstname", "givenname"), Generate: func(c *Context) (any, bool) { return c.Faker().FirstName(), true }},
		{Name: "last_name", Match: exact("lastname", "surname", "familyname"), Generate: func(c *Context) (any, bool) { return c.Faker().LastName(), true }},
		{Name: "username", Match: exact("username", "login", "nickname", "handle"), Generate: func(c *Context) (any, bool) { return c.Faker().Username(), true }},
		{Name: "password", Match: contains("password", "secret"), Generate: func(c *Context) (any, bool) { return "********", true }},
		{Name: "token", Match: contains("token", "apikey"), Generate: func(c *Context) (any, bool) { return c.Faker().Regex("[a-f0-9]{40}"), true }},
		{Name: "company", Match: contains("company", "organization", "organisation"), Generate: func(c *Context) (any, bool) { return c.Faker().Company(), true }},
		{Name: "name", Match: anyOf(exact("name", "fullname", "displayname", "author", "customername")), Generate: func(c *Context) (any, bool) { return c.Faker().Name(), true }},
		{Name: "title", Match: exact("title", "subject", "headline"), Generate: func(c *Context) (any, bool) {
			return strings.TrimSuffix(c.Faker().Sentence(4), "."), true
		}},
		{Name: "slug", Match: exact("slug"), Generate: func(c *Context) (any, bool) {
			return strings.ToLower(c.Faker().Word() + "-" + c.Faker().Word()), true
		}},
		{Name: "text", Match: exact("description", "body", "content", "bio", "summary", "comment", "message", "note", "notes", "excerpt"), Generate: func(c *Context) (any, bool) {
			return c.Faker().Sentence(10), true
		}},
		{Name: "street", Match: anyOf(exact("address", "street", "streetaddress", "address1", "addressline1")), Generate: func(c *Context) (any, bool) { return c.Faker().Street(), true }},
		{Name: "city", Match: exact("city", "town"), Generate: func(c *Context) (any, bool) { return c.Faker().City(), true }},
		{Name: "state", Match: exact("state", "province", "region"), Generate: func(c *Context) (any, bool) { return c.Faker().State(), true }},
		{Name: "country", Match: exact("country", "countryname"), Generate: func(c *Context) (any, bool) { return c.Faker().Country(), true }},
		{Name: "zip", Match: exact("zip", "zipcode", "postcode", "postalcode"), Generate: func(c *Context) (any, bool) { return c.Faker().Zip(), true }},
		{Name: "currency", Match: exact("currency", "currencycode"), Generate: func(c *Context) (any, bool) { return c.Faker().CurrencyShort(), true }},
		{Name: "color", Match: exact("color", "colour"), Generate: func(c *Context) (any, bool) { return c.Faker().HexColor(), true }},
		{Name: "ip", Match: exact("ip", "ipaddress"), Generate: func(c *Context) (any, bool) { return c.Faker().IPv4Address(), true }},
		{Name: "locale", Match: exact("locale", "language", "lang"), Generate: func(c *Context) (any, bool) {
			if c.Factory.locale != "" {
				return c.Factory.locale, true
			}
			return "en", true
		}},
		{Name: "sku", Match: exact("sku"), Generate: func(c *Context) (any, bool) { return c.Faker().Numerify("SKU-######"), true }},
	}
}

func imageSize(normalized string) (int, int, bool) {
	for _, s := range imageSizes {
		for _, w := range s.words {
			if strings.Contains(normalized, w) {
				return s.w, s.h, true
			}
		}
	}
	return 0, 0, false
}

func (f *Factory) uuid() string {
	id, err := uuid.NewRandomFromReader(f.faker.Rand)
	if err != nil {
		return f.faker.UUID()
	}
	return id.String()
}

// days returns a random duration between lo and hi days, to the second.
func (f *Factory) days(lo, hi int) time.Duration {
	span := int64(hi-lo) * 86400
	secs := int64(lo) * 86400
	if span > 0 {
		secs += f.faker.Rand.Int63n(span)
	}
	return time.Duration(secs) * time.Second
}

// timestamp renders now+offset as a date or RFC 3339 date-time per format.
func (f *Factory) timestamp(s *spec.Schema, offset time.Duration) string {
	t := f.now.Add(offset).UTC()
	if s != nil && s.Format == "date" {
		return t.Format("2006-01-02")
	}
	return t.Format(time.RFC3339)
}

// maxExactInt bounds the integers a float64 bound can carry exactly.
const maxExactInt = 1 << 53

// intIn picks an integer in [lo, hi] narrowed by the schema bounds. Bounds
// beyond the exact float range are returned as is.
func (f *Factory) intIn(s *spec.Schema, lo, hi int) any {
	flo, fhi := float64(lo), float64(hi)
	if s != nil {
		if s.Minimum != nil && math.Ceil(*s.Minimum) > flo {
			flo = math.Ceil(*s.Minimum)
		}
		if s.Maximum != nil && math.Floor(*s.Maximum) < fhi {
			fhi = math.Floor(*s.Maximum)
		}
	}
	if fhi < flo {
		fhi = flo
	}
	switch {
	case flo > maxExactInt:
		return flo
	case fhi < -maxExactInt:
		return fhi
	}
	lo, hi = int(flo), int(fhi)
	return lo + f.faker.Rand.Intn(hi-lo+1)
}

func (f *Factory) floatIn(s *spec.Schema, lo, hi float64) float64 {
	if s != nil {
		if s.Minimum != nil && *s.Minimum > lo {
			lo = *s.Minimum
		}
		if s.Maximum != nil && *s.Maximum < hi {
			hi = *s.Maximum
		}
	}
	if hi < lo {
		hi = lo
	}
	v := lo + f.faker.Rand.Float64()*(hi-lo)
	v = math.Round(v*100) / 100
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	return v
}

// numberIn picks an integer or a two-decimal float depending on the schema type.
func (f *Factory) numberIn(s *spec.Schema, lo, hi int) any {
	if s != nil && s.Type.Primary() == spec.TypeNumber {
		return f.floatIn(s, float64(lo), float64(hi))
	}
	return f.intIn(s, lo, hi)
}
