package validation

import (
	"net/url"
	"reflect"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// Rule is a pure predicate with the message reported when it fails.
type Rule struct {
	Name    string
	Message string
	Check   func(value any) bool
}

var predicates = validator.New()

// Required fails on nil, blank strings, empty lists and zero times.
func Required(message string) Rule {
	return Rule{Name: "required", Message: message, Check: func(value any) bool {
		return !isEmpty(value)
	}}
}

func MinLength(n int, message string) Rule {
	return Rule{Name: "minLength", Message: message, Check: func(value any) bool {
		s, ok := asString(value)
		if !ok || s == "" {
			return true
		}
		return utf8.RuneCountInString(strings.TrimSpace(s)) >= n
	}}
}

func MaxLength(n int, message string) Rule {
	return Rule{Name: "maxLength", Message: message, Check: func(value any) bool {
		s, ok := asString(value)
		if !ok {
			return true
		}
		return utf8.RuneCountInString(strings.TrimSpace(s)) <= n
	}}
}

func Pattern(re *regexp.Regexp, message string) Rule {
	return Rule{Name: "pattern", Message: message, Check: func(value any) bool {
		s, ok := asString(value)
		if !ok || s == "" {
			return true
		}
		return re.MatchString(s)
	}}
}

func Email(message string) Rule {
	return Rule{Name: "email", Message: message, Check: func(value any) bool {
		s, ok := asString(value)
		if !ok || s == "" {
			return true
		}
		return predicates.Var(strings.TrimSpace(s), "email") == nil
	}}
}

// URL accepts absolute http(s) URLs.
func URL(message string) Rule {
	return Rule{Name: "url", Message: message, Check: func(value any) bool {
		s, ok := asString(value)
		if !ok || s == "" {
			return true
		}
		return isHTTPURL(s)
	}}
}

// HostURL accepts http(s) URLs whose host is host or one of its subdomains.
func HostURL(host, message string) Rule {
	host = strings.ToLower(host)
	return Rule{Name: "hostUrl", Message: message, Check: func(value any) bool {
		s, ok := asString(value)
		if !ok || s == "" {
			return true
		}
		if !isHTTPURL(s) {
			return false
		}
		parsed, err := url.Parse(strings.TrimSpace(s))
		if err != nil {
			return false
		}
		h := strings.ToLower(parsed.Hostname())
		return h == host || strings.HasSuffix(h, "."+host)
	}}
}

func MinItems(n int, message string) Rule {
	return Rule{Name: "minItems", Message: message, Check: func(value any) bool {
		v := reflect.ValueOf(value)
		if !v.IsValid() {
			return n <= 0
		}
		if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
			return false
		}
		count := 0
		for i := 0; i < v.Len(); i++ {
			if s, ok := v.Index(i).Interface().(string); ok && strings.TrimSpace(s) == "" {
				continue
			}
			count++
		}
		return count >= n
	}}
}

func OneOf(message string, allowed ...string) Rule {
	return Rule{Name: "oneOf", Message: message, Check: func(value any) bool {
		s, ok := asString(value)
		if !ok || s == "" {
			return true
		}
		for _, candidate := range allowed {
			if s == candidate {
				return true
			}
		}
		return false
	}}
}

// MaxFileSize checks a byte count against a ceiling.
func MaxFileSize(limit int64, message string) Rule {
	return Rule{Name: "maxFileSize", Message: message, Check: func(value any) bool {
		switch size := value.(type) {
		case int64:
			return size <= limit
		case int:
			return int64(size) <= limit
		case nil:
			return true
		}
		return false
	}}
}

// FileType checks a MIME type against an allow-list. Parameters after ';' are ignored.
func FileType(message string, allowed ...string) Rule {
	return Rule{Name: "fileType", Message: message, Check: func(value any) bool {
		s, ok := asString(value)
		if !ok || s == "" {
			return true
		}
		mediaType := strings.ToLower(strings.TrimSpace(strings.SplitN(s, ";", 2)[0]))
		for _, candidate := range allowed {
			if mediaType == candidate {
				return true
			}
		}
		return false
	}}
}

// NotBefore fails when the value is a date earlier than the one returned by other.
// Either side being absent passes.
func NotBefore(other func() any, message string) Rule {
	return Rule{Name: "notBefore", Message: message, Check: func(value any) bool {
		end, ok := asTime(value)
		if !ok {
			return true
		}
		start, ok := asTime(other())
		if !ok {
			return true
		}
		return !end.Before(start)
	}}
}

func isHTTPURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	if predicates.Var(raw, "url") != nil {
		return false
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

func asString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case *string:
		if v == nil {
			return "", true
		}
		return *v, true
	case nil:
		return "", true
	}
	return "", false
}

func asTime(value any) (time.Time, bool) {
	if isNil(value) {
		return time.Time{}, false
	}
	switch v := value.(type) {
	case time.Time:
		return v, !v.IsZero()
	case *time.Time:
		return *v, !v.IsZero()
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Struct {
		if field := rv.FieldByName("Time"); field.IsValid() {
			if t, ok := field.Interface().(time.Time); ok {
				return t, !t.IsZero()
			}
		}
	}
	return time.Time{}, false
}

func isNil(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func isEmpty(value any) bool {
	if isNil(value) {
		return true
	}
	if s, ok := asString(value); ok {
		return strings.TrimSpace(s) == ""
	}
	if t, ok := asTime(value); ok {
		return t.IsZero()
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() == 0
	case reflect.Pointer:
		return isEmpty(rv.Elem().Interface())
	case reflect.Struct:
		return rv.IsZero()
	}
	return false
}
