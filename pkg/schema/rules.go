package schema

import (
	"errors"
	"fmt"
	"net/mail"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/goliatone/go-formdraft/internal/model"
)

// Values gives rules read access to the sibling fields of the value being
// validated.
type Values interface {
	Lookup(name string) (any, bool)
}

// ValuesFunc adapts a function into Values.
type ValuesFunc func(name string) (any, bool)

// Lookup delegates to the underlying function.
func (fn ValuesFunc) Lookup(name string) (any, bool) {
	return fn(name)
}

// MapValues exposes a plain map as Values.
type MapValues map[string]any

// Lookup returns the entry for name.
func (m MapValues) Lookup(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}

// Rule is a single validation constraint. The embedded ValidationRule keeps
// the declarative kind and parameters so renderers can describe the rule.
type Rule struct {
	model.ValidationRule
	Message string
	// Fields names the siblings the rule reads. Empty for rules that only
	// look at their own value.
	Fields []string

	check func(value any, siblings Values) bool
}

// Evaluate returns nil when value satisfies the rule.
func (r Rule) Evaluate(value any, siblings Values) error {
	if r.check == nil {
		return nil
	}
	if siblings == nil {
		siblings = MapValues(nil)
	}
	if r.check(value, siblings) {
		return nil
	}
	return errors.New(r.Message)
}

// CrossField reports whether the rule depends on sibling values.
func (r Rule) CrossField() bool {
	return len(r.Fields) > 0
}

// WithMessage returns a copy of the rule using msg as its error text.
func (r Rule) WithMessage(msg string) Rule {
	if trimmed := strings.TrimSpace(msg); trimmed != "" {
		r.Message = trimmed
	}
	return r
}

func newRule(kind string, params map[string]string, msg string, check func(any, Values) bool) Rule {
	return Rule{
		ValidationRule: model.ValidationRule{Kind: kind, Params: params},
		Message:        msg,
		check:          check,
	}
}

// Required rejects empty strings (after trimming), nil values and empty
// lists. Numbers are never considered empty; use Min for them.
func Required() Rule {
	return newRule(model.ValidationRuleRequired, nil, "required", func(v any, _ Values) bool {
		return !isEmpty(v)
	})
}

// RequiredWithout requires the value when the sibling field is empty.
func RequiredWithout(field string) Rule {
	r := newRule(model.ValidationRuleRequiredWithout, map[string]string{"field": field},
		fmt.Sprintf("required when %s is empty", model.DefaultLabeler(field)),
		func(v any, siblings Values) bool {
			other, _ := siblings.Lookup(field)
			if !isEmpty(other) {
				return true
			}
			return !isEmpty(v)
		})
	r.Fields = []string{field}
	return r
}

// MinLength enforces a minimum rune count on non-empty strings.
func MinLength(n int) Rule {
	return newRule(model.ValidationRuleMinLength, map[string]string{"value": strconv.Itoa(n)},
		fmt.Sprintf("must be at least %d characters", n),
		func(v any, _ Values) bool {
			s, ok := v.(string)
			if !ok || s == "" {
				return true
			}
			return len([]rune(s)) >= n
		})
}

// MaxLength enforces a maximum rune count on strings.
func MaxLength(n int) Rule {
	return newRule(model.ValidationRuleMaxLength, map[string]string{"value": strconv.Itoa(n)},
		fmt.Sprintf("must be at most %d characters", n),
		func(v any, _ Values) bool {
			s, ok := v.(string)
			if !ok {
				return true
			}
			return len([]rune(s)) <= n
		})
}

// Pattern matches non-empty strings against expr. It panics when expr does
// not compile, matching regexp.MustCompile; schemas are package-level values.
func Pattern(expr string) Rule {
	re := regexp.MustCompile(expr)
	return newRule(model.ValidationRulePattern, map[string]string{"pattern": expr},
		"does not match required pattern",
		func(v any, _ Values) bool {
			s, ok := v.(string)
			if !ok || s == "" {
				return true
			}
			return re.MatchString(s)
		})
}

// Email accepts a bare address (no display name) on non-empty strings.
func Email() Rule {
	return newRule(model.ValidationRuleEmail, nil, "must be a valid email address", func(v any, _ Values) bool {
		s, ok := v.(string)
		if !ok || s == "" {
			return true
		}
		addr, err := mail.ParseAddress(s)
		if err != nil {
			return false
		}
		return addr.Address == s && strings.Contains(s[strings.LastIndex(s, "@"):], ".")
	})
}

// Digits accepts non-empty strings made of ASCII digits only.
func Digits() Rule {
	return newRule(model.ValidationRuleDigits, nil, "must contain digits only", func(v any, _ Values) bool {
		s, ok := v.(string)
		if !ok || s == "" {
			return true
		}
		for _, r := range s {
			if r < '0' || r > '9' {
				return false
			}
		}
		return true
	})
}

// Min enforces a lower bound on numeric values.
func Min(bound float64) Rule {
	return newRule(model.ValidationRuleMin, map[string]string{"value": strconv.FormatFloat(bound, 'f', -1, 64)},
		fmt.Sprintf("must be at least %v", bound),
		func(v any, _ Values) bool {
			n, ok := toFloat(v)
			if !ok {
				return true
			}
			return n >= bound
		})
}

// Max enforces an upper bound on numeric values.
func Max(bound float64) Rule {
	return newRule(model.ValidationRuleMax, map[string]string{"value": strconv.FormatFloat(bound, 'f', -1, 64)},
		fmt.Sprintf("must be at most %v", bound),
		func(v any, _ Values) bool {
			n, ok := toFloat(v)
			if !ok {
				return true
			}
			return n <= bound
		})
}

// OneOf restricts the value to the listed choices. Empty strings pass so the
// rule composes with Required.
func OneOf(choices ...any) Rule {
	labels := make([]string, len(choices))
	for i, c := range choices {
		labels[i] = fmt.Sprint(c)
	}
	return newRule(model.ValidationRuleOneOf, map[string]string{"values": strings.Join(labels, ",")},
		"must be one of "+strings.Join(labels, ", "),
		func(v any, _ Values) bool {
			if s, ok := v.(string); ok && s == "" {
				return true
			}
			for _, c := range choices {
				if equalValues(v, c) {
					return true
				}
			}
			return false
		})
}

// MinItems enforces a minimum length on list values.
func MinItems(n int) Rule {
	return newRule(model.ValidationRuleMinItems, map[string]string{"value": strconv.Itoa(n)},
		fmt.Sprintf("must contain at least %d items", n),
		func(v any, _ Values) bool {
			return lengthOf(v) >= n
		})
}

// Custom wraps an arbitrary predicate. Name any siblings the predicate reads
// so dependents are re-validated when they change.
func Custom(msg string, fn func(value any, siblings Values) bool, fields ...string) Rule {
	r := newRule(model.ValidationRuleCustom, nil, msg, fn)
	r.Fields = append([]string(nil), fields...)
	return r
}

func isEmpty(v any) bool {
	switch typed := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(typed) == ""
	case int, int64, float64:
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func lengthOf(v any) int {
	if v == nil {
		return 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array, reflect.String:
		return rv.Len()
	}
	return 0
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func equalValues(a, b any) bool {
	fa, aok := toFloat(a)
	fb, bok := toFloat(b)
	if aok && bok {
		return fa == fb
	}
	return fmt.Sprint(a) == fmt.Sprint(b) && reflect.TypeOf(a) == reflect.TypeOf(b)
}
