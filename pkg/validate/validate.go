// Package validate provides struct-tag validation for request payloads.
//
// Supported rules (comma-separated in the `validate` tag):
//
//	required        field must not be zero/empty (whitespace-only strings are empty)
//	email           loose local@domain.tld shape
//	objectid        24-character hex MongoDB ObjectID
//	integer         number without a fractional part
//	min=N           string: min length in UTF-16 code units | number: min value
//	gte=N           number >= N
//	lte=N           number <= N
//
// Example:
//
//	type SignupInput struct {
//	    Name     string `json:"name"     validate:"required"`
//	    Email    string `json:"email"    validate:"required"`
//	    Password string `json:"password" validate:"required,min=8"`
//	}
package validate

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf16"
)

// FieldError describes the first failing rule on one field.
type FieldError struct {
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Errors maps JSON field name to its first failing rule.
type Errors map[string]FieldError

// HasErrors reports whether any field failed.
func (e Errors) HasErrors() bool { return len(e) > 0 }

// Failed reports whether any field failed the given rule name (without
// parameter, e.g. "min" for "min=8").
func (e Errors) Failed(rule string) bool {
	for _, fe := range e {
		if fe.Rule == rule {
			return true
		}
	}
	return false
}

// Struct validates all exported fields of v that carry a `validate` tag.
func Struct(v interface{}) Errors {
	errs := make(Errors)
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return errs
	}
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		tag := field.Tag.Get("validate")
		if tag == "" {
			continue
		}

		if fe := check(jsonFieldName(field), rv.Field(i), splitRules(tag)); fe != nil {
			errs[jsonFieldName(field)] = *fe
		}
	}

	return errs
}

// check runs rules in order and returns the first failure. A pointer field
// counts as present when non-nil, so `required` accepts an explicit zero
// number. An interface field is judged by the value it holds. Other rules
// see the dereferenced value.
func check(name string, field reflect.Value, rules []string) *FieldError {
	value := indirect(field)
	absent := isAbsent(field)

	if absent && !hasRule(rules, "required") {
		return nil
	}

	for _, rule := range rules {
		var msg string
		switch rule {
		case "required":
			if absent {
				msg = fmt.Sprintf("The %s field is required.", name)
			}
		default:
			msg = applyRule(rule, name, value)
		}
		if msg != "" {
			key, _, _ := strings.Cut(rule, "=")
			return &FieldError{Rule: key, Message: msg}
		}
	}
	return nil
}

func isAbsent(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Ptr:
		return v.IsNil()
	case reflect.Interface:
		return v.IsNil() || isAbsent(v.Elem())
	}
	return isEmpty(v)
}

// Email reports whether s has the loose local@domain.tld shape.
func Email(s string) bool { return emailRE.MatchString(s) }

// ObjectID reports whether s is a 24-character hex ObjectID.
func ObjectID(s string) bool { return objectIDRE.MatchString(s) }

func applyRule(rule, field string, v reflect.Value) string {
	key, param, _ := strings.Cut(rule, "=")
	raw := stringOf(v)

	switch key {
	case "email":
		if !Email(raw) {
			return fmt.Sprintf("The %s must be a valid email address.", field)
		}
	case "objectid":
		if !ObjectID(raw) {
			return fmt.Sprintf("The %s must be a valid identifier.", field)
		}
	case "integer":
		if !isNumericKind(v) {
			if _, err := strconv.ParseInt(raw, 10, 64); err != nil {
				return fmt.Sprintf("The %s field must be an integer.", field)
			}
		} else if f := toFloat(v); f != math.Trunc(f) {
			return fmt.Sprintf("The %s field must be an integer.", field)
		}

	case "min":
		n := mustParseFloat(param)
		if isNumericKind(v) {
			if toFloat(v) < n {
				return fmt.Sprintf("The %s must be at least %s.", field, param)
			}
		} else if float64(len(utf16.Encode([]rune(raw)))) < n {
			return fmt.Sprintf("The %s must be at least %s characters.", field, param)
		}
	case "gte":
		if !isNumericKind(v) || toFloat(v) < mustParseFloat(param) {
			return fmt.Sprintf("The %s must be greater than or equal to %s.", field, param)
		}
	case "lte":
		if !isNumericKind(v) || toFloat(v) > mustParseFloat(param) {
			return fmt.Sprintf("The %s must be less than or equal to %s.", field, param)
		}
	}

	return ""
}

var (
	emailRE    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	objectIDRE = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)
)

func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return v
		}
		v = v.Elem()
	}
	return v
}

func stringOf(v reflect.Value) string {
	if !v.IsValid() {
		return ""
	}
	if (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) && v.IsNil() {
		return ""
	}
	if v.Kind() == reflect.String {
		return v.String()
	}
	if v.CanInterface() {
		return fmt.Sprintf("%v", v.Interface())
	}
	return ""
}

func isEmpty(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.String:
		return strings.TrimSpace(v.String()) == ""
	case reflect.Slice, reflect.Map, reflect.Array:
		return v.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	case reflect.Bool:
		return false
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	}
	return false
}

func isNumericKind(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func toFloat(v reflect.Value) float64 {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	case reflect.Float32, reflect.Float64:
		return v.Float()
	}
	f, _ := strconv.ParseFloat(stringOf(v), 64)
	return f
}

func mustParseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}

func jsonFieldName(f reflect.StructField) string {
	name := f.Tag.Get("json")
	if name == "" || name == "-" {
		return strings.ToLower(f.Name)
	}
	if idx := strings.Index(name, ","); idx != -1 {
		name = name[:idx]
	}
	return name
}

func splitRules(tag string) []string {
	return strings.Split(tag, ",")
}

func hasRule(rules []string, target string) bool {
	for _, r := range rules {
		if strings.TrimSpace(r) == target {
			return true
		}
	}
	return false
}
