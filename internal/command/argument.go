package command

import (
	"fmt"
	"strings"
)

// ArgKind is the CLI shape of an argument.
type ArgKind int

const (
	// Option is a named value flag, e.g. --org course-2026.
	Option ArgKind = iota

	// Flag is a boolean switch, e.g. --private.
	Flag

	// Positional is consumed from the remaining command line in
	// declaration order.
	Positional
)

// Argument declares one CLI argument of an action. Arguments are pure
// data; the binder interprets them at invocation time.
type Argument struct {
	Name  string
	Kind  ArgKind
	Short string
	Help  string

	// Default is the compiled-in value used when neither CLI nor
	// configuration supplies one. It is used as-is, without running
	// the converter.
	Default any

	// Required makes resolution fail when the final value is absent.
	// The check runs after configuration lookup, so a required
	// configurable argument satisfied by the config file never fails.
	Required bool

	// Configurable binds the argument to the configuration key
	// matching its name inside the owning section.
	Configurable bool

	// Convert validates and converts the raw string exactly once per
	// resolved value. A nil converter keeps the raw string (options)
	// or parses a bool (flags).
	Convert func(raw string) (any, error)

	// Variadic lets a positional consume all remaining command line
	// input. The raw values are joined with spaces before the
	// converter runs. Only valid on the last positional of an action.
	Variadic bool
}

// SplitList is a converter for space- or comma-separated list options.
func SplitList(raw string) (any, error) {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ' ' || r == ','
	})
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty list")
	}
	return fields, nil
}

// Values holds the resolved argument values handed to a command body.
type Values struct {
	vals map[string]any
}

// Has reports whether the argument resolved to a value.
func (v *Values) Has(name string) bool {
	_, ok := v.vals[name]
	return ok
}

// Value returns the raw resolved value, or nil if absent.
func (v *Values) Value(name string) any {
	return v.vals[name]
}

// String returns the resolved value as a string, or "".
func (v *Values) String(name string) string {
	s, _ := v.vals[name].(string)
	return s
}

// Bool returns the resolved value as a bool, or false.
func (v *Values) Bool(name string) bool {
	b, _ := v.vals[name].(bool)
	return b
}

// Strings returns the resolved value as a string slice, or nil.
func (v *Values) Strings(name string) []string {
	s, _ := v.vals[name].([]string)
	return s
}

// Int returns the resolved value as an int, or 0.
func (v *Values) Int(name string) int {
	i, _ := v.vals[name].(int)
	return i
}
