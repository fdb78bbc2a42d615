package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/repobee/repobee-sub000/internal/config"
)

// ArgumentError reports a failed argument resolution: a missing
// required value or a converter failure. It identifies the argument
// and its owning action; argument errors are fatal to the invocation
// and no partial command execution occurs.
type ArgumentError struct {
	Action   string
	Argument string
	Raw      string
	Err      error
}

func (e *ArgumentError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("missing required argument %q for %q", e.Argument, e.Action)
	}
	return fmt.Sprintf("invalid value %q for argument %q of %q: %v", e.Raw, e.Argument, e.Action, e.Err)
}

func (e *ArgumentError) Unwrap() error { return e.Err }

// Bind resolves every argument of the action, host-declared and
// extension-attached, against the parsed flag set, the remaining
// positional input, and the configuration file. Precedence per
// argument: explicit CLI value, then configuration (only if
// configurable), then compiled-in default, then absence.
func Bind(a *Action, fs *pflag.FlagSet, positionals []string, cfg *config.Config) (*Values, error) {
	vals := &Values{vals: make(map[string]any)}

	lookup := sectionLookup(cfg, a.section())
	posIdx := 0
	for _, arg := range a.Args {
		var raw string
		var rawOK bool
		if arg.Kind == Positional {
			switch {
			case arg.Variadic:
				if posIdx < len(positionals) {
					raw, rawOK = strings.Join(positionals[posIdx:], " "), true
				}
				posIdx = len(positionals)
			case posIdx < len(positionals):
				raw, rawOK = positionals[posIdx], true
				posIdx++
			default:
				posIdx++
			}
		}
		if err := resolve(a.Name, arg, fs, lookup, raw, rawOK, vals); err != nil {
			return nil, err
		}
	}

	for _, ext := range a.exts {
		extLookup := sectionLookup(cfg, ext.Plugin)
		for _, arg := range ext.Args {
			if err := resolve(a.Name, arg, fs, extLookup, "", false, vals); err != nil {
				return nil, err
			}
		}
	}

	return vals, nil
}

func sectionLookup(cfg *config.Config, section string) func(string) (string, bool) {
	if cfg == nil {
		return func(string) (string, bool) { return "", false }
	}
	return cfg.Section(section)
}

// resolve determines one argument's effective value and stores it in
// vals. rawPos/rawPosOK carry the positional input for positional
// arguments; options and flags read the flag set instead.
func resolve(action string, arg Argument, fs *pflag.FlagSet, lookup func(string) (string, bool), rawPos string, rawPosOK bool, vals *Values) error {
	raw, fromInput := "", false

	switch arg.Kind {
	case Positional:
		raw, fromInput = rawPos, rawPosOK
	case Option, Flag:
		if fs != nil && fs.Changed(arg.Name) {
			v, err := flagValue(fs, arg)
			if err != nil {
				return err
			}
			raw, fromInput = v, true
		}
	}

	if !fromInput && arg.Configurable {
		if v, ok := lookup(arg.Name); ok {
			raw, fromInput = v, true
		}
	}

	if fromInput {
		converted, err := convert(arg, raw)
		if err != nil {
			return &ArgumentError{Action: action, Argument: arg.Name, Raw: raw, Err: err}
		}
		vals.vals[arg.Name] = converted
		return nil
	}

	if arg.Default != nil {
		vals.vals[arg.Name] = arg.Default
		return nil
	}
	if arg.Kind == Flag {
		vals.vals[arg.Name] = false
		return nil
	}

	if arg.Required {
		return &ArgumentError{Action: action, Argument: arg.Name}
	}
	return nil
}

// flagValue extracts the raw string for a changed flag.
func flagValue(fs *pflag.FlagSet, arg Argument) (string, error) {
	f := fs.Lookup(arg.Name)
	if f == nil {
		return "", fmt.Errorf("flag %q not registered", arg.Name)
	}
	return f.Value.String(), nil
}

// convert runs the argument's converter exactly once on the raw
// value. Without a converter, options keep the raw string and flags
// parse as bool.
func convert(arg Argument, raw string) (any, error) {
	if arg.Convert != nil {
		return arg.Convert(raw)
	}
	if arg.Kind == Flag {
		return strconv.ParseBool(raw)
	}
	return raw, nil
}
