// Package symbols turns command line arguments, options and configured
// values into the flat symbol map templates are rendered with.
package symbols

import (
	"fmt"
	"sort"

	"github.com/roskakori/nubops/internal/errors"
	"github.com/roskakori/nubops/internal/subst"
	"github.com/roskakori/nubops/internal/template"
)

// Input collects the symbol sources for one recipe, from lowest to highest
// precedence: Config, option defaults, Sets, then Args and Flags.
type Input struct {
	Config map[string]string // symbols from the config file
	Sets   map[string]string // --set key=value
	Args   []string          // positional arguments in recipe order
	Flags  map[string]string // option flags given explicitly, by symbol name
}

// Resolve builds the symbol map for recipe. Option values may refer to other
// symbols and are resolved in declaration order.
func Resolve(recipe *template.Recipe, in Input) (map[string]string, error) {
	if len(in.Args) != len(recipe.Arguments) {
		return nil, errors.Validation(fmt.Sprintf("%s requires %d argument(s) but got %d",
			recipe.Name, len(recipe.Arguments), len(in.Args)))
	}

	result := make(map[string]string)
	for name, value := range in.Config {
		result[name] = value
	}
	for _, opt := range recipe.Options {
		result[template.SymbolName(opt.Name)] = opt.Default
	}
	for name, value := range in.Sets {
		result[name] = value
	}
	for i, arg := range recipe.Arguments {
		result[template.SymbolName(arg.Name)] = in.Args[i]
	}
	for name, value := range in.Flags {
		result[name] = value
	}

	for _, opt := range recipe.Options {
		name := template.SymbolName(opt.Name)
		value, err := resolvedValue(name, result[name], result)
		if err != nil {
			return nil, err
		}
		result[name] = value
	}

	if err := validate(recipe, result); err != nil {
		return nil, err
	}
	return result, nil
}

func resolvedValue(name, text string, symbols map[string]string) (string, error) {
	value, err := subst.Substitute(text, symbols)
	if err == nil {
		return value, nil
	}
	var missing *subst.MissingSymbolError
	if errors.As(err, &missing) {
		return "", errors.Build(fmt.Sprintf("cannot resolve symbol %s because it references missing symbol: '%s'", name, missing.Name))
	}
	return "", errors.Build(fmt.Sprintf("cannot resolve %s: %v", name, err))
}

func validate(recipe *template.Recipe, symbols map[string]string) error {
	check := func(name, kind string) error {
		if err := Validate(kind, symbols[template.SymbolName(name)]); err != nil {
			return errors.Validation(fmt.Sprintf("%s: %v", name, err))
		}
		return nil
	}
	for _, arg := range recipe.Arguments {
		if err := check(arg.Name, arg.Validate); err != nil {
			return err
		}
	}
	for _, opt := range recipe.Options {
		if err := check(opt.Name, opt.Validate); err != nil {
			return err
		}
	}
	return nil
}

// Names returns the keys of symbols sorted.
func Names(symbols map[string]string) []string {
	names := make([]string, 0, len(symbols))
	for name := range symbols {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
