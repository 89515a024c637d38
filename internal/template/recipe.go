package template

import (
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roskakori/nubops/internal/errors"
)

// RecipeFile is the file describing the command line surface of a recipe.
const RecipeFile = "recipe.yaml"

var (
	recipeNameRe   = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9-]*$`)
	argumentNameRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)
)

// Recipe is a named set of content and script templates.
type Recipe struct {
	Name      string     `yaml:"-"`
	Short     string     `yaml:"short"`
	Long      string     `yaml:"long"`
	Arguments []Argument `yaml:"arguments"`
	Options   []Option   `yaml:"options"`

	Contents []*ContentTemplate             `yaml:"-"`
	Scripts  map[ScriptKind]*ScriptTemplate `yaml:"-"`
}

// Argument is a positional command line argument.
type Argument struct {
	Name     string `yaml:"name"`
	Help     string `yaml:"help"`
	Validate string `yaml:"validate,omitempty"`
}

// Option is a command line flag with a default that may refer to other
// symbols.
type Option struct {
	Name     string `yaml:"name"`
	Help     string `yaml:"help"`
	Default  string `yaml:"default"`
	Validate string `yaml:"validate,omitempty"`
}

// SymbolName converts a command line name like "project-dir" into the
// symbol name "project_dir".
func SymbolName(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

// CommandName converts a recipe folder like "nginx_django" into the command
// name "nginx-django".
func CommandName(folder string) string {
	return strings.ReplaceAll(folder, "_", "-")
}

// IsValidRecipeName reports whether name can be used as a recipe command.
func IsValidRecipeName(name string) bool {
	return recipeNameRe.MatchString(name)
}

// RecipeNames returns the command names of all recipes in fsys, sorted.
func RecipeNames(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, "cannot read templates", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
			names = append(names, CommandName(entry.Name()))
		}
	}
	sort.Strings(names)
	return names, nil
}

// LoadRecipe reads all templates of the recipe with the given command name.
func LoadRecipe(fsys fs.FS, name string) (*Recipe, error) {
	if !IsValidRecipeName(name) {
		return nil, errors.Validation(fmt.Sprintf("name %s must match %s", name, recipeNameRe.String()))
	}
	folder := SymbolName(name)
	entries, err := fs.ReadDir(fsys, folder)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, "recipe not found: "+name, err)
	}

	recipe := &Recipe{Name: name}
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() != RecipeFile {
			continue
		}
		recipePath := path.Join(folder, RecipeFile)
		data, err := fs.ReadFile(fsys, recipePath)
		if err != nil {
			return nil, errors.WrapData(recipePath, errors.NoLine, "cannot read recipe", err)
		}
		if err := yaml.Unmarshal(data, recipe); err != nil {
			return nil, errors.WrapData(recipePath, errors.NoLine, "cannot parse recipe", err)
		}
		if err := recipe.validate(recipePath); err != nil {
			return nil, err
		}
	}

	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == RecipeFile || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		content, err := ParseContent(fsys, path.Join(folder, entry.Name()))
		if err != nil {
			return nil, err
		}
		recipe.Contents = append(recipe.Contents, content)
	}

	recipe.Scripts, err = loadScripts(fsys, folder)
	if err != nil {
		return nil, err
	}

	if len(recipe.Contents) == 0 && len(recipe.Scripts) == 0 {
		return nil, errors.Data(folder, errors.NoLine,
			fmt.Sprintf("recipe %s must have at least one content or command template", name))
	}
	return recipe, nil
}

// SymbolNames returns the symbols the recipe defines through its arguments
// and options, in declaration order.
func (r *Recipe) SymbolNames() []string {
	names := make([]string, 0, len(r.Arguments)+len(r.Options))
	for _, arg := range r.Arguments {
		names = append(names, SymbolName(arg.Name))
	}
	for _, opt := range r.Options {
		names = append(names, SymbolName(opt.Name))
	}
	return names
}

func (r *Recipe) validate(recipePath string) error {
	seen := map[string]bool{}
	check := func(name string) error {
		if !argumentNameRe.MatchString(name) {
			return errors.Data(recipePath, errors.NoLine,
				fmt.Sprintf("argument name %s must match %s", name, argumentNameRe.String()))
		}
		symbol := SymbolName(name)
		if seen[symbol] {
			return errors.Data(recipePath, errors.NoLine, "duplicate argument: "+name)
		}
		seen[symbol] = true
		return nil
	}
	for _, arg := range r.Arguments {
		if err := check(arg.Name); err != nil {
			return err
		}
	}
	for _, opt := range r.Options {
		if err := check(opt.Name); err != nil {
			return err
		}
	}
	return nil
}
