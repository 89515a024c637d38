package template

import (
	"io/fs"
	"path"

	"github.com/roskakori/nubops/internal/errors"
	"github.com/roskakori/nubops/internal/subst"
)

// ScriptKind names one of the optional shell scripts of a recipe.
type ScriptKind string

// Script kinds in the order a build runs them.
const (
	ScriptInstall ScriptKind = "install"
	ScriptBefore  ScriptKind = "before"
	ScriptAfter   ScriptKind = "after"
)

// ScriptKinds returns all script kinds in run order.
func ScriptKinds() []ScriptKind {
	return []ScriptKind{ScriptInstall, ScriptBefore, ScriptAfter}
}

// ShName returns the file name of the script, e.g. "install.sh".
func (k ScriptKind) ShName() string {
	return string(k) + ".sh"
}

// commandsFolder holds the script templates of a recipe.
const commandsFolder = "commands"

// ScriptTemplate is an unresolved shell script of a recipe.
type ScriptTemplate struct {
	Kind ScriptKind
	Path string
	Text string
}

// loadScripts reads the script templates below recipeFolder. Missing
// scripts are skipped.
func loadScripts(fsys fs.FS, recipeFolder string) (map[ScriptKind]*ScriptTemplate, error) {
	result := make(map[ScriptKind]*ScriptTemplate)
	for _, kind := range ScriptKinds() {
		scriptPath := path.Join(recipeFolder, commandsFolder, kind.ShName())
		data, err := fs.ReadFile(fsys, scriptPath)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, errors.WrapData(scriptPath, errors.NoLine, "cannot read command template", err)
		}
		result[kind] = &ScriptTemplate{Kind: kind, Path: scriptPath, Text: string(data)}
	}
	return result, nil
}

// Resolve substitutes symbols into the script.
func (s *ScriptTemplate) Resolve(symbols map[string]string) (string, error) {
	text, err := subst.Substitute(s.Text, symbols)
	if err != nil {
		return "", resolveError(s.Path, 0, "script "+s.Kind.ShName(), err)
	}
	return text, nil
}
