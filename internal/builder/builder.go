// Package builder applies a recipe: it resolves all templates, writes the
// rendered contents below a target folder and runs the recipe scripts.
//
// A build runs in the order install.sh, before.sh, contents, after.sh.
// Everything that can fail without touching the system is checked before
// the first script runs or the first file is written:
//
//   - every content and script template resolves against the symbols
//   - in write mode, no target exists unless the template keeps it
//
// Scripts only run when the mode changes the file system and the target
// folder is "/". In any other case they are reported as skipped, and in show
// mode they are printed instead.
package builder

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"
	"go.uber.org/zap"

	"github.com/roskakori/nubops/internal/config"
	"github.com/roskakori/nubops/internal/errors"
	"github.com/roskakori/nubops/internal/executor"
	"github.com/roskakori/nubops/internal/logger"
	"github.com/roskakori/nubops/internal/output"
	"github.com/roskakori/nubops/internal/template"
)

// Options configure an OpsBuilder.
type Options struct {
	Mode         config.Mode
	TargetFolder string
	Executor     executor.CommandExecutor
	Logger       *zap.Logger // defaults to logger.L()
	ScriptOutput io.Writer   // defaults to output.Writer()
	Silent       bool        // do not print rendered content in show mode
}

// OpsBuilder applies one recipe with fully resolved templates.
type OpsBuilder struct {
	recipe       *template.Recipe
	mode         config.Mode
	targetFolder string
	exec         executor.CommandExecutor
	log          *zap.Logger
	runID        string
	scriptOut    io.Writer
	silent       bool

	contents   []*template.Content
	scripts    map[template.ScriptKind]string
	runScripts bool
}

// New resolves all templates of recipe against symbols. It fails on the
// first template that cannot be resolved, before anything is changed.
func New(recipe *template.Recipe, symbols map[string]string, opts Options) (*OpsBuilder, error) {
	if !template.IsValidRecipeName(recipe.Name) {
		return nil, errors.Validation("invalid recipe name: " + recipe.Name)
	}
	if !config.IsValidMode(opts.Mode) {
		return nil, errors.Validation(fmt.Sprintf("invalid mode: %s", opts.Mode))
	}
	targetFolder := opts.TargetFolder
	if targetFolder == "" {
		targetFolder = "/"
	}
	if !filepath.IsAbs(targetFolder) {
		return nil, errors.Validation("target folder must be an absolute path: " + targetFolder)
	}
	targetFolder = filepath.Clean(targetFolder)
	if len(recipe.Contents) == 0 && len(recipe.Scripts) == 0 {
		return nil, errors.Build(fmt.Sprintf("recipe %s must have at least one content or command template", recipe.Name))
	}

	exec := opts.Executor
	if exec == nil {
		exec = executor.NewSystemExecutor()
	}
	log := opts.Logger
	if log == nil {
		log = logger.L()
	}
	runID := uuid.NewString()

	b := &OpsBuilder{
		recipe:       recipe,
		mode:         opts.Mode,
		targetFolder: targetFolder,
		exec:         exec,
		log:          log.With(zap.String("run_id", runID), zap.String("recipe", recipe.Name)),
		runID:        runID,
		scriptOut:    opts.ScriptOutput,
		silent:       opts.Silent,
		scripts:      make(map[template.ScriptKind]string),
		runScripts:   opts.Mode.Changes() && targetFolder == "/",
	}

	for _, tmpl := range recipe.Contents {
		content, err := tmpl.Resolve(symbols, targetFolder)
		if err != nil {
			return nil, err
		}
		b.contents = append(b.contents, content)
	}
	for _, kind := range template.ScriptKinds() {
		tmpl, ok := recipe.Scripts[kind]
		if !ok {
			continue
		}
		script, err := tmpl.Resolve(symbols)
		if err != nil {
			return nil, err
		}
		b.scripts[kind] = script
	}

	return b, nil
}

// RunID identifies the build in log output and reports.
func (b *OpsBuilder) RunID() string {
	return b.runID
}

// RunsScripts reports whether Build executes the recipe scripts.
func (b *OpsBuilder) RunsScripts() bool {
	return b.runScripts && len(b.scripts) > 0
}

// Contents returns the resolved content templates.
func (b *OpsBuilder) Contents() []*template.Content {
	return b.contents
}

// Script returns the resolved script of kind.
func (b *OpsBuilder) Script(kind template.ScriptKind) (string, bool) {
	script, ok := b.scripts[kind]
	return script, ok
}

// Build applies the recipe.
func (b *OpsBuilder) Build(ctx context.Context) (*Report, error) {
	report := newReport(b)
	b.log.Info("building", zap.String("mode", string(b.mode)), zap.String("target_folder", b.targetFolder))

	if err := b.preflight(); err != nil {
		return report, err
	}
	for _, kind := range []template.ScriptKind{template.ScriptInstall, template.ScriptBefore} {
		if err := b.runScript(ctx, kind, report); err != nil {
			return report, err
		}
	}
	if err := b.writeContents(report); err != nil {
		return report, err
	}
	if err := b.runScript(ctx, template.ScriptAfter, report); err != nil {
		return report, err
	}

	b.log.Info("build finished", zap.Int("files", len(report.Files)), zap.Int("scripts", len(report.Scripts)))
	return report, nil
}

// preflight fails if write mode would have to replace any target.
func (b *OpsBuilder) preflight() error {
	if b.mode != config.ModeWrite {
		return nil
	}
	for _, content := range b.contents {
		if !content.Keep && fileExists(content.TargetPath) {
			return errors.TargetExists(content.TargetPath)
		}
	}
	return nil
}

func (b *OpsBuilder) runScript(ctx context.Context, kind template.ScriptKind, report *Report) error {
	script, ok := b.scripts[kind]
	if !ok {
		return nil
	}

	if !b.runScripts {
		b.log.Info("would run " + kind.ShName())
		b.log.Debug(kind.ShName(), zap.String("script", script))
		if b.mode == config.ModeShow && !b.silent {
			output.Heading("==> would run %s", kind.ShName())
			output.Raw(script)
		}
		report.addScript(kind, ActionSkip)
		return nil
	}

	shellFile, err := os.CreateTemp("", "nubops_"+string(kind)+"_*.sh")
	if err != nil {
		return errors.Wrap(errors.ErrCodeScript, "cannot create temporary file for "+kind.ShName(), err)
	}
	shellPath := shellFile.Name()
	defer os.Remove(shellPath)

	_, err = shellFile.WriteString(script)
	if closeErr := shellFile.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeScript, "cannot write "+shellPath, err)
	}

	b.log.Info(fmt.Sprintf("running %s from %s", kind.ShName(), shellPath))
	out := b.scriptOut
	if out == nil {
		out = output.Writer()
	}
	if err := b.exec.Run(ctx, out, "sh", shellPath); err != nil {
		report.addScript(kind, ActionFailed)
		return errors.Wrap(errors.ErrCodeScript, "script "+kind.ShName()+" failed", err)
	}
	report.addScript(kind, ActionRun)
	return nil
}

func (b *OpsBuilder) writeContents(report *Report) error {
	for _, content := range b.contents {
		action, err := b.writeContent(content)
		if err != nil {
			return err
		}
		report.addFile(content, action)
		if action == ActionShow {
			report.Files[len(report.Files)-1].Content = content.Text
		}
	}
	return nil
}

func (b *OpsBuilder) writeContent(content *template.Content) (Action, error) {
	target := content.TargetPath
	if b.mode == config.ModeShow {
		b.log.Info(b.mode.LogVerb() + " " + target)
		if !b.silent {
			output.Heading("==> %s (%04o)", target, content.Mode.Perm())
			output.Raw(content.Text)
		}
		return ActionShow, nil
	}

	exists := fileExists(target)
	if exists && content.Keep {
		b.log.Info("keeping existing " + target)
		return ActionKeep, nil
	}
	if exists && b.mode == config.ModeWrite {
		return "", errors.TargetExists(target)
	}

	b.log.Info(b.mode.LogVerb() + " " + target)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", errors.Wrap(errors.ErrCodeBuild, "cannot create folder for "+target, err)
	}
	if err := writeFile(target, content.Text, content.Mode); err != nil {
		return "", errors.Wrap(errors.ErrCodeBuild, "cannot write "+target, err)
	}

	if exists {
		return ActionOverwrite, nil
	}
	return ActionWrite, nil
}

// writeFile replaces target with text. The temp file gets its final mode
// before the rename, so target never shows up with the wrong permissions.
func writeFile(target, text string, mode os.FileMode) (err error) {
	f, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".*")
	if err != nil {
		return err
	}
	temp := f.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(temp)
		}
	}()
	defer f.Close()

	if _, err = io.Copy(f, strings.NewReader(text)); err != nil {
		return err
	}
	if err = f.Chmod(mode); err != nil {
		return err
	}
	if err = f.Sync(); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return atomic.ReplaceFile(temp, target)
}

func fileExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
