package builder

import (
	"github.com/roskakori/nubops/internal/config"
	"github.com/roskakori/nubops/internal/template"
)

// Action is what a build did with a file or script.
type Action string

// Actions
const (
	ActionShow      Action = "show"      // printed only
	ActionWrite     Action = "write"     // new file written
	ActionOverwrite Action = "overwrite" // existing file replaced
	ActionKeep      Action = "keep"      // existing file kept
	ActionRun       Action = "run"       // script ran
	ActionSkip      Action = "skip"      // script not run
	ActionFailed    Action = "failed"    // script exited with an error
)

// Report summarizes a build.
type Report struct {
	RunID        string         `json:"run_id"`
	Recipe       string         `json:"recipe"`
	Mode         config.Mode    `json:"mode"`
	TargetFolder string         `json:"target_folder"`
	Files        []FileResult   `json:"files"`
	Scripts      []ScriptResult `json:"scripts"`
}

// FileResult is the outcome for one content template.
type FileResult struct {
	Template string `json:"template"`
	Target   string `json:"target"`
	Action   Action `json:"action"`
	Content  string `json:"content,omitempty"` // rendered text, show mode only
}

// ScriptResult is the outcome for one script.
type ScriptResult struct {
	Script string `json:"script"`
	Action Action `json:"action"`
}

func newReport(b *OpsBuilder) *Report {
	return &Report{
		RunID:        b.runID,
		Recipe:       b.recipe.Name,
		Mode:         b.mode,
		TargetFolder: b.targetFolder,
		Files:        []FileResult{},
		Scripts:      []ScriptResult{},
	}
}

func (r *Report) addFile(content *template.Content, action Action) {
	r.Files = append(r.Files, FileResult{
		Template: content.TemplatePath,
		Target:   content.TargetPath,
		Action:   action,
	})
}

func (r *Report) addScript(kind template.ScriptKind, action Action) {
	r.Scripts = append(r.Scripts, ScriptResult{Script: kind.ShName(), Action: action})
}

// Changed reports whether the build wrote any file or ran any script.
func (r *Report) Changed() bool {
	for _, f := range r.Files {
		if f.Action == ActionWrite || f.Action == ActionOverwrite {
			return true
		}
	}
	for _, s := range r.Scripts {
		if s.Action == ActionRun {
			return true
		}
	}
	return false
}
