package config

// Mode selects what a build does with rendered templates.
type Mode string

// Build modes
const (
	ModeShow      Mode = "show"      // print rendered templates, change nothing
	ModeWrite     Mode = "write"     // write targets, refuse to replace existing ones
	ModeOverwrite Mode = "overwrite" // write targets, replace existing ones
)

// ValidModes returns all valid build modes
func ValidModes() []Mode {
	return []Mode{ModeShow, ModeWrite, ModeOverwrite}
}

// IsValidMode checks if the given mode is valid
func IsValidMode(m Mode) bool {
	for _, valid := range ValidModes() {
		if m == valid {
			return true
		}
	}
	return false
}

// Changes reports whether the mode modifies the file system.
func (m Mode) Changes() bool {
	return m == ModeWrite || m == ModeOverwrite
}

// LogVerb returns the verb used when logging a target in this mode.
func (m Mode) LogVerb() string {
	switch m {
	case ModeWrite:
		return "writing"
	case ModeOverwrite:
		return "overwriting"
	default:
		return "showing"
	}
}
