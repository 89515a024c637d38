package template

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/roskakori/nubops/internal/errors"
	"github.com/roskakori/nubops/internal/subst"
)

// Header keys of a content template.
const (
	KeyKeep   = "keep"
	KeyMode   = "mode"
	KeyTarget = "target"
)

// KeepExisting is the only accepted value of the keep key.
const KeepExisting = "existing"

// DefaultFileMode is used for targets without a mode key.
const DefaultFileMode os.FileMode = 0o644

var (
	validKeys   = []string{KeyKeep, KeyMode, KeyTarget}
	keyLineRe   = regexp.MustCompile(`^\s*(?P<key>[a-z][a-z0-9_]*)\s*:\s*(?P<value>.+)\s*$`)
	validKeyMsg = strings.Join(validKeys, ", ")
)

type parserState int

const (
	atHeader parserState = iota
	afterTarget
	atContent
)

// ContentTemplate is a parsed but unresolved content template.
type ContentTemplate struct {
	Path        string      // path inside the template filesystem
	Description string      // leading comment lines without "#"
	Target      string      // unresolved target path
	TargetLine  int         // zero-based line of the target key
	Mode        os.FileMode // file mode for the target
	Keep        bool        // keep an existing target
	Body        string      // unresolved content
	BodyLine    int         // zero-based line the content starts at
}

// Content is a content template resolved against a set of symbols.
type Content struct {
	TemplatePath string
	TargetPath   string
	Mode         os.FileMode
	Keep         bool
	Text         string
}

// ParseContent reads and parses the content template at path in fsys.
func ParseContent(fsys fs.FS, path string) (*ContentTemplate, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, errors.WrapData(path, errors.NoLine, "cannot read template", err)
	}
	return parseContent(path, string(data))
}

func parseContent(path, text string) (*ContentTemplate, error) {
	result := &ContentTemplate{
		Path: path,
		Mode: DefaultFileMode,
	}
	var description []string
	var body strings.Builder
	state := atHeader
	lineNumber := 0

	for _, lineWithNewline := range strings.SplitAfter(text, "\n") {
		if lineWithNewline == "" {
			continue
		}
		line := strings.TrimRight(lineWithNewline, "\r\n")
		isEmptyLine := strings.TrimSpace(line) == ""

		switch state {
		case atHeader:
			trimmed := strings.TrimSpace(line)
			if isEmptyLine {
				break
			}
			if strings.HasPrefix(trimmed, "#") {
				if comment := strings.TrimSpace(strings.TrimPrefix(trimmed, "#")); comment != "" {
					description = append(description, comment)
				}
				break
			}
			match := keyLineRe.FindStringSubmatch(line)
			if match == nil {
				return nil, errors.Data(path, lineNumber, "line must match 'key: value' but is: "+line)
			}
			key := match[keyLineRe.SubexpIndex("key")]
			value := strings.TrimSpace(match[keyLineRe.SubexpIndex("value")])
			switch key {
			case KeyTarget:
				result.Target = value
				result.TargetLine = lineNumber
				state = afterTarget
			case KeyMode:
				mode, err := strconv.ParseUint(value, 8, 32)
				if err != nil || mode > 0o777 {
					return nil, errors.Data(path, lineNumber, fmt.Sprintf("mode must be an octal file mode like 0644 but is: %s", value))
				}
				result.Mode = os.FileMode(mode)
			case KeyKeep:
				if value != KeepExisting {
					return nil, errors.Data(path, lineNumber, fmt.Sprintf("keep must be %q but is: %s", KeepExisting, value))
				}
				result.Keep = true
			default:
				return nil, errors.Data(path, lineNumber, fmt.Sprintf("key is '%s' but must be one of: %s", key, validKeyMsg))
			}
		case afterTarget:
			if !isEmptyLine {
				body.WriteString(lineWithNewline)
				result.BodyLine = lineNumber
				state = atContent
			}
		case atContent:
			body.WriteString(lineWithNewline)
		}
		lineNumber++
	}

	if result.Target == "" {
		return nil, errors.Data(path, 0, "target must be set")
	}
	if state != atContent {
		return nil, errors.Data(path, lastLine(lineNumber), "content template must be set")
	}
	result.Description = strings.TrimSpace(strings.Join(description, " "))
	result.Body = body.String()
	return result, nil
}

// Resolve substitutes symbols into target and body. Absolute targets are
// placed below targetFolder.
func (t *ContentTemplate) Resolve(symbols map[string]string, targetFolder string) (*Content, error) {
	target, err := subst.Substitute(t.Target, symbols)
	if err != nil {
		return nil, errors.WrapData(t.Path, t.TargetLine, "cannot resolve target path", err)
	}
	if filepath.IsAbs(target) {
		target = filepath.Join(targetFolder, target[1:])
	}

	text, err := subst.Substitute(t.Body, symbols)
	if err != nil {
		return nil, resolveError(t.Path, t.BodyLine, "content", err)
	}

	return &Content{
		TemplatePath: t.Path,
		TargetPath:   target,
		Mode:         t.Mode,
		Keep:         t.Keep,
		Text:         text,
	}, nil
}

// resolveError turns a substitution error into a data error pointing at the
// absolute line within the template file.
func resolveError(path string, firstLine int, name string, err error) error {
	var missing *subst.MissingSymbolError
	if errors.As(err, &missing) {
		return errors.Data(path, firstLine+missing.Line-1,
			fmt.Sprintf("cannot resolve %s because of missing symbol: '%s'", name, missing.Name))
	}
	var invalid *subst.InvalidPlaceholderError
	if errors.As(err, &invalid) {
		return errors.Data(path, firstLine+invalid.Line-1,
			fmt.Sprintf("cannot resolve %s: invalid placeholder at column %d", name, invalid.Column))
	}
	return errors.WrapData(path, firstLine, "cannot resolve "+name, err)
}

func lastLine(lineCount int) int {
	if lineCount == 0 {
		return 0
	}
	return lineCount - 1
}
