package symbols

import (
	"fmt"
	"net/mail"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // time zone names must not depend on the host
)

var (
	identifierRe  = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_.-]*$`)
	domainLabelRe = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?$`)
)

// Validator checks a symbol value.
type Validator func(value string) error

var validators = map[string]Validator{
	"absolute_path": validateAbsolutePath,
	"domain":        validateDomain,
	"email":         validateEmail,
	"identifier":    validateIdentifier,
	"number":        validateNumber,
	"timezone":      validateTimezone,
}

// Kinds returns the names of all validators, sorted.
func Kinds() []string {
	kinds := make([]string, 0, len(validators))
	for kind := range validators {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// HasKind reports whether a validator named kind exists. The empty kind
// means no validation and always exists.
func HasKind(kind string) bool {
	if kind == "" {
		return true
	}
	_, ok := validators[kind]
	return ok
}

// Validate checks value with the validator named kind. An empty kind
// accepts everything.
func Validate(kind, value string) error {
	if kind == "" {
		return nil
	}
	validator, ok := validators[kind]
	if !ok {
		return fmt.Errorf("unknown validation %q (available: %s)", kind, strings.Join(Kinds(), ", "))
	}
	return validator(value)
}

func validateDomain(domain string) error {
	if domain == "" {
		return fmt.Errorf("domain cannot be empty")
	}
	if strings.Contains(domain, " ") {
		return fmt.Errorf("domain cannot contain spaces")
	}
	if strings.HasPrefix(domain, "-") || strings.HasSuffix(domain, "-") {
		return fmt.Errorf("domain cannot start or end with hyphen")
	}
	for _, label := range strings.Split(domain, ".") {
		if !domainLabelRe.MatchString(label) {
			return fmt.Errorf("invalid domain label %q in %s", label, domain)
		}
	}
	return nil
}

func validateEmail(address string) error {
	parsed, err := mail.ParseAddress(address)
	if err != nil || parsed.Address != address {
		return fmt.Errorf("must be a plain email address like admin@example.com but is: %s", address)
	}
	_, domain, _ := strings.Cut(address, "@")
	return validateDomain(domain)
}

func validateIdentifier(value string) error {
	if !identifierRe.MatchString(value) {
		return fmt.Errorf("%q must start with a letter and contain only letters, digits, '_', '.' and '-'", value)
	}
	return nil
}

func validateAbsolutePath(path string) error {
	if !filepath.IsAbs(path) {
		return fmt.Errorf("path must be absolute: %s", path)
	}
	// Paths end up in double quotes in scripts
	if i := strings.IndexAny(path, "\"$`\\\n"); i >= 0 {
		return fmt.Errorf("path must not contain %q: %s", path[i], path)
	}
	return nil
}

func validateNumber(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return fmt.Errorf("must be a positive number but is: %s", value)
	}
	return nil
}

func validateTimezone(name string) error {
	if name == "" || name == "Local" {
		return fmt.Errorf("time zone must be an IANA name like Europe/Vienna but is: %q", name)
	}
	if _, err := time.LoadLocation(name); err != nil {
		return fmt.Errorf("unknown time zone: %s", name)
	}
	return nil
}
