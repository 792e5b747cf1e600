package cargo

import (
	"fmt"
	"regexp"
	"strings"
)

// ErrorTranslator converts raw cargo/maturin output to operator-friendly
// messages.
type ErrorTranslator struct{}

// NewErrorTranslator creates a new error translator.
func NewErrorTranslator() *ErrorTranslator {
	return &ErrorTranslator{}
}

// Translate converts toolchain output to a user-friendly message.
func (t *ErrorTranslator) Translate(output string) string {
	// Missing cross-compilation target
	if strings.Contains(output, "may not be installed") {
		return t.translateMissingTarget(output)
	}

	// Lock file drift under --locked
	if strings.Contains(output, "lock file") || strings.Contains(output, "--locked") {
		return t.translateLockMismatch(output)
	}

	// Compiler diagnostics
	if strings.Contains(output, "error[E") || strings.Contains(output, "error:") {
		return t.translateCompileError(output)
	}

	// Not a cargo project
	if strings.Contains(output, "could not find `Cargo.toml`") {
		return "No Cargo.toml found. Is the project root correct?"
	}

	return t.cleanOutput(output)
}

// translateMissingTarget converts missing-target errors.
func (t *ErrorTranslator) translateMissingTarget(output string) string {
	re := regexp.MustCompile(`target (?:triple )?` + "`" + `?([0-9A-Za-z_-]+)` + "`" + `?`)
	if matches := re.FindStringSubmatch(output); len(matches) > 1 {
		return fmt.Sprintf("Target '%s' is not installed. Run 'rustup target add %s'.", matches[1], matches[1])
	}
	return "Cross-compilation target is not installed. Run 'rustup target add <triple>'."
}

// translateLockMismatch converts --locked dependency drift errors.
func (t *ErrorTranslator) translateLockMismatch(output string) string {
	return "Dependency lock file is out of date. Commit an updated Cargo.lock or build without --locked.\n" +
		t.cleanOutput(output)
}

// translateCompileError extracts the relevant compiler diagnostics.
func (t *ErrorTranslator) translateCompileError(output string) string {
	lines := strings.Split(output, "\n")
	var relevant []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "error") || strings.HasPrefix(trimmed, "-->") {
			relevant = append(relevant, trimmed)
		}
	}
	if len(relevant) == 0 {
		return t.cleanOutput(output)
	}
	if len(relevant) > 8 {
		relevant = relevant[:8]
		relevant = append(relevant, "... (run with --verbose for full output)")
	}
	return strings.Join(relevant, "\n")
}

// cleanOutput drops toolchain progress noise, keeping the tail of the
// real message.
func (t *ErrorTranslator) cleanOutput(output string) string {
	lines := strings.Split(output, "\n")
	var kept []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		// Skip progress lines like "Compiling foo v1.2.3" and "Finished ..."
		if strings.HasPrefix(trimmed, "Compiling") ||
			strings.HasPrefix(trimmed, "Downloading") ||
			strings.HasPrefix(trimmed, "Downloaded") ||
			strings.HasPrefix(trimmed, "Finished") ||
			strings.HasPrefix(trimmed, "Updating") {
			continue
		}
		kept = append(kept, trimmed)
	}
	if len(kept) > 10 {
		kept = kept[len(kept)-10:]
	}
	return strings.Join(kept, "\n")
}
