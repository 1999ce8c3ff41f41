package changelog

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var (
	// Bracket-tag prefixes like "[Feature:" or "[iOS]".
	tagPrefixRe = regexp.MustCompile(`\[[^\]\n]*?[\]:]\s*`)
	// " - short description." suffixes appended to bullet text.
	dashDescriptionRe = regexp.MustCompile(` - [^.\n]*\.`)
	// Markdown heading markers.
	headingRe = regexp.MustCompile(`#+\s?`)

	nextSectionRe = regexp.MustCompile(`(?m)^##\s*\[`)
)

// Strip turns a markdown changelog section into the plain-text notes
// blob sent to the distribution and notification services. It applies
// three substitutions in order: bracket-tag prefixes, trailing
// dash-description suffixes, heading markers. Stripping already
// stripped text is a no-op.
func Strip(notes string) string {
	s := tagPrefixRe.ReplaceAllString(notes, "")
	s = dashDescriptionRe.ReplaceAllString(s, "")
	s = headingRe.ReplaceAllString(s, "")

	return strings.TrimSpace(s)
}

// Extract returns the body of the section keyed by version in a
// changelog with "## [<version>]" headings, up to the next section.
func Extract(text, version string) (string, error) {
	sectionRe, err := regexp.Compile(`(?m)^##\s*\[` + regexp.QuoteMeta(version) + `\][^\n]*$`)
	if err != nil {
		return "", fmt.Errorf("can't compile section pattern for version %q: %w", version, err)
	}

	loc := sectionRe.FindStringIndex(text)
	if loc == nil {
		return "", fmt.Errorf("changelog has no section for version %q", version)
	}

	body := text[loc[1]:]
	if next := nextSectionRe.FindStringIndex(body); next != nil {
		body = body[:next[0]]
	}

	return strings.TrimSpace(body), nil
}

// ExtractFile reads a changelog file and extracts the section for
// version.
func ExtractFile(path, version string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("can't read changelog %q: %w", path, err)
	}

	return Extract(string(data), version)
}

// ReadNotes reads the plaintext "what's new" file.
func ReadNotes(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("can't read notes %q: %w", path, err)
	}

	notes := strings.TrimSpace(string(data))
	if len(notes) == 0 {
		return "", fmt.Errorf("notes file %q is empty", path)
	}

	return notes, nil
}
