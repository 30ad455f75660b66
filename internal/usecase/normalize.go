package usecase

import (
	"regexp"
	"strings"
)

var (
	reLineEndings = regexp.MustCompile(`\r\n?`)
	reTabs        = regexp.MustCompile(`\t+`)
	reMultiSpace  = regexp.MustCompile(` {2,}`)
	reMultiBlank  = regexp.MustCompile(`\n{3,}`)
)

// NormalizeText collapses noisy whitespace so downstream prompting sees the
// same text no matter which strategy produced it. Conservative: keeps line
// breaks, collapses 2+ blank lines into a single blank line, never touches
// the words themselves. Idempotent.
func NormalizeText(s string) string {
	if s == "" {
		return s
	}
	s = reLineEndings.ReplaceAllString(s, "\n")
	s = reTabs.ReplaceAllString(s, " ")
	s = reMultiSpace.ReplaceAllString(s, " ")
	s = reMultiBlank.ReplaceAllString(s, "\n\n")
	// trim trailing spaces on lines
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	s = strings.Join(lines, "\n")
	return strings.TrimSpace(s)
}
