package issueid

import (
	"fmt"
	"regexp"
	"strings"
)

// Linear-style identifiers: project key, dash, number (e.g. TIM-1, ENG-1234).
var pattern = regexp.MustCompile(`\b[A-Z][A-Z0-9]+-\d+\b`)

// Extract returns the first issue identifier found in text, or "".
func Extract(text string) string {
	return pattern.FindString(text)
}

// MatchInTitle reports whether a task title refers to the given issue.
// Substring match on purpose: titles are composed as "[ID] title" but may
// have been edited in TimeCrowd afterwards.
func MatchInTitle(title, issueID string) bool {
	if issueID == "" { return false }
	return strings.Contains(title, issueID)
}

// FormatDuration renders a second count as zero-padded HH:MM:SS.
func FormatDuration(seconds int64) string {
	if seconds < 0 { seconds = 0 }
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}
