package share

import (
	"strings"
	"unicode"

	"github.com/playhuddle/backend/internal/spam"
)

// maxRun is the longest repeated-character run kept after filtering
const maxRun = 3

// FilterMessage sanitizes a share message: strips control characters,
// collapses repeated-character runs, and truncates to MaxMessageLength.
// Each transformation that actually fired is reported as a violation
// string. Violations are warnings; callers decide blocking separately
// via the spam score.
func FilterMessage(message string) (string, []string) {
	violations := []string{}
	if message == "" {
		return "", violations
	}

	stripped := stripControl(message)
	if stripped != message {
		violations = append(violations, "control characters removed")
	}

	collapsed := collapseRuns(stripped, maxRun)
	if collapsed != stripped {
		violations = append(violations, "repeated character runs collapsed")
	}

	truncated := collapsed
	if runes := []rune(collapsed); len(runes) > MaxMessageLength {
		truncated = string(runes[:MaxMessageLength])
		violations = append(violations, "message truncated")
	}

	if containsURL(truncated) {
		violations = append(violations, "message contains a link")
	}

	return truncated, violations
}

// AnalyzeMessage runs the spam detector over an already-filtered message
// and folds its reasons into the violation list
func AnalyzeMessage(message string, hctx *spam.HistoryContext) (spam.Analysis, []string) {
	analysis := spam.Analyze(message, hctx)
	return analysis, analysis.Reasons
}

// stripControl removes control characters, keeping newlines and tabs
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// collapseRuns caps any run of a repeated rune at max occurrences
func collapseRuns(s string, max int) string {
	var b strings.Builder
	b.Grow(len(s))
	var prev rune = -1
	count := 0
	for _, r := range s {
		if r == prev {
			count++
		} else {
			prev = r
			count = 1
		}
		if count <= max {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// containsURL reports an embedded link without classifying it
func containsURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.Contains(lower, "http://") ||
		strings.Contains(lower, "https://") ||
		strings.Contains(lower, "www.")
}
