package share

import (
	"strings"
	"testing"

	"github.com/playhuddle/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterCleanMessageUntouched(t *testing.T) {
	filtered, violations := FilterMessage("Check out this amazing goal from today's match!")
	assert.Equal(t, "Check out this amazing goal from today's match!", filtered)
	assert.Empty(t, violations)
}

func TestFilterEmptyMessage(t *testing.T) {
	filtered, violations := FilterMessage("")
	assert.Equal(t, "", filtered)
	assert.Empty(t, violations)
}

func TestFilterStripsControlCharacters(t *testing.T) {
	filtered, violations := FilterMessage("hello\x00world\x07")
	assert.Equal(t, "helloworld", filtered)
	assert.Contains(t, violations, "control characters removed")
}

func TestFilterKeepsNewlinesAndTabs(t *testing.T) {
	filtered, violations := FilterMessage("line one\nline\ttwo")
	assert.Equal(t, "line one\nline\ttwo", filtered)
	assert.Empty(t, violations)
}

func TestFilterCollapsesRuns(t *testing.T) {
	filtered, violations := FilterMessage("goooooooal")
	assert.Equal(t, "goooal", filtered)
	assert.Contains(t, violations, "repeated character runs collapsed")
}

func TestFilterTruncatesLongMessage(t *testing.T) {
	// Runs are collapsed before truncation, so use varied characters
	long := strings.Repeat("ab", 300)
	filtered, violations := FilterMessage(long)
	assert.Len(t, []rune(filtered), MaxMessageLength)
	assert.Contains(t, violations, "message truncated")
}

func TestFilterFlagsURLs(t *testing.T) {
	_, violations := FilterMessage("watch it here https://example.com/clip")
	assert.Contains(t, violations, "message contains a link")

	_, violations = FilterMessage("see www.example.com for more")
	assert.Contains(t, violations, "message contains a link")
}

func TestCollapseRunsUnicode(t *testing.T) {
	assert.Equal(t, "⚽⚽⚽", collapseRuns("⚽⚽⚽⚽⚽⚽", 3))
}

func TestHasLongRun(t *testing.T) {
	assert.True(t, hasLongRun("yessssss", 5))
	assert.False(t, hasLongRun("yess", 5))
}

func TestNormalizeTargets(t *testing.T) {
	out := NormalizeTargets([]string{" a ", "b", "a", "", "b", "c"})
	assert.Equal(t, []string{"a", "b", "c"}, out)
}

func TestUserMessageKnownCategories(t *testing.T) {
	for _, category := range []string{
		models.ErrorCategoryValidation,
		models.ErrorCategoryPermission,
		models.ErrorCategoryRateLimit,
		models.ErrorCategoryNetwork,
		models.ErrorCategoryNotFound,
		models.ErrorCategoryUnknown,
	} {
		msg := UserMessage(category)
		require.NotEmpty(t, msg, "category %s must have a message", category)
		// Sanitized messages never leak internals
		assert.NotContains(t, strings.ToLower(msg), "sql")
		assert.NotContains(t, strings.ToLower(msg), "panic")
	}
}

func TestUserMessageUnknownCategoryFallsBack(t *testing.T) {
	assert.Equal(t, UserMessage(models.ErrorCategoryUnknown), UserMessage("no-such-category"))
}
