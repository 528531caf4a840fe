package share

import "github.com/playhuddle/backend/internal/models"

// userMessages maps error categories to the sanitized text shown to users.
// Internal detail (stack traces, SQL errors, limiter internals) never
// crosses this boundary.
var userMessages = map[string]string{
	models.ErrorCategoryValidation: "Your share request could not be processed. Please check your input and try again.",
	models.ErrorCategoryPermission: "You don't have permission to share this content.",
	models.ErrorCategoryRateLimit:  "You're sharing too quickly. Please wait a moment and try again.",
	models.ErrorCategoryNetwork:    "We couldn't reach the sharing service. Please try again shortly.",
	models.ErrorCategoryNotFound:   "This content is no longer available.",
	models.ErrorCategoryUnknown:    "Something went wrong while sharing. Please try again.",
}

// UserMessage returns the user-facing message for an error category,
// falling back to the unknown-category message
func UserMessage(category string) string {
	if msg, ok := userMessages[category]; ok {
		return msg
	}
	return userMessages[models.ErrorCategoryUnknown]
}
