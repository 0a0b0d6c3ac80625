package middleware

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gofiber/fiber/v3"
)

// Field length limits matching database schema constraints.
const (
	MaxUserIDLen   = 64    // link_violations.user_id VARCHAR(64)
	MaxCategoryLen = 40    // content_items.category VARCHAR(40)
	MaxURLLen      = 2048  // link_violations.url VARCHAR(2048)
	MaxContentLen  = 20000 // post bodies accepted for validation
	MaxCategories  = 50
	DefaultLimit   = 50
	MaxLimit       = 200
)

var (
	// userIDRe matches opaque user IDs: alphanumeric, dash, underscore.
	userIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// ErrorResponse is a helper that returns a standard API error response.
func ErrorResponse(c fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}

// ValidateUserID checks that a user ID is well-formed and within DB limits.
func ValidateUserID(id string) (string, string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "userId is required"
	}
	if len(id) > MaxUserIDLen {
		return "", "userId must be at most 64 characters"
	}
	if !userIDRe.MatchString(id) {
		return "", "userId contains invalid characters"
	}
	return id, ""
}

// ValidateCategory trims a category name. Case and accents are kept because
// categories are matched exactly. Empty is allowed and means "all".
func ValidateCategory(category string) (string, string) {
	category = strings.TrimSpace(category)
	if category == "" {
		return "", ""
	}
	if utf8.RuneCountInString(category) > MaxCategoryLen {
		return "", "category must be at most 40 characters"
	}
	if strings.ContainsFunc(category, unicode.IsControl) {
		return "", "category contains invalid characters"
	}
	return category, ""
}

// ValidateCategories trims a trending list, dropping blanks and exact duplicates.
func ValidateCategories(categories []string) ([]string, string) {
	if len(categories) > MaxCategories {
		return nil, "at most 50 categories are allowed"
	}
	out := make([]string, 0, len(categories))
	seen := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		norm, errMsg := ValidateCategory(c)
		if errMsg != "" {
			return nil, errMsg
		}
		if norm == "" {
			continue
		}
		if _, ok := seen[norm]; ok {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, norm)
	}
	return out, ""
}

// ValidateURLLength rejects URLs too long to audit. Emptiness is a link
// validation outcome, not a request error.
func ValidateURLLength(url string) string {
	if len(url) > MaxURLLen {
		return "url must be at most 2048 characters"
	}
	return ""
}

// ValidateContent checks a post body before its links are scanned.
func ValidateContent(content string) string {
	if len(content) > MaxContentLen {
		return "content must be at most 20000 characters"
	}
	return ""
}

// ValidateFormat normalizes the post format; empty means "text".
func ValidateFormat(format string) (string, string) {
	switch f := strings.TrimSpace(strings.ToLower(format)); f {
	case "", "text":
		return "text", ""
	case "html":
		return f, ""
	default:
		return "", "format must be text or html"
	}
}

// ParseLimit parses a ?limit= query value, applying DefaultLimit and MaxLimit.
func ParseLimit(raw string) (int, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultLimit, ""
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, "limit must be a positive integer"
	}
	return min(n, MaxLimit), ""
}
