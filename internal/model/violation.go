package model

import "time"

// Reason is a machine-readable code explaining why a link was rejected.
type Reason string

const (
	ReasonEmptyURL            Reason = "empty_url"
	ReasonHTTPSRequired       Reason = "https_required"
	ReasonMalformedURL        Reason = "malformed_url"
	ReasonShortenerBlocked    Reason = "shortener_blocked"
	ReasonTyposquatSuspected  Reason = "typosquat_suspected"
	ReasonDomainNotAuthorized Reason = "domain_not_authorized"
)

// Message is the outcome code of a post validation, mapped to text by the UI.
type Message string

const (
	MessageLinkNotAllowed Message = "link_not_allowed"
	MessageLastWarning    Message = "last_warning"
	MessageUserSuspended  Message = "user_suspended"
)

// Standing is the derived moderation state of a user.
type Standing string

const (
	StandingGood      Standing = "good"
	StandingAtRisk    Standing = "at_risk"
	StandingSuspended Standing = "suspended"
)

// Violation is one recorded submission of a disallowed link.
type Violation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	URL       string    `json:"url"`
	Reason    Reason    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// LinkValidation is the result of checking a single URL.
type LinkValidation struct {
	IsValid    bool   `json:"isValid"`
	Reason     Reason `json:"reason,omitempty"`
	Domain     string `json:"domain,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// BlockedLink is a rejected URL found in submitted content.
type BlockedLink struct {
	URL        string `json:"url"`
	Reason     Reason `json:"reason"`
	Domain     string `json:"domain,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// ContentValidation is the result of checking a post before it is persisted.
type ContentValidation struct {
	IsValid        bool          `json:"isValid"`
	BlockedLinks   []BlockedLink `json:"blockedLinks"`
	Message        Message       `json:"message,omitempty"`
	ViolationCount int           `json:"violationCount"`
}

// ViolationStats aggregates the violations inside the trailing window.
type ViolationStats struct {
	TotalViolations    int            `json:"totalViolations"`
	ViolationsByReason map[Reason]int `json:"violationsByReason"`
	SuspendedUsers     int            `json:"suspendedUsers"`
}

// StandingResponse is the API response for a user's moderation standing.
type StandingResponse struct {
	UserID     string   `json:"userId"`
	Standing   Standing `json:"standing"`
	Violations int      `json:"violations"`
	Suspended  bool     `json:"suspended"`
}

// LinkValidateRequest is the API request body for inspecting a link.
type LinkValidateRequest struct {
	URL string `json:"url"`
}

// PostValidateRequest is the API request body for validating post content.
// Format is "text" (default) or "html".
type PostValidateRequest struct {
	UserID  string `json:"userId"`
	Content string `json:"content"`
	Format  string `json:"format,omitempty"`
}
