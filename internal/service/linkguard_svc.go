package service

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vitrine-app/vitrine-go/internal/model"
)

const (
	// ViolationWindow is the trailing window for counting violations.
	ViolationWindow = 24 * time.Hour
	// SuspensionThreshold is the number of in-window violations that suspends a user.
	SuspensionThreshold = 3
	// lastWarningCount is the in-window count at which a user is one strike away.
	lastWarningCount = SuspensionThreshold - 1
)

var (
	linkRe   = regexp.MustCompile(`(?i)https?://\S+`)
	hrefRe   = regexp.MustCompile(`(?i)^https?://`)
	schemeRe = regexp.MustCompile(`^[a-z][a-z0-9+.-]*://`)
)

// ViolationAuditor receives a copy of every recorded violation for moderation review.
type ViolationAuditor interface {
	SaveViolation(ctx context.Context, v model.Violation) error
}

// LinkGuardService gates outbound commerce links and enforces the
// three-strikes-in-24h suspension policy. Suspension is derived from the
// ledger count and lifts on its own as violations age out.
type LinkGuardService struct {
	ledger  ViolationLedger
	auditor ViolationAuditor
	log     zerolog.Logger
	now     func() time.Time
}

// NewLinkGuardService creates a guard backed by ledger. auditor may be nil.
func NewLinkGuardService(ledger ViolationLedger, auditor ViolationAuditor, log zerolog.Logger) *LinkGuardService {
	return &LinkGuardService{
		ledger:  ledger,
		auditor: auditor,
		log:     log,
		now:     time.Now,
	}
}

// WithClock replaces the clock used for timestamps and the trailing window.
func (s *LinkGuardService) WithClock(now func() time.Time) *LinkGuardService {
	s.now = now
	return s
}

// ValidateLink checks a single URL. It never records a violation, so it is
// safe for previews. The first failing gate decides the reason.
func (s *LinkGuardService) ValidateLink(raw string) model.LinkValidation {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return model.LinkValidation{Reason: model.ReasonEmptyURL}
	}

	lower := strings.ToLower(raw)
	switch {
	case strings.HasPrefix(lower, "https://"):
	case schemeRe.MatchString(lower):
		// http:// and every other explicit scheme; never upgraded silently
		return model.LinkValidation{Reason: model.ReasonHTTPSRequired}
	default:
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return model.LinkValidation{Reason: model.ReasonMalformedURL}
	}
	domain := normalizeHost(u.Hostname())

	if matchesAny(domain, BlockedShorteners) {
		return model.LinkValidation{Reason: model.ReasonShortenerBlocked, Domain: domain}
	}
	if matchesAny(domain, ApprovedDomains) {
		return model.LinkValidation{IsValid: true, Domain: domain}
	}
	if canonical, ok := detectTyposquat(domain); ok {
		return model.LinkValidation{
			Reason:     model.ReasonTyposquatSuspected,
			Domain:     domain,
			Suggestion: canonical,
		}
	}
	return model.LinkValidation{Reason: model.ReasonDomainNotAuthorized, Domain: domain}
}

// ExtractLinks returns every http(s) URL in text in order of appearance,
// duplicates included.
func ExtractLinks(text string) []string {
	links := linkRe.FindAllString(text, -1)
	if links == nil {
		return []string{}
	}
	return links
}

// ExtractHTMLLinks returns anchor hrefs from a rich-text body followed by any
// URLs in its visible text that are not already among the hrefs.
func ExtractHTMLLinks(html string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	links := []string{}
	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if !hrefRe.MatchString(href) {
			return
		}
		links = append(links, href)
		seen[href] = struct{}{}
	})

	for _, l := range ExtractLinks(doc.Text()) {
		if _, ok := seen[l]; ok {
			continue
		}
		links = append(links, l)
	}
	return links, nil
}

// ValidatePostContent checks every link in a plain-text post on behalf of userID.
func (s *LinkGuardService) ValidatePostContent(ctx context.Context, text, userID string) (model.ContentValidation, error) {
	return s.ValidateLinks(ctx, ExtractLinks(text), userID)
}

// ValidatePostHTML checks every link in a rich-text post on behalf of userID.
func (s *LinkGuardService) ValidatePostHTML(ctx context.Context, html, userID string) (model.ContentValidation, error) {
	links, err := ExtractHTMLLinks(html)
	if err != nil {
		return model.ContentValidation{}, err
	}
	return s.ValidateLinks(ctx, links, userID)
}

// ValidateLinks is the submission path: suspended users are rejected outright,
// otherwise each failing link is recorded as its own violation.
func (s *LinkGuardService) ValidateLinks(ctx context.Context, links []string, userID string) (model.ContentValidation, error) {
	count, err := s.UserViolationsCount(ctx, userID)
	if err != nil {
		return model.ContentValidation{}, err
	}
	if count >= SuspensionThreshold {
		return model.ContentValidation{
			BlockedLinks:   []model.BlockedLink{},
			Message:        model.MessageUserSuspended,
			ViolationCount: count,
		}, nil
	}

	blocked := []model.BlockedLink{}
	for _, link := range links {
		res := s.ValidateLink(link)
		if res.IsValid {
			continue
		}
		blocked = append(blocked, model.BlockedLink{
			URL:        link,
			Reason:     res.Reason,
			Domain:     res.Domain,
			Suggestion: res.Suggestion,
		})
	}

	if len(blocked) == 0 {
		return model.ContentValidation{
			IsValid:        true,
			BlockedLinks:   blocked,
			ViolationCount: count,
		}, nil
	}

	for _, b := range blocked {
		if err := s.RecordViolation(ctx, userID, b.URL, b.Reason); err != nil {
			return model.ContentValidation{}, err
		}
	}

	count, err = s.UserViolationsCount(ctx, userID)
	if err != nil {
		return model.ContentValidation{}, err
	}

	msg := model.MessageLinkNotAllowed
	switch {
	case count >= SuspensionThreshold:
		msg = model.MessageUserSuspended
	case count == lastWarningCount:
		msg = model.MessageLastWarning
	}

	return model.ContentValidation{
		BlockedLinks:   blocked,
		Message:        msg,
		ViolationCount: count,
	}, nil
}

// RecordViolation appends a violation stamped with the current time.
func (s *LinkGuardService) RecordViolation(ctx context.Context, userID, link string, reason model.Reason) error {
	now := s.now()
	v := model.Violation{
		ID:        uuid.NewString(),
		UserID:    userID,
		URL:       link,
		Reason:    reason,
		Timestamp: now,
	}
	if err := s.ledger.Record(ctx, v, now.Add(-ViolationWindow)); err != nil {
		return err
	}

	s.log.Warn().
		Str("reason", string(reason)).
		Str("violation_id", v.ID).
		Msg("link violation recorded")

	if s.auditor != nil {
		if err := s.auditor.SaveViolation(ctx, v); err != nil {
			s.log.Error().Err(err).Str("violation_id", v.ID).Msg("violation audit failed")
		}
	}
	return nil
}

// UserViolationsCount returns the user's violations in the trailing window.
func (s *LinkGuardService) UserViolationsCount(ctx context.Context, userID string) (int, error) {
	return s.ledger.CountSince(ctx, userID, s.now().Add(-ViolationWindow))
}

// IsUserSuspended reports whether the user has reached the suspension threshold.
func (s *LinkGuardService) IsUserSuspended(ctx context.Context, userID string) (bool, error) {
	n, err := s.UserViolationsCount(ctx, userID)
	if err != nil {
		return false, err
	}
	return n >= SuspensionThreshold, nil
}

// UserStanding maps the user's in-window count to good, at_risk or suspended.
func (s *LinkGuardService) UserStanding(ctx context.Context, userID string) (model.StandingResponse, error) {
	n, err := s.UserViolationsCount(ctx, userID)
	if err != nil {
		return model.StandingResponse{}, err
	}
	return model.StandingResponse{
		UserID:     userID,
		Standing:   StandingFor(n),
		Violations: n,
		Suspended:  n >= SuspensionThreshold,
	}, nil
}

// StandingFor maps a trailing violation count to a standing.
func StandingFor(count int) model.Standing {
	switch {
	case count >= SuspensionThreshold:
		return model.StandingSuspended
	case count == lastWarningCount:
		return model.StandingAtRisk
	default:
		return model.StandingGood
	}
}

// ViolationStats aggregates the trailing window across all users.
func (s *LinkGuardService) ViolationStats(ctx context.Context) (model.ViolationStats, error) {
	violations, err := s.ledger.Since(ctx, s.now().Add(-ViolationWindow))
	if err != nil {
		return model.ViolationStats{}, err
	}

	stats := model.ViolationStats{
		TotalViolations:    len(violations),
		ViolationsByReason: make(map[model.Reason]int),
	}
	perUser := make(map[string]int)
	for _, v := range violations {
		stats.ViolationsByReason[v.Reason]++
		perUser[v.UserID]++
	}
	for _, n := range perUser {
		if n >= SuspensionThreshold {
			stats.SuspendedUsers++
		}
	}
	return stats, nil
}
