package service

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vitrine-app/vitrine-go/internal/model"
)

// testClock is a manually advanced clock.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestGuard() (*LinkGuardService, *testClock) {
	clock := &testClock{now: time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)}
	guard := NewLinkGuardService(NewMemoryLedger(), nil, zerolog.Nop()).WithClock(clock.Now)
	return guard, clock
}

func TestValidateLink(t *testing.T) {
	guard, _ := newTestGuard()

	tests := []struct {
		name       string
		url        string
		valid      bool
		reason     model.Reason
		domain     string
		suggestion string
	}{
		{"empty", "", false, model.ReasonEmptyURL, "", ""},
		{"whitespace", "   ", false, model.ReasonEmptyURL, "", ""},
		{"insecure scheme rejected", "http://amazon.com/x", false, model.ReasonHTTPSRequired, "", ""},
		{"insecure scheme uppercase", "HTTP://amazon.com/x", false, model.ReasonHTTPSRequired, "", ""},
		{"other scheme rejected", "ftp://amazon.com/x", false, model.ReasonHTTPSRequired, "", ""},
		{"approved domain", "https://amazon.com.br/x", true, "", "amazon.com.br", ""},
		{"www stripped", "https://www.amazon.com.br/x", true, "", "amazon.com.br", ""},
		{"subdomain approved", "https://smile.amazon.com/dp/1", true, "", "smile.amazon.com", ""},
		{"bare domain assumes https", "shopee.com.br/produto/1", true, "", "shopee.com.br", ""},
		{"bare domain with embedded url in query", "amazon.de/r?u=http://x.com", true, "", "amazon.de", ""},
		{"host is lowercased", "https://WWW.Shein.COM/item", true, "", "shein.com", ""},
		{"malformed", "https://%zz", false, model.ReasonMalformedURL, "", ""},
		{"missing host", "https://", false, model.ReasonMalformedURL, "", ""},
		{"shortener", "https://bit.ly/abc", false, model.ReasonShortenerBlocked, "bit.ly", ""},
		{"shortener subdomain", "https://go.tinyurl.com/abc", false, model.ReasonShortenerBlocked, "go.tinyurl.com", ""},
		{"suffix lookalike is not a subdomain", "https://evil-amazon.com/x", false, model.ReasonDomainNotAuthorized, "evil-amazon.com", ""},
		{"digit substitution", "https://amaz0n.com/x", false, model.ReasonTyposquatSuspected, "amaz0n.com", "amazon.com"},
		{"digit a substitution", "https://am4zon-ofertas.com/x", false, model.ReasonTyposquatSuspected, "am4zon-ofertas.com", "amazon.com"},
		{"rn for m", "https://arnazon.com.br/x", false, model.ReasonTyposquatSuspected, "arnazon.com.br", "amazon.com"},
		{"real amazon on unlisted tld", "https://amazon.es/x", false, model.ReasonDomainNotAuthorized, "amazon.es", ""},
		{"real amazon on unlisted ccTLD", "https://amazon.com.mx/x", false, model.ReasonDomainNotAuthorized, "amazon.com.mx", ""},
		{"real mercadolivre on unlisted tld", "https://mercadolivre.com/x", false, model.ReasonDomainNotAuthorized, "mercadolivre.com", ""},
		{"real magazineluiza on unlisted tld", "https://magazineluiza.com/x", false, model.ReasonDomainNotAuthorized, "magazineluiza.com", ""},
		{"shopee lookalike", "https://shopee-br.com/oferta", false, model.ReasonTyposquatSuspected, "shopee-br.com", "shopee.com.br"},
		{"mercadolivre digit", "https://mercad0livre.com.br/x", false, model.ReasonTyposquatSuspected, "mercad0livre.com.br", "mercadolivre.com.br"},
		{"mercadolivre l for i", "https://mercadollvre.com/x", false, model.ReasonTyposquatSuspected, "mercadollvre.com", "mercadolivre.com.br"},
		{"magazineluiza variant", "https://magazine-luiza.com/x", false, model.ReasonTyposquatSuspected, "magazine-luiza.com", "magazineluiza.com.br"},
		{"unapproved domain", "https://example.com/x", false, model.ReasonDomainNotAuthorized, "example.com", ""},
		{"approved name as subdomain of other host", "https://amazon.com.example.org/x", false, model.ReasonDomainNotAuthorized, "amazon.com.example.org", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := guard.ValidateLink(tt.url)
			if got.IsValid != tt.valid {
				t.Errorf("IsValid = %v, want %v (%+v)", got.IsValid, tt.valid, got)
			}
			if got.Reason != tt.reason {
				t.Errorf("Reason = %q, want %q", got.Reason, tt.reason)
			}
			if got.Domain != tt.domain {
				t.Errorf("Domain = %q, want %q", got.Domain, tt.domain)
			}
			if got.Suggestion != tt.suggestion {
				t.Errorf("Suggestion = %q, want %q", got.Suggestion, tt.suggestion)
			}
		})
	}
}

func TestValidateLink_DoesNotRecord(t *testing.T) {
	guard, _ := newTestGuard()
	ctx := context.Background()

	guard.ValidateLink("https://bit.ly/abc")
	guard.ValidateLink("http://amazon.com")

	stats, err := guard.ViolationStats(ctx)
	if err != nil {
		t.Fatalf("ViolationStats: %v", err)
	}
	if stats.TotalViolations != 0 {
		t.Errorf("TotalViolations = %d, want 0", stats.TotalViolations)
	}
}

func TestExtractLinks(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"two links in order", "check this https://amazon.com.br/x and also https://bit.ly/y",
			[]string{"https://amazon.com.br/x", "https://bit.ly/y"}},
		{"duplicates kept", "https://a.com https://a.com", []string{"https://a.com", "https://a.com"}},
		{"http included", "old http://site.com/p", []string{"http://site.com/p"}},
		{"no links", "just text, amazon.com without scheme", []string{}},
		{"empty", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractLinks(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractLinks() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractHTMLLinks(t *testing.T) {
	html := `<p>Veja <a href="https://bit.ly/x">a oferta</a> e também https://amazon.com.br/y</p>
<p><a href="https://amazon.com/a">https://amazon.com/a</a> <a href="#topo">topo</a></p>
<p><a href="/go?u=https://tinyurl.com/z">interno</a> <a href="HTTPS://Shein.com/b">loja</a></p>`

	got, err := ExtractHTMLLinks(html)
	if err != nil {
		t.Fatalf("ExtractHTMLLinks: %v", err)
	}
	want := []string{"https://bit.ly/x", "https://amazon.com/a", "HTTPS://Shein.com/b", "https://amazon.com.br/y"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractHTMLLinks() = %v, want %v", got, want)
	}
}

func TestValidatePostContent_NoLinks(t *testing.T) {
	guard, _ := newTestGuard()

	res, err := guard.ValidatePostContent(context.Background(), "sem links aqui", "u1")
	if err != nil {
		t.Fatalf("ValidatePostContent: %v", err)
	}
	if !res.IsValid || len(res.BlockedLinks) != 0 || res.Message != "" {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestValidatePostContent_OneViolationPerBadLink(t *testing.T) {
	guard, _ := newTestGuard()
	ctx := context.Background()

	text := "https://amazon.com.br/ok https://bit.ly/a https://example.com/b"
	res, err := guard.ValidatePostContent(ctx, text, "u1")
	if err != nil {
		t.Fatalf("ValidatePostContent: %v", err)
	}
	if res.IsValid {
		t.Fatal("expected invalid result")
	}
	if len(res.BlockedLinks) != 2 {
		t.Fatalf("len(BlockedLinks) = %d, want 2", len(res.BlockedLinks))
	}
	if res.BlockedLinks[0].Reason != model.ReasonShortenerBlocked || res.BlockedLinks[1].Reason != model.ReasonDomainNotAuthorized {
		t.Errorf("unexpected reasons: %+v", res.BlockedLinks)
	}

	n, err := guard.UserViolationsCount(ctx, "u1")
	if err != nil {
		t.Fatalf("UserViolationsCount: %v", err)
	}
	if n != 2 {
		t.Errorf("violations = %d, want 2", n)
	}
	if res.Message != model.MessageLastWarning {
		t.Errorf("Message = %q, want %q", res.Message, model.MessageLastWarning)
	}
}

func TestValidatePostContent_ThreeStrikes(t *testing.T) {
	guard, clock := newTestGuard()
	ctx := context.Background()

	wantMessages := []model.Message{model.MessageLinkNotAllowed, model.MessageLastWarning, model.MessageUserSuspended}
	for i, want := range wantMessages {
		res, err := guard.ValidatePostContent(ctx, "compre em https://tinyurl.com/promo", "u1")
		if err != nil {
			t.Fatalf("submission %d: %v", i+1, err)
		}
		if res.IsValid {
			t.Fatalf("submission %d should be rejected", i+1)
		}
		if res.Message != want {
			t.Errorf("submission %d: Message = %q, want %q", i+1, res.Message, want)
		}
		clock.Advance(time.Minute)
	}

	suspended, err := guard.IsUserSuspended(ctx, "u1")
	if err != nil {
		t.Fatalf("IsUserSuspended: %v", err)
	}
	if !suspended {
		t.Fatal("user should be suspended after 3 violations in 5 minutes")
	}

	// A clean post is still rejected outright and adds no violation.
	res, err := guard.ValidatePostContent(ctx, "https://amazon.com.br/ok", "u1")
	if err != nil {
		t.Fatalf("ValidatePostContent: %v", err)
	}
	if res.IsValid || res.Message != model.MessageUserSuspended {
		t.Errorf("4th submission = %+v, want suspended rejection", res)
	}
	if len(res.BlockedLinks) != 0 {
		t.Errorf("BlockedLinks = %v, want none", res.BlockedLinks)
	}
	if n, _ := guard.UserViolationsCount(ctx, "u1"); n != 3 {
		t.Errorf("violations = %d, want 3", n)
	}

	// Other users are unaffected.
	other, err := guard.ValidatePostContent(ctx, "https://amazon.com.br/ok", "u2")
	if err != nil {
		t.Fatalf("ValidatePostContent: %v", err)
	}
	if !other.IsValid {
		t.Errorf("u2 should be in good standing: %+v", other)
	}
}

func TestSuspensionLiftsAfterWindow(t *testing.T) {
	guard, clock := newTestGuard()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := guard.RecordViolation(ctx, "u1", "https://bit.ly/x", model.ReasonShortenerBlocked); err != nil {
			t.Fatalf("RecordViolation: %v", err)
		}
		clock.Advance(time.Minute)
	}
	if s, _ := guard.IsUserSuspended(ctx, "u1"); !s {
		t.Fatal("expected suspension")
	}

	// Oldest violation was recorded 3 minutes ago; move it just past 24h.
	clock.Advance(ViolationWindow - 3*time.Minute + time.Second)

	n, err := guard.UserViolationsCount(ctx, "u1")
	if err != nil {
		t.Fatalf("UserViolationsCount: %v", err)
	}
	if n != 2 {
		t.Errorf("violations = %d, want 2", n)
	}
	if s, _ := guard.IsUserSuspended(ctx, "u1"); s {
		t.Error("suspension should lift once the oldest violation ages out")
	}

	standing, err := guard.UserStanding(ctx, "u1")
	if err != nil {
		t.Fatalf("UserStanding: %v", err)
	}
	if standing.Standing != model.StandingAtRisk {
		t.Errorf("Standing = %q, want %q", standing.Standing, model.StandingAtRisk)
	}
}

func TestStandingFor(t *testing.T) {
	tests := []struct {
		count int
		want  model.Standing
	}{
		{0, model.StandingGood},
		{1, model.StandingGood},
		{2, model.StandingAtRisk},
		{3, model.StandingSuspended},
		{7, model.StandingSuspended},
	}
	for _, tt := range tests {
		if got := StandingFor(tt.count); got != tt.want {
			t.Errorf("StandingFor(%d) = %q, want %q", tt.count, got, tt.want)
		}
	}
}

func TestViolationStats(t *testing.T) {
	guard, clock := newTestGuard()
	ctx := context.Background()

	record := func(user string, reason model.Reason) {
		t.Helper()
		if err := guard.RecordViolation(ctx, user, "https://x", reason); err != nil {
			t.Fatalf("RecordViolation: %v", err)
		}
	}

	record("old", model.ReasonShortenerBlocked)
	clock.Advance(25 * time.Hour)

	for i := 0; i < 3; i++ {
		record("u1", model.ReasonShortenerBlocked)
	}
	record("u2", model.ReasonTyposquatSuspected)
	record("u2", model.ReasonDomainNotAuthorized)

	stats, err := guard.ViolationStats(ctx)
	if err != nil {
		t.Fatalf("ViolationStats: %v", err)
	}
	if stats.TotalViolations != 5 {
		t.Errorf("TotalViolations = %d, want 5", stats.TotalViolations)
	}
	if stats.ViolationsByReason[model.ReasonShortenerBlocked] != 3 {
		t.Errorf("shortener count = %d, want 3", stats.ViolationsByReason[model.ReasonShortenerBlocked])
	}
	if stats.SuspendedUsers != 1 {
		t.Errorf("SuspendedUsers = %d, want 1", stats.SuspendedUsers)
	}
}

type recordingAuditor struct {
	saved []model.Violation
	err   error
}

func (a *recordingAuditor) SaveViolation(_ context.Context, v model.Violation) error {
	a.saved = append(a.saved, v)
	return a.err
}

func TestRecordViolation_AuditFailureDoesNotBlock(t *testing.T) {
	auditor := &recordingAuditor{err: errors.New("db down")}
	guard := NewLinkGuardService(NewMemoryLedger(), auditor, zerolog.Nop())
	ctx := context.Background()

	if err := guard.RecordViolation(ctx, "u1", "https://bit.ly/x", model.ReasonShortenerBlocked); err != nil {
		t.Fatalf("RecordViolation returned audit error: %v", err)
	}
	if len(auditor.saved) != 1 || auditor.saved[0].ID == "" {
		t.Errorf("audit saw %+v, want one violation with an ID", auditor.saved)
	}
	if n, _ := guard.UserViolationsCount(ctx, "u1"); n != 1 {
		t.Errorf("violations = %d, want 1", n)
	}
}
