package service

import (
	"regexp"
	"strings"
)

// ApprovedDomains are the marketplaces affiliates may link to. Subdomains match.
var ApprovedDomains = []string{
	"amazon.com",
	"amazon.com.br",
	"amazon.de",
	"amazon.co.uk",
	"amazon.fr",
	"amazon.it",
	"shope.ee",
	"shopee.com.br",
	"shopee.vn",
	"shopee.sg",
	"shopee.my",
	"mercadolivre.com.br",
	"mercadolibre.com",
	"mercadolibre.com.ar",
	"magazineluiza.com.br",
	"shein.com",
	"temu.com",
	"aliexpress.com",
	"casasbahia.com.br",
	"americanas.com",
	"submarino.com.br",
	"extra.com.br",
	"pontofrio.com.br",
}

// BlockedShorteners hide the real destination of a link. Subdomains match.
var BlockedShorteners = []string{
	"bit.ly",
	"tinyurl.com",
	"short.link",
	"rb.gy",
	"cutt.ly",
	"t.co",
	"ow.ly",
	"is.gd",
	"buff.ly",
	"tiny.cc",
}

// TyposquatPattern maps a look-alike host pattern to the domain it imitates.
type TyposquatPattern struct {
	Pattern   *regexp.Regexp
	Canonical string
}

// TyposquatPatterns are checked only after the allow-list. Each pattern needs
// at least one substituted character, so the real brand name under a TLD that
// is not approved (amazon.es, mercadolivre.com) is domain_not_authorized.
var TyposquatPatterns = []TyposquatPattern{
	{regexp.MustCompile(`am(?:[4@]z[o0]|az0)n|arnazon|amazom|amaz0m`), "amazon.com"},
	{regexp.MustCompile(`shopee-br\.com`), "shopee.com.br"},
	{regexp.MustCompile(`merc(?:4d[o0]l[i1l]|ad0l[i1l]|adol[1l])vre`), "mercadolivre.com.br"},
	{regexp.MustCompile(`(?i)magaz(?:[1l]ne-?lu[i1l]|ine-lu[i1l]|ine-?lu[1l])za`), "magazineluiza.com.br"},
}

// matchesDomain reports whether domain equals entry or is a subdomain of it.
// "evil-amazon.com" does not match "amazon.com"; "smile.amazon.com" does.
func matchesDomain(domain, entry string) bool {
	return domain == entry || strings.HasSuffix(domain, "."+entry)
}

func matchesAny(domain string, entries []string) bool {
	for _, e := range entries {
		if matchesDomain(domain, e) {
			return true
		}
	}
	return false
}

// detectTyposquat returns the canonical domain a look-alike host imitates.
func detectTyposquat(domain string) (string, bool) {
	for _, p := range TyposquatPatterns {
		if p.Pattern.MatchString(domain) {
			return p.Canonical, true
		}
	}
	return "", false
}

// normalizeHost lowercases a hostname and strips a leading "www." label.
func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	return strings.TrimPrefix(host, "www.")
}
