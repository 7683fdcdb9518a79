// Package linkcheck decides whether a profile biography carries a link.
//
// Matching is any-match over a fixed set of patterns and never depends on
// state, so a verdict computed today can be recomputed from the stored bio
// snapshot later and agree.
package linkcheck

import (
	"regexp"
	"strings"

	"bioguard/internal/domain/enums"
)

var topLevelDomains = []string{
	"com", "net", "org", "io", "me", "info", "biz", "xyz", "co", "ru",
	"su", "ua", "by", "kz", "uk", "us", "de", "app", "dev", "gg", "ly",
	"link", "site", "online", "shop", "store", "top", "club", "live",
	"pro", "tv", "cc", "to", "ws", "рф",
}

var (
	// \s is ASCII-only in RE2; \p{Z} adds no-break and other Unicode spaces.
	urlPattern       = regexp.MustCompile(`(?i)(?:https?://[^\s\p{Z}]+|\bwww\.[a-z0-9-]+\.[a-z]{2,}[^\s\p{Z}]*)`)
	shortLinkPattern = regexp.MustCompile(`(?i)\b(?:t|telegram)\.(?:me|dog)/[a-z0-9_+][a-z0-9_+/]*`)
	mentionPattern   = regexp.MustCompile(`(?i)(?:^|[^a-z0-9_@.])(@[a-z0-9_]{3,32})`)
	domainPattern    = regexp.MustCompile(`(?i)([\p{L}\p{N}](?:[\p{L}\p{N}-]*[\p{L}\p{N}])?\.(?:` +
		strings.Join(topLevelDomains, "|") + `))(?:$|[^\p{L}\p{N}_])`)
	ipv4Pattern = regexp.MustCompile(`(?:^|[^\d.])((?:(?:25[0-5]|2[0-4]\d|1\d\d|[1-9]?\d)\.){3}(?:25[0-5]|2[0-4]\d|1\d\d|[1-9]?\d))(?:$|\D)`)
)

type Options struct {
	DetectIPv4 bool
}

type Classifier struct {
	detectIPv4 bool
}

func New(opts Options) *Classifier {
	return &Classifier{detectIPv4: opts.DetectIPv4}
}

// Default detects every supported kind, IPv4 literals included.
var Default = New(Options{DetectIPv4: true})

// Classify reports whether bio contains any link-like token.
func Classify(bio string) bool {
	return Default.Classify(bio)
}

func (c *Classifier) Classify(bio string) bool {
	_, _, ok := c.Match(bio)
	return ok
}

// Match returns the kind and the whole matching token of the first pattern
// that matches, checked in a fixed priority order: url, short link, mention,
// domain, ipv4.
func (c *Classifier) Match(bio string) (enums.LinkKind, string, bool) {
	if strings.TrimSpace(bio) == "" {
		return enums.LinkKindNone, "", false
	}

	if token := urlPattern.FindString(bio); token != "" {
		return enums.LinkKindURL, token, true
	}
	if token := shortLinkPattern.FindString(bio); token != "" {
		return enums.LinkKindShortLink, token, true
	}
	if token := submatch(mentionPattern, bio); token != "" {
		return enums.LinkKindMention, token, true
	}
	if token := submatch(domainPattern, bio); token != "" {
		return enums.LinkKindDomain, token, true
	}
	if c != nil && c.detectIPv4 {
		if token := submatch(ipv4Pattern, bio); token != "" {
			return enums.LinkKindIPv4, token, true
		}
	}

	return enums.LinkKindNone, "", false
}

func submatch(pattern *regexp.Regexp, text string) string {
	groups := pattern.FindStringSubmatch(text)
	if len(groups) < 2 {
		return ""
	}
	return groups[1]
}
