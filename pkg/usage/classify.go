package usage

import (
	"regexp"
	"strings"

	"github.com/weppos/publicsuffix-go/publicsuffix"
)

// Bundle identifier fragments that mark a "web app" wrapper rather than a
// native application.
var webClipIndicators = []string{
	".webClipWrapper",
	"com.apple.WebKit.WebContent",
	"com.google.Chrome.app.",
	"com.microsoft.edgemac.app.",
	"org.mozilla.firefox.app.",
}

var domainPattern = regexp.MustCompile(`([a-zA-Z0-9-]+(?:\.[a-zA-Z0-9-]+)*\.[a-zA-Z]{2,})`)

// Classify tags each session as App or Website. A session is a Website only
// when its bundle is a known browser (or a web-app wrapper) and a resolvable
// domain can be attached; a browser session without one falls back to App
// rather than erroring. Sleep sessions pass through untouched.
func Classify(sessions []Session, cfg Config) []Session {
	browsers := make(map[string]bool, len(cfg.Browsers))
	for _, b := range cfg.Browsers {
		browsers[strings.TrimSpace(b)] = true
	}

	out := make([]Session, len(sessions))
	for i, s := range sessions {
		if s.Kind == KindSleep {
			out[i] = s
			continue
		}
		s.Kind = KindApp
		if isWebClip(s.Bundle) {
			if d := NormalizeDomain(s.Domain); d != "" {
				s.Kind, s.Domain = KindWebsite, d
			} else if d := domainFromBundle(s.Bundle); d != "" {
				s.Kind, s.Domain = KindWebsite, d
			} else {
				s.Domain = ""
			}
		} else if browsers[s.Bundle] {
			if d := NormalizeDomain(s.Domain); d != "" {
				s.Kind, s.Domain = KindWebsite, d
			} else {
				s.Domain = ""
			}
		} else {
			s.Domain = ""
		}
		out[i] = s
	}
	return out
}

func isWebClip(bundle string) bool {
	for _, ind := range webClipIndicators {
		if strings.Contains(bundle, ind) {
			return true
		}
	}
	return false
}

// NormalizeDomain canonicalizes a raw domain or page URL into a bare lowercase
// host: scheme, path, port, trailing slash and a leading "www." are stripped.
// Returns "" when the host does not resolve against the public suffix list.
func NormalizeDomain(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	host := raw
	if i := strings.Index(host, "://"); i != -1 {
		host = host[i+3:]
	}
	if i := strings.IndexAny(host, "/?#"); i != -1 {
		host = host[:i]
	}
	if i := strings.LastIndex(host, ":"); i != -1 && !strings.Contains(host[i:], "]") {
		host = host[:i]
	}
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	host = strings.TrimPrefix(host, "www.")
	if host == "" || !strings.Contains(host, ".") {
		return ""
	}
	// Strict lookup: no implicit "*" rule, so made-up suffixes don't resolve.
	if _, err := publicsuffix.DomainFromListWithOptions(publicsuffix.DefaultList, host, &publicsuffix.FindOptions{}); err != nil {
		return ""
	}
	return host
}

// domainFromBundle digs a domain out of a web-app wrapper bundle id, e.g.
// "com.google.Chrome.app.docs.google.com" -> "docs.google.com".
func domainFromBundle(bundle string) string {
	for _, ind := range webClipIndicators {
		if i := strings.Index(bundle, ind); i != -1 {
			if cand := NormalizeDomain(bundle[i+len(ind):]); cand != "" {
				return cand
			}
		}
	}
	if m := domainPattern.FindString(strings.ToLower(bundle)); m != "" {
		return NormalizeDomain(m)
	}
	return ""
}
