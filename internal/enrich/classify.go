package enrich

import (
	"net/url"
	"strings"
)

// Kind classifies a link by its source, which selects the extraction
// branch of the pipeline.
type Kind int

const (
	// KindWebpage is the default branch: fetch and scrape paragraphs.
	KindWebpage Kind = iota

	// KindVideo routes to the caption-track transcript branch.
	KindVideo

	// KindSocial routes around fetch/extract entirely; the raw query
	// text is used as content.
	KindSocial
)

// Classify inspects a link for recognizable source markers.
func Classify(link string) Kind {
	host := hostOf(link)
	switch {
	case host == "youtu.be" || hasDomain(host, "youtube.com"):
		return KindVideo
	case hasDomain(host, "twitter.com") || hasDomain(host, "x.com"):
		return KindSocial
	default:
		return KindWebpage
	}
}

// ContainsSocialLink reports whether any whitespace-separated token of
// text is a social-post URL. Used by search to shortcut straight to
// summarization of the raw query.
func ContainsSocialLink(text string) bool {
	for _, token := range strings.Fields(text) {
		if Classify(token) == KindSocial {
			return true
		}
	}
	return false
}

// hostOf extracts a lowercase hostname from a link, tolerating missing
// schemes ("x.com/status/1" classifies the same as the full URL).
func hostOf(link string) string {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return ""
	}
	if u.Host == "" {
		if u, err = url.Parse("https://" + strings.TrimSpace(link)); err != nil {
			return ""
		}
	}
	return strings.ToLower(u.Hostname())
}

// hasDomain reports whether host is domain or a subdomain of it.
func hasDomain(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}
