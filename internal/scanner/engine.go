package scanner

import (
	"net/url"
	"strings"

	"github.com/outscan/outscan/internal/allowlist"
	"github.com/outscan/outscan/internal/model"
)

// Classifier decides expected vs. unexpected for extracted outbound URLs
// and accumulates the unexpected ones into a ScanResult.
type Classifier struct {
	allow *allowlist.Allowlist
}

// NewClassifier creates a Classifier over the given allowlist.
func NewClassifier(allow *allowlist.Allowlist) *Classifier {
	return &Classifier{allow: allow}
}

// Classify records link in result when it is unexpected. The decision is
// pure: no network I/O, no side effects beyond the accumulator.
//
// A link whose host equals the owning page's host is internal, not
// outbound, and is never recorded; this keeps origin self-links assigned to
// the origin when hostnames are being maintained. Everything else is judged
// by the allowlist.
func (c *Classifier) Classify(link model.OutboundURL, result *model.ScanResult) {
	if sameHost(link.URL, link.Page) {
		return
	}
	if c.allow.IsExpected(link.URL) {
		return
	}
	result.AddUnexpected(link.URL, link.Page)
}

// sameHost reports whether two absolute URLs share a hostname.
func sameHost(a, b string) bool {
	ua, err := url.Parse(a)
	if err != nil {
		return false
	}
	ub, err := url.Parse(b)
	if err != nil {
		return false
	}
	return ua.Host != "" && strings.EqualFold(ua.Host, ub.Host)
}
