package libdoc

import (
	"net/url"
	"strings"
)

// DefaultSkipHosts are package registries and source hosts that never serve
// a library's documentation website.
var DefaultSkipHosts = []string{
	"github.com",
	"gitlab.com",
	"bitbucket.org",
	"npmjs.com",
	"pypi.org",
	"rubygems.org",
	"crates.io",
	"pkg.go.dev",
	"hub.docker.com",
	"packagist.org",
	"nuget.org",
}

// HostDenylist rejects homepage URLs that are not documentation sites.
// An entry matches its host exactly and any subdomain of it.
type HostDenylist struct {
	hosts []string
}

// NewHostDenylist returns a denylist over hosts. Entries are lowercased and
// a leading "www." or "." is ignored.
func NewHostDenylist(hosts []string) *HostDenylist {
	l := &HostDenylist{}
	for _, h := range hosts {
		h = strings.TrimPrefix(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(h)), "."), "www.")
		if h != "" {
			l.hosts = append(l.hosts, h)
		}
	}
	return l
}

// Allows reports whether rawURL may be crawled as a documentation site.
// Only absolute http(s) URLs are allowed. Paths on a denied host are
// allowed when they are explicitly documentation paths such as
// gitlab.com/group/project/-/wikis or a "docs" path segment on a
// non-registry host.
func (l *HostDenylist) Allows(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	for _, denied := range l.hosts {
		if host == denied || strings.HasSuffix(host, "."+denied) {
			return isDocPath(u.Path)
		}
	}
	return true
}

// isDocPath reports whether a path on a denied host explicitly points at
// documentation.
func isDocPath(p string) bool {
	for _, seg := range strings.Split(strings.ToLower(p), "/") {
		switch seg {
		case "docs", "wiki", "wikis":
			return true
		}
	}
	return false
}
