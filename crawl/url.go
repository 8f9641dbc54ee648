package crawl

import (
	"net/url"
	"path"
	"strings"
)

// NormalizeURL returns the canonical form of an HTTP(S) URL used as the
// visited-set key: lowercase scheme and host, default port removed, query and
// fragment dropped, dot segments resolved and no trailing slash except for
// the root path. It returns "" for URLs that cannot be crawled.
func NormalizeURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return ""
	}
	if port := u.Port(); port != "" && !isDefaultPort(scheme, port) {
		host += ":" + port
	}

	p := u.EscapedPath()
	if p == "" {
		p = "/"
	}
	p = path.Clean(p)
	if p == "." {
		p = "/"
	}

	return scheme + "://" + host + p
}

// CleanURL returns rawURL as it should be fetched: fragment dropped, dot
// segments resolved and an empty path replaced by "/". Unlike NormalizeURL it keeps the trailing slash
// and query, since relative links on the page resolve against them. It
// returns "" for URLs that cannot be crawled.
func CleanURL(rawURL string) string {
	if NormalizeURL(rawURL) == "" {
		return ""
	}
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	u.Fragment = ""
	u.RawFragment = ""
	switch {
	case u.Path == "":
		u.Path = "/"
		u.RawPath = ""
	case strings.Contains(u.Path, "/."):
		trailing := strings.HasSuffix(u.Path, "/")
		u.Path = path.Clean(u.Path)
		if trailing && u.Path != "/" {
			u.Path += "/"
		}
		u.RawPath = ""
	}
	return u.String()
}

// SameHost reports whether rawURL points at host, ignoring case and default ports.
func SameHost(rawURL, host string) bool {
	u, err := url.Parse(NormalizeURL(rawURL))
	if err != nil || u.Host == "" {
		return false
	}
	return strings.EqualFold(u.Host, host)
}

func isDefaultPort(scheme, port string) bool {
	return (scheme == "http" && port == "80") || (scheme == "https" && port == "443")
}
