// Package urlvalidation guards against server-side request forgery through
// user-supplied video source URLs.
package urlvalidation

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Option configures URL validation behavior.
type Option func(*validationConfig)

type validationConfig struct {
	allowPrivate bool
	resolve      func(host string) ([]string, error)
}

// AllowPrivateIPs disables the private IP check. Use only in tests.
func AllowPrivateIPs() Option {
	return func(c *validationConfig) {
		c.allowPrivate = true
	}
}

// WithResolver replaces DNS resolution of the URL host.
func WithResolver(resolve func(host string) ([]string, error)) Option {
	return func(c *validationConfig) {
		c.resolve = resolve
	}
}

// ValidateSourceURL checks that a remote video URL is safe to hand to the
// media tooling. Only http(s) is accepted and hosts resolving to private or
// reserved addresses are rejected.
func ValidateSourceURL(rawURL string, opts ...Option) error {
	cfg := validationConfig{resolve: net.LookupHost}
	for _, opt := range opts {
		opt(&cfg)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "https" && scheme != "http" {
		return fmt.Errorf("URL scheme %q not allowed; use http or https", u.Scheme)
	}
	if u.User != nil {
		return fmt.Errorf("URL must not carry credentials")
	}

	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("URL must have a hostname")
	}

	ips, err := cfg.resolve(host)
	if err != nil {
		return fmt.Errorf("cannot resolve hostname %q: %w", host, err)
	}
	if cfg.allowPrivate {
		return nil
	}
	for _, ipStr := range ips {
		ip := net.ParseIP(ipStr)
		if ip == nil {
			continue
		}
		if isPrivateIP(ip) {
			return fmt.Errorf("URL resolves to private/reserved IP %s", ipStr)
		}
	}
	return nil
}

// IsRemote reports whether source names an http(s) URL rather than a path
// on the shared filesystem.
func IsRemote(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

var reservedNetworks = []*net.IPNet{
	parseCIDR("10.0.0.0/8"),
	parseCIDR("172.16.0.0/12"),
	parseCIDR("192.168.0.0/16"),
	parseCIDR("127.0.0.0/8"),
	parseCIDR("169.254.0.0/16"), // link-local
	parseCIDR("::1/128"),
	parseCIDR("fc00::/7"),
	parseCIDR("fe80::/10"),
	parseCIDR("100.64.0.0/10"), // CGN
	parseCIDR("0.0.0.0/8"),
	parseCIDR("192.0.0.0/24"),
	parseCIDR("192.0.2.0/24"),
	parseCIDR("198.51.100.0/24"),
	parseCIDR("203.0.113.0/24"),
	parseCIDR("198.18.0.0/15"),
	parseCIDR("224.0.0.0/4"),
	parseCIDR("240.0.0.0/4"),
	parseCIDR("255.255.255.255/32"),
}

func isPrivateIP(ip net.IP) bool {
	for _, n := range reservedNetworks {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

func parseCIDR(s string) *net.IPNet {
	_, network, err := net.ParseCIDR(s)
	if err != nil {
		panic(fmt.Sprintf("invalid CIDR %q: %v", s, err))
	}
	return network
}
