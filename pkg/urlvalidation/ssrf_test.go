package urlvalidation

import (
	"errors"
	"net"
	"testing"
)

// fakeDNS resolves names from a fixed table; IP literals resolve to
// themselves.
func fakeDNS(host string) ([]string, error) {
	table := map[string][]string{
		"cdn.example.com": {"93.184.216.34"},
		"localhost":       {"127.0.0.1", "::1"},
		"internal.corp":   {"10.1.2.3"},
	}
	if ips, ok := table[host]; ok {
		return ips, nil
	}
	if net.ParseIP(host) != nil {
		return []string{host}, nil
	}
	return nil, errors.New("no such host")
}

func TestValidateSourceURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "valid https", url: "https://cdn.example.com/videos/a.mp4", wantErr: false},
		{name: "valid http", url: "http://cdn.example.com/a.mp4", wantErr: false},
		{name: "localhost", url: "http://localhost/a.mp4", wantErr: true},
		{name: "private name", url: "https://internal.corp/a.mp4", wantErr: true},
		{name: "loopback ip", url: "http://127.0.0.1/a.mp4", wantErr: true},
		{name: "private 10.x", url: "http://10.0.0.1/a.mp4", wantErr: true},
		{name: "private 192.168.x", url: "http://192.168.1.1/a.mp4", wantErr: true},
		{name: "credentials", url: "https://user:pw@cdn.example.com/a.mp4", wantErr: true},
		{name: "ftp scheme", url: "ftp://cdn.example.com/a.mp4", wantErr: true},
		{name: "file scheme", url: "file:///etc/passwd", wantErr: true},
		{name: "no scheme", url: "cdn.example.com/a.mp4", wantErr: true},
		{name: "empty host", url: "http:///a.mp4", wantErr: true},
		{name: "unresolvable", url: "https://nowhere.invalid/a.mp4", wantErr: true},
		{name: "ipv6 loopback", url: "http://[::1]/a.mp4", wantErr: true},
		{name: "cgn range", url: "http://100.64.0.1/a.mp4", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSourceURL(tt.url, WithResolver(fakeDNS))
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSourceURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestAllowPrivateIPs(t *testing.T) {
	if err := ValidateSourceURL("http://localhost/a.mp4", WithResolver(fakeDNS), AllowPrivateIPs()); err != nil {
		t.Errorf("ValidateSourceURL with AllowPrivateIPs = %v", err)
	}
}

func TestIsRemote(t *testing.T) {
	tests := map[string]bool{
		"https://cdn.example.com/a.mp4": true,
		"HTTP://cdn.example.com/a.mp4":  true,
		"/data/videos/a.mp4":            false,
		"s3://bucket/a.mp4":             false,
	}
	for in, want := range tests {
		if got := IsRemote(in); got != want {
			t.Errorf("IsRemote(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestIsPrivateIP(t *testing.T) {
	tests := []struct {
		ip      string
		private bool
	}{
		{"8.8.8.8", false},
		{"1.1.1.1", false},
		{"10.0.0.1", true},
		{"172.16.0.1", true},
		{"172.31.255.255", true},
		{"172.32.0.0", false},
		{"192.168.0.1", true},
		{"127.0.0.1", true},
		{"169.254.1.1", true},
		{"0.0.0.0", true},
		{"224.0.0.1", true},
		{"255.255.255.255", true},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			ip := net.ParseIP(tt.ip)
			if ip == nil {
				t.Fatalf("invalid test IP: %s", tt.ip)
			}
			if isPrivateIP(ip) != tt.private {
				t.Errorf("isPrivateIP(%q) = %v, want %v", tt.ip, !tt.private, tt.private)
			}
		})
	}
}
