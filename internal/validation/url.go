package validation

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/pders01/newsagent/internal/feed"
)

// ErrInvalidURL marks a rejected source URL.
var ErrInvalidURL = errors.New("invalid feed URL")

// SourceValidator checks user supplied feed URLs before they are fetched.
type SourceValidator struct {
	// AllowLocalhost determines if localhost URLs are permitted
	AllowLocalhost bool
	// AllowPrivateIPs determines if private IP addresses are permitted
	AllowPrivateIPs bool
	// MaxLength is the maximum allowed URL length
	MaxLength int
}

// NewSourceValidator blocks loopback and private addresses unless
// allowPrivate is set.
func NewSourceValidator(allowPrivate bool) *SourceValidator {
	return &SourceValidator{
		AllowLocalhost:  allowPrivate,
		AllowPrivateIPs: allowPrivate,
		MaxLength:       2048,
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidURL, fmt.Sprintf(format, args...))
}

// Normalize validates a feed URL and returns its canonical form. A missing
// scheme defaults to https.
func (v *SourceValidator) Normalize(input string) (string, error) {
	input = strings.TrimSpace(input)

	if input == "" {
		return "", invalid("URL cannot be empty")
	}
	if len(input) > v.MaxLength {
		return "", invalid("URL too long (max %d characters)", v.MaxLength)
	}
	if strings.ContainsAny(input, "<>\"'` ") {
		return "", invalid("URL contains invalid characters")
	}

	if !strings.Contains(input, "://") {
		input = "https://" + input
	}

	u, err := url.Parse(input)
	if err != nil {
		return "", invalid("%v", err)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", invalid("scheme %q is not http or https", u.Scheme)
	}
	if u.Hostname() == "" {
		return "", invalid("URL must have a hostname")
	}
	u.Host = strings.ToLower(u.Host)

	if err := v.checkHost(u.Hostname()); err != nil {
		return "", err
	}
	if strings.Contains(u.Path, "..") {
		return "", invalid("directory traversal patterns not allowed in URL path")
	}
	u.Fragment = ""

	return u.String(), nil
}

// Source validates src.URL and returns a copy carrying the normalized URL.
func (v *SourceValidator) Source(src feed.Source) (feed.Source, error) {
	normalized, err := v.Normalize(src.URL)
	if err != nil {
		return src, fmt.Errorf("%s: %w", src.Label(), err)
	}
	src.URL = normalized
	return src, nil
}

// Sources validates every source and drops exact duplicates, keeping the
// first occurrence.
func (v *SourceValidator) Sources(sources []feed.Source) ([]feed.Source, error) {
	seen := make(map[string]bool, len(sources))
	out := make([]feed.Source, 0, len(sources))
	var errs []error
	for _, src := range sources {
		s, err := v.Source(src)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if seen[s.URL] {
			continue
		}
		seen[s.URL] = true
		out = append(out, s)
	}
	return out, errors.Join(errs...)
}

func (v *SourceValidator) checkHost(hostname string) error {
	if !v.AllowLocalhost && isLocalhost(hostname) {
		return invalid("localhost URLs are not permitted")
	}

	if ip := net.ParseIP(hostname); ip != nil {
		if ip.IsUnspecified() || ip.Equal(net.IPv4bcast) {
			return invalid("address %s is not routable", hostname)
		}
		if !v.AllowPrivateIPs && (ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast()) {
			return invalid("private IP addresses are not permitted")
		}
	}
	return nil
}

func isLocalhost(hostname string) bool {
	hostname = strings.ToLower(hostname)
	return hostname == "localhost" ||
		hostname == "127.0.0.1" ||
		hostname == "::1" ||
		strings.HasSuffix(hostname, ".localhost")
}
