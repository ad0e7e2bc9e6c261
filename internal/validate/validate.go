package validate

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	reEmail  = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reID     = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	reCoupon = regexp.MustCompile(`^[A-Z0-9_-]{1,32}$`)
)

const (
	maxCartItems   = 50
	maxEvidenceURL = 2048
)

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 254 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// ID validates a resource identifier (course and order ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// CourseIDs validates a cart: 1..50 well-formed ids. Duplicates are kept;
// the order service collapses them.
func CourseIDs(in []string) ([]string, bool) {
	if len(in) == 0 || len(in) > maxCartItems {
		return nil, false
	}
	out := make([]string, 0, len(in))
	for _, raw := range in {
		id, ok := ID(raw)
		if !ok {
			return nil, false
		}
		out = append(out, id)
	}
	return out, true
}

// CouponCode normalizes an optional code. An empty input is valid and
// means "no coupon".
func CouponCode(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return "", true
	}
	return s, reCoupon.MatchString(s)
}

// EvidenceURL accepts absolute http(s) URLs with a host.
func EvidenceURL(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > maxEvidenceURL {
		return "", false
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return "", false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.String(), true
	default:
		return "", false
	}
}

// Password enforces a length window and character classes for login checks.
func Password(s string) bool {
	l := len(s)
	if l < 8 || l > 64 {
		return false
	}
	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range s {
		switch {
		case 'a' <= r && r <= 'z':
			hasLower = true
		case 'A' <= r && r <= 'Z':
			hasUpper = true
		case '0' <= r && r <= '9':
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	return hasLower && hasUpper && hasDigit && hasSymbol
}
