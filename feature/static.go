package feature

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// specialChars is the fixed special-character set counted across the URL.
var specialChars = []string{"%", "-", "=", "&", ";"}

// suspiciousKeywords is the fixed keyword list matched against the URL.
var suspiciousKeywords = []string{"login", "verify", "secure", "account", "signin"}

// freeHostingProviders is the fixed registrable-domain list of free hosting
// services commonly abused for phishing kits.
var freeHostingProviders = map[string]bool{
	"000webhost": true,
	"freehostia": true,
	"neocities":  true,
	"wordpress":  true,
	"blogspot":   true,
	"netlify":    true,
	"weebly":     true,
	"github":     true,
	"weeblysite": true,
}

var ipv4Pattern = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){3}$`)

// ExtractStatic computes the static features of rawURL. It is a pure
// function of the string: repeated calls return identical output.
//
// Hyphen handling is defined explicitly: the "xn--" ACE prefix of punycode
// labels is stripped before hyphen and special-character matching, so an
// internationalised hostname does not read as a hyphenated one.
func ExtractStatic(rawURL string) (Vector, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadURL, err)
	}
	hostname := strings.ToLower(parsed.Hostname())
	if hostname == "" {
		return nil, fmt.Errorf("%w: no hostname in %q", ErrBadURL, rawURL)
	}
	full := strings.ToLower(rawURL)

	labels := strings.Split(hostname, ".")

	v := Vector{
		"url_length": float64(len(full)),
		"dot_count":  float64(len(labels)),
		"has_at":     boolFeature(strings.Contains(full, "@")),
	}

	stripped := strings.ReplaceAll(full, "xn--", "")
	specials := 0.0
	for _, ch := range specialChars {
		if strings.Contains(stripped, ch) {
			specials++
		}
	}
	v["special_char_count"] = specials

	v["entropy"] = shannonEntropy(hostname)

	keywords := 0.0
	for _, kw := range suspiciousKeywords {
		if strings.Contains(full, kw) {
			keywords++
		}
	}
	v["suspicious_keywords"] = keywords

	registrable := registrableDomain(hostname)
	subdomain := ""
	if registrable != "" && registrable != hostname {
		subdomain = strings.TrimSuffix(hostname, "."+registrable)
	}
	v["subdomain_length"] = float64(len(subdomain))

	// Free-host platforms like blogspot.com are themselves public suffixes,
	// so the provider name may sit anywhere left of the TLD.
	freeHost := false
	for _, label := range labels[:len(labels)-1] {
		if freeHostingProviders[label] {
			freeHost = true
			break
		}
	}
	v["is_free_hosting"] = boolFeature(freeHost)

	hyphen := false
	for _, label := range labels {
		if strings.Contains(strings.TrimPrefix(label, "xn--"), "-") {
			hyphen = true
			break
		}
	}
	v["has_hyphen"] = boolFeature(hyphen)
	v["is_ip"] = boolFeature(ipv4Pattern.MatchString(hostname))

	return v, nil
}

// registrableDomain returns the eTLD+1 of hostname via the public suffix
// list, falling back to the last two labels when the list cannot decide
// (IP literals, single labels, unlisted suffixes).
func registrableDomain(hostname string) string {
	if ipv4Pattern.MatchString(hostname) {
		return hostname
	}
	if etld1, err := publicsuffix.EffectiveTLDPlusOne(hostname); err == nil {
		return etld1
	}
	labels := strings.Split(hostname, ".")
	if len(labels) < 2 {
		return hostname
	}
	return strings.Join(labels[len(labels)-2:], ".")
}

// shannonEntropy computes H = -Σ p·log2(p) over the character frequencies
// of s. An all-identical string scores 0; four distinct characters score 2.
func shannonEntropy(s string) float64 {
	if s == "" {
		return 0
	}
	counts := make(map[rune]int)
	total := 0
	for _, r := range s {
		counts[r]++
		total++
	}
	h := 0.0
	for _, c := range counts {
		p := float64(c) / float64(total)
		h -= p * math.Log2(p)
	}
	return h
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
