// Package device turns raw client signals into the values stored with a
// signup's device fingerprint.
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

// MaxFingerprintLength bounds client-supplied fingerprint hashes.
const MaxFingerprintLength = 128

// NormalizeFingerprint trims and lower-cases a client fingerprint hash.
// It returns "" for values that are empty, too long, or contain characters
// outside [a-z0-9_-]; callers treat "" as "no fingerprint supplied".
func NormalizeFingerprint(raw string) string {
	fp := strings.ToLower(strings.TrimSpace(raw))
	if fp == "" || len(fp) > MaxFingerprintLength {
		return ""
	}
	for _, r := range fp {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return ""
		}
	}
	return fp
}

// Label extracts a human-readable device name from a User-Agent string,
// e.g. "Chrome em macOS" or "Safari em iPhone".
func Label(userAgentString string) string {
	if strings.TrimSpace(userAgentString) == "" {
		return "Dispositivo desconhecido"
	}

	ua := useragent.New(userAgentString)

	browser, _ := ua.Browser()
	os := ua.OS()

	if ua.Mobile() {
		if platform := ua.Platform(); platform != "" {
			return strings.TrimSpace(browser + " em " + platform)
		}
	}

	if browser == "" {
		browser = "Navegador desconhecido"
	}
	if os == "" {
		os = "sistema desconhecido"
	}

	return strings.TrimSpace(browser + " em " + os)
}

// IsBot reports whether the User-Agent identifies an automated client.
func IsBot(userAgentString string) bool {
	if userAgentString == "" {
		return false
	}
	return useragent.New(userAgentString).Bot()
}
