// Package privacy keeps personal data (client IPs, email addresses) out of
// logs and audit events while leaving enough signal for operators.
package privacy

import (
	"net/netip"
	"strings"
)

// AnonymizeIP truncates an address to its network: IPv4 to /24
// ("192.168.1.47" -> "192.168.1.0") and IPv6 to /48
// ("2001:db8:85a3::8a2e:370:7334" -> "2001:db8:85a3::").
//
// Returns "unknown" for empty input and "invalid" for unparseable input.
func AnonymizeIP(ip string) string {
	if ip == "" || ip == "unknown" {
		return "unknown"
	}

	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return "invalid"
	}
	addr = addr.Unmap()

	bits := 48
	if addr.Is4() {
		bits = 24
	}
	prefix, err := addr.WithZone("").Prefix(bits)
	if err != nil {
		return "invalid"
	}
	return prefix.Addr().String()
}

// MaskEmail keeps the first character of the local part and the full domain:
// "maria.silva@gmail.com" -> "m***@gmail.com". The domain stays readable
// because blocklist decisions are made on it.
func MaskEmail(email string) string {
	at := strings.LastIndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
