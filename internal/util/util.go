package util

import (
	"math"
	"strings"
)

// Contains checks if a slice contains a specific string
func Contains(slice []string, val string) bool {
	for _, item := range slice {
		if item == val {
			return true
		}
	}
	return false
}

// Round Method to round to 2 decimals
func Round(f float64) float64 {
	return math.Round(f*100) / 100
}

// Percent renders a ratio as a percentage rounded to 2 decimals.
func Percent(ratio float64) float64 {
	return Round(ratio * 100)
}

// NormalizeMAC canonicalizes a MAC address to lowercase colon-separated
// form. Switch CLIs emit dotted quads ("aabb.ccdd.ee01"), node tooling emits
// colon form in either case; correlation needs one spelling. Returns "" for
// anything that is not a MAC.
func NormalizeMAC(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ":", "")
	s = strings.ReplaceAll(s, "-", "")
	if len(s) != 12 {
		return ""
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return ""
		}
	}
	var b strings.Builder
	for i := 0; i < 12; i += 2 {
		if i > 0 {
			b.WriteByte(':')
		}
		b.WriteString(s[i : i+2])
	}
	return b.String()
}
