package base

import (
	"strconv"
	"strings"
)

// StripLeadingZeros removes leading zeros from a chain-native store id
// string, e.g. "007" -> "7". An all-zero string becomes "0"; an empty
// string is returned as "". Used by the Shufersal adapter;
// Victory ids are persisted verbatim.
func StripLeadingZeros(s string) string {
	s = strings.TrimSpace(s)
	trimmed := strings.TrimLeft(s, "0")
	if trimmed == "" {
		if s == "" {
			return ""
		}
		return "0"
	}
	return trimmed
}

// ParsePositivePrice parses a price field, returning ok=false for
// anything non-numeric or <= 0; such records must be dropped, not
// treated as zero.
func ParsePositivePrice(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
