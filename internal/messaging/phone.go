package messaging

import "strings"

// NormalizePhone strips everything but digits from a phone number.
func NormalizePhone(value string) string {
	var digits strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	return digits.String()
}

// PhoneVariants returns the candidate forms an inbound sender number may be
// stored under: bare digits, digits with a leading plus, and for Brazilian
// mobile numbers the form with and without the extra ninth digit.
func PhoneVariants(value string) []string {
	digits := NormalizePhone(value)
	if digits == "" {
		return nil
	}
	seen := map[string]struct{}{}
	var variants []string
	add := func(v string) {
		if v == "" {
			return
		}
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		variants = append(variants, v)
	}
	add(digits)
	add("+" + digits)
	if strings.HasPrefix(digits, "55") {
		// 55 + 2-digit area code + subscriber. Mobile numbers carry a
		// leading 9 on the subscriber part; landline records may not.
		if len(digits) == 13 && digits[4] == '9' {
			short := digits[:4] + digits[5:]
			add(short)
			add("+" + short)
		}
		if len(digits) == 12 {
			long := digits[:4] + "9" + digits[4:]
			add(long)
			add("+" + long)
		}
	}
	return variants
}
