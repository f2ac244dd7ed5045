package phone

import "strings"

var stripper = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")

// Normalize canonicalizes a raw phone number into an E.164-like form used as
// the conversation key. Spaces, dashes and parentheses are stripped, a
// leading 0 is replaced with the default country code, and the country code
// is prepended when no + prefix remains. Empty input stays empty.
//
// The result always starts with +, so normalizing an already-normalized
// number again is a no-op in practice.
func Normalize(raw, defaultCountryCode string) string {
	if raw == "" {
		return ""
	}

	clean := stripper.Replace(raw)

	if strings.HasPrefix(clean, "0") {
		clean = defaultCountryCode + clean[1:]
	}
	if !strings.HasPrefix(clean, "+") {
		clean = defaultCountryCode + clean
	}

	return clean
}

// Variants returns the set of forms a stored phone number may appear in:
// the raw input, the normalized form, and the normalized form without
// +, spaces and dashes. Used when matching a number against prior log rows
// or the contact directory.
func Variants(raw, defaultCountryCode string) []string {
	normalized := Normalize(raw, defaultCountryCode)
	stripped := strings.NewReplacer("+", "", " ", "", "-", "").Replace(raw)

	variants := []string{raw}
	for _, v := range []string{normalized, stripped} {
		if v != "" && !contains(variants, v) {
			variants = append(variants, v)
		}
	}
	return variants
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
