package phone

import (
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  string
		cc   string
		want string
	}{
		{"leading zero replaced", "0412345678", "+61", "+61412345678"},
		{"formatting stripped", "+1 555-123-4567", "+61", "+15551234567"},
		{"parentheses stripped", "(02) 9999 8888", "+61", "+61299998888"},
		{"bare national number gets country code", "412345678", "+61", "+61412345678"},
		{"already normalized is untouched", "+61412345678", "+61", "+61412345678"},
		{"empty stays empty", "", "+61", ""},
		{"other country code", "0711234567", "+49", "+49711234567"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := Normalize(tc.raw, tc.cc); got != tc.want {
				t.Fatalf("Normalize(%q, %q) = %q, want %q", tc.raw, tc.cc, got, tc.want)
			}
		})
	}
}

func TestNormalize_IdempotentOnOwnOutput(t *testing.T) {
	t.Parallel()

	inputs := []string{"0412345678", "+1 555-123-4567", "412345678", "(02) 9999 8888"}
	for _, raw := range inputs {
		once := Normalize(raw, "+61")
		twice := Normalize(once, "+61")
		if once != twice {
			t.Fatalf("Normalize not idempotent for %q: %q then %q", raw, once, twice)
		}
		if !strings.HasPrefix(once, "+") {
			t.Fatalf("expected normalized %q to start with +, got %q", raw, once)
		}
	}
}

func TestVariants(t *testing.T) {
	t.Parallel()

	got := Variants("0412 345-678", "+61")

	want := []string{"0412 345-678", "+61412345678", "0412345678"}
	if len(got) != len(want) {
		t.Fatalf("expected %d variants, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("variant %d: expected %q, got %q (all: %v)", i, want[i], got[i], got)
		}
	}
}

func TestVariants_DeduplicatesNormalizedInput(t *testing.T) {
	t.Parallel()

	got := Variants("+61412345678", "+61")

	// Raw equals normalized; only the stripped form is added.
	if len(got) != 2 {
		t.Fatalf("expected 2 variants, got %v", got)
	}
	if got[0] != "+61412345678" || got[1] != "61412345678" {
		t.Fatalf("unexpected variants: %v", got)
	}
}
