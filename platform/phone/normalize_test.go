package phone

import "testing"

func TestClean(t *testing.T) {
	cases := map[string]string{
		"070-123 45 67":       "0701234567",
		"+46 70 123 45 67":    "+46701234567",
		"+46 (0)70-123 45 67": "+46701234567",
		"0046 70 123 45 67":   "+46701234567",
		"46701234567":         "+46701234567",
		"701234567":           "0701234567",
		"(08) 123 456 78":     "0812345678",
		"+1 555 010 9999":     "+15550109999",
		" - ":                 "",
		"":                    "",
	}
	for in, want := range cases {
		if got := Clean(in); got != want {
			t.Fatalf("Clean(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeE164(t *testing.T) {
	cases := map[string]string{
		"0701234567":        "+46701234567",
		"+46701234567":      "+46701234567",
		"070-123 45 67":     "+46701234567",
		"701234567":         "+46701234567",
		"0046 70 123 45 67": "+46701234567",
		"46701234567":       "+46701234567",
		"+46 (0)70 1234567": "+46701234567",
		"":                  "",
		"  not a phone ":    "not a phone",
	}
	for in, want := range cases {
		if got := NormalizeE164(in); got != want {
			t.Fatalf("NormalizeE164(%q) = %q, want %q", in, got, want)
		}
	}
}
