package parser

import "testing"

func TestCleanEmail(t *testing.T) {
	if got := cleanEmail(" Kund@Example.SE "); got != "kund@example.se" {
		t.Fatalf("unexpected email %q", got)
	}
	if got := cleanEmail("not an email"); got != "" {
		t.Fatalf("expected invalid email to be dropped, got %q", got)
	}
}

func TestNormalizeDate(t *testing.T) {
	cases := map[string]string{
		"2025-05-15":           "2025-05-15",
		"2025-5-1":             "2025-05-01",
		"30 apr. 2025":         "2025-04-30",
		"1 Oktober 2025":       "2025-10-01",
		"15/6/2025":            "2025-06-15",
		"15.06.2025":           "2025-06-15",
		"31/2/2025":            "31/2/2025",
		"Snarast, helst i maj": "Snarast, helst i maj",
		"":                     "",
	}
	for in, want := range cases {
		if got := normalizeDate(in); got != want {
			t.Fatalf("normalizeDate(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizePostcode(t *testing.T) {
	cases := map[string]string{
		"11122":   "111 22",
		"111 22":  "111 22",
		" 41124 ": "411 24",
		"SE-123":  "SE-123",
	}
	for in, want := range cases {
		if got := normalizePostcode(in); got != want {
			t.Fatalf("normalizePostcode(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSplitAddress(t *testing.T) {
	cases := []struct {
		in                     string
		street, postcode, city string
	}{
		{"Storgatan 1, 111 22 Stockholm", "Storgatan 1", "111 22", "Stockholm"},
		{"Storgatan 1\n11122 Stockholm", "Storgatan 1", "111 22", "Stockholm"},
		{"Storgatan 1, 11122", "Storgatan 1", "111 22", ""},
		{"Kungsgatan 2", "Kungsgatan 2", "", ""},
	}
	for _, c := range cases {
		street, postcode, city := splitAddress(c.in)
		if street != c.street || postcode != c.postcode || city != c.city {
			t.Fatalf("splitAddress(%q) = %q %q %q", c.in, street, postcode, city)
		}
	}
}

func TestParseYesNo(t *testing.T) {
	yes := []string{"Ja", "ja tack", "Yes", "true"}
	for _, in := range yes {
		if v, ok := parseYesNo(in); !ok || !v {
			t.Fatalf("expected %q to be yes", in)
		}
	}
	no := []string{"Nej", "nej.", "No", "false"}
	for _, in := range no {
		if v, ok := parseYesNo(in); !ok || v {
			t.Fatalf("expected %q to be no", in)
		}
	}
	if _, ok := parseYesNo("Vet ej"); ok {
		t.Fatal("expected unknown answer to be undecided")
	}
}

func TestParseFloor(t *testing.T) {
	cases := map[string]int{
		"3":            3,
		"Våning 4":     4,
		"2 tr":         2,
		"BV":           0,
		"Bottenvåning": 0,
	}
	for in, want := range cases {
		if got, ok := parseFloor(in); !ok || got != want {
			t.Fatalf("parseFloor(%q) = %d, %v; want %d", in, got, ok, want)
		}
	}
	if _, ok := parseFloor("okänt"); ok {
		t.Fatal("expected no floor from text without digits")
	}
}
