package sanitize

import "testing"

func TestHTMLToTextKeepsRows(t *testing.T) {
	in := `<html><head><style>p{color:red}</style></head><body>
<p>Namn: Anna Svensson</p><div>Telefon: 070-123&nbsp;45&nbsp;67</div>
<table><tr><td>Domän</td><td>Flytta.se</td></tr></table>
<script>alert(1)</script></body></html>`

	got := HTMLToText(in)
	want := "Namn: Anna Svensson\nTelefon: 070-123 45 67\nDomän\tFlytta.se"
	if got != want {
		t.Fatalf("unexpected text:\n%q\nwant\n%q", got, want)
	}
}

func TestHTMLToTextPlainPassthrough(t *testing.T) {
	if got := HTMLToText("  Namn: Erik \n"); got != "Namn: Erik" {
		t.Fatalf("expected trimmed plain text, got %q", got)
	}
}

func TestStripHTML(t *testing.T) {
	if got := StripHTML("<b>Hej</b> <i>där</i>"); got != "Hej där" {
		t.Fatalf("expected %q, got %q", "Hej där", got)
	}
}
