package email

import (
	"strings"
	"testing"
)

func TestRenderLeadReview_EscapesLeadText(t *testing.T) {
	out, err := renderLeadReview(LeadReview{
		Subject:  "Ny förfrågan",
		Source:   "inbox",
		LeadText: "Namn: <script>alert(1)</script>",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(out, "<script>") {
		t.Fatal("lead text must be escaped")
	}
	if !strings.Contains(out, "Ny förfrågan") || !strings.Contains(out, "Lead att granska") {
		t.Fatalf("missing content in %s", out)
	}
}

func TestRenderLeadFailed(t *testing.T) {
	out, err := renderLeadFailed(LeadFailure{
		LeadID:       "FF-1",
		CustomerName: "Anna Svensson",
		ErrorKind:    "transient",
		Reason:       "offer endpoint unavailable",
		Attempts:     3,
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{"FF-1", "Anna Svensson", "transient", "offer endpoint unavailable", "<td>3</td>"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output", want)
		}
	}
}

func TestExcerpt(t *testing.T) {
	short := "kort text"
	if excerpt(short) != short {
		t.Fatal("short text must be unchanged")
	}
	long := strings.Repeat("å", excerptLimit+10)
	got := excerpt(long)
	if !strings.HasSuffix(got, "…") || len([]rune(got)) != excerptLimit+1 {
		t.Fatalf("unexpected excerpt length %d", len([]rune(got)))
	}
}

func TestMessage_RejectsBadAddress(t *testing.T) {
	s := NewSMTPSender("smtp.example.com", 587, "", "", "noreply@nordflytt.se", fromName)
	if _, err := s.message("not an address", "Test", ""); err == nil {
		t.Fatal("expected error for invalid recipient")
	}
}
