package classify

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestEvidenceJoin(t *testing.T) {
	ev := &Evidence{}
	ev.Add("sold_out.svg found")
	ev.Add("class=%s", "pointer-none")

	if got := ev.String(); got != "sold_out.svg found; class=pointer-none" {
		t.Fatalf("unexpected rendering: %q", got)
	}
	if len(ev.Items()) != 2 {
		t.Fatalf("expected 2 items, got %d", len(ev.Items()))
	}
}

func TestEvidenceTruncation(t *testing.T) {
	ev := &Evidence{}
	for i := 0; i < 50; i++ {
		ev.Add(strings.Repeat("x", 20))
	}

	if got := len(ev.String()); got > MaxEvidenceLen {
		t.Fatalf("rendered evidence is %d chars, limit is %d", got, MaxEvidenceLen)
	}
}

func TestEvidenceTruncationKeepsRunesIntact(t *testing.T) {
	// A marker symbol straddling the length limit must be dropped whole, not
	// sliced into dangling bytes.
	ev := &Evidence{}
	ev.Add("%s", strings.Repeat("x", MaxEvidenceLen-2)+"○")

	got := ev.String()
	if len(got) > MaxEvidenceLen {
		t.Fatalf("rendered evidence is %d chars, limit is %d", len(got), MaxEvidenceLen)
	}
	if !utf8.ValidString(got) {
		t.Fatalf("truncation produced invalid UTF-8: %q", got)
	}
	if strings.Contains(got, "○") {
		t.Fatalf("partial symbol should have been dropped entirely, got %q", got)
	}
}

func TestEvidenceEmpty(t *testing.T) {
	ev := &Evidence{}
	if ev.String() != "" {
		t.Fatalf("empty evidence should render empty, got %q", ev.String())
	}
}
