package classify

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxEvidenceLen bounds the rendered evidence string in summary reports.
const MaxEvidenceLen = 300

// Evidence accumulates short diagnostics explaining how a verdict was reached.
type Evidence struct {
	items []string
}

// Add appends one formatted diagnostic to the trail.
func (e *Evidence) Add(format string, args ...any) {
	e.items = append(e.items, fmt.Sprintf(format, args...))
}

// Items returns the recorded diagnostics in order.
func (e *Evidence) Items() []string {
	return e.items
}

// String joins the trail for display, truncated to MaxEvidenceLen. The cut
// lands on a rune boundary so marker symbols never render as broken UTF-8.
func (e *Evidence) String() string {
	joined := strings.Join(e.items, "; ")
	if len(joined) <= MaxEvidenceLen {
		return joined
	}
	cut := MaxEvidenceLen
	for cut > 0 && !utf8.RuneStart(joined[cut]) {
		cut--
	}
	return joined[:cut]
}
