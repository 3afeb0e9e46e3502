package classify

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Verdict is the tri-state booking status of a date.
type Verdict string

const (
	Available   Verdict = "AVAILABLE"
	Unavailable Verdict = "UNAVAILABLE"
	Unsure      Verdict = "UNSURE"
)

// Negative markers short-circuit the page-text path; many booking pages
// mention "Available" in legends and notes, so only the explicit calendar
// symbols count as positive.
var (
	negativeMarkers = []*regexp.Regexp{
		regexp.MustCompile(`(?i)sold\s*out`),
		regexp.MustCompile(`(?i)fully\s*booked`),
		regexp.MustCompile(`(?i)unavailable`),
		regexp.MustCompile(`[×✕✖]`),
	}
	positiveMarkers = []*regexp.Regexp{
		regexp.MustCompile(`[○◯]`),
		regexp.MustCompile(`△`),
	}
)

// Cell classifies a single calendar date cell. Rules are exclusive and
// evaluated in priority order: icon identity first, then class markers.
// Anything the rules cannot account for stays Unsure.
func Cell(cell *goquery.Selection, ev *Evidence) Verdict {
	if cell.Find(`img[src*="available.svg"]`).Length() > 0 {
		ev.Add("available.svg found")
		return Available
	}
	if cell.Find(`img[src*="only_one_left.svg"]`).Length() > 0 {
		ev.Add("only_one_left.svg found")
		return Available
	}
	if cell.Find(`img[src*="sold_out.svg"]`).Length() > 0 {
		ev.Add("sold_out.svg found")
		return Unavailable
	}

	class := cell.AttrOr("class", "")
	switch {
	case strings.Contains(class, "sold-out-layout"):
		ev.Add("sold-out-layout class")
		return Unavailable
	case strings.Contains(class, "pointer-none"):
		ev.Add("pointer-none class (closed)")
		return Unavailable
	case strings.Contains(class, "day-active"):
		// Heuristic: day-active alone is not conclusive, the booking widget
		// tags bookable cells with an "aval" fragment in their inner markup.
		inner, _ := cell.Html()
		if strings.Contains(inner, "aval") {
			ev.Add("day-active + aval found")
			return Available
		}
		ev.Add("day-active but no clear availability indicator")
		return Unsure
	}

	ev.Add("unknown cell state: %s", class)
	return Unsure
}

// PageText classifies the page's full visible text. This is the degraded
// mode used when no calendar structure is found for a specific date: it
// conflates every visible date into one global verdict, so negative markers
// are checked first and the absence of a positive marker means Unavailable.
func PageText(text string, ev *Evidence) Verdict {
	for _, re := range negativeMarkers {
		if m := re.FindString(text); m != "" {
			ev.Add("negative marker %q", m)
			return Unavailable
		}
	}
	for _, re := range positiveMarkers {
		if m := re.FindString(text); m != "" {
			ev.Add("positive marker %q", m)
			return Available
		}
	}
	ev.Add("no availability markers in page text")
	return Unavailable
}
