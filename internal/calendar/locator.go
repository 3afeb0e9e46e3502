package calendar

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Locator miss reasons, recorded verbatim as evidence.
const (
	ReasonNotFound = "date element not found"
	ReasonNoButton = "found day element but no parent button"
)

var monthYearPattern = regexp.MustCompile(`(?i)\b(January|February|March|April|May|June|July|August|September|October|November|December)\s+(20\d{2})\b`)

var monthsByName = map[string]time.Month{
	"january":   time.January,
	"february":  time.February,
	"march":     time.March,
	"april":     time.April,
	"may":       time.May,
	"june":      time.June,
	"july":      time.July,
	"august":    time.August,
	"september": time.September,
	"october":   time.October,
	"november":  time.November,
	"december":  time.December,
}

// DisplayedMonth extracts the month and year the calendar widget currently
// shows from its visible text. The third return is false when no
// month-plus-year pattern is present, in which case callers must skip
// navigation rather than guess.
func DisplayedMonth(doc *goquery.Document) (time.Month, int, bool) {
	m := monthYearPattern.FindStringSubmatch(doc.Text())
	if m == nil {
		return 0, 0, false
	}
	month, ok := monthsByName[strings.ToLower(m[1])]
	if !ok {
		return 0, 0, false
	}
	year, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, false
	}
	return month, year, true
}

// A strategy is one probe in the ordered fallback chain used to locate a
// day cell. The first strategy that yields a match wins.
type strategy struct {
	name   string
	locate func(doc *goquery.Document, day string) *goquery.Selection
}

var cellStrategies = []strategy{
	{
		name: "title-day",
		locate: func(doc *goquery.Document, day string) *goquery.Selection {
			return doc.Find("span.title-day").FilterFunction(textEquals(day))
		},
	},
	{
		name: "button-text",
		locate: func(doc *goquery.Document, day string) *goquery.Selection {
			return doc.Find("button").FilterFunction(textEquals(day))
		},
	},
	{
		name: "span-text",
		locate: func(doc *goquery.Document, day string) *goquery.Selection {
			return doc.Find("span").FilterFunction(textEquals(day))
		},
	},
}

func textEquals(want string) func(int, *goquery.Selection) bool {
	return func(_ int, s *goquery.Selection) bool {
		return strings.TrimSpace(s.Text()) == want
	}
}

// FindDayCell locates the button element for a day of month by probing the
// strategies in order and ascending to the enclosing <button>. Multiple
// elements can share the visible day text; the first match in document order
// wins. On a miss the returned reason is one of the Reason constants and the
// strategy name reports which probe matched a day element, if any.
func FindDayCell(doc *goquery.Document, day int) (cell *goquery.Selection, strategyName string, reason string) {
	label := strconv.Itoa(day)
	for _, st := range cellStrategies {
		found := st.locate(doc, label)
		if found.Length() == 0 {
			continue
		}
		el := found.First()
		if goquery.NodeName(el) == "button" {
			return el, st.name, ""
		}
		btn := el.Closest("button")
		if btn.Length() == 0 {
			return nil, st.name, ReasonNoButton
		}
		return btn.First(), st.name, ""
	}
	return nil, "", ReasonNotFound
}

// VisibleDays lists the numeric day labels present in the calendar. Used as
// a diagnostic when the requested date cannot be located.
func VisibleDays(doc *goquery.Document) []string {
	var days []string
	doc.Find("span.title-day").Each(func(_ int, s *goquery.Selection) {
		t := strings.TrimSpace(s.Text())
		if t != "" && isDigits(t) {
			days = append(days, t)
		}
	})
	return days
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
