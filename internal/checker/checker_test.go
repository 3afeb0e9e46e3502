package checker

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"ticket-alerts/internal/browser"
	"ticket-alerts/internal/classify"
)

const octoberCalendar = `
<html><body>
	<h2>October 2025</h2>
	<div class="calendar">
		<button class="day-btn"><span class="title-day">6</span><img src="/img/sold_out.svg"></button>
		<button class="day-btn"><span class="title-day">7</span><img src="/img/available.svg"></button>
		<button class="day-btn sold-out-layout"><span class="title-day">8</span></button>
	</div>
</body></html>`

const septemberCalendar = `
<html><body>
	<h2>September 2025</h2>
	<div class="calendar">
		<button class="day-btn"><span class="title-day">30</span><img src="/img/sold_out.svg"></button>
	</div>
</body></html>`

const novemberCalendar = `
<html><body>
	<h2>November 2025</h2>
	<div class="calendar">
		<button class="day-btn"><span class="title-day">3</span><img src="/img/sold_out.svg"></button>
	</div>
</body></html>`

// fakeSession scripts the browser surface the checker drives.
type fakeSession struct {
	html        string
	htmlAfter   string // served after any month click
	htmlErrAt   int    // 1-based CalendarHTML call that fails; 0 = never
	htmlPanicAt int    // 1-based CalendarHTML call that panics; 0 = never
	htmlCalls   int
	navErr      error
	nextClicks  int
	prevClicks  int
	clickOK     bool
	screenshots []string
	pageText    string
	selected    []time.Time
	selectOK    bool
}

func (f *fakeSession) Navigate(url string) error { return f.navErr }
func (f *fakeSession) DismissPopup() bool        { return false }
func (f *fakeSession) LocateCalendarFrame() browser.CalendarContext {
	return browser.CalendarContext{FrameFound: true}
}
func (f *fakeSession) CalendarHTML(cctx *browser.CalendarContext) (string, error) {
	f.htmlCalls++
	if f.htmlPanicAt != 0 && f.htmlCalls == f.htmlPanicAt {
		panic("renderer crashed")
	}
	if f.htmlErrAt != 0 && f.htmlCalls == f.htmlErrAt {
		return "", errors.New("frame went away")
	}
	if f.nextClicks+f.prevClicks > 0 && f.htmlAfter != "" {
		return f.htmlAfter, nil
	}
	return f.html, nil
}
func (f *fakeSession) ClickNextMonth() (bool, error) {
	f.nextClicks++
	return f.clickOK, nil
}
func (f *fakeSession) ClickPrevMonth() (bool, error) {
	f.prevClicks++
	return f.clickOK, nil
}
func (f *fakeSession) SelectDate(date time.Time) bool {
	f.selected = append(f.selected, date)
	return f.selectOK
}
func (f *fakeSession) Screenshot(cctx *browser.CalendarContext, path string) error {
	f.screenshots = append(f.screenshots, path)
	return nil
}
func (f *fakeSession) VisibleText() (string, error) { return f.pageText, nil }

func date(t *testing.T, iso string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", iso)
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	return d
}

func TestCheckDatesVerdicts(t *testing.T) {
	fake := &fakeSession{html: octoberCalendar}
	c := New(fake, "screenshots", zerolog.Nop())

	dates := []time.Time{date(t, "2025-10-06"), date(t, "2025-10-07"), date(t, "2025-10-08")}
	results, err := c.CheckDates(Target{Name: "chichu", URL: "http://example"}, dates)
	if err != nil {
		t.Fatalf("CheckDates: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	want := []classify.Verdict{classify.Unavailable, classify.Available, classify.Unavailable}
	for i, r := range results {
		if r.Verdict != want[i] {
			t.Fatalf("date %s: verdict %s, want %s", r.Date.Format("2006-01-02"), r.Verdict, want[i])
		}
	}
	if results[2].Evidence != "sold-out-layout class" {
		t.Fatalf("evidence = %q", results[2].Evidence)
	}
}

func TestCheckDatesBatchSurvivesOneBadDate(t *testing.T) {
	// The second date's snapshot fails; the other two must still classify.
	fake := &fakeSession{html: octoberCalendar, htmlErrAt: 2}
	c := New(fake, "screenshots", zerolog.Nop())

	dates := []time.Time{date(t, "2025-10-06"), date(t, "2025-10-07"), date(t, "2025-10-08")}
	results, err := c.CheckDates(Target{URL: "http://example"}, dates)
	if err != nil {
		t.Fatalf("CheckDates: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[1].Verdict != classify.Unsure {
		t.Fatalf("failed date should be UNSURE, got %s", results[1].Verdict)
	}
	if !strings.Contains(results[1].Evidence, "error:") {
		t.Fatalf("failed date should carry error evidence, got %q", results[1].Evidence)
	}
	if results[0].Verdict != classify.Unavailable || results[2].Verdict != classify.Unavailable {
		t.Fatal("other dates must still be classified")
	}
}

func TestCheckDatesBatchSurvivesPanic(t *testing.T) {
	// A panic while inspecting the second date must be contained to that
	// date's result, not abort the batch.
	fake := &fakeSession{html: octoberCalendar, htmlPanicAt: 2}
	c := New(fake, "screenshots", zerolog.Nop())

	dates := []time.Time{date(t, "2025-10-06"), date(t, "2025-10-07"), date(t, "2025-10-08")}
	results, err := c.CheckDates(Target{URL: "http://example"}, dates)
	if err != nil {
		t.Fatalf("CheckDates: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[1].Verdict != classify.Unsure {
		t.Fatalf("panicked date should be UNSURE, got %s", results[1].Verdict)
	}
	if !strings.Contains(results[1].Evidence, "error: renderer crashed") {
		t.Fatalf("panicked date should carry error evidence, got %q", results[1].Evidence)
	}
	if results[0].Verdict != classify.Unavailable || results[2].Verdict != classify.Unavailable {
		t.Fatal("other dates must still be classified")
	}
}

func TestCheckDatesMissingDate(t *testing.T) {
	fake := &fakeSession{html: octoberCalendar}
	c := New(fake, "screenshots", zerolog.Nop())

	results, err := c.CheckDates(Target{URL: "http://example"}, []time.Time{date(t, "2025-10-23")})
	if err != nil {
		t.Fatalf("CheckDates: %v", err)
	}
	if results[0].Verdict != classify.Unsure {
		t.Fatalf("missing date should be UNSURE, got %s", results[0].Verdict)
	}
	if !strings.Contains(results[0].Evidence, "date element not found") {
		t.Fatalf("evidence = %q", results[0].Evidence)
	}
	if !strings.Contains(results[0].Evidence, "visible days: 6,7,8") {
		t.Fatalf("diagnostic day listing missing: %q", results[0].Evidence)
	}
}

func TestCheckDatesNavigatesForwardOnce(t *testing.T) {
	fake := &fakeSession{
		html:      septemberCalendar,
		htmlAfter: octoberCalendar,
		clickOK:   true,
	}
	c := New(fake, "screenshots", zerolog.Nop())

	dates := []time.Time{date(t, "2025-10-07"), date(t, "2025-10-08")}
	results, err := c.CheckDates(Target{URL: "http://example"}, dates)
	if err != nil {
		t.Fatalf("CheckDates: %v", err)
	}
	if fake.nextClicks != 1 {
		t.Fatalf("expected exactly one forward click per run, got %d", fake.nextClicks)
	}
	if fake.prevClicks != 0 {
		t.Fatalf("forward alignment must not click the prev arrow, got %d", fake.prevClicks)
	}
	if results[0].Verdict != classify.Available {
		t.Fatalf("post-navigation verdict = %s, want AVAILABLE", results[0].Verdict)
	}
}

func TestCheckDatesNavigatesBackwardOnce(t *testing.T) {
	fake := &fakeSession{
		html:      novemberCalendar,
		htmlAfter: octoberCalendar,
		clickOK:   true,
	}
	c := New(fake, "screenshots", zerolog.Nop())

	results, err := c.CheckDates(Target{URL: "http://example"}, []time.Time{date(t, "2025-10-07")})
	if err != nil {
		t.Fatalf("CheckDates: %v", err)
	}
	if fake.prevClicks != 1 {
		t.Fatalf("expected exactly one backward click, got %d", fake.prevClicks)
	}
	if fake.nextClicks != 0 {
		t.Fatalf("backward alignment must not click the next arrow, got %d", fake.nextClicks)
	}
	if results[0].Verdict != classify.Available {
		t.Fatalf("post-navigation verdict = %s, want AVAILABLE", results[0].Verdict)
	}
}

func TestCheckDatesSkipsNavigationWhenMonthUnparseable(t *testing.T) {
	fake := &fakeSession{
		html:    `<html><body><div class="calendar"><button><span class="title-day">7</span><img src="sold_out.svg"></button></div></body></html>`,
		clickOK: true,
	}
	c := New(fake, "screenshots", zerolog.Nop())

	if _, err := c.CheckDates(Target{URL: "http://example"}, []time.Time{date(t, "2025-10-07")}); err != nil {
		t.Fatalf("CheckDates: %v", err)
	}
	if fake.nextClicks+fake.prevClicks != 0 {
		t.Fatalf("unparseable month must not navigate, clicked %d times", fake.nextClicks+fake.prevClicks)
	}
}

func TestCheckDatesNavigationError(t *testing.T) {
	fake := &fakeSession{navErr: browser.ErrNavigation}
	c := New(fake, "screenshots", zerolog.Nop())

	if _, err := c.CheckDates(Target{URL: "http://example"}, []time.Time{date(t, "2025-10-07")}); !errors.Is(err, browser.ErrNavigation) {
		t.Fatalf("expected navigation error, got %v", err)
	}
}

func TestScreenshotNaming(t *testing.T) {
	fake := &fakeSession{html: octoberCalendar}
	c := New(fake, "screenshots", zerolog.Nop())

	results, err := c.CheckDates(Target{URL: "http://example"}, []time.Time{date(t, "2025-10-07")})
	if err != nil {
		t.Fatalf("CheckDates: %v", err)
	}
	want := "screenshots/2025_10_07.png"
	if results[0].ScreenshotPath != want {
		t.Fatalf("screenshot path = %q, want %q", results[0].ScreenshotPath, want)
	}
}

func TestCheckPage(t *testing.T) {
	fake := &fakeSession{pageText: "Reservations: Sold out ○", selectOK: true}
	c := New(fake, "", zerolog.Nop())

	when := date(t, "2025-10-07")
	res, err := c.CheckPage(Target{URL: "http://example"}, when)
	if err != nil {
		t.Fatalf("CheckPage: %v", err)
	}
	if res.Verdict != classify.Unavailable {
		t.Fatalf("verdict = %s, want UNAVAILABLE", res.Verdict)
	}
	if len(fake.selected) != 1 || !fake.selected[0].Equal(when) {
		t.Fatalf("page scan must try to focus the requested date first, selected %v", fake.selected)
	}
}

func TestCheckPageProceedsWhenDateSelectionFails(t *testing.T) {
	fake := &fakeSession{pageText: "△ few slots", selectOK: false}
	c := New(fake, "", zerolog.Nop())

	res, err := c.CheckPage(Target{URL: "http://example"}, date(t, "2025-10-07"))
	if err != nil {
		t.Fatalf("CheckPage should not fail when date selection fails: %v", err)
	}
	if res.Verdict != classify.Available {
		t.Fatalf("verdict = %s, want AVAILABLE", res.Verdict)
	}
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	WriteSummary(&buf, []Result{
		{Date: date(t, "2025-10-07"), Verdict: classify.Available, Evidence: "available.svg found"},
		{Date: date(t, "2025-10-08"), Verdict: classify.Unsure, Evidence: "multi\nline"},
	})

	out := buf.String()
	if !strings.Contains(out, "2025-10-07") || !strings.Contains(out, "AVAILABLE") {
		t.Fatalf("summary missing row: %q", out)
	}
	if strings.Contains(out, "multi\nline") {
		t.Fatal("evidence newlines must be flattened")
	}
}
