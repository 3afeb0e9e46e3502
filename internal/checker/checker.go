package checker

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"ticket-alerts/internal/browser"
	"ticket-alerts/internal/calendar"
	"ticket-alerts/internal/classify"
)

// Target is one reservation page to inspect.
type Target struct {
	Name string
	URL  string
}

// Display returns a human label for the target.
func (t Target) Display() string {
	if t.Name != "" {
		return t.Name
	}
	return t.URL
}

// Result is the outcome of inspecting one date on one target.
type Result struct {
	Date           time.Time
	Verdict        classify.Verdict
	Evidence       string
	ScreenshotPath string
}

// Session is the slice of the browser session the checker drives. Defined
// here so the date loop can be exercised without a live Chrome.
type Session interface {
	Navigate(url string) error
	DismissPopup() bool
	LocateCalendarFrame() browser.CalendarContext
	CalendarHTML(cctx *browser.CalendarContext) (string, error)
	ClickNextMonth() (bool, error)
	ClickPrevMonth() (bool, error)
	SelectDate(date time.Time) bool
	Screenshot(cctx *browser.CalendarContext, path string) error
	VisibleText() (string, error)
}

// Checker runs the detection pipeline against one open browser session.
type Checker struct {
	session       Session
	screenshotDir string
	logger        zerolog.Logger
}

// New constructs a checker around an already-open session.
func New(session Session, screenshotDir string, logger zerolog.Logger) *Checker {
	return &Checker{
		session:       session,
		screenshotDir: screenshotDir,
		logger:        logger.With().Str("component", "checker").Logger(),
	}
}

// CheckDates runs the cell-level classifier for every requested date against
// a single navigation of the target. Navigation failure aborts the batch;
// everything after that is contained per date, so one bad date never
// prevents checking the rest.
func (c *Checker) CheckDates(target Target, dates []time.Time) ([]Result, error) {
	if err := c.session.Navigate(target.URL); err != nil {
		return nil, err
	}
	c.session.DismissPopup()
	cctx := c.session.LocateCalendarFrame()

	results := make([]Result, 0, len(dates))
	for _, date := range dates {
		c.logger.Info().Str("target", target.Display()).Str("date", date.Format("2006-01-02")).Msg("checking date")
		results = append(results, c.checkDate(&cctx, date))
	}
	return results, nil
}

func (c *Checker) checkDate(cctx *browser.CalendarContext, date time.Time) (res Result) {
	ev := &classify.Evidence{}
	res = Result{Date: date, Verdict: classify.Unsure}

	defer func() {
		if r := recover(); r != nil {
			ev.Add("error: %v", r)
			res.Verdict = classify.Unsure
			res.Evidence = ev.String()
			c.logger.Error().Str("date", date.Format("2006-01-02")).Interface("panic", r).Msg("date inspection panicked")
		}
	}()
	defer func() {
		res.Evidence = ev.String()
	}()

	doc, err := c.snapshot(cctx)
	if err != nil {
		ev.Add("error: %v", err)
		return res
	}

	doc = c.ensureMonth(cctx, doc, date)

	cell, strategyName, reason := calendar.FindDayCell(doc, date.Day())
	if cell == nil {
		ev.Add("%s", reason)
		if days := calendar.VisibleDays(doc); len(days) > 0 {
			ev.Add("visible days: %s", strings.Join(days, ","))
		}
	} else {
		c.logger.Debug().Str("strategy", strategyName).Int("day", date.Day()).Msg("day cell located")
		res.Verdict = classify.Cell(cell, ev)
	}

	res.ScreenshotPath = c.captureScreenshot(cctx, date)
	return res
}

func (c *Checker) snapshot(cctx *browser.CalendarContext) (*goquery.Document, error) {
	html, err := c.session.CalendarHTML(cctx)
	if err != nil {
		return nil, fmt.Errorf("calendar snapshot: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse calendar html: %w", err)
	}
	return doc, nil
}

// ensureMonth aligns the displayed calendar page with the target month,
// clicking at most once per whole multi-date run in whichever direction the
// target lies. An unparseable month means no-op: skipping beats navigating
// wrong.
func (c *Checker) ensureMonth(cctx *browser.CalendarContext, doc *goquery.Document, date time.Time) *goquery.Document {
	month, year, ok := calendar.DisplayedMonth(doc)
	if !ok {
		c.logger.Debug().Msg("displayed month not recognised; skipping navigation")
		return doc
	}
	if month == date.Month() && year == date.Year() {
		return doc
	}
	if cctx.MonthNavigated {
		c.logger.Debug().Msg("already navigated this run; not clicking again")
		return doc
	}

	click, arrow := c.session.ClickNextMonth, "next"
	if year > date.Year() || (year == date.Year() && month > date.Month()) {
		click, arrow = c.session.ClickPrevMonth, "prev"
	}

	clicked, err := click()
	if err != nil {
		c.logger.Warn().Err(err).Msg("month navigation click failed")
		return doc
	}
	if !clicked {
		c.logger.Warn().Str("arrow", arrow).Msg("month arrow not found")
		return doc
	}
	cctx.MonthNavigated = true
	c.logger.Info().Str("displayed", fmt.Sprintf("%s %d", month, year)).Str("target", date.Format("January 2006")).Str("arrow", arrow).Msg("stepped calendar one month")

	fresh, err := c.snapshot(cctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("re-snapshot after navigation failed; using stale document")
		return doc
	}
	return fresh
}

func (c *Checker) captureScreenshot(cctx *browser.CalendarContext, date time.Time) string {
	path := filepath.Join(c.screenshotDir, ScreenshotName(date))
	if err := c.session.Screenshot(cctx, path); err != nil {
		// Audit artifact only; losing it never fails the check.
		c.logger.Warn().Err(err).Str("path", path).Msg("screenshot capture failed")
		return ""
	}
	return path
}

// ScreenshotName derives the audit image filename from the date, hyphens
// replaced with underscores.
func ScreenshotName(date time.Time) string {
	return strings.ReplaceAll(date.Format("2006-01-02"), "-", "_") + ".png"
}

// CheckPage runs the degraded page-wide text classification used by the
// single-date entry point. Before scanning it makes a best-effort attempt to
// focus the page on the requested date (native date input, then a calendar
// cell click); a failed attempt is logged and the scan proceeds regardless.
// It does not know which date each marker describes; negative markers win,
// and no marker at all means Unavailable.
func (c *Checker) CheckPage(target Target, date time.Time) (Result, error) {
	if err := c.session.Navigate(target.URL); err != nil {
		return Result{}, err
	}
	c.session.DismissPopup()
	if !c.session.SelectDate(date) {
		c.logger.Debug().Str("date", date.Format("2006-01-02")).Msg("could not focus date before page scan")
	}

	text, err := c.session.VisibleText()
	if err != nil {
		return Result{}, err
	}

	ev := &classify.Evidence{}
	verdict := classify.PageText(text, ev)
	return Result{Date: date, Verdict: verdict, Evidence: ev.String()}, nil
}

// WriteSummary renders the batch outcome as the plain-text table printed at
// the end of every run.
func WriteSummary(w io.Writer, results []Result) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Date\tStatus\tEvidence")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Date.Format("2006-01-02"), r.Verdict, sanitizeInline(r.Evidence))
	}
	tw.Flush()
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	return cleaned
}
