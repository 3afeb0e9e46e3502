package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"
)

// ErrNavigation marks page-load failures (network error or timeout). It is
// fatal to the run that hit it, unlike the recoverable element probes.
var ErrNavigation = errors.New("browser: navigation failed")

// frameSelector matches the embedded calendar frame by id or URL substring.
const frameSelector = `#bsvCalendarIframe, iframe[src*="calendar"]`

const opTimeout = 15 * time.Second

// Options parameterise the headless browser session.
type Options struct {
	Headless    bool
	ExecPath    string
	NavTimeout  time.Duration
	SettleDelay time.Duration
}

// CalendarContext carries frame scoping and month-navigation state through
// the per-date loop. It is threaded explicitly between calls instead of
// living as ambient state on the session.
type CalendarContext struct {
	FrameFound     bool
	FrameSrc       string
	MonthNavigated bool
}

// Session owns one headless Chrome instance. Close must be called on every
// exit path.
type Session struct {
	ctx    context.Context
	cancel []context.CancelFunc
	opts   Options
	logger zerolog.Logger
}

// NewSession launches a browser tied to the parent context.
func NewSession(parent context.Context, opts Options, logger zerolog.Logger) (*Session, error) {
	if opts.NavTimeout <= 0 {
		opts.NavTimeout = 45 * time.Second
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = 2 * time.Second
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, allocOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	s := &Session{
		ctx:    browserCtx,
		cancel: []context.CancelFunc{cancelBrowser, cancelAlloc},
		opts:   opts,
		logger: logger.With().Str("component", "browser").Logger(),
	}

	if err := chromedp.Run(browserCtx); err != nil {
		s.Close()
		return nil, fmt.Errorf("start chrome: %w", err)
	}
	return s, nil
}

// Close releases the browser and its allocator.
func (s *Session) Close() {
	for _, cancel := range s.cancel {
		cancel()
	}
}

// Navigate loads the target URL and waits for the body plus a settle period.
func (s *Session) Navigate(url string) error {
	ctx, cancel := context.WithTimeout(s.ctx, s.opts.NavTimeout)
	defer cancel()

	err := chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(s.opts.SettleDelay),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: timeout loading %s", ErrNavigation, url)
		}
		return fmt.Errorf("%w: %v", ErrNavigation, err)
	}
	return nil
}

const dismissPopupJS = `(() => {
	const buttons = Array.from(document.querySelectorAll('button'));
	const ok = buttons.find(b => b.textContent.trim() === 'OK' && b.offsetParent !== null);
	if (!ok) return false;
	ok.click();
	return true;
})()`

// DismissPopup clicks a visible button labelled "OK", best-effort. Not
// finding one, or failing to click it, is not an error.
func (s *Session) DismissPopup() bool {
	ctx, cancel := context.WithTimeout(s.ctx, opTimeout)
	defer cancel()

	var clicked bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(dismissPopupJS, &clicked)); err != nil {
		s.logger.Debug().Err(err).Msg("popup dismissal probe failed")
		return false
	}
	if clicked {
		s.logger.Info().Msg("dismissed OK popup")
		// Give the frame behind the popup time to load.
		_ = chromedp.Run(s.ctx, chromedp.Sleep(s.opts.SettleDelay))
	}
	return clicked
}

const probeFrameJS = `(() => {
	const f = document.querySelector('#bsvCalendarIframe, iframe[src*="calendar"]');
	return { found: !!f, src: f ? (f.getAttribute('src') || '') : '' };
})()`

// LocateCalendarFrame probes for the embedded calendar frame. When absent,
// subsequent queries fall back to the top-level document.
func (s *Session) LocateCalendarFrame() CalendarContext {
	ctx, cancel := context.WithTimeout(s.ctx, opTimeout)
	defer cancel()

	var probe struct {
		Found bool   `json:"found"`
		Src   string `json:"src"`
	}
	if err := chromedp.Run(ctx, chromedp.Evaluate(probeFrameJS, &probe)); err != nil {
		s.logger.Debug().Err(err).Msg("frame probe failed")
		return CalendarContext{}
	}
	if !probe.Found {
		s.logger.Warn().Msg("no calendar iframe found; using top-level document")
		return CalendarContext{}
	}
	s.logger.Info().Str("src", probe.Src).Msg("calendar iframe located")
	return CalendarContext{FrameFound: true, FrameSrc: probe.Src}
}

const frameHTMLJS = `(() => {
	const f = document.querySelector('#bsvCalendarIframe, iframe[src*="calendar"]');
	if (!f) return '';
	try {
		return f.contentDocument ? f.contentDocument.documentElement.outerHTML : '';
	} catch (e) {
		return '';
	}
})()`

// CalendarHTML snapshots the calendar document: the frame's document when a
// frame was located, the top-level document otherwise.
func (s *Session) CalendarHTML(cctx *CalendarContext) (string, error) {
	ctx, cancel := context.WithTimeout(s.ctx, opTimeout)
	defer cancel()

	if cctx.FrameFound {
		var html string
		if err := chromedp.Run(ctx, chromedp.Evaluate(frameHTMLJS, &html)); err != nil {
			return "", fmt.Errorf("read frame document: %w", err)
		}
		if html != "" {
			return html, nil
		}
		s.logger.Debug().Msg("frame document unreadable; falling back to top-level document")
	}

	var html string
	if err := chromedp.Run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read top-level document: %w", err)
	}
	return html, nil
}

const clickArrowJS = `(() => {
	let doc = document;
	const f = document.querySelector('#bsvCalendarIframe, iframe[src*="calendar"]');
	if (f) {
		try {
			if (f.contentDocument) doc = f.contentDocument;
		} catch (e) {}
	}
	const img = doc.querySelector('img[src*="%s"]');
	if (!img) return false;
	img.click();
	return true;
})()`

// ClickNextMonth advances the calendar one month forward via the navigation
// arrow, then waits for the widget to repaint. The click lands inside the
// frame document when one is present.
func (s *Session) ClickNextMonth() (bool, error) {
	return s.clickArrow("arrow_next_calendar.svg")
}

// ClickPrevMonth steps the calendar one month back, for when the widget
// opens past the requested month.
func (s *Session) ClickPrevMonth() (bool, error) {
	return s.clickArrow("arrow_prev_calendar.svg")
}

func (s *Session) clickArrow(asset string) (bool, error) {
	ctx, cancel := context.WithTimeout(s.ctx, opTimeout)
	defer cancel()

	var clicked bool
	js := fmt.Sprintf(clickArrowJS, asset)
	if err := chromedp.Run(ctx, chromedp.Evaluate(js, &clicked)); err != nil {
		return false, fmt.Errorf("click %s: %w", asset, err)
	}
	if clicked {
		_ = chromedp.Run(s.ctx, chromedp.Sleep(s.opts.SettleDelay))
	}
	return clicked, nil
}

const fillDateInputJS = `((iso) => {
	const input = document.querySelector('input[type="date"]');
	if (!input) return false;
	input.value = iso;
	input.dispatchEvent(new Event('input', { bubbles: true }));
	input.dispatchEvent(new Event('change', { bubbles: true }));
	return true;
})(%q)`

const clickDateCellJS = `((iso, day) => {
	const opener = document.querySelector('[aria-label*="calendar" i]');
	if (opener) opener.click();
	let doc = document;
	const f = document.querySelector('#bsvCalendarIframe, iframe[src*="calendar"]');
	if (f) {
		try {
			if (f.contentDocument) doc = f.contentDocument;
		} catch (e) {}
	}
	const exact = doc.querySelector('[data-date="' + iso + '"]');
	if (exact) {
		exact.click();
		return true;
	}
	const candidates = Array.from(doc.querySelectorAll('td, button'));
	const hit = candidates.find(el => el.textContent.trim() === day);
	if (!hit) return false;
	hit.click();
	return true;
})(%q, %q)`

// SelectDate tries to focus the page on the requested date before a
// page-wide text scan: first a native date input, then a click on the
// matching calendar cell. Every failure is ignored and reported only
// through the return value; the scan proceeds on whatever the page shows.
func (s *Session) SelectDate(date time.Time) bool {
	ctx, cancel := context.WithTimeout(s.ctx, opTimeout)
	defer cancel()

	iso := date.Format("2006-01-02")

	var filled bool
	js := fmt.Sprintf(fillDateInputJS, iso)
	if err := chromedp.Run(ctx, chromedp.Evaluate(js, &filled)); err != nil {
		s.logger.Debug().Err(err).Msg("date input probe failed")
	}
	if filled {
		s.logger.Info().Str("date", iso).Msg("filled native date input")
		_ = chromedp.Run(s.ctx, chromedp.Sleep(s.opts.SettleDelay))
		return true
	}

	var clicked bool
	js = fmt.Sprintf(clickDateCellJS, iso, strconv.Itoa(date.Day()))
	if err := chromedp.Run(ctx, chromedp.Evaluate(js, &clicked)); err != nil {
		s.logger.Debug().Err(err).Msg("date cell probe failed")
		return false
	}
	if clicked {
		s.logger.Info().Str("date", iso).Msg("clicked calendar cell for date")
		_ = chromedp.Run(s.ctx, chromedp.Sleep(s.opts.SettleDelay))
	}
	return clicked
}

const visibleTextJS = `document.body ? document.body.innerText : ''`

// VisibleText returns the top-level page's rendered text, the input of the
// page-wide classification path.
func (s *Session) VisibleText() (string, error) {
	ctx, cancel := context.WithTimeout(s.ctx, opTimeout)
	defer cancel()

	var text string
	if err := chromedp.Run(ctx, chromedp.Evaluate(visibleTextJS, &text)); err != nil {
		return "", fmt.Errorf("read page text: %w", err)
	}
	return text, nil
}

// Screenshot captures the calendar for human audit: the frame element when
// one was located, retried as a full-page shot when the element capture
// fails.
func (s *Session) Screenshot(cctx *CalendarContext, path string) error {
	ctx, cancel := context.WithTimeout(s.ctx, opTimeout)
	defer cancel()

	var buf []byte
	if cctx.FrameFound {
		if err := chromedp.Run(ctx, chromedp.Screenshot(frameSelector, &buf, chromedp.ByQuery)); err != nil {
			s.logger.Debug().Err(err).Msg("frame screenshot failed; retrying full page")
			buf = nil
		}
	}
	if len(buf) == 0 {
		if err := chromedp.Run(ctx, chromedp.FullScreenshot(&buf, 90)); err != nil {
			return fmt.Errorf("capture screenshot: %w", err)
		}
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create screenshot dir: %w", err)
		}
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("write screenshot: %w", err)
	}
	return nil
}
