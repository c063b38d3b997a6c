package catalog

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"fedharvest/types"
)

// Portal control selectors. These address the data downloads page's
// accessibility labels, which have been stable across portal releases.
const (
	startDateSel   = `input[aria-label="Select start date"]`
	endDateSel     = `input[aria-label="Select end date"]`
	categorySel    = `#data-sources`
	downloadPrefix = "Download options for "
	nextPageSel    = `button[aria-label="Go to next page"]`
)

var totalCountRe = regexp.MustCompile(`of (\d+)`)

// PortalConfig configures a headless browser session against the portal.
type PortalConfig struct {
	// URL of the data downloads page.
	URL string
	// DownloadDir receives in-flight downloads. Created (and cleaned up)
	// under the OS temp dir when empty.
	DownloadDir string
	// FetchTimeout bounds a single download.
	FetchTimeout time.Duration
	// PageSize is the rows-per-page setting requested after filtering.
	PageSize int
	// SettleDelay is the pause after interactions that re-render the listing.
	SettleDelay time.Duration
}

// PortalSession drives the portal through a headless Chrome instance. It
// implements Session and carries all the mutable browser state (filters,
// page cursor, open panels), so it must be used from one goroutine at a time.
type PortalSession struct {
	cfg         PortalConfig
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	ownsTempDir bool

	willBegin chan *browser.EventDownloadWillBegin
	completed chan string // download GUIDs
}

// NewPortalSession launches the browser, navigates to the portal, and routes
// download events into the session.
func NewPortalSession(parent context.Context, cfg PortalConfig) (*PortalSession, error) {
	s := &PortalSession{
		cfg:       cfg,
		willBegin: make(chan *browser.EventDownloadWillBegin, 1),
		completed: make(chan string, 4),
	}

	if s.cfg.DownloadDir == "" {
		dir, err := os.MkdirTemp("", "fedharvest-downloads-")
		if err != nil {
			return nil, fmt.Errorf("creating download dir: %w", err)
		}
		s.cfg.DownloadDir = dir
		s.ownsTempDir = true
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, chromedp.DefaultExecAllocatorOptions[:]...)
	ctx, cancel := chromedp.NewContext(allocCtx)
	s.ctx = ctx
	s.cancel = cancel
	s.allocCancel = allocCancel

	chromedp.ListenTarget(ctx, func(ev interface{}) {
		switch e := ev.(type) {
		case *browser.EventDownloadWillBegin:
			select {
			case s.willBegin <- e:
			default:
			}
		case *browser.EventDownloadProgress:
			if e.State == browser.DownloadProgressStateCompleted {
				select {
				case s.completed <- e.GUID:
				default:
				}
			}
		}
	})

	log.Printf("Navigating to portal: %s", cfg.URL)
	err := chromedp.Run(ctx,
		browser.SetDownloadBehavior(browser.SetDownloadBehaviorBehaviorAllowAndName).
			WithDownloadPath(s.cfg.DownloadDir).
			WithEventsEnabled(true),
		chromedp.Navigate(cfg.URL),
		chromedp.WaitReady("body"),
		chromedp.Sleep(cfg.SettleDelay),
	)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("opening portal: %w", err)
	}
	return s, nil
}

// ApplyFilters fills the date inputs, selects the category, and reads the
// "X-Y of N" total from the listing header. It also raises the page size;
// that step is best-effort since small result sets render no size selector.
func (s *PortalSession) ApplyFilters(ctx context.Context, category types.Category, startDate, endDate string) (int, error) {
	var countText string
	err := chromedp.Run(s.ctx,
		chromedp.SetValue(startDateSel, startDate, chromedp.ByQuery),
		chromedp.SendKeys(startDateSel, kb.Enter, chromedp.ByQuery),
		chromedp.SetValue(endDateSel, endDate, chromedp.ByQuery),
		chromedp.SendKeys(endDateSel, kb.Enter, chromedp.ByQuery),
		chromedp.SetValue(categorySel, string(category), chromedp.ByQuery),
		chromedp.Sleep(s.cfg.SettleDelay),
		chromedp.Evaluate(
			`(() => {
				const p = Array.from(document.querySelectorAll('p'))
					.map(el => el.textContent || '')
					.find(t => /\d+-\d+ of \d+/.test(t));
				return p || '';
			})()`, &countText),
	)
	if err != nil {
		return 0, &FilterError{Category: category, Err: err}
	}

	m := totalCountRe.FindStringSubmatch(countText)
	if m == nil {
		// No count line rendered: the portal shows nothing for an empty
		// result set, which is a valid zero, not a failure.
		return 0, nil
	}
	total, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, &FilterError{Category: category, Err: err}
	}

	if total > 0 && s.cfg.PageSize > 0 {
		s.setPageSize(s.cfg.PageSize)
	}
	return total, nil
}

// setPageSize finds the rows-per-page selector and switches it. Best-effort.
func (s *PortalSession) setPageSize(size int) {
	var ok bool
	script := fmt.Sprintf(`(() => {
		const target = %q;
		for (const sel of document.querySelectorAll('select')) {
			const values = Array.from(sel.options).map(o => o.value);
			if (values.includes(target)) {
				sel.value = target;
				sel.dispatchEvent(new Event('change', { bubbles: true }));
				return true;
			}
		}
		return false;
	})()`, strconv.Itoa(size))

	err := chromedp.Run(s.ctx,
		chromedp.Evaluate(script, &ok),
		chromedp.Sleep(s.cfg.SettleDelay),
	)
	if err != nil || !ok {
		log.Printf("Could not set page size to %d; continuing with portal default", size)
	}
}

// Labels reads every download button's accessibility label on the current page.
func (s *PortalSession) Labels(ctx context.Context) ([]string, error) {
	var labels []string
	script := fmt.Sprintf(`Array.from(document.querySelectorAll('button[aria-label^=%q]'))
		.map(b => (b.getAttribute('aria-label') || '').replace(%q, '').trim())`,
		downloadPrefix, downloadPrefix)
	if err := chromedp.Run(s.ctx, chromedp.Evaluate(script, &labels)); err != nil {
		return nil, fmt.Errorf("reading page labels: %w", err)
	}
	return labels, nil
}

// Fetch opens the item's download options panel, picks the CSV format, and
// waits for the browser to finish the download. The panel is dismissed on
// every exit path so the next interaction starts from a clean page.
func (s *PortalSession) Fetch(ctx context.Context, position int) ([]byte, string, error) {
	defer s.dismissPanel()

	// Drain any stale completion signals from a previous failed fetch.
	for {
		select {
		case <-s.completed:
			continue
		case <-s.willBegin:
			continue
		default:
		}
		break
	}

	openPanel := fmt.Sprintf(`(() => {
		const buttons = document.querySelectorAll('button[aria-label^=%q]');
		if (%d >= buttons.length) return false;
		buttons[%d].click();
		return true;
	})()`, downloadPrefix, position, position)

	clickCSV := `(() => {
		const el = document.querySelector('[aria-label*="CSV"]');
		if (!el) return false;
		el.click();
		return true;
	})()`

	var opened, clicked bool
	err := chromedp.Run(s.ctx,
		chromedp.Evaluate(openPanel, &opened),
		chromedp.Sleep(300*time.Millisecond),
		chromedp.Evaluate(clickCSV, &clicked),
	)
	if err != nil {
		return nil, "", &FetchError{Position: position, Err: err}
	}
	if !opened || !clicked {
		return nil, "", &FetchError{Position: position, Err: fmt.Errorf("download controls not found on page")}
	}

	guid, suggested, err := s.awaitDownload(ctx, position)
	if err != nil {
		return nil, "", err
	}

	// AllowAndName stores the file under its GUID inside the download dir.
	path := filepath.Join(s.cfg.DownloadDir, guid)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", &FetchError{Position: position, Err: fmt.Errorf("reading downloaded file: %w", err)}
	}
	os.Remove(path)

	return data, suggested, nil
}

// awaitDownload blocks until the triggered download completes, the fetch
// timeout elapses, or the caller's context is cancelled.
func (s *PortalSession) awaitDownload(ctx context.Context, position int) (guid, suggested string, err error) {
	timeout := s.cfg.FetchTimeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		select {
		case begin := <-s.willBegin:
			guid = begin.GUID
			suggested = begin.SuggestedFilename
		case doneGUID := <-s.completed:
			if guid == "" || doneGUID == guid {
				return guid, suggested, nil
			}
		case <-deadline.C:
			return "", "", &FetchError{Position: position, Err: ErrFetchTimeout}
		case <-ctx.Done():
			return "", "", &FetchError{Position: position, Err: ctx.Err()}
		}
	}
}

// dismissPanel sends Escape to close whatever dialog the fetch left open.
func (s *PortalSession) dismissPanel() {
	if err := chromedp.Run(s.ctx, chromedp.KeyEvent(kb.Escape)); err != nil {
		log.Printf("Failed to dismiss download panel: %v", err)
	}
}

// NextPage reports whether a further page exists and advances to it.
func (s *PortalSession) NextPage(ctx context.Context) (bool, error) {
	var disabled bool
	check := fmt.Sprintf(`(() => {
		const b = document.querySelector(%q);
		return !b || b.disabled;
	})()`, nextPageSel)
	if err := chromedp.Run(s.ctx, chromedp.Evaluate(check, &disabled)); err != nil {
		return false, fmt.Errorf("checking next page control: %w", err)
	}
	if disabled {
		return false, nil
	}

	err := chromedp.Run(s.ctx,
		chromedp.Click(nextPageSel, chromedp.ByQuery),
		chromedp.Sleep(s.cfg.SettleDelay),
	)
	if err != nil {
		return false, fmt.Errorf("advancing to next page: %w", err)
	}
	return true, nil
}

// Close tears down the browser session and any temp download directory.
func (s *PortalSession) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
	if s.ownsTempDir {
		os.RemoveAll(s.cfg.DownloadDir)
	}
	return nil
}
