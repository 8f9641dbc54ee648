// Package rod provides a libdoc.Fetcher that renders pages in headless
// Chrome, for documentation sites that build their content with JavaScript.
package rod

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fwojciec/libdoc"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultFetchTimeout bounds navigation and rendering of a single page.
const DefaultFetchTimeout = 15 * time.Second

// DefaultRecycleAfter is the default number of pages before the browser is
// restarted. Chrome's memory baseline grows with every page it renders.
const DefaultRecycleAfter = 75

// Ensure Fetcher implements libdoc.Fetcher at compile time.
var _ libdoc.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves rendered HTML using Chrome browser automation.
// The browser is restarted every recycleAfter pages once no fetch is in
// flight. Fetcher is safe for concurrent use by multiple goroutines.
type Fetcher struct {
	timeout      time.Duration
	recycleAfter int

	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
	pages    int
	inflight int
	closed   bool
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithFetchTimeout sets the per-page timeout.
func WithFetchTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithRecycleAfter sets the number of pages after which the browser restarts.
func WithRecycleAfter(n int) Option {
	return func(f *Fetcher) {
		f.recycleAfter = n
	}
}

// NewFetcher launches a headless Chrome browser.
// Close must be called when the Fetcher is no longer needed.
//
// Returns an error if Chrome/Chromium cannot be found or launched.
func NewFetcher(opts ...Option) (*Fetcher, error) {
	f := &Fetcher{
		timeout:      DefaultFetchTimeout,
		recycleAfter: DefaultRecycleAfter,
	}
	for _, opt := range opts {
		opt(f)
	}

	browser, l, err := launch()
	if err != nil {
		return nil, err
	}
	f.browser, f.launcher = browser, l
	return f, nil
}

// Fetch navigates to the URL and returns the rendered HTML.
// The browser does not expose HTTP status codes, so every failure is
// reported as a transient error.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	browser, release, err := f.acquire()
	if err != nil {
		return "", err
	}
	defer release()

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", fmt.Errorf("opening page: %w", err)
	}
	defer page.Close()

	if err := page.Navigate(url); err != nil {
		return "", fmt.Errorf("navigating to %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("loading %s: %w", url, err)
	}

	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", url, err)
	}
	return html, nil
}

// Close shuts the browser down. Close is safe to call multiple times.
func (f *Fetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true
	return shutdown(f.browser, f.launcher)
}

// LauncherPID returns the process ID of the browser launcher, or 0 once
// the fetcher is closed.
func (f *Fetcher) LauncherPID() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || f.launcher == nil {
		return 0
	}
	return f.launcher.PID()
}

// acquire returns the current browser, restarting it first when the page
// budget is spent and no other fetch is using it.
func (f *Fetcher) acquire() (*rod.Browser, func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, nil, libdoc.Errorf(libdoc.EINVALID, "Fetcher is closed.")
	}

	if f.recycleAfter > 0 && f.pages >= f.recycleAfter && f.inflight == 0 {
		// Keep the old browser when a fresh one cannot be started.
		if browser, l, err := launch(); err == nil {
			_ = shutdown(f.browser, f.launcher)
			f.browser, f.launcher = browser, l
			f.pages = 0
		}
	}

	f.pages++
	f.inflight++
	release := func() {
		f.mu.Lock()
		f.inflight--
		f.mu.Unlock()
	}
	return f.browser, release, nil
}

// launch starts a browser with flags that keep background tabs rendering.
func launch() (*rod.Browser, *launcher.Launcher, error) {
	l := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Leakless(true).
		Headless(true)

	u, err := l.Launch()
	if err != nil {
		return nil, nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, nil, fmt.Errorf("connecting to browser: %w", err)
	}
	return browser, l, nil
}

func shutdown(browser *rod.Browser, l *launcher.Launcher) error {
	var err error
	if browser != nil {
		err = browser.Close()
	}
	if l != nil {
		l.Kill()
	}
	return err
}
