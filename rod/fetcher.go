// Package rod implements linkmap.Fetcher with a headless Chrome browser for
// sites that render their navigation with JavaScript.
package rod

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fwojciec/linkmap"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultFetchTimeout bounds a single page render.
const DefaultFetchTimeout = 10 * time.Second

// serializeScript returns the rendered document including open shadow roots,
// so links inside web components reach the link extractor.
const serializeScript = `() => {
	const roots = [];
	const collect = (node) => {
		for (const el of node.querySelectorAll('*')) {
			if (el.shadowRoot) {
				roots.push(el.shadowRoot);
				collect(el.shadowRoot);
			}
		}
	};
	collect(document);
	const root = document.documentElement;
	if (roots.length === 0 || typeof root.getHTML !== 'function') {
		return '<!DOCTYPE html>' + root.outerHTML;
	}
	const open = root.outerHTML.match(/^<html[^>]*>/i);
	return '<!DOCTYPE html>' + (open ? open[0] : '<html>') +
		root.getHTML({serializableShadowRoots: true, shadowRoots: roots}) + '</html>';
}`

var _ linkmap.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves rendered HTML using Chrome browser automation.
// Fetcher is safe for concurrent use by multiple goroutines.
type Fetcher struct {
	manager   *BrowserManager
	timeout   time.Duration
	userAgent string
	blocked   []string
	closed    atomic.Bool
}

// Option configures a Fetcher.
type Option func(*fetcherConfig)

type fetcherConfig struct {
	timeout   time.Duration
	userAgent string
	blocked   []string
	manager   []ManagerOption
}

// WithFetchTimeout sets the per-page render timeout.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *fetcherConfig) {
		c.timeout = d
	}
}

// WithUserAgent overrides the browser's user agent.
func WithUserAgent(ua string) Option {
	return func(c *fetcherConfig) {
		c.userAgent = ua
	}
}

// WithBlockedResources aborts requests for the given resource kinds:
// "images", "fonts", "media" or "stylesheets".
func WithBlockedResources(kinds ...string) Option {
	return func(c *fetcherConfig) {
		c.blocked = append(c.blocked, kinds...)
	}
}

// WithManagerOptions configures the underlying BrowserManager.
func WithManagerOptions(opts ...ManagerOption) Option {
	return func(c *fetcherConfig) {
		c.manager = append(c.manager, opts...)
	}
}

// NewFetcher launches a headless browser. Close must be called when the
// Fetcher is no longer needed.
//
// Returns an error if Chrome/Chromium cannot be found or launched.
func NewFetcher(opts ...Option) (*Fetcher, error) {
	cfg := fetcherConfig{timeout: DefaultFetchTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}

	manager, err := NewBrowserManager(cfg.manager...)
	if err != nil {
		return nil, err
	}
	return &Fetcher{
		manager:   manager,
		timeout:   cfg.timeout,
		userAgent: cfg.userAgent,
		blocked:   cfg.blocked,
	}, nil
}

// Fetch navigates to url and returns the rendered HTML.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if f.closed.Load() {
		return "", linkmap.Errorf(linkmap.EINVALID, "fetcher is closed")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	browser, release := f.manager.Acquire()
	defer release()
	if browser == nil {
		return "", linkmap.Errorf(linkmap.EINVALID, "fetcher is closed")
	}
	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", fmt.Errorf("open page: %w", err)
	}
	defer page.Close()

	if len(f.blocked) > 0 {
		router := blockResources(page, f.blocked)
		defer func() { _ = router.Stop() }()
	}
	if f.userAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: f.userAgent}); err != nil {
			return "", fmt.Errorf("set user agent: %w", err)
		}
	}

	page = page.Context(ctx)
	if err := page.Navigate(url); err != nil {
		return "", contextErr(ctx, err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", contextErr(ctx, err)
	}

	res, err := page.Eval(serializeScript)
	if err != nil {
		return "", contextErr(ctx, err)
	}
	html := res.Value.Str()
	if strings.TrimSpace(html) == "" {
		return "", fmt.Errorf("empty document")
	}
	return html, nil
}

// Close releases browser resources. Close is safe to call multiple times.
func (f *Fetcher) Close() error {
	if !f.closed.CompareAndSwap(false, true) {
		return nil
	}
	return f.manager.Close()
}

// LauncherPID returns the process ID of the browser launcher.
func (f *Fetcher) LauncherPID() int {
	return f.manager.LauncherPID()
}

// contextErr prefers the context's error so callers can match it with
// errors.Is.
func contextErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %v", ctxErr, err)
	}
	return err
}

// blockResources aborts requests for the configured resource kinds.
func blockResources(page *rod.Page, kinds []string) *rod.HijackRouter {
	block := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		block[strings.ToLower(k)] = true
	}

	router := page.HijackRequests()
	router.MustAdd("*", func(h *rod.Hijack) {
		if block[resourceKind(h.Request.Type())] {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	go router.Run()
	return router
}

func resourceKind(t proto.NetworkResourceType) string {
	switch t {
	case proto.NetworkResourceTypeImage:
		return "images"
	case proto.NetworkResourceTypeFont:
		return "fonts"
	case proto.NetworkResourceTypeMedia:
		return "media"
	case proto.NetworkResourceTypeStylesheet:
		return "stylesheets"
	}
	return strings.ToLower(string(t))
}
