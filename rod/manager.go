package rod

import (
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// DefaultMaxPages is the default number of pages before browser recycling.
const DefaultMaxPages = 75

// BrowserManager leases browsers to callers and recycles the browser after
// maxPages pages. Chrome's memory baseline grows under load even with proper
// page cleanup, so long crawls need a fresh process now and then. A retired
// browser is closed once its last lease is released.
//
// BrowserManager is safe for concurrent use.
type BrowserManager struct {
	mu       sync.Mutex
	current  *instance
	maxPages int64
	bin      string
	closed   bool
}

type instance struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	pages    int64
	leases   int
	retired  bool
}

// ManagerOption configures a BrowserManager.
type ManagerOption func(*BrowserManager)

// WithMaxPages sets the number of pages served before the browser is
// recycled. Defaults to DefaultMaxPages.
func WithMaxPages(n int64) ManagerOption {
	return func(bm *BrowserManager) {
		bm.maxPages = n
	}
}

// WithBrowserBin uses the Chrome binary at path instead of the one rod
// finds or downloads.
func WithBrowserBin(path string) ManagerOption {
	return func(bm *BrowserManager) {
		bm.bin = path
	}
}

// NewBrowserManager launches a headless browser. Close must be called when
// the BrowserManager is no longer needed.
func NewBrowserManager(opts ...ManagerOption) (*BrowserManager, error) {
	bm := &BrowserManager{maxPages: DefaultMaxPages}
	for _, opt := range opts {
		opt(bm)
	}

	inst, err := bm.launch()
	if err != nil {
		return nil, err
	}
	bm.current = inst
	return bm, nil
}

// Acquire leases the current browser for one page. The returned release
// function must be called when the page is done. Returns nil browser after
// Close.
func (bm *BrowserManager) Acquire() (*rod.Browser, func()) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.closed || bm.current == nil {
		return nil, func() {}
	}
	if bm.current.pages >= bm.maxPages {
		bm.recycle()
	}

	inst := bm.current
	inst.pages++
	inst.leases++

	var once sync.Once
	return inst.browser, func() {
		once.Do(func() { bm.release(inst) })
	}
}

// Close releases browser resources. Close is safe to call multiple times.
func (bm *BrowserManager) Close() error {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.closed {
		return nil
	}
	bm.closed = true
	inst := bm.current
	bm.current = nil
	if inst == nil {
		return nil
	}
	return inst.close()
}

// LauncherPID returns the process ID of the current browser launcher, or 0
// when closed.
func (bm *BrowserManager) LauncherPID() int {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	if bm.current == nil || bm.current.launcher == nil {
		return 0
	}
	return bm.current.launcher.PID()
}

func (bm *BrowserManager) launch() (*instance, error) {
	l := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Set("disable-hang-monitor").
		Leakless(true).
		Headless(true)
	if bm.bin != "" {
		l = l.Bin(bm.bin)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}
	return &instance{browser: browser, launcher: l}, nil
}

// recycle swaps in a fresh browser. If the launch fails the old browser
// keeps serving. Must be called with mu held.
func (bm *BrowserManager) recycle() {
	next, err := bm.launch()
	if err != nil {
		return
	}
	old := bm.current
	bm.current = next
	old.retired = true
	if old.leases == 0 {
		_ = old.close()
	}
}

func (bm *BrowserManager) release(inst *instance) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	inst.leases--
	if inst.retired && inst.leases == 0 {
		_ = inst.close()
	}
}

func (i *instance) close() error {
	var err error
	if i.browser != nil {
		err = i.browser.Close()
		i.browser = nil
	}
	if i.launcher != nil {
		i.launcher.Kill()
		i.launcher = nil
	}
	return err
}
