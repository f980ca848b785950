package recorder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/device"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"sessionrecorder/backend/internal/dom"
	"sessionrecorder/backend/pkg/chrome"
	"sessionrecorder/backend/pkg/logger"
)

const (
	eventClick  = "click"
	eventInput  = "input"
	eventChange = "change"
)

type ChromeOptions struct {
	Headless     bool
	PollInterval time.Duration
}

// ChromeEventSource is an EventSource backed by a Chrome tab driven over
// the DevTools protocol. An injected script queues interaction events in
// the page; a single poll goroutine drains the queue and dispatches events
// in arrival order.
type ChromeEventSource struct {
	ctx       context.Context
	cancel    context.CancelFunc
	targetURL string
	poll      time.Duration

	mu       sync.Mutex
	handlers map[string]Handler
	lastURL  string
	closed   bool
}

func NewChromeEventSource(targetURL string, dev device.Info, opts ChromeOptions) (*ChromeEventSource, error) {
	chromePath := chrome.GetChromePath()
	if chromePath == "" {
		return nil, fmt.Errorf("Chrome browser not found. Please install Google Chrome or Chromium")
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 100 * time.Millisecond
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(chromePath),
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("ignore-certificate-errors", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.UserAgent(dev.UserAgent),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	sugar := logger.L().Sugar()
	ctx, ctxCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(sugar.Debugf), chromedp.WithErrorf(sugar.Warnf))

	s := &ChromeEventSource{
		ctx:       ctx,
		targetURL: targetURL,
		poll:      opts.PollInterval,
		handlers:  make(map[string]Handler),
		lastURL:   targetURL,
	}
	s.cancel = func() {
		ctxCancel()
		allocCancel()
	}

	if err := chrome.ApplyDeviceEmulation(ctx, dev); err != nil {
		s.cancel()
		return nil, fmt.Errorf("failed to emulate device %s: %w", dev.Name, err)
	}

	err := chromedp.Run(ctx,
		// survives navigations inside the recorded tab
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(captureScript).Do(ctx)
			return err
		}),
		chromedp.Navigate(targetURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Evaluate(captureScript, nil),
	)
	if err != nil {
		s.cancel()
		return nil, fmt.Errorf("failed to open %s: %w", targetURL, err)
	}

	go s.listen()

	return s, nil
}

func (s *ChromeEventSource) CurrentURL() string {
	ctx, cancel := context.WithTimeout(s.ctx, 2*time.Second)
	defer cancel()

	var loc string
	if err := chromedp.Run(ctx, chromedp.Location(&loc)); err == nil && loc != "" {
		return loc
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastURL
}

func (s *ChromeEventSource) OnClick(h Handler) func()  { return s.on(eventClick, h) }
func (s *ChromeEventSource) OnInput(h Handler) func()  { return s.on(eventInput, h) }
func (s *ChromeEventSource) OnChange(h Handler) func() { return s.on(eventChange, h) }

func (s *ChromeEventSource) on(kind string, h Handler) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[kind] = h
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.handlers, kind)
	}
}

// Alive reports whether the browser tab is still attached.
func (s *ChromeEventSource) Alive() bool {
	return s.ctx.Err() == nil
}

// Close shuts the recording browser down.
func (s *ChromeEventSource) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	logger.L().Info("Closing recording browser", zap.String("url", s.targetURL))
	err := chromedp.Cancel(s.ctx)
	s.cancel()
	return err
}

func (s *ChromeEventSource) listen() {
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			var raw string
			if err := chromedp.Run(s.ctx, chromedp.Evaluate(drainScript, &raw)); err != nil {
				if s.ctx.Err() != nil {
					return
				}
				// the page is mid-navigation; the queue is re-created on the new document
				logger.L().Debug("Error draining page events", zap.Error(err))
				continue
			}
			s.dispatch(decodeEvents(raw))
		}
	}
}

type pageEvent struct {
	kind  string
	event Event
}

func (s *ChromeEventSource) dispatch(events []pageEvent) {
	for _, pe := range events {
		s.mu.Lock()
		h := s.handlers[pe.kind]
		if pe.event.PageURL != "" {
			s.lastURL = pe.event.PageURL
		}
		s.mu.Unlock()

		if h != nil {
			h(pe.event)
		}
	}
}

// decodeEvents parses the JSON array produced by drainScript. Entries
// without a usable target are dropped.
func decodeEvents(raw string) []pageEvent {
	var events []pageEvent
	gjson.Parse(raw).ForEach(func(_, v gjson.Result) bool {
		target := dom.ParseSnapshot(v.Get("target"))
		if target == nil {
			return true
		}
		ev := Event{
			Target:  target,
			PageURL: v.Get("pageUrl").String(),
		}
		if ms := v.Get("time").Int(); ms > 0 {
			ev.Time = time.UnixMilli(ms)
		}
		events = append(events, pageEvent{kind: v.Get("kind").String(), event: ev})
		return true
	})
	return events
}

const drainScript = `JSON.stringify(window.__sessionRecorder ? window.__sessionRecorder.drain() : [])`

// captureScript listens in the capturing phase so page handlers that stop
// propagation cannot hide events from the recorder.
const captureScript = `
(function() {
	if (window.__sessionRecorder) return;

	var queue = [];

	function snapshot(el, isTarget) {
		if (!el || el.nodeType !== Node.ELEMENT_NODE) return null;

		var attrs = {};
		['id', 'name', 'class'].forEach(function(k) {
			if (el.hasAttribute(k)) attrs[k] = el.getAttribute(k);
		});

		var preceding = [];
		for (var s = el.previousElementSibling; s; s = s.previousElementSibling) {
			preceding.unshift(s.tagName);
		}

		var snap = { tag: el.tagName, attrs: attrs, preceding: preceding };
		if (isTarget) {
			snap.text = (el.textContent || '').trim().substring(0, 200);
			if (typeof el.value === 'string') snap.value = el.value;
			if (typeof el.href === 'string') snap.href = el.href;
			if (typeof el.type === 'string') snap.type = el.type;
		}
		if (el !== document.body) {
			var parent = snapshot(el.parentElement, false);
			if (parent) snap.parent = parent;
		}
		return snap;
	}

	function capture(kind) {
		return function(event) {
			var target = event.target;
			if (!target || target.nodeType !== Node.ELEMENT_NODE) return;
			queue.push({
				kind: kind,
				target: snapshot(target, true),
				pageUrl: window.location.href,
				time: Date.now()
			});
		};
	}

	['click', 'input', 'change'].forEach(function(kind) {
		document.addEventListener(kind, capture(kind), true);
	});

	window.__sessionRecorder = {
		drain: function() {
			var out = queue;
			queue = [];
			return out;
		}
	};
})();
`
