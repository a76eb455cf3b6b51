// Package browser drives a headless Chrome through chromedp for the
// rendered-browser strategy.
package browser

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/goresolve/internal/strategy"
)

// ErrNoBrowser is returned when no Chrome executable can be located.
var ErrNoBrowser = errors.New("no chrome executable found")

// Options configure browser launches.
type Options struct {
	// ExecPath overrides executable discovery.
	ExecPath  string
	UserAgent string
	NoSandbox bool
	// LaunchTimeout bounds browser start-up. Zero means 15s.
	LaunchTimeout time.Duration
}

// Launcher starts one Chrome process per session.
type Launcher struct {
	Options Options
}

// candidates are probed in order when no ExecPath is configured.
var candidates = []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "headless-shell", "chrome"}

// Locate returns the Chrome executable to use.
func (o Options) Locate() (string, error) {
	if o.ExecPath != "" {
		if p, err := exec.LookPath(o.ExecPath); err == nil {
			return p, nil
		}
		return "", fmt.Errorf("%w: %s", ErrNoBrowser, o.ExecPath)
	}
	for _, name := range candidates {
		if p, err := exec.LookPath(name); err == nil {
			return p, nil
		}
	}
	return "", ErrNoBrowser
}

func (o Options) allocatorOptions(execPath string) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(execPath),
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("mute-audio", true),
	)
	if o.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if o.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(o.UserAgent))
	}
	return opts
}

// Launch starts Chrome and opens a tab. The process lives until Close or
// until ctx is cancelled.
func (l *Launcher) Launch(ctx context.Context) (strategy.BrowserSession, error) {
	execPath, err := l.Options.Locate()
	if err != nil {
		return nil, err
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, l.Options.allocatorOptions(execPath)...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...any) {
		log.Debug().Msgf("chromedp: "+format, args...)
	}))
	s := &Session{ctx: tabCtx, cancelTab: cancelTab, cancelAlloc: cancelAlloc}

	timeout := l.Options.LaunchTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if err := s.start(ctx, timeout); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("start chrome: %w", err)
	}
	log.Debug().Str("exec", execPath).Msg("browser started")
	return s, nil
}

// start runs the first, empty action list on the tab context itself: chromedp
// ties the Chrome process to the context of that first Run. The wait is
// bounded by a timer.
func (s *Session) start(ctx context.Context, timeout time.Duration) error {
	errc := make(chan error, 1)
	go func() { errc <- chromedp.Run(s.ctx) }()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case err := <-errc:
		return err
	case <-timer.C:
		return fmt.Errorf("no response within %s", timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Session is a single Chrome tab.
type Session struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
}

// run executes actions in the tab, bounded by timeout and by the caller's ctx.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	tctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	err := chromedp.Run(tctx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// callTimeout is used when the caller's ctx carries no deadline.
const callTimeout = 30 * time.Second

func deadlineOf(ctx context.Context) time.Duration {
	if d, ok := ctx.Deadline(); ok {
		return time.Until(d)
	}
	return callTimeout
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	return s.run(ctx, deadlineOf(ctx), chromedp.Navigate(url))
}

func (s *Session) Evaluate(ctx context.Context, script string, out any) error {
	return s.run(ctx, deadlineOf(ctx), chromedp.Evaluate(script, out))
}

// Close terminates the tab and the browser process. It is safe to call more
// than once.
func (s *Session) Close() error {
	s.cancelTab()
	s.cancelAlloc()
	return nil
}
