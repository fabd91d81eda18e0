// Package browser drives a real Chrome instance for pages that only render
// their numbers behind JavaScript or a login wall. The session reuses a
// persistent profile directory so cookies survive between runs and a login
// is only needed when the platform expires it.
package browser

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"

	"github.com/hoopmetrics/enrich/internal/auth"
)

// State tracks where the session is in its lifecycle. Transitions are
// linear except for the challenge loop, which bounces between LoggingIn and
// AwaitingManualChallenge.
type State string

const (
	StateIdle                    State = "idle"
	StateBrowserLaunched         State = "browser_launched"
	StateLoggingIn               State = "logging_in"
	StateAwaitingManualChallenge State = "awaiting_manual_challenge"
	StateLoggedIn                State = "logged_in"
	StateScrapingItem            State = "scraping_item"
	StateClosed                  State = "closed"
)

// ConfirmFunc pauses the run until a human has resolved a challenge in the
// visible browser window. Returning an error aborts the login.
type ConfirmFunc func(ctx context.Context) error

// Cooldown bounds after a challenge, before the login is re-checked.
const (
	challengeCooldownMin = 45 * time.Second
	challengeCooldownMax = 120 * time.Second
	maxChallengeRounds   = 3
)

const loginURL = "https://www.instagram.com/accounts/login/"

// Options configures a Session.
type Options struct {
	Headless   bool
	ProfileDir string
	UserAgent  string
	ChromePath string
	NavTimeout time.Duration
	Confirm    ConfirmFunc
}

// Session owns one Chrome instance and its lifecycle.
type Session struct {
	opts        Options
	state       State
	allocCancel context.CancelFunc
	tabCancel   context.CancelFunc
	tabCtx      context.Context
}

// NewSession creates an unlaunched session.
func NewSession(opts Options) *Session {
	if opts.NavTimeout <= 0 {
		opts.NavTimeout = 45 * time.Second
	}
	if opts.Confirm == nil {
		opts.Confirm = terminalConfirm
	}
	return &Session{opts: opts, state: StateIdle}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return s.state
}

// Launch starts Chrome with the persistent profile directory.
func (s *Session) Launch(ctx context.Context) error {
	if s.state != StateIdle {
		return fmt.Errorf("cannot launch from state %s", s.state)
	}

	if s.opts.ProfileDir != "" {
		if err := os.MkdirAll(s.opts.ProfileDir, 0700); err != nil {
			return fmt.Errorf("failed to create profile dir: %w", err)
		}
	}

	chromePath := s.opts.ChromePath
	if chromePath == "" {
		chromePath = FindChrome()
	}

	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("window-size", "1280,900"),
	}
	if s.opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", "new"))
	}
	if s.opts.ProfileDir != "" {
		allocOpts = append(allocOpts, chromedp.UserDataDir(s.opts.ProfileDir))
	}
	if s.opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(s.opts.UserAgent))
	}
	if chromePath != "" {
		allocOpts = append([]chromedp.ExecAllocatorOption{chromedp.ExecPath(chromePath)}, allocOpts...)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	// Starting the browser eagerly surfaces launch failures here instead of
	// on the first navigation.
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	s.allocCancel = allocCancel
	s.tabCancel = tabCancel
	s.tabCtx = tabCtx
	s.state = StateBrowserLaunched

	log.Debug().
		Bool("headless", s.opts.Headless).
		Str("profile_dir", s.opts.ProfileDir).
		Msg("browser launched")
	return nil
}

// Login authenticates the session. With a persistent profile the platform
// often redirects straight past the form, in which case the credentials are
// never typed. A challenge page hands control to the Confirm hook, then
// cools down before re-checking, up to maxChallengeRounds times. Landing
// back on the login form after a submit means the credentials were rejected.
func (s *Session) Login(ctx context.Context, creds *auth.Credentials) error {
	if s.state != StateBrowserLaunched && s.state != StateLoggedIn {
		return fmt.Errorf("cannot log in from state %s", s.state)
	}
	s.state = StateLoggingIn

	finalURL, body, err := s.navigate(ctx, loginURL)
	if err != nil {
		s.state = StateBrowserLaunched
		return fmt.Errorf("failed to open login page: %w", err)
	}

	// Cookie reuse: already authenticated from a previous run.
	if !IsLoginPage(finalURL) && !IsChallenge(body) {
		log.Debug().Msg("existing session still valid, skipping login form")
		s.state = StateLoggedIn
		return nil
	}

	if creds == nil {
		s.state = StateBrowserLaunched
		return fmt.Errorf("login required but no credentials configured")
	}

	if IsLoginPage(finalURL) {
		if err := s.submitLoginForm(ctx, creds); err != nil {
			s.state = StateBrowserLaunched
			return err
		}
	}

	for round := 0; round < maxChallengeRounds; round++ {
		finalURL, body, err = s.currentPage(ctx)
		if err != nil {
			s.state = StateBrowserLaunched
			return fmt.Errorf("failed to read page after login: %w", err)
		}

		if IsChallenge(body) {
			s.state = StateAwaitingManualChallenge
			log.Warn().Int("round", round+1).Msg("challenge page encountered, waiting for manual resolution")
			if err := s.opts.Confirm(ctx); err != nil {
				return fmt.Errorf("challenge not resolved: %w", err)
			}
			if err := s.cooldown(ctx); err != nil {
				return err
			}
			s.state = StateLoggingIn
			continue
		}

		if IsLoginPage(finalURL) {
			s.state = StateBrowserLaunched
			return fmt.Errorf("login rejected: still on login form after submit")
		}

		s.state = StateLoggedIn
		log.Info().Int("cookies", s.cookieCount(ctx)).Msg("login completed")
		return nil
	}

	s.state = StateBrowserLaunched
	return fmt.Errorf("challenge not cleared after %d rounds", maxChallengeRounds)
}

func (s *Session) submitLoginForm(ctx context.Context, creds *auth.Credentials) error {
	runCtx, cancel := context.WithTimeout(s.tabCtx, s.opts.NavTimeout)
	defer cancel()

	err := chromedp.Run(runCtx,
		chromedp.WaitVisible(`input[name="username"]`, chromedp.ByQuery),
		chromedp.SendKeys(`input[name="username"]`, creds.Username, chromedp.ByQuery),
		chromedp.SendKeys(`input[name="password"]`, creds.Password, chromedp.ByQuery),
		chromedp.Click(`button[type="submit"]`, chromedp.ByQuery),
		chromedp.Sleep(5*time.Second),
	)
	if err != nil {
		return fmt.Errorf("failed to submit login form: %w", err)
	}
	return nil
}

func (s *Session) cooldown(ctx context.Context) error {
	spread := int64(challengeCooldownMax - challengeCooldownMin)
	d := challengeCooldownMin + time.Duration(rand.Int63n(spread))
	log.Info().Dur("cooldown", d).Msg("cooling down after challenge")
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Navigate opens a URL and returns the final URL, the visible body text, and
// the rendered HTML.
func (s *Session) Navigate(ctx context.Context, url string) (finalURL, bodyText, html string, err error) {
	if s.state != StateLoggedIn && s.state != StateBrowserLaunched {
		return "", "", "", fmt.Errorf("cannot navigate from state %s", s.state)
	}
	prev := s.state
	s.state = StateScrapingItem
	defer func() { s.state = prev }()

	runCtx, cancel := context.WithTimeout(s.tabCtx, s.opts.NavTimeout)
	defer cancel()

	err = chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(2*time.Second),
		chromedp.Location(&finalURL),
		chromedp.Text("body", &bodyText, chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to render %s: %w", url, err)
	}
	return finalURL, bodyText, html, nil
}

// Screenshot captures the current viewport as PNG bytes.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	runCtx, cancel := context.WithTimeout(s.tabCtx, 15*time.Second)
	defer cancel()

	var buf []byte
	if err := chromedp.Run(runCtx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return buf, nil
}

// navigate is Navigate without the state guard, for internal flows.
func (s *Session) navigate(ctx context.Context, url string) (string, string, error) {
	runCtx, cancel := context.WithTimeout(s.tabCtx, s.opts.NavTimeout)
	defer cancel()

	var finalURL, bodyText string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(2*time.Second),
		chromedp.Location(&finalURL),
		chromedp.Text("body", &bodyText, chromedp.ByQuery),
	)
	if err != nil {
		return "", "", err
	}
	return finalURL, bodyText, nil
}

// cookieCount reports how many cookies the profile now holds. Zero after a
// login that looked successful is worth seeing in the logs.
func (s *Session) cookieCount(ctx context.Context) int {
	runCtx, cancel := context.WithTimeout(s.tabCtx, 10*time.Second)
	defer cancel()

	var cookies []*network.Cookie
	err := chromedp.Run(runCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = network.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		log.Debug().Err(err).Msg("cookie inspection failed")
		return 0
	}
	return len(cookies)
}

func (s *Session) currentPage(ctx context.Context) (string, string, error) {
	runCtx, cancel := context.WithTimeout(s.tabCtx, 15*time.Second)
	defer cancel()

	var finalURL, bodyText string
	err := chromedp.Run(runCtx,
		chromedp.Location(&finalURL),
		chromedp.Text("body", &bodyText, chromedp.ByQuery),
	)
	if err != nil {
		return "", "", err
	}
	return finalURL, bodyText, nil
}

// Close shuts the browser down. Safe to call more than once.
func (s *Session) Close() {
	if s.state == StateClosed {
		return
	}
	if s.tabCancel != nil {
		s.tabCancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
	s.state = StateClosed
	log.Debug().Msg("browser closed")
}

// terminalConfirm blocks on stdin until the operator confirms the challenge
// is solved in the browser window.
func terminalConfirm(ctx context.Context) error {
	fmt.Println("\nA verification challenge is showing in the browser window.")
	fmt.Println("Solve it there, then press Enter here to continue...")

	done := make(chan struct{})
	go func() {
		fmt.Scanln()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
