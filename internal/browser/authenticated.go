// Package browser implements the authenticated extraction strategy: a
// headless Chrome session that logs in before reading the page.
package browser

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/rs/zerolog"

	"github.com/hyperifyio/readinglist/internal/extract"
)

// ErrNoCredentials is returned when a login is required but no account is
// configured.
var ErrNoCredentials = errors.New("browser: no credentials configured")

// Credentials is the account used for the login form.
type Credentials struct {
	User     string
	Password string
}

// Valid reports whether both fields are set.
func (c Credentials) Valid() bool {
	return strings.TrimSpace(c.User) != "" && c.Password != ""
}

// LoginForm locates the elements of the site's login flow.
type LoginForm struct {
	// LinkText is matched against anchor text to open the form.
	LinkText string
	User     string
	Password string
	Submit   string
}

// DefaultLoginForm matches the paywalled publisher of the reading list.
func DefaultLoginForm() LoginForm {
	return LoginForm{
		LinkText: "Log In",
		User:     "#username",
		Password: "#password",
		Submit:   ".login_submit",
	}
}

// Authenticated logs in through a stealth headless page and returns the
// visible text of the page behind the login. Chrome is launched on first
// use and reused until Close.
type Authenticated struct {
	Credentials Credentials
	Form        LoginForm
	// RemoteURL connects to a running Chrome instead of launching one.
	RemoteURL string
	// Timeout bounds one whole extraction. Zero means 60s.
	Timeout time.Duration
	Log     zerolog.Logger

	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
}

// Extract implements extract.Extractor.
func (a *Authenticated) Extract(ctx context.Context, url string) (string, error) {
	if !a.Credentials.Valid() {
		return "", ErrNoCredentials
	}
	b, err := a.connect()
	if err != nil {
		return "", err
	}

	timeout := a.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	page, err := stealth.Page(b)
	if err != nil {
		return "", fmt.Errorf("browser: create page: %w", err)
	}
	defer page.Close()
	p := page.Context(ctx)

	if err := p.Navigate(url); err != nil {
		return "", fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		a.Log.Warn().Err(err).Str("url", url).Msg("wait load")
	}
	if err := a.login(p); err != nil {
		return "", err
	}

	src, err := p.HTML()
	if err != nil {
		return "", fmt.Errorf("browser: page source: %w", err)
	}
	doc, err := extract.VisibleText(strings.NewReader(src), "text/html; charset=utf-8")
	if err != nil {
		return "", err
	}
	a.Log.Debug().Str("url", url).Str("title", doc.Title).Int("chars", len(doc.Text)).Msg("authenticated page extracted")
	return doc.Text, nil
}

func (a *Authenticated) login(p *rod.Page) error {
	form := a.Form
	if form == (LoginForm{}) {
		form = DefaultLoginForm()
	}
	link, err := p.ElementR("a", regexp.QuoteMeta(form.LinkText))
	if err != nil {
		return fmt.Errorf("browser: login link: %w", err)
	}
	if err := link.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("browser: open login: %w", err)
	}
	user, err := p.Element(form.User)
	if err != nil {
		return fmt.Errorf("browser: user field: %w", err)
	}
	if err := user.Input(a.Credentials.User); err != nil {
		return fmt.Errorf("browser: fill user: %w", err)
	}
	pass, err := p.Element(form.Password)
	if err != nil {
		return fmt.Errorf("browser: password field: %w", err)
	}
	if err := pass.Input(a.Credentials.Password); err != nil {
		return fmt.Errorf("browser: fill password: %w", err)
	}
	submit, err := p.Element(form.Submit)
	if err != nil {
		return fmt.Errorf("browser: submit button: %w", err)
	}
	if err := submit.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("browser: submit: %w", err)
	}
	if err := p.WaitLoad(); err != nil {
		a.Log.Warn().Err(err).Msg("wait load after login")
	}
	return nil
}

func (a *Authenticated) connect() (*rod.Browser, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.browser != nil {
		return a.browser, nil
	}

	wsURL := a.RemoteURL
	if wsURL == "" {
		l := launcher.New().Headless(true).Set("disable-blink-features", "AutomationControlled")
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		a.lnch = l
		a.Log.Info().Msg("launched local chrome")
	}
	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		a.cleanupLocked()
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	a.browser = b
	return b, nil
}

// Close shuts the browser down. It is safe to call when nothing was started.
func (a *Authenticated) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	var err error
	if a.browser != nil {
		err = a.browser.Close()
		a.browser = nil
	}
	a.cleanupLocked()
	return err
}

func (a *Authenticated) cleanupLocked() {
	if a.lnch != nil {
		a.lnch.Kill()
		a.lnch.Cleanup()
		a.lnch = nil
	}
}
