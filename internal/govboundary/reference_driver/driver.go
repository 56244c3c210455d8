// Package reference_driver is the ONLY place in this repository allowed
// to import go-rod. The governance core's own Boundary Guard forbids any
// phase from importing go-rod directly (it is in the automation-import
// forbidden list in govboundary) — a calling phase that needs to drive a
// browser must go through this adapter, and every navigate/click it
// performs is routed through a caller-supplied policy check first.
//
// Adapted from codeNERD's internal/browser session manager: the same
// rod.Browser/rod.Page lifecycle, trimmed to the handful of actions the
// governance pipeline needs to gate (navigate, click, get-text), with
// the DOM-ingestion and Mangle-fact plumbing removed.
package reference_driver

import (
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"codenerd/internal/goverrors"
)

// ActionKind enumerates the browser operations this driver will perform.
// Anything not in this closed set cannot be requested.
type ActionKind string

const (
	ActionNavigate ActionKind = "navigate"
	ActionClick    ActionKind = "click"
	ActionGetText  ActionKind = "get_text"
)

// PolicyCheck is invoked before every action; returning an error aborts
// the action before the browser is touched. A caller passes the
// composition of C2/C5/C6/C3 (i.e. the C8 pipeline) as this function.
type PolicyCheck func(kind ActionKind, target string) error

// Driver wraps a single headless rod.Browser instance.
type Driver struct {
	browser *rod.Browser
	timeout time.Duration
}

// Config mirrors the handful of browser knobs the governance pipeline
// actually needs — headless mode and a navigation timeout.
type Config struct {
	Headless        bool
	NavigationTimeout time.Duration
}

// Open launches a detached Chrome instance per cfg.
func Open(cfg Config) (*Driver, error) {
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 30 * time.Second
	}
	l := launcher.New().Headless(cfg.Headless)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, goverrors.New(goverrors.ReasonConfigurationError, "reference_driver: launch chrome: %v", err)
	}
	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, goverrors.New(goverrors.ReasonConfigurationError, "reference_driver: connect: %v", err)
	}
	return &Driver{browser: browser, timeout: cfg.NavigationTimeout}, nil
}

// Close tears down the browser instance.
func (d *Driver) Close() error {
	if d.browser == nil {
		return nil
	}
	return d.browser.Close()
}

// Navigate drives the browser to target after check approves it.
func (d *Driver) Navigate(check PolicyCheck, target string) error {
	if err := check(ActionNavigate, target); err != nil {
		return err
	}
	page, err := d.browser.Page(rod.PageInfo{})
	if err != nil {
		return fmt.Errorf("reference_driver: open page: %w", err)
	}
	defer page.Close()
	return page.Timeout(d.timeout).Navigate(target)
}

// Click drives the browser to click selector on the current page after
// check approves it.
func (d *Driver) Click(check PolicyCheck, page *rod.Page, selector string) error {
	if err := check(ActionClick, selector); err != nil {
		return err
	}
	el, err := page.Timeout(d.timeout).Element(selector)
	if err != nil {
		return fmt.Errorf("reference_driver: locate %q: %w", selector, err)
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

// GetText reads the text content of selector on the current page after
// check approves it.
func (d *Driver) GetText(check PolicyCheck, page *rod.Page, selector string) (string, error) {
	if err := check(ActionGetText, selector); err != nil {
		return "", err
	}
	el, err := page.Timeout(d.timeout).Element(selector)
	if err != nil {
		return "", fmt.Errorf("reference_driver: locate %q: %w", selector, err)
	}
	return el.Text()
}
