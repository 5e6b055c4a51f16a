/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package browser implements the engine's DOM adapter on go-rod. Each
// session launches its own Chromium instance so that concurrent comparison
// runs share no browser state.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/friendsincode/tourwatch/internal/scraper"
)

// NewFactory returns a SessionFactory launching Chromium with the given
// headless mode. Headful mode exists for debugging scrape failures locally.
func NewFactory(headless bool) scraper.SessionFactory {
	return func(ctx context.Context, opts scraper.SessionOptions) (scraper.Session, error) {
		return newSession(ctx, headless, opts)
	}
}

// Session owns one Chromium instance and its single page.
type Session struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *page
}

func newSession(ctx context.Context, headless bool, opts scraper.SessionOptions) (*Session, error) {
	l := launcher.New().Headless(headless)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	p, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = b.Close()
		l.Cleanup()
		return nil, fmt.Errorf("open page: %w", err)
	}

	if opts.UserAgent != "" {
		override := &proto.NetworkSetUserAgentOverride{UserAgent: opts.UserAgent}
		if opts.AcceptLanguage != "" {
			override.AcceptLanguage = opts.AcceptLanguage
		}
		if err := p.SetUserAgent(override); err != nil {
			_ = b.Close()
			l.Cleanup()
			return nil, fmt.Errorf("set user agent: %w", err)
		}
	}
	if opts.ViewportWidth > 0 && opts.ViewportHeight > 0 {
		if err := p.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             opts.ViewportWidth,
			Height:            opts.ViewportHeight,
			DeviceScaleFactor: 1,
		}); err != nil {
			_ = b.Close()
			l.Cleanup()
			return nil, fmt.Errorf("set viewport: %w", err)
		}
	}
	if opts.Locale != "" {
		// Best effort; some Chromium builds reject the emulation call.
		_ = proto.EmulationSetLocaleOverride{Locale: opts.Locale}.Call(p)
	}

	return &Session{launcher: l, browser: b, page: &page{p: p}}, nil
}

// Page returns the session's single page handle.
func (s *Session) Page() scraper.Page {
	return s.page
}

// Close tears the browser down and removes its temporary profile.
func (s *Session) Close() error {
	err := s.browser.Close()
	s.launcher.Cleanup()
	return err
}

// page adapts *rod.Page to scraper.Page.
type page struct {
	p *rod.Page
}

func (pg *page) Navigate(ctx context.Context, url string) error {
	p := pg.p.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return p.WaitLoad()
}

func (pg *page) WaitElement(ctx context.Context, selector string, timeout time.Duration) (scraper.Element, error) {
	el, err := pg.p.Context(ctx).Timeout(timeout).Element(selector)
	if err != nil {
		return nil, err
	}
	return &element{el: el}, nil
}

func (pg *page) First(selector string) (scraper.Element, bool, error) {
	has, el, err := pg.p.Has(selector)
	if err != nil {
		return nil, false, err
	}
	if !has {
		return nil, false, nil
	}
	return &element{el: el}, true, nil
}

func (pg *page) All(selector string) ([]scraper.Element, error) {
	els, err := pg.p.Elements(selector)
	if err != nil {
		return nil, err
	}
	out := make([]scraper.Element, 0, len(els))
	for _, el := range els {
		out = append(out, &element{el: el})
	}
	return out, nil
}

func (pg *page) Eval(js string) (string, error) {
	obj, err := pg.p.Eval(js)
	if err != nil {
		return "", err
	}
	if obj == nil || obj.Value.Nil() {
		return "", nil
	}
	return obj.Value.Str(), nil
}

func (pg *page) Settle(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}

func (pg *page) HTML() (string, error) {
	return pg.p.HTML()
}

// element adapts *rod.Element to scraper.Element.
type element struct {
	el *rod.Element
}

func (e *element) Attribute(name string) (string, error) {
	v, err := e.el.Attribute(name)
	if err != nil {
		return "", err
	}
	if v == nil {
		return "", nil
	}
	return *v, nil
}

func (e *element) Text() (string, error) {
	return e.el.Text()
}

func (e *element) Click() error {
	return e.el.Click(proto.InputMouseButtonLeft, 1)
}

func (e *element) ScrollIntoView() error {
	return e.el.ScrollIntoView()
}
