/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package scraper

import (
	"context"
	"time"
)

// Page is the capability surface the engine needs from a live document. A
// Page is serialized mutable state: every navigation, enumeration, and
// resolution step against it must run in strict sequence. Concurrency is
// only permitted across distinct sessions.
type Page interface {
	// Navigate loads url and waits for the document to become interactive.
	Navigate(ctx context.Context, url string) error
	// WaitElement blocks until selector matches or timeout elapses.
	WaitElement(ctx context.Context, selector string, timeout time.Duration) (Element, error)
	// First returns the first match without waiting. ok reports presence.
	First(selector string) (el Element, ok bool, err error)
	// All returns every current match without waiting.
	All(selector string) ([]Element, error)
	// Eval runs a page-side function expression and returns its result
	// rendered as a string, "" for null/undefined.
	Eval(js string) (string, error)
	// Settle pauses to let client-side rendering catch up with the last
	// interaction.
	Settle(d time.Duration)
	// HTML returns the current rendered document.
	HTML() (string, error)
}

// Element is a handle to a matched DOM node.
type Element interface {
	// Attribute returns the attribute value, "" when absent.
	Attribute(name string) (string, error)
	Text() (string, error)
	Click() error
	ScrollIntoView() error
}

// Session owns one isolated browser page for the duration of one comparison
// run. Close must be safe on every exit path.
type Session interface {
	Page() Page
	Close() error
}

// SessionOptions pin the browser fingerprint for a session.
type SessionOptions struct {
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
	Locale         string
	AcceptLanguage string
}

// SessionFactory opens a fresh isolated session. The engine opens exactly
// one session per comparison run and always closes it.
type SessionFactory func(ctx context.Context, opts SessionOptions) (Session, error)
