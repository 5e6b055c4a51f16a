/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package scraper

import (
	"context"
	"fmt"
	"time"
)

// fakeElement is an in-memory DOM node keyed off the selector that found it.
type fakeElement struct {
	attrs    map[string]string
	text     string
	clickErr error
	onClick  func()
	clicks   int
}

func (e *fakeElement) Attribute(name string) (string, error) { return e.attrs[name], nil }

func (e *fakeElement) Text() (string, error) { return e.text, nil }

func (e *fakeElement) Click() error {
	if e.clickErr != nil {
		return e.clickErr
	}
	e.clicks++
	if e.onClick != nil {
		e.onClick()
	}
	return nil
}

func (e *fakeElement) ScrollIntoView() error { return nil }

// fakePage matches elements by the exact selector string the engine uses.
type fakePage struct {
	elements map[string][]*fakeElement
	html     string
	evalFn   func(js string) (string, error)
	navErr   error
	visited  []string
}

func newFakePage() *fakePage {
	return &fakePage{elements: make(map[string][]*fakeElement)}
}

func (p *fakePage) add(selector string, el *fakeElement) *fakeElement {
	if el.attrs == nil {
		el.attrs = make(map[string]string)
	}
	p.elements[selector] = append(p.elements[selector], el)
	return el
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	p.visited = append(p.visited, url)
	return p.navErr
}

func (p *fakePage) WaitElement(ctx context.Context, selector string, timeout time.Duration) (Element, error) {
	if els := p.elements[selector]; len(els) > 0 {
		return els[0], nil
	}
	return nil, fmt.Errorf("no element matches %s", selector)
}

func (p *fakePage) First(selector string) (Element, bool, error) {
	if els := p.elements[selector]; len(els) > 0 {
		return els[0], true, nil
	}
	return nil, false, nil
}

func (p *fakePage) All(selector string) ([]Element, error) {
	els := p.elements[selector]
	out := make([]Element, len(els))
	for i, el := range els {
		out[i] = el
	}
	return out, nil
}

func (p *fakePage) Eval(js string) (string, error) {
	if p.evalFn != nil {
		return p.evalFn(js)
	}
	return "", nil
}

func (p *fakePage) Settle(time.Duration) {}

func (p *fakePage) HTML() (string, error) { return p.html, nil }

type fakeSession struct {
	page   *fakePage
	closed bool
}

func (s *fakeSession) Page() Page { return s.page }

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

// sessionFor builds a factory that always hands out the same session.
func sessionFor(page *fakePage) (SessionFactory, *fakeSession) {
	sess := &fakeSession{page: page}
	factory := func(ctx context.Context, opts SessionOptions) (Session, error) {
		return sess, nil
	}
	return factory, sess
}

// addCalendar makes the page's calendar show the month of date and exposes a
// clickable day cell for it. Returns the cell for further tweaking.
func (p *fakePage) addCalendar(date string) *fakeElement {
	p.add(calendarSelector, &fakeElement{})
	p.add(dayCellSelector+":not(.adjacent-month)", &fakeElement{
		attrs: map[string]string{"class": "day calendar-day-" + date[:8] + "01"},
	})
	cell := &fakeElement{attrs: map[string]string{"class": "day calendar-day-" + date}}
	p.add(fmt.Sprintf(`td[class*="calendar-day-%s"]`, date), cell)
	p.add(dayCellSelector, cell)
	return cell
}
