/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package scraper

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	calendarSelector = `.clndr-table, .clndr, .calendar, [class*="calendar"]`
	dayCellSelector  = ".clndr-table td.day"
	nextButton       = ".clndr-controls .clndr-next-button, .clndr-next-button"
	previousButton   = ".clndr-controls .clndr-previous-button, .clndr-previous-button"
)

// Day cells encode their date in a structured class name.
var dayClassRe = regexp.MustCompile(`calendar-day-(\d{4})-(\d{2})-(\d{2})`)

// selectDate drives the calendar widget to target and clicks its day cell.
// It returns true only on a confirmed click of a non-inactive cell; every
// other path returns false. "Date unavailable" is an expected outcome here,
// not an error, which is why the signal is a boolean.
func (s *Service) selectDate(ctx context.Context, page Page, target time.Time) bool {
	if _, err := page.WaitElement(ctx, calendarSelector, s.delays.CalendarWait); err != nil {
		s.logger.Debug().Err(err).Msg("calendar widget not found")
		return false
	}
	// The widget keeps mutating its DOM after it first becomes queryable.
	page.Settle(s.delays.CalendarRender)

	s.paginateToMonth(page, target)
	page.Settle(s.delays.CalendarSettle)

	dateStr := target.Format("2006-01-02")

	// Fast path: attribute-contains match tolerates surrounding classes.
	if el, ok, err := page.First(fmt.Sprintf(`td[class*="calendar-day-%s"]`, dateStr)); err == nil && ok {
		classes, aerr := el.Attribute("class")
		if aerr == nil && !strings.Contains(classes, "inactive") {
			if el.Click() == nil {
				page.Settle(s.delays.DateClick)
				return true
			}
		}
	}

	// Whitespace variance in the class attribute can defeat the fast-path
	// selector; scan every day cell of the displayed month instead.
	cells, err := page.All(dayCellSelector)
	if err != nil {
		return false
	}
	needle := "calendar-day-" + dateStr
	for _, cell := range cells {
		classes, err := cell.Attribute("class")
		if err != nil {
			continue
		}
		normalized := strings.Join(strings.Fields(classes), " ")
		if !strings.Contains(normalized, needle) {
			continue
		}
		if strings.Contains(normalized, "inactive") {
			// The date exists but has no availability; retrying cannot help.
			return false
		}
		if cell.Click() != nil {
			return false
		}
		page.Settle(s.delays.DateClick)
		return true
	}
	return false
}

// paginateToMonth recovers the displayed year/month from the first
// non-adjacent day cell and clicks the pagination control until the target
// month is shown. Best-effort: if the control disappears mid-navigation the
// day-cell lookup below simply misses.
func (s *Service) paginateToMonth(page Page, target time.Time) {
	first, ok, err := page.First(dayCellSelector + ":not(.adjacent-month)")
	if err != nil || !ok {
		return
	}
	classes, err := first.Attribute("class")
	if err != nil {
		return
	}
	m := dayClassRe.FindStringSubmatch(classes)
	if m == nil {
		return
	}
	calYear, _ := strconv.Atoi(m[1])
	calMonth, _ := strconv.Atoi(m[2])

	diff := (target.Year()-calYear)*12 + int(target.Month()) - calMonth
	if diff == 0 {
		return
	}
	selector := previousButton
	if diff > 0 {
		selector = nextButton
	}
	for i := 0; i < abs(diff); i++ {
		btn, ok, err := page.First(selector)
		if err != nil || !ok {
			return
		}
		if btn.Click() != nil {
			return
		}
		page.Settle(s.delays.CalendarPage)
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
