/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package scraper implements the Civitatis schedule-extraction engine: it
// drives a live booking page to a target date and reads back, per offered
// time slot, the assigned fulfillment operator and the quoted price.
package scraper

// TimeUnavailable marks a sentinel result that stands in for a whole run
// whose date could not be selected or whose page yielded nothing usable.
const TimeUnavailable = "N/A"

// SlotCandidate is one schedule option discovered on the booking widget.
// Candidates live for a single comparison run and are consumed exactly once
// by the resolver.
type SlotCandidate struct {
	// Time is the displayed HH:MM value. Duplicates are retained: two slots
	// can share a displayed time and still differ by provider.
	Time string
	// Index is the zero-based position within the discovering tier.
	Index int
	// Quota is a human-readable remaining-availability hint, "" when the
	// source control does not expose one.
	Quota string
}

// SlotResult is the externally visible unit of output. A comparison run
// returns results in enumeration order, never sorted.
type SlotResult struct {
	Time       string  `json:"time"`
	Operator   string  `json:"operator"`
	Price      *string `json:"price"`
	Quota      *string `json:"quota"`
	ProviderID string  `json:"provider_id"`
}

// Sentinel builds the single degraded result used when a run cannot produce
// per-slot data. The message lands in the operator field so the persistence
// layer can store it without special-casing failures.
func Sentinel(message string) SlotResult {
	return SlotResult{Time: TimeUnavailable, Operator: message}
}
