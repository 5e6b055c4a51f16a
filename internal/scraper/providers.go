/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package scraper

// operatorUnknown is reported when the page exposes no provider field at all.
const operatorUnknown = "Desconocido"

// ProviderDirectory maps Civitatis provider IDs to operator names. It is
// injected at construction and never mutated at runtime.
type ProviderDirectory map[string]string

// DefaultProviders returns the known provider mappings.
func DefaultProviders() ProviderDirectory {
	return ProviderDirectory{
		"36417": "Enroma",
		"285":   "Tourismotion",
		"6130":  "Vivicos",
		"54973": "Rutasromanas",
	}
}

// Resolve renders an operator label for a provider id. Unmapped ids get a
// synthesized label rather than an error; an empty id means the page never
// exposed the field.
func (d ProviderDirectory) Resolve(id string) string {
	if id == "" {
		return operatorUnknown
	}
	if name, ok := d[id]; ok {
		return name
	}
	return "Provider #" + id
}
