/*
Copyright 2024 Reclaim Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package reclaim

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ResolveColumn finds a value in a normalized row by exact header name.
// Candidate names are tried in order; comparison is case-insensitive and
// trimmed; the first candidate with a non-empty value wins.
func ResolveColumn(row map[string]string, names []string) string {
	keys := sortedKeys(row)
	for _, name := range names {
		for _, k := range keys {
			if strings.EqualFold(strings.TrimSpace(k), name) {
				if v := strings.TrimSpace(row[k]); v != "" {
					return v
				}
			}
		}
	}
	return ""
}

// FuzzyResolveColumn finds a value by substring containment. Keywords
// are tried in order; a header containing any exclusion keyword is
// skipped; the first hit with a non-empty value wins. Callers must try
// ResolveColumn first — exact beats fuzzy.
func FuzzyResolveColumn(row map[string]string, keywords, exclude []string) string {
	keys := sortedKeys(row)
	for _, kw := range keywords {
		kwl := strings.ToLower(kw)
	keyLoop:
		for _, k := range keys {
			kl := strings.ToLower(k)
			if !strings.Contains(kl, kwl) {
				continue
			}
			for _, ex := range exclude {
				if strings.Contains(kl, strings.ToLower(ex)) {
					continue keyLoop
				}
			}
			if v := strings.TrimSpace(row[k]); v != "" {
				return v
			}
		}
	}
	return ""
}

// sortedKeys keeps resolution deterministic regardless of map iteration
// order.
func sortedKeys(row map[string]string) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParseAmount extracts a monetary value from free-form text: currency
// symbols and separators are stripped, leaving digits, '.' and '-'.
// Anything unparseable is 0 — a bad amount is a skip signal, not an
// error.
func ParseAmount(val string) float64 {
	if val == "" {
		return 0
	}
	var b strings.Builder
	for _, r := range val {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	d, err := decimal.NewFromString(b.String())
	if err != nil {
		return 0
	}
	f, _ := d.Float64()
	return f
}

// CardLast4 strips non-digits and keeps the final four. Masked PANs
// like "****1234" and full card numbers both reduce to the same key.
// Fewer than four digits yields "".
func CardLast4(val string) string {
	var digits []rune
	for _, r := range val {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) < 4 {
		return ""
	}
	return string(digits[len(digits)-4:])
}

// NormalizeEmail lowers and trims an email for matching keys.
func NormalizeEmail(val string) string {
	return strings.ToLower(strings.TrimSpace(val))
}

// dateLayouts covers the formats processor and store exports actually
// ship.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006",
	"1/2/2006",
	"02-Jan-2006",
	"Jan 2, 2006",
}

// ParseDate tries the known export layouts in order. Returns nil when
// nothing fits; an unparseable date is treated as absent.
func ParseDate(val string) *time.Time {
	val = strings.TrimSpace(val)
	if val == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, val); err == nil {
			return &t
		}
	}
	return nil
}
