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
	"encoding/csv"
	"strings"
)

// headerKeywords is the domain vocabulary used to recognize a header
// row inside processor exports that bury it under report preambles.
var headerKeywords = []string{
	"amount", "transaction", "card", "date", "case", "arn", "reason", "dispute",
	"chargeback", "reference", "merchant", "mid", "status", "customer", "email",
	"phone", "order", "acquirer", "issuer", "bin", "pan", "presentment",
	"settlement", "currency", "authorization", "refund", "credit", "debit",
	"fee", "network", "visa", "mastercard", "processor", "cardholder",
	"trans", "received", "original",
}

// looksLikeHeaderRow reports whether at least three cells contain a
// domain keyword. Each cell contributes at most one hit.
func looksLikeHeaderRow(values []string) bool {
	matches := 0
	for _, v := range values {
		vl := strings.ToLower(strings.TrimSpace(v))
		for _, kw := range headerKeywords {
			if strings.Contains(vl, kw) {
				matches++
				break
			}
		}
	}
	return matches >= 3
}

// ParsedCSV is the result of header detection: rows keyed by the
// detected headers, plus which physical row the header came from.
// HeaderRow is -1 when no plausible header was found and row 0 was used
// naively.
type ParsedCSV struct {
	Rows      []map[string]string
	Headers   []string
	HeaderRow int
}

// DetectHeader parses CSV text and locates the real header row. Row 0
// is accepted when it carries enough domain keywords; otherwise the
// first 30 rows are scanned for a row with at least 3 cells and enough
// hits, and later rows are mapped positionally onto it (missing cells
// become ""). When nothing qualifies the naive row-0 parse is returned
// with HeaderRow = -1.
func DetectHeader(text string) ParsedCSV {
	text = strings.TrimPrefix(text, "\uFEFF")

	raw := readCSVRows(text)
	if len(raw) == 0 {
		return ParsedCSV{HeaderRow: -1}
	}

	headers := trimAll(raw[0])
	if looksLikeHeaderRow(headers) {
		return ParsedCSV{
			Rows:      mapRows(headers, raw[1:]),
			Headers:   headers,
			HeaderRow: 0,
		}
	}

	limit := len(raw)
	if limit > 30 {
		limit = 30
	}
	for i := 0; i < limit; i++ {
		row := raw[i]
		if len(row) < 3 {
			continue
		}
		if looksLikeHeaderRow(row) {
			realHeaders := trimAll(row)
			return ParsedCSV{
				Rows:      mapRows(realHeaders, raw[i+1:]),
				Headers:   realHeaders,
				HeaderRow: i,
			}
		}
	}

	// Nothing qualified; fall back to treating row 0 as the header.
	return ParsedCSV{
		Rows:      mapRows(headers, raw[1:]),
		Headers:   headers,
		HeaderRow: -1,
	}
}

// readCSVRows reads tolerant CSV: ragged rows allowed, quotes lazy,
// empty lines skipped.
func readCSVRows(text string) [][]string {
	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if err != nil {
			break
		}
		if isEmptyRow(record) {
			continue
		}
		rows = append(rows, record)
	}
	return rows
}

func isEmptyRow(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func trimAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.TrimSpace(v)
	}
	return out
}

// mapRows maps data rows positionally onto the headers. Rows with fewer
// than two cells are dropped; missing cells become "".
func mapRows(headers []string, data [][]string) []map[string]string {
	var rows []map[string]string
	for _, record := range data {
		if len(record) < 2 {
			continue
		}
		row := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(record) {
				row[h] = strings.TrimSpace(record[i])
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows
}
