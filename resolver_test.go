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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveColumn(t *testing.T) {
	row := map[string]string{
		"Dispute Amount": "45.00",
		"Case Number":    "CB-1001",
		"Email":          "",
	}

	assert.Equal(t, "45.00", ResolveColumn(row, []string{"Amount", "Dispute Amount"}))
	assert.Equal(t, "CB-1001", ResolveColumn(row, []string{"case number"}), "comparison is case-insensitive")
	assert.Equal(t, "", ResolveColumn(row, []string{"Email"}), "empty values do not resolve")
	assert.Equal(t, "", ResolveColumn(row, []string{"Reference"}))
}

func TestResolveColumnTrimsHeaderWhitespace(t *testing.T) {
	row := map[string]string{" Amount ": "12.50"}
	assert.Equal(t, "12.50", ResolveColumn(row, []string{"Amount"}))
}

func TestFuzzyResolveColumn(t *testing.T) {
	row := map[string]string{
		"Merchant Reference": "m-1",
		"CB Reference":       "cb-9",
	}

	// "Merchant Reference" contains the keyword but hits an exclusion.
	got := FuzzyResolveColumn(row, []string{"reference"}, []string{"merchant"})
	assert.Equal(t, "cb-9", got)
}

func TestFuzzyResolveColumnNoMatch(t *testing.T) {
	row := map[string]string{"Amount": "10"}
	assert.Equal(t, "", FuzzyResolveColumn(row, []string{"reference"}, nil))
}

func TestFuzzyResolveColumnKeywordOrder(t *testing.T) {
	row := map[string]string{
		"Date Received": "2024-01-01",
		"Date Opened":   "2024-02-01",
	}
	// First keyword with a hit wins, regardless of map order.
	got := FuzzyResolveColumn(row, []string{"opened", "received"}, nil)
	assert.Equal(t, "2024-02-01", got)
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"45.00", 45},
		{"$1,234.56", 1234.56},
		{"€99.90", 99.9},
		{"-12.30", -12.3},
		{"USD 45.00", 45},
		{"", 0},
		{"n/a", 0},
		{"..", 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ParseAmount(tc.in), "input %q", tc.in)
	}
}

func TestCardLast4(t *testing.T) {
	assert.Equal(t, "1234", CardLast4("****1234"))
	assert.Equal(t, "1111", CardLast4("4111 1111 1111 1111"))
	assert.Equal(t, "1234", CardLast4("1234"))
	assert.Equal(t, "", CardLast4("123"))
	assert.Equal(t, "", CardLast4("VISA"))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "jane@shop.com", NormalizeEmail("  Jane@Shop.COM "))
}

func TestParseDate(t *testing.T) {
	got := ParseDate("2024-03-15")
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), *got)

	got = ParseDate("03/15/2024")
	require.NotNil(t, got)
	assert.Equal(t, time.March, got.Month())

	assert.Nil(t, ParseDate(""))
	assert.Nil(t, ParseDate("not a date"))
}
