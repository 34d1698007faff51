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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectHeaderRowZero(t *testing.T) {
	csv := "Case Number,Dispute Amount,Card Last 4\nCB-1,45.00,1234\nCB-2,60.00,5678\n"

	parsed := DetectHeader(csv)

	assert.Equal(t, 0, parsed.HeaderRow)
	assert.Equal(t, []string{"Case Number", "Dispute Amount", "Card Last 4"}, parsed.Headers)
	require.Len(t, parsed.Rows, 2)
	assert.Equal(t, "CB-1", parsed.Rows[0]["Case Number"])
}

func TestDetectHeaderBuriedUnderPreamble(t *testing.T) {
	csv := "Chargeback Report,,\nGenerated for merchant 42,,\n,,\nCase Number,Transaction Date,Dispute Amount\nCB-1,2024-03-15,45.00\n"

	parsed := DetectHeader(csv)

	// Empty lines are dropped before scanning, so the header lands on
	// physical row 2 of the cleaned rows.
	assert.Equal(t, 2, parsed.HeaderRow)
	require.Len(t, parsed.Rows, 1)
	assert.Equal(t, "45.00", parsed.Rows[0]["Dispute Amount"])
}

func TestDetectHeaderFallback(t *testing.T) {
	csv := "alpha,beta,gamma\n1,2,3\n4,5,6\n"

	parsed := DetectHeader(csv)

	assert.Equal(t, -1, parsed.HeaderRow)
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, parsed.Headers)
	assert.Len(t, parsed.Rows, 2)
}

func TestDetectHeaderStripsBOM(t *testing.T) {
	csv := "\uFEFFAmount,Reference,Date\n10,ref-1,2024-01-01\n"

	parsed := DetectHeader(csv)

	assert.Equal(t, 0, parsed.HeaderRow)
	assert.Equal(t, "Amount", parsed.Headers[0])
}

func TestDetectHeaderRaggedRows(t *testing.T) {
	csv := "Amount,Reference,Dispute Date\n10,ref-1\n20,ref-2,2024-01-01,extra\n"

	parsed := DetectHeader(csv)

	require.Len(t, parsed.Rows, 2)
	assert.Equal(t, "", parsed.Rows[0]["Dispute Date"], "missing cells become empty")
	assert.Equal(t, "2024-01-01", parsed.Rows[1]["Dispute Date"])
}

func TestDetectHeaderDropsSingleCellRows(t *testing.T) {
	csv := "Amount,Reference,Dispute Date\nTOTAL\n10,ref-1,2024-01-01\n"

	parsed := DetectHeader(csv)

	require.Len(t, parsed.Rows, 1)
	assert.Equal(t, "ref-1", parsed.Rows[0]["Reference"])
}

func TestDetectHeaderEmptyInput(t *testing.T) {
	parsed := DetectHeader("")
	assert.Equal(t, -1, parsed.HeaderRow)
	assert.Empty(t, parsed.Rows)
}

func TestLooksLikeHeaderRow(t *testing.T) {
	assert.True(t, looksLikeHeaderRow([]string{"Case Number", "Dispute Amount", "Card Last 4"}))
	assert.False(t, looksLikeHeaderRow([]string{"CB-1", "45.00", "1234"}))
	// One cell matching several keywords still counts once.
	assert.False(t, looksLikeHeaderRow([]string{"Transaction Amount Date", "x", "y"}))
}
