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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel"

	"github.com/bykiy/reclaim/model"
)

// maxChargebackErrors caps the per-row errors carried in an import
// summary. Past that point they stop being actionable.
const maxChargebackErrors = 5

// Chargeback column aliases. Exact names are tried first, in order;
// the fuzzy keywords with their exclusions only run when every exact
// alias misses.
var (
	refAliases = []string{"Reference", "Case", "Case Number", "Case ID", "Dispute ID",
		"Chargeback ID", "CB Reference", "ARN", "Case #", "Chargeback Reference", "CB Ref",
		"CB ID", "Chargeback #", "Acquirer Reference Number", "Chargeback Case Number",
		"Retrieval Reference Number", "RRN"}
	refFuzzy        = []string{"case", "arn", "dispute id", "cb ref", "reference", "retrieval"}
	refFuzzyExclude = []string{"merchant", "amount", "date", "reason", "status", "name", "card", "email"}

	amountAliases = []string{"Amount", "Dispute Amount", "Chargeback Amount", "CB Amount",
		"Transaction Amount", "Txn Amount", "Gross Amount", "Net Amount", "Presentment Amount",
		"Original Amount", "Disputed Amount", "Original Trans Amount", "Case Amount Total",
		"Case Amount"}
	amountFuzzy        = []string{"amount", "amt"}
	amountFuzzyExclude = []string{"date", "code", "reason", "name", "merchant"}

	emailAliases      = []string{"Email", "Customer Email", "Cardholder Email", "Card Holder Email"}
	emailFuzzy        = []string{"email"}
	emailFuzzyExclude = []string{"merchant", "company"}

	nameAliases      = []string{"Customer Name", "Cardholder Name", "Card Holder Name", "Name"}
	nameFuzzy        = []string{"customer", "cardholder", "card holder"}
	nameFuzzyExclude = []string{"email", "phone", "id", "number", "merchant"}

	cardAliases = []string{"Card Last 4", "Last 4", "Card Number", "Cardholder Number",
		"Pan Last 4", "Last Four", "Card No"}
	cardFuzzy        = []string{"last4", "last 4", "card num", "cardholder num", "pan"}
	cardFuzzyExclude = []string{"date", "name"}

	txnAliases = []string{"Transaction ID", "Txn ID", "Transaction Reference", "Auth Code",
		"Authorization Code", "Trans ID", "MID"}
	txnFuzzy        = []string{"transaction id", "txn id", "auth code", "mid"}
	txnFuzzyExclude = []string{"date", "amount"}

	disputeDateAliases = []string{"Dispute Date", "Chargeback Date", "CB Date", "Date Opened",
		"Date Created", "Created Date", "Filed Date", "Date Received", "Received Date"}
	disputeDateFuzzy        = []string{"received", "filed", "opened", "created", "dispute"}
	disputeDateFuzzyExclude = []string{"amount", "code", "reason", "card", "trans"}

	txnDateAliases = []string{"Transaction Date", "Trans Date", "Purchase Date", "Order Date",
		"Original Date", "Sale Date", "Txn Date"}
	txnDateFuzzy        = []string{"trans date", "purchase", "sale date", "txn date", "order date"}
	txnDateFuzzyExclude = []string{"amount", "code", "reason", "card", "received", "dispute"}

	reasonAliases = []string{"Reason Code", "Reason", "CB Reason", "Chargeback Reason",
		"Dispute Reason", "Category"}
	reasonFuzzy        = []string{"reason", "category"}
	reasonFuzzyExclude = []string{"date", "amount", "name"}

	statusAliases      = []string{"Status", "Dispute Status", "Case Status", "Chargeback Status"}
	statusFuzzy        = []string{"status"}
	statusFuzzyExclude = []string{"financial", "fulfillment"}
)

// normalizeChargebacks turns detected CSV rows into chargeback records.
// Rows with no identifying signal (amount <= 0 and no ref, txn id,
// email or card digits) are skipped; a usable row without a reference
// gets a synthesized one so the unique key still holds.
func (r *Reclaim) normalizeChargebacks(parsed ParsedCSV, processor string) ([]*model.Chargeback, int) {
	var records []*model.Chargeback
	skipped := 0

	for _, row := range parsed.Rows {
		cbRef := ResolveColumn(row, refAliases)
		if cbRef == "" {
			cbRef = FuzzyResolveColumn(row, refFuzzy, refFuzzyExclude)
		}

		rawAmt := ResolveColumn(row, amountAliases)
		if rawAmt == "" {
			rawAmt = FuzzyResolveColumn(row, amountFuzzy, amountFuzzyExclude)
		}
		amount := ParseAmount(rawAmt)

		email := ResolveColumn(row, emailAliases)
		if email == "" {
			email = FuzzyResolveColumn(row, emailFuzzy, emailFuzzyExclude)
		}

		name := ResolveColumn(row, nameAliases)
		if name == "" {
			name = FuzzyResolveColumn(row, nameFuzzy, nameFuzzyExclude)
		}

		card := ResolveColumn(row, cardAliases)
		if card == "" {
			card = FuzzyResolveColumn(row, cardFuzzy, cardFuzzyExclude)
		}
		cardLast4 := CardLast4(card)

		txnID := ResolveColumn(row, txnAliases)
		if txnID == "" {
			txnID = FuzzyResolveColumn(row, txnFuzzy, txnFuzzyExclude)
		}

		disputeDate := ResolveColumn(row, disputeDateAliases)
		if disputeDate == "" {
			disputeDate = FuzzyResolveColumn(row, disputeDateFuzzy, disputeDateFuzzyExclude)
		}

		txnDate := ResolveColumn(row, txnDateAliases)
		if txnDate == "" {
			txnDate = FuzzyResolveColumn(row, txnDateFuzzy, txnDateFuzzyExclude)
		}

		reason := ResolveColumn(row, reasonAliases)
		if reason == "" {
			reason = FuzzyResolveColumn(row, reasonFuzzy, reasonFuzzyExclude)
		}

		status := ResolveColumn(row, statusAliases)
		if status == "" {
			status = FuzzyResolveColumn(row, statusFuzzy, statusFuzzyExclude)
		}

		if amount <= 0 && cbRef == "" && txnID == "" && email == "" && cardLast4 == "" {
			skipped++
			continue
		}

		if cbRef == "" {
			cbRef = r.synthesizeRef()
		}

		records = append(records, &model.Chargeback{
			Processor:       processor,
			ChargebackRef:   cbRef,
			TransactionID:   txnID,
			Amount:          amount,
			DisputeDate:     ParseDate(disputeDate),
			TransactionDate: ParseDate(txnDate),
			CustomerName:    name,
			CustomerEmail:   NormalizeEmail(email),
			CardLast4:       cardLast4,
			ReasonCode:      reason,
			ProcessorStatus: status,
			MatchConfidence: model.ConfidenceNone,
		})
	}

	return records, skipped
}

// synthesizeRef builds a reference for rows that carry an amount or
// customer signal but no usable identifier. Counter plus timestamp
// keeps it unique within and across imports.
func (r *Reclaim) synthesizeRef() string {
	return fmt.Sprintf("synth_%d_%d", r.refCounter.Add(1), time.Now().UnixNano())
}

// ImportChargebacks ingests a processor export and persists the
// normalized chargebacks. Imports always return a summary; row defects
// are counted, never thrown. When anything was imported a matching run
// is triggered and its result attached.
func (r *Reclaim) ImportChargebacks(ctx context.Context, data []byte, filename, processor string) (*model.ImportSummary, error) {
	ctx, span := otel.Tracer("reclaim.ingestion").Start(ctx, "ImportChargebacks")
	defer span.End()

	if processor == "" {
		processor = "unknown"
	}

	text, err := fileToCSVText(data, filename)
	if err != nil {
		return nil, errors.Wrap(err, "reading upload")
	}

	parsed := DetectHeader(text)
	records, skipped := r.normalizeChargebacks(parsed, processor)

	summary := &model.ImportSummary{
		UploadID:     model.GenerateUUIDWithSuffix("upload"),
		TotalRows:    len(parsed.Rows),
		Skipped:      skipped,
		HeadersFound: parsed.Headers,
		HeaderRow:    parsed.HeaderRow,
		RawSample:    sampleRows(parsed.Rows, 3),
	}

	for _, cb := range records {
		inserted, err := r.datasource.RecordChargeback(ctx, cb)
		if err != nil {
			summary.Skipped++
			if len(summary.Errors) < maxChargebackErrors {
				summary.Errors = append(summary.Errors, model.RowError{Ref: cb.ChargebackRef, Error: err.Error()})
			}
			continue
		}
		if !inserted {
			// Duplicate natural key; re-imports are expected.
			summary.Skipped++
			continue
		}
		summary.Imported++
	}

	if summary.Imported > 0 {
		matching, err := r.RunMatching(ctx)
		if err != nil {
			logrus.WithError(err).Warn("post-import matching run failed")
		} else {
			summary.Matching = matching
		}
	}

	return summary, nil
}

// sampleRows keeps the first n rows for the summary so a human can eyeball
// what the resolver saw.
func sampleRows(rows []map[string]string, n int) []map[string]string {
	if len(rows) <= n {
		return rows
	}
	return rows[:n]
}

// fileToCSVText converts an upload to CSV text. CSV and JSON pass
// through; XLSX sheets are flattened to comma-joined rows first.
func fileToCSVText(data []byte, filename string) (string, error) {
	switch detectFileType(data, filename) {
	case "xlsx":
		return xlsxToCSV(data)
	case "json":
		return jsonToCSV(data)
	default:
		return string(data), nil
	}
}

// detectFileType sniffs by extension first, then content. XLSX files
// are zip containers (PK magic); JSON uploads start with an array or
// object.
func detectFileType(data []byte, filename string) string {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".xlsx"):
		return "xlsx"
	case strings.HasSuffix(lower, ".json"):
		return "json"
	case strings.HasSuffix(lower, ".csv"), strings.HasSuffix(lower, ".txt"):
		return "csv"
	}

	trimmed := bytes.TrimLeft(data, " \t\r\n\xef\xbb\xbf")
	switch {
	case bytes.HasPrefix(data, []byte("PK")):
		return "xlsx"
	case len(trimmed) > 0 && (trimmed[0] == '[' || trimmed[0] == '{'):
		return "json"
	default:
		return "csv"
	}
}

// xlsxToCSV flattens the first sheet of a workbook into CSV text.
func xlsxToCSV(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", errors.Wrap(err, "opening xlsx")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", errors.New("xlsx has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return "", errors.Wrap(err, "reading xlsx rows")
	}

	var b strings.Builder
	for _, row := range rows {
		for i, cell := range row {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(csvEscape(cell))
		}
		b.WriteByte('\n')
	}
	return b.String(), nil
}

func csvEscape(cell string) string {
	if strings.ContainsAny(cell, ",\"\n") {
		return `"` + strings.ReplaceAll(cell, `"`, `""`) + `"`
	}
	return cell
}

// jsonToCSV converts an uploaded array of flat objects into CSV text,
// using the union of keys from the first object as the header.
func jsonToCSV(data []byte) (string, error) {
	var rows []map[string]interface{}
	if err := json.Unmarshal(data, &rows); err != nil {
		return "", errors.Wrap(err, "parsing json upload")
	}
	if len(rows) == 0 {
		return "", nil
	}

	headers := make([]string, 0, len(rows[0]))
	for k := range rows[0] {
		headers = append(headers, k)
	}

	var b strings.Builder
	for i, h := range headers {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(csvEscape(h))
	}
	b.WriteByte('\n')

	for _, row := range rows {
		for i, h := range headers {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(csvEscape(fmt.Sprintf("%v", row[h])))
		}
		b.WriteByte('\n')
	}
	return b.String(), nil
}
