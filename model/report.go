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

package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GenerateUUIDWithSuffix generates a UUID with a given module name as a
// prefix, for identifiers that should read in logs as what they are.
func GenerateUUIDWithSuffix(module string) string {
	return fmt.Sprintf("%s_%s", module, uuid.New().String())
}

// RowError is a per-row import defect, capped at a small count in summaries
// so a human can correct the source export.
type RowError struct {
	Ref   string `json:"ref"`
	Error string `json:"error"`
}

// ImportSummary is the result of one CSV/XLSX/JSON import. Imports always
// return a summary; row-level defects never abort the batch.
type ImportSummary struct {
	UploadID     string              `json:"upload_id"`
	Imported     int                 `json:"imported"`
	Skipped      int                 `json:"skipped"`
	TotalRows    int                 `json:"total_rows"`
	Errors       []RowError          `json:"errors"`
	HeadersFound []string            `json:"headers_found"`
	HeaderRow    int                 `json:"header_row"`
	RawSample    []map[string]string `json:"raw_sample"`
	Matching     *MatchSummary       `json:"matching,omitempty"`
}

// MatchSummary is the result of one matching run over unmatched chargebacks.
type MatchSummary struct {
	Total          int `json:"total"`
	High           int `json:"high"`
	Medium         int `json:"medium"`
	Low            int `json:"low"`
	StillUnmatched int `json:"still_unmatched"`
}

// OutreachEntry is one logged outreach attempt against a recovery customer.
type OutreachEntry struct {
	ID                 int64     `json:"-"`
	RecoveryCustomerID int64     `json:"recovery_customer_id"`
	Channel            string    `json:"channel"`
	TemplateUsed       string    `json:"template_used"`
	MessagePreview     string    `json:"message_preview"`
	Status             string    `json:"status"`
	CreatedAt          time.Time `json:"created_at"`
}

// StatusCount pairs a recovery status with its pipeline count.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// TierCount pairs a tier with its customer count.
type TierCount struct {
	Tier  string `json:"tier"`
	Count int    `json:"count"`
}

// DashboardStats aggregates pipeline health for the dashboard view.
type DashboardStats struct {
	TotalCustomers     int           `json:"total_customers"`
	TotalChargebacks   int           `json:"total_chargebacks"`
	MatchedChargebacks int           `json:"matched_chargebacks"`
	MatchRate          int           `json:"match_rate"`
	TotalAtRisk        float64       `json:"total_at_risk"`
	RecoveryPipeline   []StatusCount `json:"recovery_pipeline"`
	TierBreakdown      []TierCount   `json:"tier_breakdown"`
	Recovered          int           `json:"recovered"`
	Lost               int           `json:"lost"`
	Pending            int           `json:"pending"`
	RecoveredAmount    float64       `json:"recovered_amount"`
	LostAmount         float64       `json:"lost_amount"`
}
