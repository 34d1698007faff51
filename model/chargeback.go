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

import "time"

// MatchConfidence is the tiered certainty level produced by the matching cascade.
type MatchConfidence string

const (
	ConfidenceNone   MatchConfidence = "none"
	ConfidenceLow    MatchConfidence = "low"
	ConfidenceMedium MatchConfidence = "medium"
	ConfidenceHigh   MatchConfidence = "high"
)

// MatchMethod records which cascade tier produced a match.
type MatchMethod string

const (
	MethodEmailAmount MatchMethod = "email+amount"
	MethodAmountCard  MatchMethod = "amount+card"
	MethodAmountDate  MatchMethod = "amount+date"
)

// Chargeback is a disputed payment reported by a processor, to be reconciled
// against store orders. Match fields are mutated only by the matching engine.
type Chargeback struct {
	ID                int64           `json:"-"`
	Processor         string          `json:"processor"`
	ChargebackRef     string          `json:"chargeback_ref"`
	TransactionID     string          `json:"transaction_id"`
	Amount            float64         `json:"amount"`
	DisputeDate       *time.Time      `json:"dispute_date"`
	TransactionDate   *time.Time      `json:"transaction_date"`
	CustomerName      string          `json:"customer_name"`
	CustomerEmail     string          `json:"customer_email"`
	CardLast4         string          `json:"card_last4"`
	ReasonCode        string          `json:"reason_code"`
	ReasonDescription string          `json:"reason_description"`
	ProcessorStatus   string          `json:"processor_status"`
	MatchedOrderID    *int64          `json:"matched_order_id"`
	MatchConfidence   MatchConfidence `json:"match_confidence"`
	MatchMethod       MatchMethod     `json:"match_method,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`

	// MatchedOrder is populated by list queries only.
	MatchedOrder *MatchedOrderSummary `json:"matched_order,omitempty"`
}

// MatchedOrderSummary is the joined order snippet attached to chargeback
// listings once a match exists.
type MatchedOrderSummary struct {
	OrderNumber  string   `json:"order_number"`
	ProductNames []string `json:"product_names,omitempty"`
}

// IsMatched reports whether the chargeback has been linked to an order.
func (c *Chargeback) IsMatched() bool {
	return c.MatchedOrderID != nil
}
