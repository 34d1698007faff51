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

// Tier is the recency bucket assigned to an unfulfilled paid order,
// driving outreach prioritization. A is the oldest bucket.
type Tier string

const (
	TierA Tier = "A"
	TierB Tier = "B"
	TierC Tier = "C"
	TierD Tier = "D"
)

// RecoveryStatus tracks a customer's position in the outreach pipeline.
// The core defines the legal value set and initial state; transitions are
// driven externally by outreach dispatch and status updates.
type RecoveryStatus string

const (
	StatusNotContacted RecoveryStatus = "not_contacted"
	StatusEmailSent    RecoveryStatus = "email_sent"
	StatusSMSSent      RecoveryStatus = "sms_sent"
	StatusWhatsappSent RecoveryStatus = "whatsapp_sent"
	StatusResponded    RecoveryStatus = "responded"
	StatusChoseShip    RecoveryStatus = "chose_ship"
	StatusChoseRefund  RecoveryStatus = "chose_refund"
	StatusRecovered    RecoveryStatus = "recovered"
	StatusRefunded     RecoveryStatus = "refunded"
	StatusLost         RecoveryStatus = "lost"
)

var recoveryStatuses = map[RecoveryStatus]struct{}{
	StatusNotContacted: {},
	StatusEmailSent:    {},
	StatusSMSSent:      {},
	StatusWhatsappSent: {},
	StatusResponded:    {},
	StatusChoseShip:    {},
	StatusChoseRefund:  {},
	StatusRecovered:    {},
	StatusRefunded:     {},
	StatusLost:         {},
}

// ValidRecoveryStatus reports whether s is in the legal value set.
func ValidRecoveryStatus(s RecoveryStatus) bool {
	_, ok := recoveryStatuses[s]
	return ok
}

// RecoveryCustomer is the outreach-tracking entity derived exactly once
// from an unfulfilled paid order. Tier and status survive re-imports;
// only the denormalized customer fields are refreshed.
type RecoveryCustomer struct {
	ID                 int64          `json:"-"`
	OrderID            int64          `json:"order_id"`
	CustomerEmail      string         `json:"customer_email"`
	CustomerName       string         `json:"customer_name"`
	CustomerPhone      string         `json:"customer_phone"`
	OrderAmount        float64        `json:"order_amount"`
	OrderDate          *time.Time     `json:"order_date"`
	Tier               Tier           `json:"tier"`
	RecoveryStatus     RecoveryStatus `json:"recovery_status"`
	LastContactDate    *time.Time     `json:"last_contact_date"`
	LastContactChannel string         `json:"last_contact_channel"`
	DiscountCodeSent   string         `json:"discount_code_sent"`
	ResponseNotes      string         `json:"response_notes"`
	CreatedAt          time.Time      `json:"created_at"`

	// Joined order fields, populated by list queries only.
	OrderNumber  string   `json:"order_number,omitempty"`
	ProductNames []string `json:"product_names,omitempty"`
}
