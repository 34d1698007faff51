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
	"encoding/json"
	"time"
)

// LineItem is a single product row inside an order export.
type LineItem struct {
	Name  string  `json:"name"`
	SKU   string  `json:"sku,omitempty"`
	Qty   int     `json:"qty"`
	Price float64 `json:"price"`
}

// Order is a store order upserted by natural key (order_number).
// Re-importing the same order number overwrites prior fields.
type Order struct {
	ID                int64      `json:"-"`
	OrderNumber       string     `json:"order_number"`
	OrderDate         *time.Time `json:"order_date"`
	TotalAmount       float64    `json:"total_amount"`
	Currency          string     `json:"currency"`
	FinancialStatus   string     `json:"financial_status"`
	FulfillmentStatus string     `json:"fulfillment_status"`
	CustomerEmail     string     `json:"customer_email"`
	CustomerName      string     `json:"customer_name"`
	CustomerPhone     string     `json:"customer_phone"`
	PaymentReference  string     `json:"payment_reference"`
	CardLast4         string     `json:"card_last4"`
	LineItems         []LineItem `json:"line_items,omitempty"`
	ShippingAddress   string     `json:"shipping_address"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// ParseLineItems decodes a stored line-item payload. Malformed JSON yields
// nil so a bad payload is treated as absent rather than propagated.
func ParseLineItems(raw []byte) []LineItem {
	if len(raw) == 0 {
		return nil
	}
	var items []LineItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	return items
}

// LineItemsJSON serializes line items for storage. An order without line
// items stores NULL, never an empty array.
func (o *Order) LineItemsJSON() []byte {
	if len(o.LineItems) == 0 {
		return nil
	}
	raw, err := json.Marshal(o.LineItems)
	if err != nil {
		return nil
	}
	return raw
}

// ProductNames returns the non-empty line item names, used to enrich
// chargeback and recovery listings.
func (o *Order) ProductNames() []string {
	var names []string
	for _, item := range o.LineItems {
		if item.Name != "" {
			names = append(names, item.Name)
		}
	}
	return names
}
