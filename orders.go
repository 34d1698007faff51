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
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"

	"github.com/bykiy/reclaim/model"
)

// maxOrderErrors caps per-row errors in an order import summary.
const maxOrderErrors = 10

// Shopify-style export columns. Order exports repeat the order-level
// fields on every line-item row, so these resolve against the first row
// of each group.
var (
	orderNumberAliases      = []string{"Name", "Order", "order_number"}
	orderDateAliases        = []string{"Created at", "Created At", "order_date", "Date"}
	orderTotalAliases       = []string{"Total", "total_amount", "Total Amount"}
	orderCurrencyAliases    = []string{"Currency", "currency"}
	orderFinancialAliases   = []string{"Financial Status", "financial_status"}
	orderFulfillmentAliases = []string{"Fulfillment Status", "fulfillment_status"}
	orderEmailAliases       = []string{"Email", "Customer Email", "customer_email"}
	orderNameAliases        = []string{"Billing Name", "Shipping Name", "customer_name"}
	orderPhoneAliases       = []string{"Billing Phone", "Shipping Phone", "Phone", "customer_phone"}
	orderPaymentRefAliases  = []string{"Payment Reference", "payment_reference"}
	orderCardAliases        = []string{"Card Last4", "Card Last 4", "card_last4"}
	orderShippingAliases    = []string{"Shipping Address1", "Shipping Street", "shipping_address"}

	lineItemNameAliases  = []string{"Lineitem name", "Lineitem Name", "lineitem_name"}
	lineItemSKUAliases   = []string{"Lineitem sku", "Lineitem SKU", "lineitem_sku"}
	lineItemQtyAliases   = []string{"Lineitem quantity", "Lineitem Quantity", "lineitem_quantity"}
	lineItemPriceAliases = []string{"Lineitem price", "Lineitem Price", "lineitem_price"}
)

// NormalizeOrderNumber strips the display prefix so "#1001" and "1001"
// collapse to the same natural key.
func NormalizeOrderNumber(raw string) string {
	return strings.TrimPrefix(strings.TrimSpace(raw), "#")
}

// aggregateOrders groups detected rows by order number and folds the
// line-item rows of each group into one order. Order-level fields come
// from the group's first row; line items are collected from every row
// that names a product or SKU. First-appearance order is preserved.
func aggregateOrders(parsed ParsedCSV) ([]*model.Order, int) {
	grouped := make(map[string]*model.Order)
	var sequence []string
	skipped := 0

	for _, row := range parsed.Rows {
		number := NormalizeOrderNumber(ResolveColumn(row, orderNumberAliases))
		if number == "" {
			skipped++
			continue
		}

		order, seen := grouped[number]
		if !seen {
			financial := strings.ToLower(ResolveColumn(row, orderFinancialAliases))
			if financial == "" {
				financial = "paid"
			}
			fulfillment := strings.ToLower(ResolveColumn(row, orderFulfillmentAliases))
			if fulfillment == "" {
				fulfillment = "unfulfilled"
			}
			currency := ResolveColumn(row, orderCurrencyAliases)
			if currency == "" {
				currency = "USD"
			}

			order = &model.Order{
				OrderNumber:       number,
				OrderDate:         ParseDate(ResolveColumn(row, orderDateAliases)),
				TotalAmount:       ParseAmount(ResolveColumn(row, orderTotalAliases)),
				Currency:          currency,
				FinancialStatus:   financial,
				FulfillmentStatus: fulfillment,
				CustomerEmail:     NormalizeEmail(ResolveColumn(row, orderEmailAliases)),
				CustomerName:      ResolveColumn(row, orderNameAliases),
				CustomerPhone:     ResolveColumn(row, orderPhoneAliases),
				PaymentReference:  ResolveColumn(row, orderPaymentRefAliases),
				CardLast4:         CardLast4(ResolveColumn(row, orderCardAliases)),
				ShippingAddress:   ResolveColumn(row, orderShippingAliases),
			}
			grouped[number] = order
			sequence = append(sequence, number)
		}

		itemName := ResolveColumn(row, lineItemNameAliases)
		itemSKU := ResolveColumn(row, lineItemSKUAliases)
		if itemName == "" && itemSKU == "" {
			continue
		}
		qty, _ := strconv.Atoi(ResolveColumn(row, lineItemQtyAliases))
		order.LineItems = append(order.LineItems, model.LineItem{
			Name:  itemName,
			SKU:   itemSKU,
			Qty:   qty,
			Price: ParseAmount(ResolveColumn(row, lineItemPriceAliases)),
		})
	}

	orders := make([]*model.Order, 0, len(sequence))
	for _, number := range sequence {
		orders = append(orders, grouped[number])
	}
	return orders, skipped
}

// ImportOrders ingests a store export, upserting each order by its
// order number, then refreshes recovery tiers over the updated set.
func (r *Reclaim) ImportOrders(ctx context.Context, data []byte, filename string) (*model.ImportSummary, error) {
	ctx, span := otel.Tracer("reclaim.ingestion").Start(ctx, "ImportOrders")
	defer span.End()

	text, err := fileToCSVText(data, filename)
	if err != nil {
		return nil, errors.Wrap(err, "reading upload")
	}

	parsed := DetectHeader(text)
	orders, skipped := aggregateOrders(parsed)

	summary := &model.ImportSummary{
		UploadID:     model.GenerateUUIDWithSuffix("upload"),
		TotalRows:    len(parsed.Rows),
		Skipped:      skipped,
		HeadersFound: parsed.Headers,
		HeaderRow:    parsed.HeaderRow,
		RawSample:    sampleRows(parsed.Rows, 3),
	}

	for _, order := range orders {
		if _, err := r.datasource.UpsertOrder(ctx, order); err != nil {
			summary.Skipped++
			if len(summary.Errors) < maxOrderErrors {
				summary.Errors = append(summary.Errors, model.RowError{Ref: order.OrderNumber, Error: err.Error()})
			}
			continue
		}
		summary.Imported++
	}

	if summary.Imported > 0 {
		if err := r.AssignTiers(ctx); err != nil {
			logrus.WithError(err).Warn("post-import tier assignment failed")
		}
	}

	return summary, nil
}
