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

package database

import (
	"context"

	"go.opentelemetry.io/otel"

	"github.com/bykiy/reclaim/model"
)

// UpsertOrder inserts or updates an order by its natural key. A
// re-imported order number overwrites prior fields (last write wins,
// line_items replaced wholesale). Returns the order's id.
func (d Datasource) UpsertOrder(ctx context.Context, o *model.Order) (int64, error) {
	ctx, span := otel.Tracer("Order").Start(ctx, "Upserting order")
	defer span.End()

	var id int64
	err := d.Conn.QueryRowContext(ctx, `
		INSERT INTO reclaim.orders(
			order_number, order_date, total_amount, currency, financial_status,
			fulfillment_status, customer_email, customer_name, customer_phone,
			payment_reference, card_last4, line_items, shipping_address, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
		ON CONFLICT (order_number) DO UPDATE SET
			order_date = EXCLUDED.order_date,
			total_amount = EXCLUDED.total_amount,
			currency = EXCLUDED.currency,
			financial_status = EXCLUDED.financial_status,
			fulfillment_status = EXCLUDED.fulfillment_status,
			customer_email = EXCLUDED.customer_email,
			customer_name = EXCLUDED.customer_name,
			customer_phone = EXCLUDED.customer_phone,
			payment_reference = EXCLUDED.payment_reference,
			card_last4 = EXCLUDED.card_last4,
			line_items = EXCLUDED.line_items,
			shipping_address = EXCLUDED.shipping_address,
			updated_at = NOW()
		RETURNING id
	`, o.OrderNumber, o.OrderDate, o.TotalAmount, o.Currency, o.FinancialStatus,
		o.FulfillmentStatus, o.CustomerEmail, o.CustomerName, o.CustomerPhone,
		o.PaymentReference, o.CardLast4, o.LineItemsJSON(), o.ShippingAddress,
	).Scan(&id)
	if err != nil {
		return 0, err
	}

	o.ID = id
	return id, nil
}

// GetOrderByID retrieves a single order.
func (d Datasource) GetOrderByID(ctx context.Context, id int64) (*model.Order, error) {
	ctx, span := otel.Tracer("Order").Start(ctx, "Fetching order by ID")
	defer span.End()

	o := &model.Order{}
	var lineItems []byte
	err := d.Conn.QueryRowContext(ctx, `
		SELECT id, order_number, order_date, total_amount, currency,
			financial_status, fulfillment_status, customer_email, customer_name,
			customer_phone, payment_reference, card_last4, line_items,
			shipping_address, created_at, updated_at
		FROM reclaim.orders
		WHERE id = $1
	`, id).Scan(
		&o.ID, &o.OrderNumber, &o.OrderDate, &o.TotalAmount, &o.Currency,
		&o.FinancialStatus, &o.FulfillmentStatus, &o.CustomerEmail, &o.CustomerName,
		&o.CustomerPhone, &o.PaymentReference, &o.CardLast4, &lineItems,
		&o.ShippingAddress, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	o.LineItems = model.ParseLineItems(lineItems)
	return o, nil
}

// GetOrdersForMatching loads the candidate order set for one matching
// run. Only the fields the cascade compares are selected.
func (d Datasource) GetOrdersForMatching(ctx context.Context, limit int) ([]*model.Order, error) {
	ctx, span := otel.Tracer("Order").Start(ctx, "Fetching candidate orders for matching")
	defer span.End()

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT id, order_number, order_date, total_amount, customer_email, card_last4
		FROM reclaim.orders
		ORDER BY id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*model.Order

	for rows.Next() {
		o := &model.Order{}
		err = rows.Scan(&o.ID, &o.OrderNumber, &o.OrderDate, &o.TotalAmount, &o.CustomerEmail, &o.CardLast4)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	return orders, rows.Err()
}

// GetUnfulfilledPaidOrders retrieves paid orders still awaiting full
// fulfillment, the population tier assignment operates on.
func (d Datasource) GetUnfulfilledPaidOrders(ctx context.Context, limit int) ([]*model.Order, error) {
	ctx, span := otel.Tracer("Order").Start(ctx, "Fetching unfulfilled paid orders")
	defer span.End()

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT id, order_number, order_date, total_amount, customer_email,
			customer_name, customer_phone, financial_status, fulfillment_status
		FROM reclaim.orders
		WHERE financial_status = 'paid'
			AND fulfillment_status IN ('unfulfilled', 'partial')
		ORDER BY id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*model.Order

	for rows.Next() {
		o := &model.Order{}
		err = rows.Scan(&o.ID, &o.OrderNumber, &o.OrderDate, &o.TotalAmount, &o.CustomerEmail,
			&o.CustomerName, &o.CustomerPhone, &o.FinancialStatus, &o.FulfillmentStatus)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	return orders, rows.Err()
}
