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
	"database/sql"
	"encoding/json"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel"

	"github.com/bykiy/reclaim/model"
)

// RecordChargeback inserts a new chargeback. A duplicate natural key
// (processor + chargeback_ref) returns (false, nil) so importers count
// the row as skipped instead of failing the batch.
func (d Datasource) RecordChargeback(ctx context.Context, cb *model.Chargeback) (bool, error) {
	ctx, span := otel.Tracer("Chargeback").Start(ctx, "Saving chargeback to db")
	defer span.End()

	err := d.Conn.QueryRowContext(ctx,
		`INSERT INTO reclaim.chargebacks(
			processor, chargeback_ref, transaction_id, amount, dispute_date,
			transaction_date, customer_name, customer_email, card_last4,
			reason_code, reason_description, processor_status, match_confidence
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`,
		cb.Processor, cb.ChargebackRef, cb.TransactionID, cb.Amount, cb.DisputeDate,
		cb.TransactionDate, cb.CustomerName, cb.CustomerEmail, cb.CardLast4,
		cb.ReasonCode, cb.ReasonDescription, cb.ProcessorStatus, model.ConfidenceNone,
	).Scan(&cb.ID)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

// GetChargebacks retrieves recent chargebacks, newest first, each joined
// with a summary of its matched order when one exists.
func (d Datasource) GetChargebacks(ctx context.Context, limit, offset int) ([]*model.Chargeback, error) {
	ctx, span := otel.Tracer("Chargeback").Start(ctx, "Fetching chargebacks from db")
	defer span.End()

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT c.id, c.processor, c.chargeback_ref, c.transaction_id, c.amount,
			c.dispute_date, c.transaction_date, c.customer_name, c.customer_email,
			c.card_last4, c.reason_code, c.reason_description, c.processor_status,
			c.matched_order_id, c.match_confidence, c.match_method, c.created_at,
			o.order_number, o.line_items
		FROM reclaim.chargebacks c
		LEFT JOIN reclaim.orders o ON c.matched_order_id = o.id
		ORDER BY c.created_at DESC, c.id DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chargebacks []*model.Chargeback

	for rows.Next() {
		cb := &model.Chargeback{}
		var method sql.NullString
		var orderNumber sql.NullString
		var lineItems []byte
		err = rows.Scan(
			&cb.ID, &cb.Processor, &cb.ChargebackRef, &cb.TransactionID, &cb.Amount,
			&cb.DisputeDate, &cb.TransactionDate, &cb.CustomerName, &cb.CustomerEmail,
			&cb.CardLast4, &cb.ReasonCode, &cb.ReasonDescription, &cb.ProcessorStatus,
			&cb.MatchedOrderID, &cb.MatchConfidence, &method, &cb.CreatedAt,
			&orderNumber, &lineItems,
		)
		if err != nil {
			return nil, err
		}
		cb.MatchMethod = model.MatchMethod(method.String)
		if orderNumber.Valid {
			cb.MatchedOrder = &model.MatchedOrderSummary{
				OrderNumber:  orderNumber.String,
				ProductNames: productNames(lineItems),
			}
		}
		chargebacks = append(chargebacks, cb)
	}

	return chargebacks, rows.Err()
}

// GetUnmatchedChargebacks retrieves unmatched chargebacks ordered by id,
// bounded by limit, for one matching run.
func (d Datasource) GetUnmatchedChargebacks(ctx context.Context, limit int) ([]*model.Chargeback, error) {
	ctx, span := otel.Tracer("Chargeback").Start(ctx, "Fetching unmatched chargebacks from db")
	defer span.End()

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT id, processor, chargeback_ref, transaction_id, amount,
			dispute_date, transaction_date, customer_name, customer_email,
			card_last4, reason_code, reason_description, processor_status,
			matched_order_id, match_confidence, created_at
		FROM reclaim.chargebacks
		WHERE matched_order_id IS NULL
		ORDER BY id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chargebacks []*model.Chargeback

	for rows.Next() {
		cb := &model.Chargeback{}
		err = rows.Scan(
			&cb.ID, &cb.Processor, &cb.ChargebackRef, &cb.TransactionID, &cb.Amount,
			&cb.DisputeDate, &cb.TransactionDate, &cb.CustomerName, &cb.CustomerEmail,
			&cb.CardLast4, &cb.ReasonCode, &cb.ReasonDescription, &cb.ProcessorStatus,
			&cb.MatchedOrderID, &cb.MatchConfidence, &cb.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		chargebacks = append(chargebacks, cb)
	}

	return chargebacks, rows.Err()
}

// ApplyMatch links a chargeback to an order. The update is guarded by
// matched_order_id IS NULL; a concurrent run winning the race yields
// (false, nil) and the record keeps its first match.
func (d Datasource) ApplyMatch(ctx context.Context, chargebackID, orderID int64, confidence model.MatchConfidence, method model.MatchMethod) (bool, error) {
	ctx, span := otel.Tracer("Chargeback").Start(ctx, "Applying match to chargeback")
	defer span.End()

	result, err := d.Conn.ExecContext(ctx, `
		UPDATE reclaim.chargebacks
		SET matched_order_id = $2, match_confidence = $3, match_method = $4
		WHERE id = $1 AND matched_order_id IS NULL
	`, chargebackID, orderID, confidence, method)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// productNames pulls non-empty names out of a stored line_items payload.
// Malformed JSON is treated as absent.
func productNames(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	var items []model.LineItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	var names []string
	for _, item := range items {
		if item.Name != "" {
			names = append(names, item.Name)
		}
	}
	return names
}
