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
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/bykiy/reclaim/model"
)

// RecoveryExistsForOrder reports whether a recovery entry already exists
// for the order. Tier assignment uses this to keep creation once-only.
func (d Datasource) RecoveryExistsForOrder(ctx context.Context, orderID int64) (bool, error) {
	ctx, span := otel.Tracer("Recovery").Start(ctx, "Checking recovery exists for order")
	defer span.End()

	var exists bool
	err := d.Conn.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM reclaim.recovery_customers WHERE order_id = $1)`,
		orderID,
	).Scan(&exists)
	return exists, err
}

// CreateRecoveryCustomer inserts a new recovery customer and returns its id.
func (d Datasource) CreateRecoveryCustomer(ctx context.Context, rc *model.RecoveryCustomer) (int64, error) {
	ctx, span := otel.Tracer("Recovery").Start(ctx, "Creating recovery customer")
	defer span.End()

	var id int64
	err := d.Conn.QueryRowContext(ctx, `
		INSERT INTO reclaim.recovery_customers(
			order_id, customer_email, customer_name, customer_phone,
			order_amount, order_date, tier, recovery_status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, rc.OrderID, rc.CustomerEmail, rc.CustomerName, rc.CustomerPhone,
		rc.OrderAmount, rc.OrderDate, rc.Tier, rc.RecoveryStatus,
	).Scan(&id)
	if err != nil {
		return 0, err
	}

	rc.ID = id
	return id, nil
}

// RefreshRecoveryCustomer updates the denormalized order/customer fields
// for an existing entry. Tier and recovery_status are deliberately not
// touched; they survive re-imports.
func (d Datasource) RefreshRecoveryCustomer(ctx context.Context, rc *model.RecoveryCustomer) error {
	ctx, span := otel.Tracer("Recovery").Start(ctx, "Refreshing recovery customer")
	defer span.End()

	_, err := d.Conn.ExecContext(ctx, `
		UPDATE reclaim.recovery_customers
		SET customer_email = $2, customer_name = $3, customer_phone = $4,
			order_amount = $5, order_date = $6
		WHERE order_id = $1
	`, rc.OrderID, rc.CustomerEmail, rc.CustomerName, rc.CustomerPhone,
		rc.OrderAmount, rc.OrderDate)

	return err
}

// GetRecoveryCustomers lists recovery customers newest first, joined with
// their order. tier, status and search are optional filters; search does
// a case-insensitive scan over email, name and order number.
func (d Datasource) GetRecoveryCustomers(ctx context.Context, tier, status, search string, limit int) ([]*model.RecoveryCustomer, error) {
	ctx, span := otel.Tracer("Recovery").Start(ctx, "Fetching recovery customers")
	defer span.End()

	query := `
		SELECT rc.id, rc.order_id, rc.customer_email, rc.customer_name,
			rc.customer_phone, rc.order_amount, rc.order_date, rc.tier,
			rc.recovery_status, rc.last_contact_date, rc.last_contact_channel,
			rc.discount_code_sent, rc.response_notes, rc.created_at,
			o.order_number, o.line_items
		FROM reclaim.recovery_customers rc
		JOIN reclaim.orders o ON rc.order_id = o.id`

	var conditions []string
	var args []interface{}

	if tier != "" {
		args = append(args, tier)
		conditions = append(conditions, fmt.Sprintf("rc.tier = $%d", len(args)))
	}
	if status != "" {
		args = append(args, status)
		conditions = append(conditions, fmt.Sprintf("rc.recovery_status = $%d", len(args)))
	}
	if search != "" {
		args = append(args, "%"+search+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf(
			"(rc.customer_email ILIKE $%d OR rc.customer_name ILIKE $%d OR o.order_number ILIKE $%d)", n, n, n))
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY rc.created_at DESC, rc.id DESC LIMIT $%d", len(args))

	rows, err := d.Conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []*model.RecoveryCustomer

	for rows.Next() {
		rc := &model.RecoveryCustomer{}
		var channel, notes, discount sql.NullString
		var lineItems []byte
		err = rows.Scan(
			&rc.ID, &rc.OrderID, &rc.CustomerEmail, &rc.CustomerName,
			&rc.CustomerPhone, &rc.OrderAmount, &rc.OrderDate, &rc.Tier,
			&rc.RecoveryStatus, &rc.LastContactDate, &channel,
			&discount, &notes, &rc.CreatedAt,
			&rc.OrderNumber, &lineItems,
		)
		if err != nil {
			return nil, err
		}
		rc.LastContactChannel = channel.String
		rc.DiscountCodeSent = discount.String
		rc.ResponseNotes = notes.String
		rc.ProductNames = productNames(lineItems)
		customers = append(customers, rc)
	}

	return customers, rows.Err()
}

// GetRecoveryCustomer retrieves a recovery customer by id, joined with
// its order number.
func (d Datasource) GetRecoveryCustomer(ctx context.Context, id int64) (*model.RecoveryCustomer, error) {
	ctx, span := otel.Tracer("Recovery").Start(ctx, "Fetching recovery customer by ID")
	defer span.End()

	rc := &model.RecoveryCustomer{}
	var channel, notes, discount sql.NullString
	err := d.Conn.QueryRowContext(ctx, `
		SELECT rc.id, rc.order_id, rc.customer_email, rc.customer_name,
			rc.customer_phone, rc.order_amount, rc.order_date, rc.tier,
			rc.recovery_status, rc.last_contact_date, rc.last_contact_channel,
			rc.discount_code_sent, rc.response_notes, rc.created_at, o.order_number
		FROM reclaim.recovery_customers rc
		JOIN reclaim.orders o ON rc.order_id = o.id
		WHERE rc.id = $1
	`, id).Scan(
		&rc.ID, &rc.OrderID, &rc.CustomerEmail, &rc.CustomerName,
		&rc.CustomerPhone, &rc.OrderAmount, &rc.OrderDate, &rc.Tier,
		&rc.RecoveryStatus, &rc.LastContactDate, &channel,
		&discount, &notes, &rc.CreatedAt, &rc.OrderNumber,
	)
	if err != nil {
		return nil, err
	}

	rc.LastContactChannel = channel.String
	rc.DiscountCodeSent = discount.String
	rc.ResponseNotes = notes.String
	return rc, nil
}

// UpdateRecoveryStatus moves a recovery customer to a new status.
// Channel and notes are optional; a non-empty channel also stamps
// last_contact_date.
func (d Datasource) UpdateRecoveryStatus(ctx context.Context, id int64, status, channel, notes string) error {
	ctx, span := otel.Tracer("Recovery").Start(ctx, "Updating recovery status")
	defer span.End()

	contactDate := sql.NullTime{Time: time.Now(), Valid: channel != ""}

	result, err := d.Conn.ExecContext(ctx, `
		UPDATE reclaim.recovery_customers
		SET recovery_status = $2,
			last_contact_channel = COALESCE(NULLIF($3, ''), last_contact_channel),
			last_contact_date = COALESCE($4, last_contact_date),
			response_notes = COALESCE(NULLIF($5, ''), response_notes)
		WHERE id = $1
	`, id, status, channel, contactDate, notes)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// MarkDiscountSent records the discount code included in an outreach send.
func (d Datasource) MarkDiscountSent(ctx context.Context, id int64, code string) error {
	ctx, span := otel.Tracer("Recovery").Start(ctx, "Marking discount code sent")
	defer span.End()

	_, err := d.Conn.ExecContext(ctx,
		`UPDATE reclaim.recovery_customers SET discount_code_sent = $2 WHERE id = $1`,
		id, code)
	return err
}
