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
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/bykiy/reclaim/model"
)

func TestRecoveryExistsForOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}
	ctx := context.TODO()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := ds.RecoveryExistsForOrder(ctx, 11)
	assert.NoError(t, err)
	assert.True(t, exists)
}

func TestCreateRecoveryCustomer(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}
	ctx := context.TODO()
	orderDate := time.Now()

	rc := &model.RecoveryCustomer{
		OrderID:        11,
		CustomerEmail:  "jane@example.com",
		CustomerName:   "Jane Doe",
		OrderAmount:    89.50,
		OrderDate:      &orderDate,
		Tier:           model.TierB,
		RecoveryStatus: model.StatusNotContacted,
	}

	mock.ExpectQuery("INSERT INTO reclaim.recovery_customers").
		WithArgs(rc.OrderID, rc.CustomerEmail, rc.CustomerName, rc.CustomerPhone,
			rc.OrderAmount, rc.OrderDate, rc.Tier, rc.RecoveryStatus).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))

	id, err := ds.CreateRecoveryCustomer(ctx, rc)
	assert.NoError(t, err)
	assert.Equal(t, int64(5), id)
}

func TestRefreshRecoveryCustomer_DoesNotTouchTierOrStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}
	ctx := context.TODO()
	orderDate := time.Now()

	rc := &model.RecoveryCustomer{
		OrderID:       11,
		CustomerEmail: "jane.new@example.com",
		CustomerName:  "Jane Doe",
		OrderAmount:   99.00,
		OrderDate:     &orderDate,
	}

	// The UPDATE carries only denormalized fields; tier and
	// recovery_status are not in the statement at all.
	mock.ExpectExec(`SET customer_email = \$2, customer_name = \$3, customer_phone = \$4,\s+order_amount = \$5, order_date = \$6`).
		WithArgs(rc.OrderID, rc.CustomerEmail, rc.CustomerName, rc.CustomerPhone,
			rc.OrderAmount, rc.OrderDate).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = ds.RefreshRecoveryCustomer(ctx, rc)
	assert.NoError(t, err)
}

func TestGetRecoveryCustomers_Filters(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}
	ctx := context.TODO()
	now := time.Now()

	rows := sqlmock.NewRows([]string{
		"id", "order_id", "customer_email", "customer_name", "customer_phone",
		"order_amount", "order_date", "tier", "recovery_status",
		"last_contact_date", "last_contact_channel", "discount_code_sent",
		"response_notes", "created_at", "order_number", "line_items",
	}).AddRow(5, 11, "jane@example.com", "Jane Doe", "", 89.50, now, "B",
		"not_contacted", nil, nil, nil, nil, now, "1001",
		[]byte(`[{"name":"Widget","qty":1,"price":89.5}]`))

	mock.ExpectQuery("FROM reclaim.recovery_customers rc").
		WithArgs("B", "not_contacted", 100).
		WillReturnRows(rows)

	customers, err := ds.GetRecoveryCustomers(ctx, "B", "not_contacted", "", 100)
	assert.NoError(t, err)
	assert.Len(t, customers, 1)
	assert.Equal(t, "1001", customers[0].OrderNumber)
	assert.Equal(t, []string{"Widget"}, customers[0].ProductNames)
	assert.Equal(t, model.TierB, customers[0].Tier)
}

func TestUpdateRecoveryStatus_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}
	ctx := context.TODO()

	mock.ExpectExec("UPDATE reclaim.recovery_customers").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = ds.UpdateRecoveryStatus(ctx, 999, "responded", "", "")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestUpdateRecoveryStatus_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}
	ctx := context.TODO()

	mock.ExpectExec("UPDATE reclaim.recovery_customers").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = ds.UpdateRecoveryStatus(ctx, 5, "email_sent", "email", "sent apology template")
	assert.NoError(t, err)
}

func TestRecordAndFetchOutreachLog(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}
	ctx := context.TODO()
	now := time.Now()

	entry := &model.OutreachEntry{
		RecoveryCustomerID: 5,
		Channel:            "email",
		TemplateUsed:       "apology",
		MessagePreview:     "Hi Jane, we owe you an apology...",
		Status:             "sent",
	}

	mock.ExpectExec("INSERT INTO reclaim.outreach_log").
		WithArgs(entry.RecoveryCustomerID, entry.Channel, entry.TemplateUsed,
			entry.MessagePreview, entry.Status).
		WillReturnResult(sqlmock.NewResult(1, 1))

	assert.NoError(t, ds.RecordOutreach(ctx, entry))

	mock.ExpectQuery("FROM reclaim.outreach_log").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "recovery_customer_id", "channel", "template_used",
			"message_preview", "status", "created_at",
		}).AddRow(1, 5, "email", "apology", "Hi Jane...", "sent", now))

	entries, err := ds.GetOutreachLog(ctx, 5)
	assert.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, "apology", entries[0].TemplateUsed)
}

func TestGetChargebackStats(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}
	ctx := context.TODO()

	mock.ExpectQuery("FROM reclaim.chargebacks").
		WillReturnRows(sqlmock.NewRows([]string{"count", "matched", "at_risk"}).
			AddRow(10, 7, 450.25))

	total, matched, atRisk, err := ds.GetChargebackStats(ctx)
	assert.NoError(t, err)
	assert.Equal(t, int64(10), total)
	assert.Equal(t, int64(7), matched)
	assert.Equal(t, 450.25, atRisk)
}

func TestGetRecoveryStatusCounts(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}
	ctx := context.TODO()

	mock.ExpectQuery("GROUP BY recovery_status").
		WillReturnRows(sqlmock.NewRows([]string{"recovery_status", "count"}).
			AddRow("not_contacted", 4).
			AddRow("recovered", 2))

	counts, err := ds.GetRecoveryStatusCounts(ctx)
	assert.NoError(t, err)
	assert.Len(t, counts, 2)
	assert.Equal(t, "not_contacted", counts[0].Status)
	assert.Equal(t, 4, counts[0].Count)
}
