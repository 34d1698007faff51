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
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/bykiy/reclaim/model"
)

func TestRecordChargeback_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}
	ctx := context.TODO()
	disputeDate := time.Now()

	cb := &model.Chargeback{
		Processor:     "stripe",
		ChargebackRef: "cb_123",
		TransactionID: "txn_456",
		Amount:        129.99,
		DisputeDate:   &disputeDate,
		CustomerEmail: "jane@example.com",
		CardLast4:     "4242",
	}

	mock.ExpectQuery("INSERT INTO reclaim.chargebacks").
		WithArgs(cb.Processor, cb.ChargebackRef, cb.TransactionID, cb.Amount, cb.DisputeDate,
			cb.TransactionDate, cb.CustomerName, cb.CustomerEmail, cb.CardLast4,
			cb.ReasonCode, cb.ReasonDescription, cb.ProcessorStatus, model.ConfidenceNone).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	inserted, err := ds.RecordChargeback(ctx, cb)
	assert.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, int64(7), cb.ID)
}

func TestRecordChargeback_DuplicateIsSkippedNotError(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}
	ctx := context.TODO()

	cb := &model.Chargeback{Processor: "stripe", ChargebackRef: "cb_123"}

	mock.ExpectQuery("INSERT INTO reclaim.chargebacks").
		WillReturnError(&pq.Error{Code: "23505"})

	inserted, err := ds.RecordChargeback(ctx, cb)
	assert.NoError(t, err)
	assert.False(t, inserted)
}

func TestRecordChargeback_Fail(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}
	ctx := context.TODO()

	mock.ExpectQuery("INSERT INTO reclaim.chargebacks").
		WillReturnError(fmt.Errorf("failed to insert"))

	_, err = ds.RecordChargeback(ctx, &model.Chargeback{})
	assert.Error(t, err)
}

func TestGetUnmatchedChargebacks(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}
	ctx := context.TODO()
	now := time.Now()

	mock.ExpectQuery("SELECT id, processor, chargeback_ref").
		WithArgs(500).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "processor", "chargeback_ref", "transaction_id", "amount",
			"dispute_date", "transaction_date", "customer_name", "customer_email",
			"card_last4", "reason_code", "reason_description", "processor_status",
			"matched_order_id", "match_confidence", "created_at",
		}).AddRow(1, "stripe", "cb_1", "txn_1", 50.00, now, now, "Jane Doe",
			"jane@example.com", "4242", "fraudulent", "", "needs_response",
			nil, "none", now))

	chargebacks, err := ds.GetUnmatchedChargebacks(ctx, 500)
	assert.NoError(t, err)
	assert.Len(t, chargebacks, 1)
	assert.Equal(t, "cb_1", chargebacks[0].ChargebackRef)
	assert.False(t, chargebacks[0].IsMatched())
}

func TestApplyMatch_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}
	ctx := context.TODO()

	mock.ExpectExec("UPDATE reclaim.chargebacks").
		WithArgs(int64(1), int64(42), model.ConfidenceHigh, model.MethodEmailAmount).
		WillReturnResult(sqlmock.NewResult(0, 1))

	applied, err := ds.ApplyMatch(ctx, 1, 42, model.ConfidenceHigh, model.MethodEmailAmount)
	assert.NoError(t, err)
	assert.True(t, applied)
}

func TestApplyMatch_LostRace(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}
	ctx := context.TODO()

	// Another run matched the chargeback first; the guarded update
	// touches zero rows and that is not an error.
	mock.ExpectExec("UPDATE reclaim.chargebacks").
		WithArgs(int64(1), int64(42), model.ConfidenceLow, model.MethodAmountDate).
		WillReturnResult(sqlmock.NewResult(0, 0))

	applied, err := ds.ApplyMatch(ctx, 1, 42, model.ConfidenceLow, model.MethodAmountDate)
	assert.NoError(t, err)
	assert.False(t, applied)
}

func TestGetChargebacks_WithMatchedOrderSummary(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}
	ctx := context.TODO()
	now := time.Now()
	orderID := int64(42)

	mock.ExpectQuery("SELECT c.id, c.processor").
		WithArgs(50, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "processor", "chargeback_ref", "transaction_id", "amount",
			"dispute_date", "transaction_date", "customer_name", "customer_email",
			"card_last4", "reason_code", "reason_description", "processor_status",
			"matched_order_id", "match_confidence", "match_method", "created_at",
			"order_number", "line_items",
		}).AddRow(1, "stripe", "cb_1", "txn_1", 50.00, now, now, "Jane Doe",
			"jane@example.com", "4242", "fraudulent", "", "needs_response",
			orderID, "high", "email+amount", now,
			"1001", []byte(`[{"name":"Widget","qty":1,"price":50}]`)))

	chargebacks, err := ds.GetChargebacks(ctx, 50, 0)
	assert.NoError(t, err)
	assert.Len(t, chargebacks, 1)
	assert.NotNil(t, chargebacks[0].MatchedOrder)
	assert.Equal(t, "1001", chargebacks[0].MatchedOrder.OrderNumber)
	assert.Equal(t, []string{"Widget"}, chargebacks[0].MatchedOrder.ProductNames)
	assert.Equal(t, model.MethodEmailAmount, chargebacks[0].MatchMethod)
}
