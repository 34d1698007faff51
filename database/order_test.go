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
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/bykiy/reclaim/model"
)

func TestUpsertOrder_InsertsByNaturalKey(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}
	ctx := context.TODO()
	orderDate := time.Now()

	o := &model.Order{
		OrderNumber:       "1001",
		OrderDate:         &orderDate,
		TotalAmount:       89.50,
		Currency:          "USD",
		FinancialStatus:   "paid",
		FulfillmentStatus: "unfulfilled",
		CustomerEmail:     "jane@example.com",
		CustomerName:      "Jane Doe",
		LineItems:         []model.LineItem{{Name: "Widget", Qty: 2, Price: 44.75}},
	}

	mock.ExpectQuery("INSERT INTO reclaim.orders").
		WithArgs(o.OrderNumber, o.OrderDate, o.TotalAmount, o.Currency, o.FinancialStatus,
			o.FulfillmentStatus, o.CustomerEmail, o.CustomerName, o.CustomerPhone,
			o.PaymentReference, o.CardLast4, o.LineItemsJSON(), o.ShippingAddress).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

	id, err := ds.UpsertOrder(ctx, o)
	assert.NoError(t, err)
	assert.Equal(t, int64(11), id)
	assert.Equal(t, int64(11), o.ID)
}

func TestUpsertOrder_ReimportKeepsSameID(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}
	ctx := context.TODO()

	o := &model.Order{OrderNumber: "1001", TotalAmount: 99.00}

	// The conflict path returns the existing row's id.
	mock.ExpectQuery("INSERT INTO reclaim.orders").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectQuery("INSERT INTO reclaim.orders").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

	first, err := ds.UpsertOrder(ctx, o)
	assert.NoError(t, err)
	second, err := ds.UpsertOrder(ctx, o)
	assert.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGetOrdersForMatching(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}
	ctx := context.TODO()
	now := time.Now()

	mock.ExpectQuery("SELECT id, order_number, order_date, total_amount, customer_email, card_last4").
		WithArgs(5000).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "order_number", "order_date", "total_amount", "customer_email", "card_last4",
		}).
			AddRow(1, "1001", now, 50.00, "jane@example.com", "4242").
			AddRow(2, "1002", nil, 75.25, "", ""))

	orders, err := ds.GetOrdersForMatching(ctx, 5000)
	assert.NoError(t, err)
	assert.Len(t, orders, 2)
	assert.Equal(t, "1001", orders[0].OrderNumber)
	assert.Nil(t, orders[1].OrderDate)
}

func TestGetUnfulfilledPaidOrders(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}
	ctx := context.TODO()
	now := time.Now()

	mock.ExpectQuery("SELECT id, order_number, order_date, total_amount, customer_email").
		WithArgs(5000).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "order_number", "order_date", "total_amount", "customer_email",
			"customer_name", "customer_phone", "financial_status", "fulfillment_status",
		}).AddRow(3, "1003", now, 120.00, "sam@example.com", "Sam Lee", "", "paid", "partial"))

	orders, err := ds.GetUnfulfilledPaidOrders(ctx, 5000)
	assert.NoError(t, err)
	assert.Len(t, orders, 1)
	assert.Equal(t, "partial", orders[0].FulfillmentStatus)
}

func TestGetOrderByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}
	ctx := context.TODO()
	now := time.Now()

	mock.ExpectQuery("SELECT id, order_number, order_date, total_amount, currency").
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "order_number", "order_date", "total_amount", "currency",
			"financial_status", "fulfillment_status", "customer_email", "customer_name",
			"customer_phone", "payment_reference", "card_last4", "line_items",
			"shipping_address", "created_at", "updated_at",
		}).AddRow(11, "1001", now, 89.50, "USD", "paid", "unfulfilled",
			"jane@example.com", "Jane Doe", "", "", "4242",
			[]byte(`[{"name":"Widget","qty":2,"price":44.75}]`), "", now, now))

	o, err := ds.GetOrderByID(ctx, 11)
	assert.NoError(t, err)
	assert.Equal(t, "1001", o.OrderNumber)
	assert.Len(t, o.LineItems, 1)
	assert.Equal(t, "Widget", o.LineItems[0].Name)
}

func TestGetOrderByID_MalformedLineItemsTreatedAsAbsent(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}
	ctx := context.TODO()
	now := time.Now()

	mock.ExpectQuery("SELECT id, order_number, order_date, total_amount, currency").
		WithArgs(int64(12)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "order_number", "order_date", "total_amount", "currency",
			"financial_status", "fulfillment_status", "customer_email", "customer_name",
			"customer_phone", "payment_reference", "card_last4", "line_items",
			"shipping_address", "created_at", "updated_at",
		}).AddRow(12, "1002", now, 10.00, "USD", "paid", "fulfilled",
			"", "", "", "", "", []byte(`{broken`), "", now, now))

	o, err := ds.GetOrderByID(ctx, 12)
	assert.NoError(t, err)
	assert.Nil(t, o.LineItems)
}
