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
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

// GenerateMockChargebackCSV produces a realistic processor export for
// demos and import smoke tests.
func GenerateMockChargebackCSV(rows int) string {
	var b strings.Builder
	b.WriteString("Case Number,Dispute Amount,Dispute Date,Transaction Date,Customer Name,Email,Card Last 4,Reason Code,Status\n")

	for i := 0; i < rows; i++ {
		txnDate := gofakeit.DateRange(time.Now().AddDate(-2, 0, 0), time.Now().AddDate(0, -1, 0))
		disputeDate := txnDate.AddDate(0, 0, gofakeit.Number(7, 90))
		fmt.Fprintf(&b, "CB-%d,%.2f,%s,%s,%s,%s,%04d,%s,%s\n",
			gofakeit.Number(100000, 999999),
			gofakeit.Price(20, 500),
			disputeDate.Format("2006-01-02"),
			txnDate.Format("2006-01-02"),
			gofakeit.Name(),
			gofakeit.Email(),
			gofakeit.Number(0, 9999),
			gofakeit.RandomString([]string{"10.4", "13.1", "13.2", "4853", "4837"}),
			gofakeit.RandomString([]string{"open", "under_review", "lost", "won"}),
		)
	}
	return b.String()
}

// GenerateMockOrderCSV produces a store export matching the mock
// chargebacks' shape, one line-item row per order.
func GenerateMockOrderCSV(rows int) string {
	var b strings.Builder
	b.WriteString("Name,Email,Created at,Total,Currency,Financial Status,Fulfillment Status,Billing Name,Lineitem name,Lineitem quantity,Lineitem price\n")

	for i := 0; i < rows; i++ {
		orderDate := gofakeit.DateRange(time.Now().AddDate(-2, 0, 0), time.Now())
		price := gofakeit.Price(20, 500)
		fmt.Fprintf(&b, "#%d,%s,%s,%.2f,USD,paid,unfulfilled,%s,%s,1,%.2f\n",
			gofakeit.Number(1000, 9999),
			gofakeit.Email(),
			orderDate.Format("2006-01-02"),
			price,
			gofakeit.Name(),
			gofakeit.ProductName(),
			price,
		)
	}
	return b.String()
}
