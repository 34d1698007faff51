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

	"github.com/bykiy/reclaim/model"
)

// IDataSource defines the interface for data source operations, grouping related functionalities.
type IDataSource interface {
	chargeback // Interface for chargeback-related operations
	order      // Interface for order-related operations
	recovery   // Interface for recovery-pipeline operations
	outreach   // Interface for outreach-log operations
	dashboard  // Interface for dashboard aggregate queries
}

// chargeback defines methods for handling chargebacks.
type chargeback interface {
	RecordChargeback(ctx context.Context, cb *model.Chargeback) (bool, error)                                               // Inserts a chargeback; false when the natural key already exists
	GetChargebacks(ctx context.Context, limit, offset int) ([]*model.Chargeback, error)                                     // Retrieves recent chargebacks with matched-order summaries
	GetUnmatchedChargebacks(ctx context.Context, limit int) ([]*model.Chargeback, error)                                    // Retrieves unmatched chargebacks ordered by id
	ApplyMatch(ctx context.Context, chargebackID, orderID int64, confidence model.MatchConfidence, method model.MatchMethod) (bool, error) // Applies a match if the chargeback is still unmatched
}

// order defines methods for handling orders.
type order interface {
	UpsertOrder(ctx context.Context, o *model.Order) (int64, error)                 // Inserts or updates an order by order_number, returns its id
	GetOrderByID(ctx context.Context, id int64) (*model.Order, error)               // Retrieves an order by id
	GetOrdersForMatching(ctx context.Context, limit int) ([]*model.Order, error)    // Retrieves candidate orders for the matching engine
	GetUnfulfilledPaidOrders(ctx context.Context, limit int) ([]*model.Order, error) // Retrieves paid, unfulfilled/partial orders for tier assignment
}

// recovery defines methods for the customer-recovery pipeline.
type recovery interface {
	RecoveryExistsForOrder(ctx context.Context, orderID int64) (bool, error)                                            // Checks whether a recovery entry exists for an order
	CreateRecoveryCustomer(ctx context.Context, rc *model.RecoveryCustomer) (int64, error)                              // Creates a recovery customer, returns its id
	RefreshRecoveryCustomer(ctx context.Context, rc *model.RecoveryCustomer) error                                      // Refreshes denormalized fields without touching tier or status
	GetRecoveryCustomers(ctx context.Context, tier, status, search string, limit int) ([]*model.RecoveryCustomer, error) // Lists recovery customers with optional filters
	GetRecoveryCustomer(ctx context.Context, id int64) (*model.RecoveryCustomer, error)                                 // Retrieves a recovery customer by id
	UpdateRecoveryStatus(ctx context.Context, id int64, status, channel, notes string) error                            // Updates recovery status and contact metadata
	MarkDiscountSent(ctx context.Context, id int64, code string) error                                                  // Records a discount code sent during outreach
}

// outreach defines methods for the outreach log.
type outreach interface {
	RecordOutreach(ctx context.Context, entry *model.OutreachEntry) error                      // Records an outreach attempt
	GetOutreachLog(ctx context.Context, recoveryCustomerID int64) ([]*model.OutreachEntry, error) // Retrieves outreach history for a recovery customer
}

// dashboard defines aggregate queries backing the dashboard.
type dashboard interface {
	GetChargebackStats(ctx context.Context) (total int64, matched int64, atRiskAmount float64, err error) // Chargeback totals and matched counts
	GetRecoveryStatusCounts(ctx context.Context) ([]model.StatusCount, error)                             // Recovery pipeline breakdown by status
	GetRecoveryTierCounts(ctx context.Context) ([]model.TierCount, error)                                 // Recovery pipeline breakdown by tier
	GetRecoveryAmounts(ctx context.Context) (recovered float64, lost float64, err error)                  // Summed recovered and lost order amounts
}
