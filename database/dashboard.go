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

// GetChargebackStats returns chargeback totals for the dashboard: the
// overall count, how many are matched, and the summed amount of
// unmatched (at-risk) disputes.
func (d Datasource) GetChargebackStats(ctx context.Context) (int64, int64, float64, error) {
	ctx, span := otel.Tracer("Dashboard").Start(ctx, "Fetching chargeback stats")
	defer span.End()

	var total, matched int64
	var atRisk float64
	err := d.Conn.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COUNT(matched_order_id),
			COALESCE(SUM(amount) FILTER (WHERE matched_order_id IS NULL), 0)
		FROM reclaim.chargebacks
	`).Scan(&total, &matched, &atRisk)
	if err != nil {
		return 0, 0, 0, err
	}

	return total, matched, atRisk, nil
}

// GetRecoveryStatusCounts returns the recovery pipeline grouped by status.
func (d Datasource) GetRecoveryStatusCounts(ctx context.Context) ([]model.StatusCount, error) {
	ctx, span := otel.Tracer("Dashboard").Start(ctx, "Fetching recovery status counts")
	defer span.End()

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT recovery_status, COUNT(*)
		FROM reclaim.recovery_customers
		GROUP BY recovery_status
		ORDER BY recovery_status
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []model.StatusCount

	for rows.Next() {
		var sc model.StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, sc)
	}

	return counts, rows.Err()
}

// GetRecoveryTierCounts returns the recovery pipeline grouped by tier.
func (d Datasource) GetRecoveryTierCounts(ctx context.Context) ([]model.TierCount, error) {
	ctx, span := otel.Tracer("Dashboard").Start(ctx, "Fetching recovery tier counts")
	defer span.End()

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT tier, COUNT(*)
		FROM reclaim.recovery_customers
		GROUP BY tier
		ORDER BY tier
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []model.TierCount

	for rows.Next() {
		var tc model.TierCount
		if err := rows.Scan(&tc.Tier, &tc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, tc)
	}

	return counts, rows.Err()
}

// GetRecoveryAmounts returns the summed order amounts for recovered and
// lost customers.
func (d Datasource) GetRecoveryAmounts(ctx context.Context) (recovered float64, lost float64, err error) {
	ctx, span := otel.Tracer("Dashboard").Start(ctx, "Fetching recovery amounts")
	defer span.End()

	err = d.Conn.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(order_amount) FILTER (WHERE recovery_status IN ('recovered', 'chose_ship')), 0),
			COALESCE(SUM(order_amount) FILTER (WHERE recovery_status IN ('lost', 'refunded')), 0)
		FROM reclaim.recovery_customers
	`).Scan(&recovered, &lost)
	return recovered, lost, err
}
