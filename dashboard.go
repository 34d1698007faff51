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
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"

	"github.com/bykiy/reclaim/internal/apierror"
	"github.com/bykiy/reclaim/model"
)

const (
	dashboardCacheKey = "reclaim:dashboard:stats"
	dashboardCacheTTL = 30 * time.Second
)

// recoveredStatuses and lostStatuses partition the terminal pipeline
// states; everything else counts as pending.
var (
	recoveredStatuses = map[string]struct{}{
		string(model.StatusRecovered): {},
		string(model.StatusChoseShip): {},
	}
	lostStatuses = map[string]struct{}{
		string(model.StatusLost):     {},
		string(model.StatusRefunded): {},
	}
)

// Stats assembles the dashboard aggregates. Results are cached briefly;
// a cache failure degrades to recomputation, never to an error.
func (r *Reclaim) Stats(ctx context.Context) (*model.DashboardStats, error) {
	ctx, span := otel.Tracer("reclaim.dashboard").Start(ctx, "Stats")
	defer span.End()

	var cached model.DashboardStats
	if err := r.cache.Get(ctx, dashboardCacheKey, &cached); err != nil {
		logrus.WithError(err).Warn("dashboard cache read failed")
	} else if cached.TotalCustomers > 0 || cached.TotalChargebacks > 0 {
		return &cached, nil
	}

	total, matched, atRisk, err := r.datasource.GetChargebackStats(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "loading chargeback stats")
	}

	statusCounts, err := r.datasource.GetRecoveryStatusCounts(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "loading recovery pipeline")
	}
	tierCounts, err := r.datasource.GetRecoveryTierCounts(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "loading tier breakdown")
	}
	recoveredAmount, lostAmount, err := r.datasource.GetRecoveryAmounts(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "loading recovery amounts")
	}

	stats := &model.DashboardStats{
		TotalChargebacks:   int(total),
		MatchedChargebacks: int(matched),
		TotalAtRisk:        math.Round(atRisk),
		RecoveryPipeline:   statusCounts,
		TierBreakdown:      tierCounts,
		RecoveredAmount:    math.Round(recoveredAmount),
		LostAmount:         math.Round(lostAmount),
	}
	if total > 0 {
		stats.MatchRate = int(math.Round(float64(matched) / float64(total) * 100))
	}

	for _, sc := range statusCounts {
		stats.TotalCustomers += sc.Count
		if _, ok := recoveredStatuses[sc.Status]; ok {
			stats.Recovered += sc.Count
			continue
		}
		if _, ok := lostStatuses[sc.Status]; ok {
			stats.Lost += sc.Count
			continue
		}
		stats.Pending += sc.Count
	}

	if err := r.cache.Set(ctx, dashboardCacheKey, stats, dashboardCacheTTL); err != nil {
		logrus.WithError(err).Warn("dashboard cache write failed")
	}
	return stats, nil
}

// ListChargebacks pages recent chargebacks with their matched-order
// summaries.
func (r *Reclaim) ListChargebacks(ctx context.Context, limit, offset int) ([]*model.Chargeback, error) {
	return r.datasource.GetChargebacks(ctx, limit, offset)
}

// ListRecoveryCustomers lists the pipeline with optional tier, status
// and free-text filters.
func (r *Reclaim) ListRecoveryCustomers(ctx context.Context, tier, status, search string, limit int) ([]*model.RecoveryCustomer, error) {
	return r.datasource.GetRecoveryCustomers(ctx, tier, status, search, limit)
}

// UpdateCustomerStatus moves a recovery customer through the pipeline
// after a manual interaction. The status must be in the legal set.
func (r *Reclaim) UpdateCustomerStatus(ctx context.Context, id int64, status, channel, notes string) error {
	if !model.ValidRecoveryStatus(model.RecoveryStatus(status)) {
		return apierror.NewAPIError(apierror.ErrInvalidInput, fmt.Sprintf("invalid recovery status %q", status), nil)
	}
	if err := r.datasource.UpdateRecoveryStatus(ctx, id, status, channel, notes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("recovery customer %d not found", id), err)
		}
		return err
	}
	if err := r.cache.Delete(ctx, dashboardCacheKey); err != nil {
		logrus.WithError(err).Warn("dashboard cache invalidation failed")
	}
	return nil
}

// OutreachHistory returns the logged outreach attempts for a customer.
func (r *Reclaim) OutreachHistory(ctx context.Context, customerID int64) ([]*model.OutreachEntry, error) {
	return r.datasource.GetOutreachLog(ctx, customerID)
}
