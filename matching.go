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
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/bykiy/reclaim/config"
	"github.com/bykiy/reclaim/internal/apierror"
	redlock "github.com/bykiy/reclaim/internal/lock"
	"github.com/bykiy/reclaim/model"
)

const matchingLockKey = "reclaim:matching:lock"

func logAndRecordError(span trace.Span, msg string, err error) error {
	span.RecordError(err)
	logrus.Error(msg, err)
	return err
}

// emailAmountTolerance is the absolute amount drift allowed when a
// chargeback and an order already agree on customer email. Processors
// report net-of-fee amounts that can be off by a cent or two.
const emailAmountTolerance = 0.02

// amountDateWindow bounds how far an order date may sit from a
// chargeback's transaction date for the weakest tier.
const amountDateWindow = 3 * 24 * time.Hour

// amountKey buckets amounts to two decimal places so float noise cannot
// split equal values.
func amountKey(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}

// amountWithinTolerance compares amounts as decimals so binary float
// drift cannot flip a boundary case.
func amountWithinTolerance(a, b float64) bool {
	diff := decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Abs()
	return diff.LessThanOrEqual(decimal.NewFromFloat(emailAmountTolerance))
}

// orderIndex holds the per-run lookup structures the cascade consults.
// Each bucket is sorted by order id so ties resolve to the earliest
// order deterministically.
type orderIndex struct {
	byEmail  map[string][]*model.Order
	byAmount map[string][]*model.Order
}

func buildOrderIndex(orders []*model.Order) *orderIndex {
	idx := &orderIndex{
		byEmail:  make(map[string][]*model.Order),
		byAmount: make(map[string][]*model.Order),
	}
	for _, o := range orders {
		if email := NormalizeEmail(o.CustomerEmail); email != "" {
			idx.byEmail[email] = append(idx.byEmail[email], o)
		}
		if o.TotalAmount > 0 {
			key := amountKey(o.TotalAmount)
			idx.byAmount[key] = append(idx.byAmount[key], o)
		}
	}
	for _, bucket := range idx.byEmail {
		sort.Slice(bucket, func(i, j int) bool { return bucket[i].ID < bucket[j].ID })
	}
	for _, bucket := range idx.byAmount {
		sort.Slice(bucket, func(i, j int) bool { return bucket[i].ID < bucket[j].ID })
	}
	return idx
}

// findMatch walks the cascade from strongest to weakest signal and
// returns the first order that qualifies, or nil.
func (idx *orderIndex) findMatch(cb *model.Chargeback) (*model.Order, model.MatchConfidence, model.MatchMethod) {
	// Email plus amount within tolerance.
	if email := NormalizeEmail(cb.CustomerEmail); email != "" {
		for _, o := range idx.byEmail[email] {
			if amountWithinTolerance(o.TotalAmount, cb.Amount) {
				return o, model.ConfidenceHigh, model.MethodEmailAmount
			}
		}
	}

	if cb.Amount <= 0 {
		return nil, model.ConfidenceNone, ""
	}
	bucket := idx.byAmount[amountKey(cb.Amount)]

	// Exact amount plus card last four.
	if cb.CardLast4 != "" {
		for _, o := range bucket {
			if o.CardLast4 == cb.CardLast4 {
				return o, model.ConfidenceMedium, model.MethodAmountCard
			}
		}
	}

	// Exact amount plus order date near the transaction date.
	if cb.TransactionDate != nil {
		for _, o := range bucket {
			if o.OrderDate == nil {
				continue
			}
			diff := o.OrderDate.Sub(*cb.TransactionDate)
			if diff < 0 {
				diff = -diff
			}
			if diff <= amountDateWindow {
				return o, model.ConfidenceLow, model.MethodAmountDate
			}
		}
	}

	return nil, model.ConfidenceNone, ""
}

// RunMatching links unmatched chargebacks to orders through the
// three-tier cascade. Runs are serialized: a process-local mutex plus a
// Redis lock keep concurrent runs from double-assigning, and the UPDATE
// itself is guarded so a lost race counts the chargeback as unmatched
// rather than overwriting.
func (r *Reclaim) RunMatching(ctx context.Context) (*model.MatchSummary, error) {
	ctx, span := otel.Tracer("reclaim.matching").Start(ctx, "RunMatching")
	defer span.End()

	r.matchMu.Lock()
	defer r.matchMu.Unlock()

	conf, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	locker := redlock.NewLocker(r.redis, matchingLockKey, uuid.New().String())
	lockTTL := time.Duration(conf.Matching.LockTTLSec) * time.Second
	if err := locker.Lock(ctx, lockTTL); err != nil {
		if errors.Is(err, redlock.ErrHeld) {
			return nil, apierror.NewAPIError(apierror.ErrLocked, "matching run already in progress", err)
		}
		return nil, logAndRecordError(span, "failed to acquire matching lock: ", err)
	}
	defer func() {
		if err := locker.Unlock(context.Background()); err != nil {
			logrus.WithError(err).Warn("releasing matching lock")
		}
	}()

	chargebacks, err := r.datasource.GetUnmatchedChargebacks(ctx, conf.Matching.BatchSize)
	if err != nil {
		return nil, logAndRecordError(span, "failed to load unmatched chargebacks: ", err)
	}
	summary := &model.MatchSummary{Total: len(chargebacks)}
	if len(chargebacks) == 0 {
		return summary, nil
	}

	orders, err := r.datasource.GetOrdersForMatching(ctx, conf.Matching.OrderScanLimit)
	if err != nil {
		return nil, logAndRecordError(span, "failed to load order candidates: ", err)
	}
	idx := buildOrderIndex(orders)

	// Renew the lock halfway through its TTL so a long batch cannot
	// outlive it.
	refreshAt := time.Now().Add(lockTTL / 2)

	for _, cb := range chargebacks {
		if lockTTL > 0 && time.Now().After(refreshAt) {
			if err := locker.Refresh(ctx, lockTTL); err != nil {
				logrus.WithError(err).Warn("renewing matching lock")
			}
			refreshAt = time.Now().Add(lockTTL / 2)
		}

		order, confidence, method := idx.findMatch(cb)
		if order == nil {
			summary.StillUnmatched++
			continue
		}

		applied, err := r.datasource.ApplyMatch(ctx, cb.ID, order.ID, confidence, method)
		if err != nil {
			return summary, errors.Wrapf(err, "applying match for chargeback %s", cb.ChargebackRef)
		}
		if !applied {
			// Another writer got there first.
			summary.StillUnmatched++
			continue
		}

		switch confidence {
		case model.ConfidenceHigh:
			summary.High++
		case model.ConfidenceMedium:
			summary.Medium++
		case model.ConfidenceLow:
			summary.Low++
		}
	}

	logrus.WithFields(logrus.Fields{
		"total":           summary.Total,
		"high":            summary.High,
		"medium":          summary.Medium,
		"low":             summary.Low,
		"still_unmatched": summary.StillUnmatched,
	}).Info("matching run complete")
	return summary, nil
}
