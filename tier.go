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
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"

	"github.com/bykiy/reclaim/config"
	"github.com/bykiy/reclaim/model"
)

// monthsSince is the calendar-month distance from t to now, ignoring
// day-of-month. August 2024 to February 2026 is 18 months regardless of
// which days are involved.
func monthsSince(t time.Time, now time.Time) int {
	return (now.Year()-t.Year())*12 + int(now.Month()) - int(t.Month())
}

// TierForDate buckets an order by age. Older orders get earlier letters
// since they are the most at risk of being written off.
func TierForDate(orderDate *time.Time, now time.Time) model.Tier {
	if orderDate == nil {
		return model.TierD
	}
	months := monthsSince(*orderDate, now)
	switch {
	case months >= 18:
		return model.TierA
	case months >= 12:
		return model.TierB
	case months >= 6:
		return model.TierC
	default:
		return model.TierD
	}
}

// AssignTiers derives recovery customers from unfulfilled paid orders.
// An order produces a recovery customer exactly once; on later runs only
// the denormalized customer fields are refreshed, never tier or status.
func (r *Reclaim) AssignTiers(ctx context.Context) error {
	ctx, span := otel.Tracer("reclaim.tier").Start(ctx, "AssignTiers")
	defer span.End()

	conf, err := config.Fetch()
	if err != nil {
		return err
	}

	orders, err := r.datasource.GetUnfulfilledPaidOrders(ctx, conf.Matching.OrderScanLimit)
	if err != nil {
		return errors.Wrap(err, "loading unfulfilled paid orders")
	}

	now := time.Now()
	created, refreshed := 0, 0
	for _, order := range orders {
		exists, err := r.datasource.RecoveryExistsForOrder(ctx, order.ID)
		if err != nil {
			return errors.Wrapf(err, "checking recovery customer for order %s", order.OrderNumber)
		}

		if exists {
			if err := r.datasource.RefreshRecoveryCustomer(ctx, &model.RecoveryCustomer{
				OrderID:       order.ID,
				CustomerEmail: order.CustomerEmail,
				CustomerName:  order.CustomerName,
				CustomerPhone: order.CustomerPhone,
				OrderAmount:   order.TotalAmount,
				OrderDate:     order.OrderDate,
			}); err != nil {
				return errors.Wrapf(err, "refreshing recovery customer for order %s", order.OrderNumber)
			}
			refreshed++
			continue
		}

		if _, err := r.datasource.CreateRecoveryCustomer(ctx, &model.RecoveryCustomer{
			OrderID:        order.ID,
			CustomerEmail:  order.CustomerEmail,
			CustomerName:   order.CustomerName,
			CustomerPhone:  order.CustomerPhone,
			OrderAmount:    order.TotalAmount,
			OrderDate:      order.OrderDate,
			Tier:           TierForDate(order.OrderDate, now),
			RecoveryStatus: model.StatusNotContacted,
		}); err != nil {
			return errors.Wrapf(err, "creating recovery customer for order %s", order.OrderNumber)
		}
		created++
	}

	logrus.WithFields(logrus.Fields{
		"orders":    len(orders),
		"created":   created,
		"refreshed": refreshed,
	}).Info("tier assignment complete")
	return nil
}
