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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bykiy/reclaim/model"
)

func TestTierForDate(t *testing.T) {
	now := time.Date(2026, time.February, 10, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		date time.Time
		want model.Tier
	}{
		{time.Date(2024, time.August, 28, 0, 0, 0, 0, time.UTC), model.TierA},   // 18 months
		{time.Date(2024, time.September, 1, 0, 0, 0, 0, time.UTC), model.TierB}, // 17 months
		{time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC), model.TierB},  // 12 months
		{time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), model.TierC},     // 11 months
		{time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC), model.TierC},    // 6 months
		{time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC), model.TierD}, // 5 months
		{time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC), model.TierD},  // same month
	}
	for _, tc := range cases {
		d := tc.date
		assert.Equal(t, tc.want, TierForDate(&d, now), "order date %s", tc.date.Format("2006-01"))
	}
}

func TestTierForDateNilDate(t *testing.T) {
	assert.Equal(t, model.TierD, TierForDate(nil, time.Now()))
}

func TestMonthsSinceIgnoresDayOfMonth(t *testing.T) {
	now := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	then := time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 2, monthsSince(then, now))
}

func TestAssignTiersCreatesOnce(t *testing.T) {
	service, mockDS := newTestService(t)

	oldDate := time.Now().AddDate(0, -20, 0)
	orders := []*model.Order{
		{ID: 1, OrderNumber: "1001", OrderDate: &oldDate, TotalAmount: 120, CustomerEmail: "jane@shop.com", CustomerName: "Jane Smith"},
	}

	mockDS.On("GetUnfulfilledPaidOrders", mock.Anything, 5000).Return(orders, nil)
	mockDS.On("RecoveryExistsForOrder", mock.Anything, int64(1)).Return(false, nil)
	mockDS.On("CreateRecoveryCustomer", mock.Anything, mock.MatchedBy(func(rc *model.RecoveryCustomer) bool {
		return rc.OrderID == 1 &&
			rc.Tier == model.TierA &&
			rc.RecoveryStatus == model.StatusNotContacted &&
			rc.CustomerEmail == "jane@shop.com"
	})).Return(int64(10), nil)

	require.NoError(t, service.AssignTiers(context.Background()))
	mockDS.AssertExpectations(t)
}

func TestAssignTiersRefreshLeavesTierAndStatusAlone(t *testing.T) {
	service, mockDS := newTestService(t)

	recentDate := time.Now().AddDate(0, -2, 0)
	orders := []*model.Order{
		{ID: 1, OrderNumber: "1001", OrderDate: &recentDate, TotalAmount: 99, CustomerEmail: "new@shop.com"},
	}

	mockDS.On("GetUnfulfilledPaidOrders", mock.Anything, 5000).Return(orders, nil)
	mockDS.On("RecoveryExistsForOrder", mock.Anything, int64(1)).Return(true, nil)
	mockDS.On("RefreshRecoveryCustomer", mock.Anything, mock.MatchedBy(func(rc *model.RecoveryCustomer) bool {
		// The refresh payload never carries tier or status.
		return rc.OrderID == 1 && rc.Tier == "" && rc.RecoveryStatus == "" && rc.CustomerEmail == "new@shop.com"
	})).Return(nil)

	require.NoError(t, service.AssignTiers(context.Background()))
	mockDS.AssertNotCalled(t, "CreateRecoveryCustomer", mock.Anything, mock.Anything)
	mockDS.AssertExpectations(t)
}

func TestAssignTiersPropagatesLoadError(t *testing.T) {
	service, mockDS := newTestService(t)
	mockDS.On("GetUnfulfilledPaidOrders", mock.Anything, 5000).Return(nil, assert.AnError)

	assert.Error(t, service.AssignTiers(context.Background()))
}
