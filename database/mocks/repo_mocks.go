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
package mocks

import (
	"context"

	"github.com/bykiy/reclaim/model"
	"github.com/stretchr/testify/mock"
)

// MockDataSource is a mock implementation of the IDataSource interface
type MockDataSource struct {
	mock.Mock
}

// Chargeback methods

func (m *MockDataSource) RecordChargeback(ctx context.Context, cb *model.Chargeback) (bool, error) {
	args := m.Called(ctx, cb)
	return args.Bool(0), args.Error(1)
}

func (m *MockDataSource) GetChargebacks(ctx context.Context, limit, offset int) ([]*model.Chargeback, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Chargeback), args.Error(1)
}

func (m *MockDataSource) GetUnmatchedChargebacks(ctx context.Context, limit int) ([]*model.Chargeback, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Chargeback), args.Error(1)
}

func (m *MockDataSource) ApplyMatch(ctx context.Context, chargebackID, orderID int64, confidence model.MatchConfidence, method model.MatchMethod) (bool, error) {
	args := m.Called(ctx, chargebackID, orderID, confidence, method)
	return args.Bool(0), args.Error(1)
}

// Order methods

func (m *MockDataSource) UpsertOrder(ctx context.Context, o *model.Order) (int64, error) {
	args := m.Called(ctx, o)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDataSource) GetOrderByID(ctx context.Context, id int64) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockDataSource) GetOrdersForMatching(ctx context.Context, limit int) ([]*model.Order, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Order), args.Error(1)
}

func (m *MockDataSource) GetUnfulfilledPaidOrders(ctx context.Context, limit int) ([]*model.Order, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Order), args.Error(1)
}

// Recovery methods

func (m *MockDataSource) RecoveryExistsForOrder(ctx context.Context, orderID int64) (bool, error) {
	args := m.Called(ctx, orderID)
	return args.Bool(0), args.Error(1)
}

func (m *MockDataSource) CreateRecoveryCustomer(ctx context.Context, rc *model.RecoveryCustomer) (int64, error) {
	args := m.Called(ctx, rc)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDataSource) RefreshRecoveryCustomer(ctx context.Context, rc *model.RecoveryCustomer) error {
	args := m.Called(ctx, rc)
	return args.Error(0)
}

func (m *MockDataSource) GetRecoveryCustomers(ctx context.Context, tier, status, search string, limit int) ([]*model.RecoveryCustomer, error) {
	args := m.Called(ctx, tier, status, search, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.RecoveryCustomer), args.Error(1)
}

func (m *MockDataSource) GetRecoveryCustomer(ctx context.Context, id int64) (*model.RecoveryCustomer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RecoveryCustomer), args.Error(1)
}

func (m *MockDataSource) UpdateRecoveryStatus(ctx context.Context, id int64, status, channel, notes string) error {
	args := m.Called(ctx, id, status, channel, notes)
	return args.Error(0)
}

func (m *MockDataSource) MarkDiscountSent(ctx context.Context, id int64, code string) error {
	args := m.Called(ctx, id, code)
	return args.Error(0)
}

// Outreach methods

func (m *MockDataSource) RecordOutreach(ctx context.Context, entry *model.OutreachEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockDataSource) GetOutreachLog(ctx context.Context, recoveryCustomerID int64) ([]*model.OutreachEntry, error) {
	args := m.Called(ctx, recoveryCustomerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.OutreachEntry), args.Error(1)
}

// Dashboard methods

func (m *MockDataSource) GetChargebackStats(ctx context.Context) (int64, int64, float64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Get(1).(int64), args.Get(2).(float64), args.Error(3)
}

func (m *MockDataSource) GetRecoveryStatusCounts(ctx context.Context) ([]model.StatusCount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.StatusCount), args.Error(1)
}

func (m *MockDataSource) GetRecoveryTierCounts(ctx context.Context) ([]model.TierCount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.TierCount), args.Error(1)
}

func (m *MockDataSource) GetRecoveryAmounts(ctx context.Context) (float64, float64, error) {
	args := m.Called(ctx)
	return args.Get(0).(float64), args.Get(1).(float64), args.Error(2)
}
