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
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/bykiy/reclaim/config"
	"github.com/bykiy/reclaim/database/mocks"
	"github.com/bykiy/reclaim/internal/cache"
)

// newTestService wires a Reclaim instance against a mock datasource and
// an in-process Redis.
func newTestService(t *testing.T) (*Reclaim, *mocks.MockDataSource) {
	t.Helper()

	mr := miniredis.RunT(t)
	config.MockConfig(&config.Configuration{
		Redis: config.RedisConfig{Dns: mr.Addr()},
		Matching: config.MatchingConfig{
			BatchSize:      500,
			OrderScanLimit: 5000,
			LockTTLSec:     300,
		},
		Outreach: config.OutreachConfig{
			Endpoint:     "https://a.klaviyo.com/api/events/",
			TimeoutSec:   5,
			DiscountCode: "COMEBACK30",
		},
	})

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ca, err := cache.NewCache()
	require.NoError(t, err)

	conf, err := config.Fetch()
	require.NoError(t, err)

	mockDS := new(mocks.MockDataSource)
	service := &Reclaim{
		datasource: mockDS,
		redis:      client,
		cache:      ca,
		dispatcher: NewKlaviyoDispatcher(&conf.Outreach),
	}
	return service, mockDS
}
