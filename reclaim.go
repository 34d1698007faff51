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
	"embed"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/redis/go-redis/v9"

	"github.com/bykiy/reclaim/config"
	"github.com/bykiy/reclaim/database"
	"github.com/bykiy/reclaim/internal/cache"
	redis_db "github.com/bykiy/reclaim/internal/redis-db"
)

// Reclaim is the service layer tying ingestion, matching and outreach
// together over a single datasource.
type Reclaim struct {
	datasource database.IDataSource
	redis      redis.UniversalClient
	cache      cache.Cache
	dispatcher Dispatcher

	// matchMu serializes matching runs within this process; the redis
	// lock covers other processes.
	matchMu sync.Mutex

	// refCounter feeds synthesized chargeback references.
	refCounter atomic.Int64
}

//go:embed sql/*.sql
var SQLFiles embed.FS

// NewReclaim initializes the service with the provided datasource,
// connecting Redis, the dashboard cache and the outreach dispatcher
// from configuration.
func NewReclaim(db database.IDataSource) (*Reclaim, error) {
	configuration, err := config.Fetch()
	if err != nil {
		return nil, err
	}
	redisClient, err := redis_db.NewRedisClient([]string{fmt.Sprintf("redis://%s", configuration.Redis.Dns)}, configuration.Redis.SkipTLSVerify)
	if err != nil {
		return nil, err
	}
	ca, err := cache.NewCache()
	if err != nil {
		return nil, err
	}

	return &Reclaim{
		datasource: db,
		redis:      redisClient.Client(),
		cache:      ca,
		dispatcher: NewKlaviyoDispatcher(&configuration.Outreach),
	}, nil
}
