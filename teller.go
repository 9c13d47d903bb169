/*
Copyright 2024 Blnk Finance Authors.

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

package teller

import (
	"embed"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/bankapp/teller/config"
	"github.com/bankapp/teller/database"
	redis_db "github.com/bankapp/teller/internal/redis-db"
)

// DefaultApprovalThreshold is the amount above which a withdrawal waits for a manager decision.
const DefaultApprovalThreshold = config.DEFAULT_APPROVAL_THRESHOLD

// Teller is the ledger engine. It holds no balance state between calls; every mutation runs as
// one unit of work against the datasource.
type Teller struct {
	datasource  database.IDataSource
	redis       redis.UniversalClient
	hooks       []AuditHook
	threshold   decimal.Decimal
	location    *time.Location
	lockTimeout time.Duration
	lockWait    time.Duration
	maxRetries  uint64
	retryDelay  time.Duration
	now         func() time.Time

	auditQueue  chan auditEvent
	auditDone   chan struct{}
	auditMu     sync.RWMutex
	auditClosed bool
}

//go:embed sql/*.sql
var SQLFiles embed.FS

// NewTeller initializes a new instance of Teller with the provided datasource.
// Ledger settings come from the loaded configuration. When a Redis address is configured,
// mutations additionally hold a Redis lock on every account they touch.
func NewTeller(db database.IDataSource, hooks ...AuditHook) (*Teller, error) {
	configuration, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	t := &Teller{
		datasource:  db,
		hooks:       hooks,
		threshold:   configuration.Ledger.Threshold(),
		location:    configuration.Ledger.Location(),
		lockTimeout: time.Duration(configuration.Ledger.LockTimeoutSec) * time.Second,
		lockWait:    time.Duration(configuration.Ledger.LockWaitSec) * time.Second,
		maxRetries:  3,
		retryDelay:  50 * time.Millisecond,
		now:         time.Now,
	}
	if t.lockTimeout <= 0 {
		t.lockTimeout = config.DEFAULT_LOCK_TIMEOUT_SEC * time.Second
	}
	if t.lockWait <= 0 {
		t.lockWait = config.DEFAULT_LOCK_WAIT_SEC * time.Second
	}

	if configuration.Redis.Dns != "" {
		redisClient, err := redis_db.NewRedisClient(configuration.Redis.Dns, configuration.Redis.SkipTLSVerify)
		if err != nil {
			return nil, err
		}
		t.redis = redisClient.Client()
	}

	if len(hooks) > 0 {
		t.startAuditDispatcher()
	}
	return t, nil
}

// ApprovalThreshold returns the threshold used to route withdrawals.
func (t *Teller) ApprovalThreshold() decimal.Decimal {
	return t.threshold
}
