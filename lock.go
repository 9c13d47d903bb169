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
	"context"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/bankapp/teller/database"
	"github.com/bankapp/teller/internal/apierror"
	redlock "github.com/bankapp/teller/internal/lock"
	"github.com/bankapp/teller/model"
)

func accountLockKey(accountNumber string) string {
	return "teller:lock:account:" + accountNumber
}

// lockAccounts takes the Redis lock of every account. It is a no-op when Redis is not configured.
func (t *Teller) lockAccounts(ctx context.Context, accountNumbers ...string) (func(), error) {
	if t.redis == nil || len(accountNumbers) == 0 {
		return func() {}, nil
	}

	keys := make([]string, len(accountNumbers))
	for i, number := range accountNumbers {
		keys[i] = accountLockKey(number)
	}

	locker := redlock.NewMultiLocker(t.redis, model.GenerateUUIDWithSuffix("lock"), keys...)
	if err := locker.WaitLock(ctx, t.lockTimeout, t.lockWait); err != nil {
		logrus.WithFields(logrus.Fields{"accounts": accountNumbers}).WithError(err).Warn("could not lock accounts")
		return nil, apierror.Wrap(err, apierror.ErrConflict, "Account is busy, please retry", nil)
	}

	return func() {
		if err := locker.Unlock(context.Background()); err != nil {
			logrus.WithFields(logrus.Fields{"keys": locker.Keys()}).WithError(err).Error("failed to release account locks")
		}
	}, nil
}

// runUnitOfWork executes fn atomically, retrying the whole unit of work with exponential backoff
// when the store reports a conflict. Any other error is returned as is.
func (t *Teller) runUnitOfWork(ctx context.Context, fn database.TxFunc) error {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = t.retryDelay
	policy := backoff.WithMaxRetries(backoff.WithContext(exp, ctx), t.maxRetries)

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := t.datasource.WithinTransaction(ctx, fn)
		if err == nil {
			return nil
		}
		if !isConflict(err) {
			return backoff.Permanent(err)
		}
		logrus.WithFields(logrus.Fields{"attempt": attempt}).WithError(err).Warn("unit of work conflicted, retrying")
		return err
	}, policy)
}

// execute locks the given accounts, when distributed locking is enabled, and runs fn as one unit of work.
func (t *Teller) execute(ctx context.Context, accountNumbers []string, fn database.TxFunc) error {
	release, err := t.lockAccounts(ctx, accountNumbers...)
	if err != nil {
		return err
	}
	defer release()

	return t.runUnitOfWork(ctx, fn)
}
