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

package redlock

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
)

const (
	unlockScript = "if redis.call('get', KEYS[1]) == ARGV[1] then return redis.call('del', KEYS[1]) else return 0 end"
	extendScript = "if redis.call('get', KEYS[1]) == ARGV[1] then return redis.call('pexpire', KEYS[1], ARGV[2]) else return 0 end"
)

// ErrLockHeld is returned by Lock when another holder owns the key.
var ErrLockHeld = errors.New("lock is already held")

// Locker is a single-key Redis lock. The value identifies the holder, so only the holder can
// release or extend it.
type Locker struct {
	client redis.UniversalClient
	key    string
	value  string
}

func NewLocker(client redis.UniversalClient, key, value string) *Locker {
	return &Locker{
		client: client,
		key:    key,
		value:  value,
	}
}

func (l *Locker) Key() string {
	return l.key
}

func (l *Locker) Lock(ctx context.Context, timeout time.Duration) error {
	success, err := l.client.SetNX(ctx, l.key, l.value, timeout).Result()
	if err != nil {
		return err
	}
	if !success {
		return fmt.Errorf("lock for key %s: %w", l.key, ErrLockHeld)
	}
	return nil
}

func (l *Locker) Unlock(ctx context.Context) error {
	result, err := l.client.Eval(ctx, unlockScript, []string{l.key}, l.value).Result()
	if err != nil {
		return err
	}
	if result == int64(0) {
		return fmt.Errorf("unlock failed, either lock expired or you're not the lock holder for key %s", l.key)
	}
	return nil
}

func (l *Locker) ExtendLock(ctx context.Context, extension time.Duration) error {
	result, err := l.client.Eval(ctx, extendScript, []string{l.key}, l.value, fmt.Sprintf("%d", extension.Milliseconds())).Result()
	if err != nil {
		return err
	}
	if result == int64(0) {
		return fmt.Errorf("lock extension failed for key %s, either lock expired or you're not the holder", l.key)
	}
	return nil
}

// WaitLock retries Lock with exponential backoff until it succeeds, waitTimeout elapses or ctx is done.
func (l *Locker) WaitLock(ctx context.Context, lockTimeout, waitTimeout time.Duration) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 10 * time.Millisecond
	policy.MaxInterval = 200 * time.Millisecond
	policy.MaxElapsedTime = waitTimeout

	err := backoff.Retry(func() error {
		err := l.Lock(ctx, lockTimeout)
		if err != nil && !errors.Is(err, ErrLockHeld) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		if errors.Is(err, ErrLockHeld) {
			return fmt.Errorf("failed to acquire lock for key %s within the wait timeout", l.key)
		}
		return err
	}
	return nil
}

// MultiLocker holds locks on several keys. Keys are always acquired in sorted order so two
// callers locking overlapping sets cannot deadlock.
type MultiLocker struct {
	lockers []*Locker
}

// NewMultiLocker builds a locker over the distinct keys, sorted.
func NewMultiLocker(client redis.UniversalClient, value string, keys ...string) *MultiLocker {
	unique := make(map[string]struct{}, len(keys))
	sorted := make([]string, 0, len(keys))
	for _, key := range keys {
		if _, seen := unique[key]; seen {
			continue
		}
		unique[key] = struct{}{}
		sorted = append(sorted, key)
	}
	sort.Strings(sorted)

	m := &MultiLocker{lockers: make([]*Locker, 0, len(sorted))}
	for _, key := range sorted {
		m.lockers = append(m.lockers, NewLocker(client, key, value))
	}
	return m
}

// Keys returns the keys in acquisition order.
func (m *MultiLocker) Keys() []string {
	keys := make([]string, len(m.lockers))
	for i, l := range m.lockers {
		keys[i] = l.key
	}
	return keys
}

// WaitLock acquires every key or none: on failure the keys already taken are released.
func (m *MultiLocker) WaitLock(ctx context.Context, lockTimeout, waitTimeout time.Duration) error {
	for i, l := range m.lockers {
		if err := l.WaitLock(ctx, lockTimeout, waitTimeout); err != nil {
			for _, held := range m.lockers[:i] {
				_ = held.Unlock(context.Background())
			}
			return err
		}
	}
	return nil
}

// Unlock releases every key in reverse order and returns the first failure.
func (m *MultiLocker) Unlock(ctx context.Context) error {
	var first error
	for i := len(m.lockers) - 1; i >= 0; i-- {
		if err := m.lockers[i].Unlock(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}
