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
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/bankapp/teller/model"
)

// AuditHook receives a record of every successful mutation. Hooks are best effort: their
// failures are logged and never reach the caller.
type AuditHook interface {
	Record(ctx context.Context, entry model.AuditEntry) error
}

// AuditHookFunc adapts a function to AuditHook.
type AuditHookFunc func(ctx context.Context, entry model.AuditEntry) error

func (f AuditHookFunc) Record(ctx context.Context, entry model.AuditEntry) error {
	return f(ctx, entry)
}

// auditQueueSize bounds the entries waiting for the dispatcher. Entries beyond it are dropped.
const auditQueueSize = 1024

type auditEvent struct {
	ctx   context.Context
	entry model.AuditEntry
}

// startAuditDispatcher runs the single goroutine that hands entries to the hooks in the order
// the mutations committed.
func (t *Teller) startAuditDispatcher() {
	t.auditQueue = make(chan auditEvent, auditQueueSize)
	t.auditDone = make(chan struct{})

	go func() {
		defer close(t.auditDone)
		for event := range t.auditQueue {
			for _, hook := range t.hooks {
				t.dispatch(event.ctx, hook, event.entry)
			}
		}
	}()
}

// audit queues entry for the hooks after the unit of work has committed. It never blocks.
func (t *Teller) audit(ctx context.Context, actor, action, target, details string) {
	if len(t.hooks) == 0 {
		return
	}

	entry := model.AuditEntry{
		Actor:      actor,
		Action:     action,
		Target:     target,
		Details:    details,
		OccurredAt: t.now(),
	}
	// detached from the request so a finished request does not cancel delivery
	event := auditEvent{ctx: context.WithoutCancel(ctx), entry: entry}

	t.auditMu.RLock()
	defer t.auditMu.RUnlock()
	if t.auditClosed {
		logrus.WithFields(logrus.Fields{"action": action, "target": target}).Warn("teller closed, audit entry dropped")
		return
	}
	select {
	case t.auditQueue <- event:
	default:
		logrus.WithFields(logrus.Fields{"action": action, "target": target}).Error("audit queue full, entry dropped")
	}
}

// Close stops accepting audit entries and waits until the queued ones reach the hooks.
func (t *Teller) Close() {
	if t.auditQueue == nil {
		return
	}

	t.auditMu.Lock()
	if !t.auditClosed {
		t.auditClosed = true
		close(t.auditQueue)
	}
	t.auditMu.Unlock()
	<-t.auditDone
}

func (t *Teller) dispatch(ctx context.Context, hook AuditHook, entry model.AuditEntry) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithFields(logrus.Fields{"action": entry.Action, "target": entry.Target}).Error(fmt.Sprintf("audit hook panicked: %v", r))
		}
	}()

	if err := hook.Record(ctx, entry); err != nil {
		logrus.WithFields(logrus.Fields{"action": entry.Action, "target": entry.Target}).WithError(err).Error("audit hook failed")
	}
}
