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

// Package audit delivers ledger audit entries. Hooks here are registered with the engine;
// the queue hook hands entries to the asynq worker, which forwards them to the configured webhook.
package audit

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/bankapp/teller/model"
)

const AUDIT_QUEUE = "teller_audit_queue"

// LogHook writes every audit entry to a logrus logger.
type LogHook struct {
	logger *logrus.Logger
}

func NewLogHook(logger *logrus.Logger) *LogHook {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogHook{logger: logger}
}

func (h *LogHook) Record(_ context.Context, entry model.AuditEntry) error {
	h.logger.WithFields(logrus.Fields{
		"actor":       entry.Actor,
		"action":      entry.Action,
		"target":      entry.Target,
		"details":     entry.Details,
		"occurred_at": entry.OccurredAt,
	}).Info("audit")
	return nil
}

// QueueHook enqueues audit entries for asynchronous webhook delivery.
type QueueHook struct {
	client *asynq.Client
}

func NewQueueHook(opt asynq.RedisConnOpt) *QueueHook {
	return &QueueHook{client: asynq.NewClient(opt)}
}

func (h *QueueHook) Record(ctx context.Context, entry model.AuditEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	task := asynq.NewTask(AUDIT_QUEUE, payload, asynq.Queue(AUDIT_QUEUE))
	info, err := h.client.EnqueueContext(ctx, task, asynq.MaxRetry(5))
	if err != nil {
		logrus.WithError(err).Error("failed to enqueue audit entry")
		return err
	}
	logrus.WithFields(logrus.Fields{"task_id": info.ID, "action": entry.Action}).Debug("audit entry queued")
	return nil
}

func (h *QueueHook) Close() error {
	return h.client.Close()
}
