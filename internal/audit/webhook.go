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

package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/bankapp/teller/config"
	"github.com/bankapp/teller/internal/request"
	"github.com/bankapp/teller/model"
)

// Webhook is the body posted to the notification webhook.
type Webhook struct {
	Event   string           `json:"event"`
	Payload model.AuditEntry `json:"data"`
}

// eventFromAction maps an audit action to a webhook event name, e.g. APPROVE -> transaction.approve.
func eventFromAction(action string) string {
	if action == "" {
		return "transaction.unknown"
	}
	return "transaction." + strings.ToLower(action)
}

// ProcessAudit is the asynq handler for AUDIT_QUEUE. It posts the entry to the configured
// webhook and does nothing when no webhook is configured. Failed deliveries are retried by the queue.
func ProcessAudit(ctx context.Context, task *asynq.Task) error {
	conf, err := config.Fetch()
	if err != nil {
		return err
	}
	if conf.Notification.Webhook.Url == "" {
		return nil
	}

	var entry model.AuditEntry
	if err := json.Unmarshal(task.Payload(), &entry); err != nil {
		logrus.WithError(err).Error("invalid audit payload")
		return fmt.Errorf("invalid audit payload: %v: %w", err, asynq.SkipRetry)
	}

	event := eventFromAction(entry.Action)
	webhook := conf.Notification.Webhook
	if _, err := request.PostJSON(ctx, webhook.Url, webhook.Headers, Webhook{Event: event, Payload: entry}); err != nil {
		logrus.WithFields(logrus.Fields{"event": event, "target": entry.Target}).WithError(err).Warn("webhook delivery failed")
		return err
	}
	logrus.WithFields(logrus.Fields{"event": event, "target": entry.Target}).Info("webhook notification sent")
	return nil
}
