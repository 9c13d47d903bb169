package audit

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/jarcoal/httpmock"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankapp/teller/config"
	"github.com/bankapp/teller/model"
)

const webhookURL = "https://hooks.example.com/teller"

func sampleEntry() model.AuditEntry {
	return model.AuditEntry{
		Actor:      "manager1",
		Action:     model.ActionApprove,
		Target:     "ACC-1",
		Details:    "txnId=txn_123",
		OccurredAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func auditTask(t *testing.T, entry model.AuditEntry) *asynq.Task {
	t.Helper()
	payload, err := json.Marshal(entry)
	require.NoError(t, err)
	return asynq.NewTask(AUDIT_QUEUE, payload)
}

func mockWebhookConfig(url string) {
	config.MockConfig(&config.Configuration{
		DataSource: config.DataSourceConfig{Dns: "memory"},
		Notification: config.Notification{Webhook: config.WebhookConfig{
			Url:     url,
			Headers: map[string]string{"X-Teller-Signature": "secret"},
		}},
	})
}

func TestLogHook(t *testing.T) {
	logger, hook := test.NewNullLogger()
	entry := sampleEntry()

	err := NewLogHook(logger).Record(context.Background(), entry)
	require.NoError(t, err)

	require.Len(t, hook.Entries, 1)
	logged := hook.LastEntry()
	assert.Equal(t, logrus.InfoLevel, logged.Level)
	assert.Equal(t, "audit", logged.Message)
	assert.Equal(t, "manager1", logged.Data["actor"])
	assert.Equal(t, model.ActionApprove, logged.Data["action"])
	assert.Equal(t, "ACC-1", logged.Data["target"])
	assert.Equal(t, "txnId=txn_123", logged.Data["details"])
}

func TestQueueHook_Enqueues(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("an error '%s' occurred when starting miniredis", err)
	}
	defer mr.Close()

	hook := NewQueueHook(asynq.RedisClientOpt{Addr: mr.Addr()})
	defer hook.Close()

	err = hook.Record(context.Background(), sampleEntry())
	assert.NoError(t, err)
	assert.NotEmpty(t, mr.Keys())
}

func TestQueueHook_RedisDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	hook := NewQueueHook(asynq.RedisClientOpt{Addr: addr})
	defer hook.Close()

	err = hook.Record(context.Background(), sampleEntry())
	assert.Error(t, err)
}

func TestEventFromAction(t *testing.T) {
	assert.Equal(t, "transaction.deposit", eventFromAction(model.ActionDeposit))
	assert.Equal(t, "transaction.reject", eventFromAction(model.ActionReject))
	assert.Equal(t, "transaction.unknown", eventFromAction(""))
}

func TestProcessAudit_PostsWebhook(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()
	mockWebhookConfig(webhookURL)

	var received Webhook
	var signature string
	httpmock.RegisterResponder(http.MethodPost, webhookURL, func(req *http.Request) (*http.Response, error) {
		signature = req.Header.Get("X-Teller-Signature")
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(body, &received); err != nil {
			return nil, err
		}
		return httpmock.NewStringResponse(http.StatusOK, `{"ok":true}`), nil
	})

	err := ProcessAudit(context.Background(), auditTask(t, sampleEntry()))
	require.NoError(t, err)

	assert.Equal(t, 1, httpmock.GetTotalCallCount())
	assert.Equal(t, "secret", signature)
	assert.Equal(t, "transaction.approve", received.Event)
	assert.Equal(t, "ACC-1", received.Payload.Target)
	assert.Equal(t, "txnId=txn_123", received.Payload.Details)
}

func TestProcessAudit_FailedDeliveryIsRetried(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()
	mockWebhookConfig(webhookURL)

	httpmock.RegisterResponder(http.MethodPost, webhookURL, httpmock.NewStringResponder(http.StatusBadGateway, "upstream down"))

	err := ProcessAudit(context.Background(), auditTask(t, sampleEntry()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestProcessAudit_NoWebhookConfigured(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()
	mockWebhookConfig("")

	err := ProcessAudit(context.Background(), auditTask(t, sampleEntry()))
	assert.NoError(t, err)
	assert.Equal(t, 0, httpmock.GetTotalCallCount())
}

func TestProcessAudit_InvalidPayload(t *testing.T) {
	mockWebhookConfig(webhookURL)

	err := ProcessAudit(context.Background(), asynq.NewTask(AUDIT_QUEUE, []byte("{not json")))
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}
