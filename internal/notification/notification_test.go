package notification

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankapp/teller/config"
)

const slackURL = "https://hooks.slack.example.com/services/T000/B000/XXX"

func mockSlackConfig(url string) {
	config.MockConfig(&config.Configuration{
		DataSource:   config.DataSourceConfig{Dns: "memory"},
		Notification: config.Notification{Slack: config.SlackConfig{WebhookUrl: url}},
	})
}

func TestSlackPayload(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	msg := slackPayload(errors.New("database unreachable"), at)

	require.Len(t, msg.Blocks, 3)
	assert.Equal(t, "header", msg.Blocks[0].Type)
	assert.Equal(t, "*Error:*\ndatabase unreachable", msg.Blocks[1].Fields[0].Text)
	assert.Equal(t, "*Time:*\n"+at.Format(time.RFC822), msg.Blocks[2].Fields[0].Text)
}

func TestSlackNotification(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()
	mockSlackConfig(slackURL)

	var body string
	httpmock.RegisterResponder(http.MethodPost, slackURL, func(req *http.Request) (*http.Response, error) {
		raw, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		body = string(raw)
		return httpmock.NewStringResponse(http.StatusOK, "ok"), nil
	})

	err := SlackNotification(context.Background(), errors.New("lock store down"))
	require.NoError(t, err)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())

	var msg slackMessage
	require.NoError(t, json.Unmarshal([]byte(body), &msg))
	assert.True(t, strings.Contains(msg.Blocks[1].Fields[0].Text, "lock store down"))
}

func TestSlackNotification_NotConfigured(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()
	mockSlackConfig("")

	err := SlackNotification(context.Background(), errors.New("ignored"))
	assert.NoError(t, err)
	assert.Equal(t, 0, httpmock.GetTotalCallCount())
}

func TestNotifyError_SendsInBackground(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()
	mockSlackConfig(slackURL)
	httpmock.RegisterResponder(http.MethodPost, slackURL, httpmock.NewStringResponder(http.StatusOK, "ok"))

	NotifyError(errors.New("worker crashed"))

	assert.Eventually(t, func() bool {
		return httpmock.GetTotalCallCount() == 1
	}, time.Second, 10*time.Millisecond)
}
