package main

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankapp/teller/config"
)

func TestRedactDSN(t *testing.T) {
	assert.Equal(t, "postgres://teller:xxxxx@db:5432/teller?sslmode=disable", redactDSN("postgres://teller:s3cret@db:5432/teller?sslmode=disable"))
	assert.Equal(t, "localhost:6379", redactDSN("localhost:6379"))
	assert.Equal(t, "redis://cache:6379", redactDSN("redis://cache:6379"))
}

func TestPrintableConfig(t *testing.T) {
	cfg := config.Configuration{
		DataSource: config.DataSourceConfig{Dns: "postgres://teller:s3cret@db:5432/teller"},
		Notification: config.Notification{Webhook: config.WebhookConfig{
			Url:     "https://hooks.example.com",
			Headers: map[string]string{"Authorization": "Bearer token"},
		}},
	}

	printable := printableConfig(cfg)
	assert.NotContains(t, printable.DataSource.Dns, "s3cret")
	assert.Equal(t, "xxxxx", printable.Notification.Webhook.Headers["Authorization"])

	// the loaded configuration is left untouched
	assert.Equal(t, "Bearer token", cfg.Notification.Webhook.Headers["Authorization"])
}

func TestMigrationSource(t *testing.T) {
	migrations, err := migrationSource().FindMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)
	assert.Equal(t, "1_teller_init.sql", migrations[0].Id)
	assert.NotEmpty(t, migrations[0].Up)
	assert.NotEmpty(t, migrations[0].Down)
}

func TestAuditHooks(t *testing.T) {
	app := &tellerInstance{}

	hooks, err := auditHooks(app, &config.Configuration{})
	require.NoError(t, err)
	assert.Len(t, hooks, 1)
	assert.Nil(t, app.queueHook)

	hooks, err = auditHooks(app, &config.Configuration{
		Redis:        config.RedisConfig{Dns: "localhost:6379"},
		Notification: config.Notification{Webhook: config.WebhookConfig{Url: "https://hooks.example.com"}},
	})
	require.NoError(t, err)
	assert.Len(t, hooks, 2)
	require.NotNil(t, app.queueHook)
	assert.NoError(t, app.queueHook.Close())
}

func TestReportErrorsToAPM(t *testing.T) {
	logger := logrus.New()
	reportErrorsToAPM(logger)

	for _, level := range []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel} {
		assert.Len(t, logger.Hooks[level], 1, level.String())
	}
	assert.Empty(t, logger.Hooks[logrus.InfoLevel])
	assert.Empty(t, logger.Hooks[logrus.WarnLevel])
}
