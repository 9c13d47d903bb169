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

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"

	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_PORT               = "5001"
	DEFAULT_APPROVAL_THRESHOLD = 200000
	DEFAULT_TIMEZONE           = "UTC"
	DEFAULT_LOCK_TIMEOUT_SEC   = 30
	DEFAULT_LOCK_WAIT_SEC      = 5
)

var ConfigStore atomic.Value

type ServerConfig struct {
	SSL    bool   `json:"ssl" envconfig:"TELLER_SERVER_SSL"`
	Domain string `json:"domain" envconfig:"TELLER_SERVER_SSL_DOMAIN"`
	Email  string `json:"ssl_email" envconfig:"TELLER_SERVER_SSL_EMAIL"`
	Port   string `json:"port" envconfig:"TELLER_SERVER_PORT"`
}

type DataSourceConfig struct {
	Dns string `json:"dns" envconfig:"TELLER_DATA_SOURCE_DNS"`
}

// RedisConfig is optional. When Dns is empty account locks and the audit queue are disabled.
type RedisConfig struct {
	Dns           string `json:"dns" envconfig:"TELLER_REDIS_DNS"`
	SkipTLSVerify bool   `json:"skip_tls_verify" envconfig:"TELLER_REDIS_SKIP_TLS_VERIFY"`
}

type LedgerConfig struct {
	ApprovalThreshold decimal.NullDecimal `json:"approval_threshold" envconfig:"TELLER_LEDGER_APPROVAL_THRESHOLD"`
	Timezone          string              `json:"timezone" envconfig:"TELLER_LEDGER_TIMEZONE"`
	LockTimeoutSec    int                 `json:"lock_timeout_sec" envconfig:"TELLER_LEDGER_LOCK_TIMEOUT_SEC"`
	LockWaitSec       int                 `json:"lock_wait_sec" envconfig:"TELLER_LEDGER_LOCK_WAIT_SEC"`
}

type RateLimitConfig struct {
	RequestsPerSecond  *float64 `json:"requests_per_second" envconfig:"TELLER_RATE_LIMIT_RPS"`
	Burst              *int     `json:"burst" envconfig:"TELLER_RATE_LIMIT_BURST"`
	CleanupIntervalSec *int     `json:"cleanup_interval_sec" envconfig:"TELLER_RATE_LIMIT_CLEANUP_INTERVAL_SEC"`
}

type WebhookConfig struct {
	Url     string            `json:"url" envconfig:"TELLER_WEBHOOK_URL"`
	Headers map[string]string `json:"headers"`
}

type SlackConfig struct {
	WebhookUrl string `json:"webhook_url" envconfig:"TELLER_SLACK_WEBHOOK_URL"`
}

type Notification struct {
	Webhook WebhookConfig `json:"webhook"`
	Slack   SlackConfig   `json:"slack"`
}

type Configuration struct {
	ProjectName     string           `json:"project_name" envconfig:"TELLER_PROJECT_NAME"`
	Server          ServerConfig     `json:"server"`
	DataSource      DataSourceConfig `json:"data_source"`
	Redis           RedisConfig      `json:"redis"`
	Ledger          LedgerConfig     `json:"ledger"`
	Notification    Notification     `json:"notification"`
	RateLimit       RateLimitConfig  `json:"rate_limit"`
	EnableTelemetry bool             `json:"enable_telemetry" envconfig:"TELLER_ENABLE_TELEMETRY"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		defer f.Close()
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}

	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("teller", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return err
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called teller.json with your config ❌")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		log.Println("Warning: Project name is empty. Setting a default name.")
		cnf.ProjectName = "Teller Server"
	}

	if cnf.DataSource.Dns == "" {
		log.Println("Error: Data source DNS is empty. It's a required field.")
		return errors.New("data source DNS is required")
	}

	// Trim white spaces from fields
	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Server.Port = strings.TrimSpace(cnf.Server.Port)
	cnf.DataSource.Dns = strings.TrimSpace(cnf.DataSource.Dns)
	cnf.Redis.Dns = strings.TrimSpace(cnf.Redis.Dns)
	cnf.Ledger.Timezone = strings.TrimSpace(cnf.Ledger.Timezone)

	// Set default value for Port if it's empty
	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
		log.Printf("Warning: Port not specified in config. Setting default port: %s", DEFAULT_PORT)
	}

	if cnf.Redis.Dns == "" {
		log.Println("Warning: Redis DNS is empty. Account locks and the audit queue are disabled.")
	}

	if err := cnf.Ledger.validateAndAddDefaults(); err != nil {
		return err
	}

	// Rate limiting is disabled by default (when both RPS and Burst are nil)
	if cnf.RateLimit.RequestsPerSecond != nil && cnf.RateLimit.Burst == nil {
		defaultBurst := 2 * int(*cnf.RateLimit.RequestsPerSecond)
		cnf.RateLimit.Burst = &defaultBurst
		log.Printf("Warning: Rate limit burst not specified. Setting default value: %d", defaultBurst)
	}
	if cnf.RateLimit.RequestsPerSecond == nil && cnf.RateLimit.Burst != nil {
		defaultRPS := float64(*cnf.RateLimit.Burst) / 2
		cnf.RateLimit.RequestsPerSecond = &defaultRPS
		log.Printf("Warning: Rate limit RPS not specified. Setting default value: %.2f", defaultRPS)
	}

	if cnf.RateLimit.CleanupIntervalSec == nil {
		defaultCleanup := 10800 // 3 hours in seconds
		cnf.RateLimit.CleanupIntervalSec = &defaultCleanup
	}

	return nil
}

func (l *LedgerConfig) validateAndAddDefaults() error {
	if !l.ApprovalThreshold.Valid {
		l.ApprovalThreshold = decimal.NewNullDecimal(decimal.NewFromInt(DEFAULT_APPROVAL_THRESHOLD))
	}
	if l.ApprovalThreshold.Decimal.IsNegative() {
		return errors.New("ledger approval threshold cannot be negative")
	}

	if l.Timezone == "" {
		l.Timezone = DEFAULT_TIMEZONE
	}
	if _, err := time.LoadLocation(l.Timezone); err != nil {
		return fmt.Errorf("invalid ledger timezone %q: %w", l.Timezone, err)
	}

	if l.LockTimeoutSec <= 0 {
		l.LockTimeoutSec = DEFAULT_LOCK_TIMEOUT_SEC
	}
	if l.LockWaitSec <= 0 {
		l.LockWaitSec = DEFAULT_LOCK_WAIT_SEC
	}
	return nil
}

// Location returns the time zone used for calendar-day queries.
func (l LedgerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(l.Timezone)
	if err != nil || l.Timezone == "" {
		return time.UTC
	}
	return loc
}

// Threshold returns the withdrawal approval threshold, or the default when unset.
func (l LedgerConfig) Threshold() decimal.Decimal {
	if !l.ApprovalThreshold.Valid {
		return decimal.NewFromInt(DEFAULT_APPROVAL_THRESHOLD)
	}
	return l.ApprovalThreshold.Decimal
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	ConfigStore.Store(mockConfig)
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
