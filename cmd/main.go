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

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/bankapp/teller"
	"github.com/bankapp/teller/config"
	"github.com/bankapp/teller/database"
	"github.com/bankapp/teller/internal/audit"
	"github.com/bankapp/teller/internal/notification"
	redis_db "github.com/bankapp/teller/internal/redis-db"
)

// Teller represents the CLI application, encapsulating the root Cobra command.
type Teller struct {
	cmd *cobra.Command
}

// tellerInstance holds the engine and the configuration it was built from.
type tellerInstance struct {
	teller    *teller.Teller
	cnf       *config.Configuration
	queueHook *audit.QueueHook
}

func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec)
		os.Exit(1)
	}
}

// preRun loads the configuration and builds the engine before any command runs.
func preRun(app *tellerInstance, configFile *string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := config.InitConfig(*configFile)
		if err != nil {
			log.Fatal("error loading config", err)
		}

		cnf, err := config.Fetch()
		if err != nil {
			return err
		}

		if err := setupTeller(app, cnf); err != nil {
			notification.NotifyError(err)
			log.Fatal(err)
		}
		app.cnf = cnf
		return nil
	}
}

// auditHooks always logs audit entries. With Redis and a webhook configured, entries are also
// queued for webhook delivery by the workers.
func auditHooks(app *tellerInstance, cfg *config.Configuration) ([]teller.AuditHook, error) {
	hooks := []teller.AuditHook{audit.NewLogHook(logrus.StandardLogger())}
	if cfg.Redis.Dns == "" || cfg.Notification.Webhook.Url == "" {
		return hooks, nil
	}

	opts, err := redis_db.ParseRedisURL(cfg.Redis.Dns, cfg.Redis.SkipTLSVerify)
	if err != nil {
		return nil, fmt.Errorf("error parsing Redis URL: %v", err)
	}
	app.queueHook = audit.NewQueueHook(redis_db.AsynqOpt(opts))
	return append(hooks, app.queueHook), nil
}

func setupTeller(app *tellerInstance, cfg *config.Configuration) error {
	db, err := database.NewDataSource(cfg)
	if err != nil {
		return fmt.Errorf("error getting datasource: %v", err)
	}

	hooks, err := auditHooks(app, cfg)
	if err != nil {
		return err
	}

	newTeller, err := teller.NewTeller(db, hooks...)
	if err != nil {
		return fmt.Errorf("error creating teller: %v", err)
	}
	app.teller = newTeller
	return nil
}

// NewCLI creates the command-line interface with the start, workers, migrate and config commands.
func NewCLI() *Teller {
	var configFile string
	t := &tellerInstance{}

	var rootCmd = &cobra.Command{
		Use:   "teller",
		Short: "Bank ledger transaction engine",
		Run:   func(cmd *cobra.Command, args []string) {},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./teller.json", "Configuration file for teller")
	rootCmd.PersistentPreRunE = preRun(t, &configFile)
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		// drain pending audit entries before the queue they feed is closed
		if t.teller != nil {
			t.teller.Close()
		}
		if t.queueHook != nil {
			if err := t.queueHook.Close(); err != nil {
				logrus.Error(err)
			}
		}
	}

	rootCmd.AddCommand(serverCommands(t))
	rootCmd.AddCommand(workerCommands(t))
	rootCmd.AddCommand(migrateCommands(t))
	rootCmd.AddCommand(configCommands())

	return &Teller{cmd: rootCmd}
}

func (w Teller) executeCLI() {
	if err := w.cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	defer recoverPanic()

	cli := NewCLI()
	cli.executeCLI()
}
