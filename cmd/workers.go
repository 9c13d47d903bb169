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
	"context"
	"fmt"
	"log"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.elastic.co/apm/module/apmlogrus/v2"

	"github.com/bankapp/teller/config"
	"github.com/bankapp/teller/internal/audit"
	"github.com/bankapp/teller/internal/notification"
	redis_db "github.com/bankapp/teller/internal/redis-db"
)

// reportErrorsToAPM forwards error, fatal and panic logs to Elastic APM.
func reportErrorsToAPM(logger *logrus.Logger) {
	logger.AddHook(&apmlogrus.Hook{})
}

// reportFailedDelivery raises an error notification once an audit entry has exhausted its retries.
func reportFailedDelivery(ctx context.Context, task *asynq.Task, err error) {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	if retried >= maxRetry {
		notification.NotifyError(fmt.Errorf("audit delivery for task %s failed permanently: %w", task.Type(), err))
	}
}

func initializeWorkerServer(conf *config.Configuration) (*asynq.Server, error) {
	redisOption, err := redis_db.ParseRedisURL(conf.Redis.Dns, conf.Redis.SkipTLSVerify)
	if err != nil {
		return nil, err
	}

	return asynq.NewServer(
		redis_db.AsynqOpt(redisOption),
		asynq.Config{
			Concurrency:  2,
			Queues:       map[string]int{audit.AUDIT_QUEUE: 1},
			ErrorHandler: asynq.ErrorHandlerFunc(reportFailedDelivery),
		},
	), nil
}

// workerCommands defines the "workers" command, which delivers queued audit entries to the webhook.
func workerCommands(_ *tellerInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workers",
		Short: "start teller workers",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			conf, err := config.Fetch()
			if err != nil {
				log.Fatal("Error fetching config:", err)
			}
			if conf.Redis.Dns == "" {
				log.Fatal("workers need redis.dns to be configured")
			}
			reportErrorsToAPM(logrus.StandardLogger())

			shutdown, err := initializeObservability(ctx, conf)
			if err != nil {
				log.Fatal(err)
			}
			defer func() {
				if err := shutdown(ctx); err != nil {
					log.Printf("Error during shutdown: %v", err)
				}
			}()

			srv, err := initializeWorkerServer(conf)
			if err != nil {
				log.Fatalf("error parsing Redis URL: %v", err)
			}

			mux := asynq.NewServeMux()
			mux.HandleFunc(audit.AUDIT_QUEUE, audit.ProcessAudit)

			if err := srv.Run(mux); err != nil {
				log.Fatalf("could not run server: %v", err)
			}
		},
	}

	return cmd
}
