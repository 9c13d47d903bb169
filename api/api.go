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

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/bankapp/teller"
	"github.com/bankapp/teller/api/middleware"
	"github.com/bankapp/teller/config"
	"github.com/bankapp/teller/internal/apierror"
)

type Api struct {
	teller *teller.Teller
	router *gin.Engine
}

func (a Api) Router() *gin.Engine {
	router := a.router

	transactions := router.Group("/transactions")
	transactions.POST("/deposit", a.Deposit)
	transactions.POST("/withdraw", a.Withdraw)
	transactions.POST("/transfer", a.Transfer)
	transactions.PUT("/:id/approve", a.ApproveTransaction)
	transactions.PUT("/:id/reject", a.RejectTransaction)
	transactions.GET("/pending", a.GetPendingTransactions)
	transactions.GET("/recent", a.GetRecentTransactions)
	transactions.GET("/by-date", a.GetTransactionsByDate)
	transactions.GET("/daily-counts", a.GetDailyCounts)
	transactions.GET("/:id", a.GetTransaction)

	router.GET("/accounts/:number/transactions", a.GetAccountHistory)
	return a.router
}

func NewAPI(t *teller.Teller) *Api {
	gin.SetMode(gin.ReleaseMode)
	conf, err := config.Fetch()
	if err != nil {
		return nil
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	if conf.EnableTelemetry {
		r.Use(otelgin.Middleware(conf.ProjectName))
	}
	r.Use(middleware.RateLimitMiddleware(conf))
	r.Use(middleware.ActorMiddleware())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, "server running...")
	})

	return &Api{teller: t, router: r}
}

// respondWithError writes err using the status mapped from its error code.
func respondWithError(c *gin.Context, err error) {
	status := apierror.MapErrorToHTTPStatus(err)
	if apiErr, ok := err.(apierror.APIError); ok && status != http.StatusInternalServerError {
		c.JSON(status, gin.H{"error": apiErr.Message})
		return
	}
	c.JSON(status, gin.H{"error": "Internal server error"})
}
