/*
Copyright 2024 Reclaim Authors.

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
	"github.com/gin-gonic/gin"

	"github.com/bykiy/reclaim"
	"github.com/bykiy/reclaim/api/middleware"
	"github.com/bykiy/reclaim/config"
)

type Api struct {
	service *reclaim.Reclaim
	router  *gin.Engine
}

func (a Api) Router() *gin.Engine {
	router := a.router
	router.POST("/import/chargebacks", a.ImportChargebacks)
	router.POST("/import/orders", a.ImportOrders)

	router.POST("/match/run", a.RunMatching)
	router.GET("/chargebacks", a.GetChargebacks)

	router.GET("/customers/recovery", a.GetRecoveryCustomers)
	router.PATCH("/customers/:id/status", a.UpdateCustomerStatus)
	router.GET("/customers/:id/outreach", a.GetOutreachLog)

	router.POST("/outreach/send", a.SendOutreach)

	router.GET("/dashboard/stats", a.GetDashboardStats)

	router.GET("/mocked-chargebacks", a.GetMockChargebacks)
	router.GET("/mocked-orders", a.GetMockOrders)

	router.GET("/backup", a.BackupDB)
	router.GET("/backup-s3", a.BackupDBS3)
	return a.router
}

func NewAPI(service *reclaim.Reclaim) *Api {
	gin.SetMode(gin.ReleaseMode)
	conf, err := config.Fetch()
	if err != nil {
		return nil
	}
	r := gin.Default()
	if conf.Server.Secure {
		r.Use(middleware.SecretKeyAuthMiddleware())
	}
	r.Use(middleware.RateLimitMiddleware(conf))

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, "server running...")
	})

	return &Api{service: service, router: r}
}
