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
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	model2 "github.com/bykiy/reclaim/api/model"
	"github.com/bykiy/reclaim/internal/apierror"
)

// RunMatching triggers a matching run over unmatched chargebacks.
func (a Api) RunMatching(c *gin.Context) {
	summary, err := a.service.RunMatching(c.Request.Context())
	if err != nil {
		logrus.Error(err)
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetChargebacks lists recent chargebacks with matched-order summaries.
func (a Api) GetChargebacks(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offset"})
		return
	}

	chargebacks, err := a.service.ListChargebacks(c.Request.Context(), limit, offset)
	if err != nil {
		logrus.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch chargebacks"})
		return
	}
	c.JSON(http.StatusOK, chargebacks)
}

// GetRecoveryCustomers lists the pipeline with optional tier, status and
// search filters.
func (a Api) GetRecoveryCustomers(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "200"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}

	customers, err := a.service.ListRecoveryCustomers(
		c.Request.Context(),
		c.Query("tier"),
		c.Query("status"),
		c.Query("search"),
		limit,
	)
	if err != nil {
		logrus.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch recovery customers"})
		return
	}
	c.JSON(http.StatusOK, customers)
}

// UpdateCustomerStatus moves a recovery customer through the pipeline.
func (a Api) UpdateCustomerStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer id"})
		return
	}

	var req model2.UpdateStatus
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.ValidateUpdateStatus(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := a.service.UpdateCustomerStatus(c.Request.Context(), id, req.Status, req.Channel, req.Notes); err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "status updated"})
}

// GetOutreachLog returns the outreach history for a recovery customer.
func (a Api) GetOutreachLog(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer id"})
		return
	}

	entries, err := a.service.OutreachHistory(c.Request.Context(), id)
	if err != nil {
		logrus.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch outreach log"})
		return
	}
	c.JSON(http.StatusOK, entries)
}

// SendOutreach renders and dispatches an outreach message.
func (a Api) SendOutreach(c *gin.Context) {
	var req model2.SendOutreach
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.ValidateSendOutreach(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := a.service.SendOutreach(c.Request.Context(), req.CustomerID, req.Channel, req.Template)
	if err != nil {
		logrus.Error(err)
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetDashboardStats returns the aggregated dashboard view.
func (a Api) GetDashboardStats(c *gin.Context) {
	stats, err := a.service.Stats(c.Request.Context())
	if err != nil {
		logrus.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch dashboard stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
