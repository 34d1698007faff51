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

	"github.com/bykiy/reclaim"
	"github.com/bykiy/reclaim/internal/backups"
)

// GetMockChargebacks returns a generated processor export for trying
// the importer without real data.
func (a Api) GetMockChargebacks(c *gin.Context) {
	rows, err := strconv.Atoi(c.DefaultQuery("rows", "25"))
	if err != nil || rows <= 0 || rows > 10000 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rows"})
		return
	}
	c.Data(http.StatusOK, "text/csv", []byte(reclaim.GenerateMockChargebackCSV(rows)))
}

// GetMockOrders returns a generated store export.
func (a Api) GetMockOrders(c *gin.Context) {
	rows, err := strconv.Atoi(c.DefaultQuery("rows", "25"))
	if err != nil || rows <= 0 || rows > 10000 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rows"})
		return
	}
	c.Data(http.StatusOK, "text/csv", []byte(reclaim.GenerateMockOrderCSV(rows)))
}

func (a Api) BackupDB(c *gin.Context) {
	err := backups.BackupDB()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, "backup successful")
}

func (a Api) BackupDBS3(c *gin.Context) {
	err := backups.ZipUploadToS3()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, "backup successful")
}
