package handlers

import (
	"net/http"

	"blueridge/utils"

	"github.com/gin-gonic/gin"
)

// Health serves the last snapshot taken by the health monitor.
func Health(c *gin.Context) {
	snap := utils.GetHealthStatus()
	status, code := "ok", http.StatusOK
	for _, up := range snap.Checks {
		if !up {
			status, code = "degraded", http.StatusServiceUnavailable
			break
		}
	}
	c.JSON(code, gin.H{"status": status, "checks": snap.Checks, "checkedAt": snap.CheckedAt})
}
