package receiver_api

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

func (api *submissionApi) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"healthy": true})
}

// Readiness fails until the upload folder can be written to.
func (api *submissionApi) Readiness(c *gin.Context) {
	if err := os.MkdirAll(api.cfg.UploadFolder, 0o755); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ready": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ready": true})
}
