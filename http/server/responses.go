package server

import (
	"errors"
	"net/http"

	"dreamlayer/image/workflow"

	"github.com/gin-gonic/gin"
)

func errorBody(message string) gin.H {
	return gin.H{"status": "error", "message": message}
}

// fail writes the uniform error body. Validation errors are 400, the rest 500.
func fail(c *gin.Context, err error) {
	log := requestLogger(c)

	var validation *workflow.ValidationError
	if errors.As(err, &validation) {
		log.Info("Rejected request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Validation failed",
			"details": validation.Details,
		})
		return
	}

	log.Error("Request failed", "error", err)
	c.JSON(http.StatusInternalServerError, errorBody(err.Error()))
}
