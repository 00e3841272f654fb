package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Ack is the acknowledgement body returned when there is nothing else to report.
var Ack = gin.H{"response": "OK"}

// JSON writes a JSON response with the given status.
func JSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

// OK writes a 200 OK JSON response.
func OK(c *gin.Context, payload any) {
	JSON(c, http.StatusOK, payload)
}

// Acknowledge writes {"response":"OK"} with 200.
func Acknowledge(c *gin.Context) {
	JSON(c, http.StatusOK, Ack)
}
