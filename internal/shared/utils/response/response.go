// Package response defines the JSON envelope every handler replies with.
package response

import "github.com/gin-gonic/gin"

// Envelope wraps every API reply, success or failure, so clients can
// switch on status without sniffing the payload shape.
type Envelope struct {
	Status     string      `json:"status"` // "success" or "error"
	StatusCode int         `json:"status_code"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data,omitempty"`
	Errors     interface{} `json:"errors,omitempty"` // validation details on failures
}

func RespondJSON(c *gin.Context, status string, code int, message string, data interface{}, errors interface{}) {
	c.JSON(code, Envelope{
		Status:     status,
		StatusCode: code,
		Message:    message,
		Data:       data,
		Errors:     errors,
	})
}
