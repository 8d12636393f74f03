// Package response shapes every endpoint's body into the uniform
// {success, data, message, count, error} envelope.
package response

import "github.com/gin-gonic/gin"

type Envelope struct {
	Success bool        `json:"success"`
	Token   string      `json:"token,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Count   *int        `json:"count,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func OK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Envelope{Success: true, Data: data})
}

// List attaches the element count alongside the data, as every
// collection endpoint does.
func List(c *gin.Context, status int, data interface{}, count int, message string) {
	c.JSON(status, Envelope{Success: true, Data: data, Count: &count, Message: message})
}

func Token(c *gin.Context, status int, token string, data interface{}) {
	c.JSON(status, Envelope{Success: true, Token: token, Data: data})
}

func Message(c *gin.Context, status int, message string) {
	c.JSON(status, Envelope{Success: true, Message: message})
}

func Fail(c *gin.Context, status int, message string) {
	c.JSON(status, Envelope{Success: false, Message: message})
}

// AbortFail is Fail for middleware, stopping the handler chain.
func AbortFail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Envelope{Success: false, Message: message})
}

// ServerError reports a 500. The underlying error is echoed in the
// envelope only outside production.
func ServerError(c *gin.Context, message string, err error, production bool) {
	env := Envelope{Success: false, Message: message}
	if err != nil && !production {
		env.Error = err.Error()
	}
	c.JSON(500, env)
}
