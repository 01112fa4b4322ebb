// Package http implements the gin HTTP surface: the SSE stream endpoint,
// the clients/sync admin API and the content API.
package http

import "github.com/gin-gonic/gin"

// envelope is the response shape the display clients and admin console
// expect: {code, message?, data?} with code mirroring the HTTP status.
type envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func respondData(c *gin.Context, data any) {
	c.JSON(200, envelope{Code: 200, Data: data})
}

func respondMessage(c *gin.Context, message string, data any) {
	c.JSON(200, envelope{Code: 200, Message: message, Data: data})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, envelope{Code: status, Message: message})
}
