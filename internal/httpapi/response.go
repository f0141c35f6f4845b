package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the uniform result of every handler: a status code and a JSON body.
// Handlers build one and the entrypoint writes it, so handlers stay free of gin.
//
// Two error dialects exist and must stay distinct:
//   - gateway errors (front router, infrastructure) use {"msg": ...}
//   - function errors (entrypoints, module handlers) use {"error": ...}
//
// Clients tell routing failures apart from handler failures by the field name.
type Response struct {
	Status int
	Body   any
}

// JSON builds a response with an arbitrary body.
func JSON(body any, status int) Response {
	return Response{Status: status, Body: body}
}

// OK is a 200 response.
func OK(body any) Response {
	return Response{Status: http.StatusOK, Body: body}
}

// Error is a function-dialect error.
func Error(msg string, status int) Response {
	return Response{Status: status, Body: gin.H{"error": msg}}
}

// Failure is a function-dialect upstream failure, reported as {"success": false}.
func Failure(msg string) Response {
	return Response{Status: http.StatusBadRequest, Body: gin.H{"success": false, "error": msg}}
}

// GatewayError is a gateway-dialect error.
func GatewayError(msg string, status int) Response {
	return Response{Status: status, Body: gin.H{"msg": msg}}
}

// InternalError is the function-dialect 500 every entrypoint falls back to.
func InternalError() Response {
	return Error("Internal server error", http.StatusInternalServerError)
}

// Write serializes r as JSON with CORS headers and stops the gin chain.
func (r Response) Write(c *gin.Context) {
	SetCORSHeaders(c.Writer.Header())
	status := r.Status
	if status == 0 {
		status = http.StatusOK
	}
	if r.Body == nil {
		c.AbortWithStatusJSON(status, gin.H{})
		return
	}
	c.AbortWithStatusJSON(status, r.Body)
}
