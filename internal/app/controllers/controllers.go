package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yigit/registrar/internal/middleware"
)

// parseIDParam reads a positive int64 path parameter. On failure it writes the 400 response.
func parseIDParam(ctx *gin.Context, name, label string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id < 1 {
		middleware.BadRequest(ctx, "Invalid "+label+" ID", label+" ID must be a positive number")
		return 0, false
	}
	return id, true
}

// parseIDQuery reads a required positive int64 query parameter
func parseIDQuery(ctx *gin.Context, name, label string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Query(name), 10, 64)
	if err != nil || id < 1 {
		middleware.BadRequest(ctx, "Invalid "+label+" ID", name+" query parameter must be a positive number")
		return 0, false
	}
	return id, true
}
