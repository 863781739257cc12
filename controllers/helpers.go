package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cppla/matlog/middleware"
)

func getUserID(ctx *gin.Context) (string, bool) {
	return middleware.CurrentUserID(ctx)
}

func parseUintDefault(s string, def uint) uint {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return def
	}
	return uint(v)
}

func parseIntDefault(s string, def int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
