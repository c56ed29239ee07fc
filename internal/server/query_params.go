package server

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// parsePathID reads a positive int64 path parameter.
func parsePathID(c *gin.Context, param string) (int64, error) {
	raw := strings.TrimSpace(c.Param(param))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, newValidationError(param, "invalid_"+param, "The "+param+" must be a positive integer.")
	}
	return id, nil
}

func pathString(c *gin.Context, param string) (string, error) {
	value := strings.TrimSpace(c.Param(param))
	if value == "" {
		return "", newValidationError(param, param+"_required", "The "+param+" field is required.")
	}
	return value, nil
}
