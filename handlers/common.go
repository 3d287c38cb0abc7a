package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Response struct {
	Error string `json:"error"`
}

var (
	// Predefined responses
	OKResponse            = Response{}
	NotFoundResponse      = Response{"not found"}
	ForbiddenResponse     = Response{"forbidden"}
	DBUnavailableResponse = Response{"data is temporarily unavailable"}
)

// internalError logs the real cause and shows the user a generic message.
func internalError(c *gin.Context, msg string, err error) {
	logrus.WithError(err).Error(msg)
	c.JSON(http.StatusInternalServerError, Response{Error: "something went wrong"})
}

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

func pageParams(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(c.DefaultQuery("pageSize", strconv.Itoa(defaultPageSize)))
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

func paramID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, Response{Error: "invalid id"})
		return 0, false
	}
	return id, true
}
