package handlers

import (
	"github.com/ArowuTest/tripledigit-backend/internal/utils"
	"github.com/ArowuTest/tripledigit-backend/pkg/apperror"
	"github.com/ArowuTest/tripledigit-backend/pkg/response"
	"github.com/gin-gonic/gin"
)

// bindJSON decodes the request body into req, writing a validation error
// response and returning false on failure.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return false
	}
	return true
}

func pagination(c *gin.Context) (page, limit int) {
	return utils.ParsePagination(c.Query("page"), c.Query("limit"))
}
