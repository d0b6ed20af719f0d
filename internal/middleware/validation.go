package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/mclass/internal/app/models/dto"
	"github.com/yigit/mclass/internal/pkg/apperrors"
	"github.com/yigit/mclass/internal/pkg/helpers"
)

// BindJSON binds the request body into obj, running the binding rules. On
// failure it writes a VAL_001 response and returns false.
func BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return false
	}
	return true
}

// BindID reads a positive numeric path parameter, answering 400 when it is not one.
func BindID(c *gin.Context, name string) (int64, bool) {
	id, ok := helpers.ParseIDParam(c, name)
	if !ok {
		HandleAPIError(c, apperrors.NewBadRequestError("Invalid "+name))
		return 0, false
	}
	return id, true
}
