package handlers

import (
	"errors"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/polkiloo/pathway/internal/server/http/dto"
)

const malformedBody = "malformed request body"

type validatable interface {
	Validate() error
}

// bindRequest decodes the JSON body into req and validates it. On failure the
// response is already written and false is returned.
func bindRequest(c *gin.Context, req validatable) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Detail: malformedBody})
		return false
	}
	if err := req.Validate(); err != nil {
		var errs validation.Errors
		if !errors.As(err, &errs) {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Detail: err.Error()})
			return false
		}
		c.JSON(http.StatusUnprocessableEntity, dto.ValidationErrorResponse{Detail: fieldErrors(errs)})
		return false
	}
	return true
}

func fieldErrors(errs validation.Errors) []dto.FieldError {
	out := make([]dto.FieldError, 0, len(errs))
	for field, err := range errs {
		out = append(out, dto.FieldError{Field: field, Message: err.Error()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}
