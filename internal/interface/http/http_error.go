package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/perpusgo/lending-api/pkg/apperr"
	"github.com/perpusgo/lending-api/pkg/response"
)

// statusFor maps the error taxonomy onto HTTP statuses. The kind itself also
// travels in the error payload, so consumers match on it rather than on
// message text.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindEligibility:
		return http.StatusForbidden
	case apperr.KindAvailability, apperr.KindConflict, apperr.KindConstraint:
		return http.StatusConflict
	case apperr.KindLimit:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// fail writes the error envelope for a service failure.
func fail(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	detail := gin.H{"kind": string(kind)}
	msg := "internal error"
	var e *apperr.Error
	if errors.As(err, &e) {
		msg = e.Message
		if e.Constraint != "" {
			detail["constraint"] = e.Constraint
		}
	}
	resp := response.Error[any](c, statusFor(kind), msg, detail)
	c.JSON(resp.Status, resp)
}

// idParam parses a positive int64 path parameter, writing a validation error
// on failure.
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		resp := response.Error[any](c, http.StatusBadRequest, "invalid "+name,
			gin.H{"kind": string(apperr.KindValidation)})
		c.JSON(resp.Status, resp)
		return 0, false
	}
	return id, true
}
