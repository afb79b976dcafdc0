package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/eventreg/internal/domain/errors"
	"github.com/polkiloo/eventreg/internal/domain/model"
	"github.com/polkiloo/eventreg/internal/server/http/dto"
	"github.com/polkiloo/eventreg/internal/server/http/middleware"
)

var errMalformedID = errors.New("malformed id")

// CurrentPrincipal extracts the authenticated caller from context.
func CurrentPrincipal(c *gin.Context) model.Principal {
	val, ok := c.Get(middleware.PrincipalContextKey)
	if !ok {
		return model.Principal{}
	}
	p, _ := val.(model.Principal)
	return p
}

// statusOf maps the domain error taxonomy onto HTTP statuses.
func statusOf(err error) int {
	switch domainErrors.KindOf(err) {
	case domainErrors.KindValidation:
		return http.StatusUnprocessableEntity
	case domainErrors.KindConflict, domainErrors.KindState:
		return http.StatusConflict
	case domainErrors.KindAuthorization:
		if errors.Is(err, domainErrors.ErrInvalidCredentials) {
			return http.StatusUnauthorized
		}
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as a {code, message} body. Infrastructure details stay in the log.
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)
	status := statusOf(err)
	body := dto.ErrorResponse{Code: domainErrors.CodeOf(err), Message: err.Error()}
	if status == http.StatusInternalServerError {
		body.Message = http.StatusText(status)
	}
	if status == http.StatusNotFound {
		body.Message = domainErrors.ErrNotFound.Error()
	}
	c.AbortWithStatusJSON(status, body)
}

func writeBadRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.ErrorResponse{Code: "payload_too_large", Message: err.Error()})
		return
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{Code: "bad_request", Message: err.Error()})
}

func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errMalformedID
	}
	return id, nil
}
