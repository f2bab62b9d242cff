// Package handlers adapts the services layer to gin. Every handler resolves
// the Caller stored by middleware.Authenticate and maps service errors with
// respondError.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"buildtrack/middleware"
	"buildtrack/models"
	"buildtrack/services"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	// Report validation failures under their JSON names.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// respondError writes the status and body err maps to. Unexpected errors are
// attached to the gin context so the request logger records them.
func respondError(c *gin.Context, err error) {
	var (
		verr  *services.ValidationError
		rerr  *services.RuleError
		nferr *services.NotFoundError
	)
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, models.ValidationErrorResponse{Errors: verr.Fields})
	case errors.As(err, &rerr):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: rerr.Message})
	case errors.As(err, &nferr):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: nferr.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Not found"})
	case errors.Is(err, services.ErrInsufficientRole):
		c.JSON(http.StatusForbidden, models.ErrorResponse{Error: "Access denied. Insufficient permissions."})
	case errors.Is(err, services.ErrNotAssigned):
		c.JSON(http.StatusForbidden, models.ErrorResponse{Error: "Access denied. Not assigned to this project."})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, models.ErrorResponse{Error: "Access denied."})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Invalid credentials"})
	case errors.Is(err, services.ErrAccountDisabled):
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Account is deactivated"})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Please authenticate."})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Internal server error"})
	}
}

// bindJSON decodes the body into dst and writes the 400 itself on failure.
// Handlers call it after the access gates have passed. The body is cached,
// so bodyProjectID may have read it first.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindBodyWith(dst, binding.JSON); err != nil {
		respondBindError(c, err)
		return false
	}
	return true
}

// bodyProjectID reads projectId from the JSON body without validating
// anything, for the create gates. A malformed body yields "".
func bodyProjectID(c *gin.Context) string {
	var ref struct {
		ProjectID string `json:"projectId"`
	}
	_ = c.ShouldBindBodyWith(&ref, binding.JSON)
	return ref.ProjectID
}

func respondBindError(c *gin.Context, err error) {
	var ves validator.ValidationErrors
	if errors.As(err, &ves) {
		fields := make([]services.FieldError, 0, len(ves))
		for _, fe := range ves {
			fields = append(fields, services.FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
		}
		respondError(c, &services.ValidationError{Fields: fields})
		return
	}
	c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return "Valid email is required"
	case "oneof":
		return "Invalid " + fe.Field()
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be %s or more", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be %s or less", fe.Field(), fe.Param())
	}
	return "Invalid " + fe.Field()
}

// caller returns the authenticated principal or writes a 401.
func caller(c *gin.Context) (services.Caller, bool) {
	who, ok := middleware.CallerFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Please authenticate."})
	}
	return who, ok
}

var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// dateQuery parses an optional date query parameter.
func dateQuery(c *gin.Context, key string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, services.Invalid(key, "Invalid date")
}

// dateRange reads startDate and endDate. endDate given as a bare day covers that whole day.
func dateRange(c *gin.Context) (from, to *time.Time, err error) {
	if from, err = dateQuery(c, "startDate"); err != nil {
		return nil, nil, err
	}
	if to, err = dateQuery(c, "endDate"); err != nil {
		return nil, nil, err
	}
	if to != nil && len(c.Query("endDate")) == len("2006-01-02") {
		end := to.Add(24*time.Hour - time.Nanosecond)
		to = &end
	}
	return from, to, nil
}
