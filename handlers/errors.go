package handlers

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/banghwa/staffboard/internal/apperr"
	"github.com/banghwa/staffboard/internal/schedule"
	"github.com/banghwa/staffboard/internal/store"
	"github.com/banghwa/staffboard/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators installs the custom binding tags used by request bodies
// and reports field names by their json tag. Safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
			return schedule.ValidDate(fl.Field().String())
		})
	})
}

// bindError turns a binding failure into a ValidationError so that clients
// see one error shape regardless of where the input was rejected.
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Invalid("body", err.Error())
	}
	fields := make([]apperr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperr.FieldError{Field: fe.Field(), Error: tagMessage(fe)})
	}
	return apperr.NewValidationError(fields...)
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "isodate":
		return "must be a calendar date in YYYY-MM-DD form"
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return "invalid (" + fe.Tag() + ")"
	}
}

// respondError maps service errors onto HTTP statuses. Unexpected failures
// are logged once here and reported with msg only.
func respondError(c *gin.Context, err error, msg string) {
	var ve *apperr.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": ve.FieldMap()})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, apperr.ErrNotConfirmed):
		c.JSON(http.StatusPreconditionRequired, gin.H{"error": "confirmation required"})
	default:
		logger.Errorw(msg, err, "method", c.Request.Method, "path", c.FullPath())
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}
