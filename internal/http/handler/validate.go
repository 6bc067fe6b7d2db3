package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"certdocs/internal/apperr"
	"certdocs/internal/http/middleware"
	"certdocs/internal/model"
	"certdocs/internal/service"
)

const dateLayout = "2006-01-02"

var validate = newValidator()

// newValidator reports fields by their wire names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, key := range []string{"json", "query", "form"} {
			name, _, _ := strings.Cut(f.Tag.Get(key), ",")
			if name != "" && name != "-" {
				return name
			}
		}
		return ""
	})
	return v
}

// bindJSON decodes the request body into dst and validates it.
func bindJSON(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return apperr.Validation("invalid request body")
	}
	return validateStruct(dst)
}

// bindQuery decodes query parameters into dst and validates it.
func bindQuery(c *fiber.Ctx, dst any) error {
	if err := c.QueryParser(dst); err != nil {
		return apperr.Validation("invalid query parameters")
	}
	return validateStruct(dst)
}

func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return apperr.Validation(fieldMessage(ve[0]))
	}
	return apperr.Validation("invalid request")
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "email":
		return fe.Field() + " must be a valid email"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "uuid":
		return fe.Field() + " must be a valid id"
	case "datetime":
		return fe.Field() + " must be a date (YYYY-MM-DD)"
	default:
		return fe.Field() + " is invalid"
	}
}

// pathID returns the named route parameter, which must be a UUID.
func pathID(c *fiber.Ctx, name string) (string, error) {
	id := c.Params(name)
	if _, err := uuid.Parse(id); err != nil {
		return "", apperr.Validation("invalid id format")
	}
	return id, nil
}

// currentActor returns the authenticated actor.
func currentActor(c *fiber.Ctx) (model.Actor, error) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return model.Actor{}, apperr.Unauthorized("authentication required")
	}
	return actor, nil
}

// parseDate parses an optional YYYY-MM-DD value.
func parseDate(field string, s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *s)
	if err != nil {
		return nil, apperr.Validation(field + " must be a date (YYYY-MM-DD)")
	}
	return &t, nil
}

func dateRange(from, to string) (service.DateRange, error) {
	var r service.DateRange
	var err error
	if r.From, err = parseDate("date_from", &from); err != nil {
		return r, err
	}
	if r.To, err = parseDate("date_to", &to); err != nil {
		return r, err
	}
	if r.From != nil && r.To != nil && r.To.Before(*r.From) {
		return r, apperr.Validation("date_to must not be before date_from")
	}
	return r, nil
}
