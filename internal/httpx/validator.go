package httpx

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"libraryapi/internal/authz"
)

var validate *validator.Validate

var (
	isbn10Pattern = regexp.MustCompile(`^\d{9}[\dX]$`)
	isbn13Pattern = regexp.MustCompile(`^\d{13}$`)
)

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation("isbn", validateISBN)
	_ = validate.RegisterValidation("role", validateRole)
}

func validateISBN(fl validator.FieldLevel) bool {
	isbn := strings.ToUpper(fl.Field().String())
	isbn = strings.ReplaceAll(isbn, "-", "")
	isbn = strings.ReplaceAll(isbn, " ", "")

	switch len(isbn) {
	case 10:
		return isbn10Pattern.MatchString(isbn)
	case 13:
		return isbn13Pattern.MatchString(isbn)
	default:
		return false
	}
}

func validateRole(fl validator.FieldLevel) bool {
	_, err := authz.ParseRole(fl.Field().String())
	return err == nil
}

// ValidateStruct runs struct tag validation and returns one detail per failing field.
func ValidateStruct(s any) []ErrorDetail {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []ErrorDetail{{Field: "", Message: err.Error()}}
	}

	var details []ErrorDetail
	for _, fe := range validationErrors {
		field := fe.Field()
		param := fe.Param()

		var message string
		switch fe.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", field)
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", field)
		case "min":
			message = fmt.Sprintf("%s must be at least %s", field, param)
		case "max":
			message = fmt.Sprintf("%s must be at most %s", field, param)
		case "isbn":
			message = fmt.Sprintf("%s must be a valid ISBN (10 or 13 digits)", field)
		case "role":
			message = fmt.Sprintf("%s must be one of Admin, Member", field)
		case "datetime":
			message = fmt.Sprintf("%s must be a date in the form %s", field, param)
		case "gte", "lte":
			message = fmt.Sprintf("%s must be %s %s", field, fe.Tag(), param)
		default:
			message = fmt.Sprintf("%s is invalid", field)
		}

		if field != "" {
			field = strings.ToLower(field[:1]) + field[1:]
		}
		details = append(details, ErrorDetail{
			Field:   field,
			Message: message,
		})
	}

	return details
}
