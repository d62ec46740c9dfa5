package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"military-logistics-api-server/internal/apperror"
	"military-logistics-api-server/internal/models"
	"military-logistics-api-server/internal/rbac"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	enums := map[string][]string{
		"rank":                models.Ranks,
		"department":          models.Departments,
		"purchasecategory":    models.PurchaseCategories,
		"equipmenttype":       models.EquipmentTypes,
		"expenditurecategory": models.ExpenditureCategories,
		"paymentmethod":       models.PaymentMethods,
		"transportmethod":     models.TransportMethods,
	}
	for tag, values := range enums {
		values := values
		_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return models.Contains(values, fl.Field().String())
		})
	}
	_ = v.RegisterValidation("base", func(fl validator.FieldLevel) bool {
		return rbac.Base(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return rbac.Role(fl.Field().String()).IsValid()
	})
	return v
}

// validateInput runs struct validation and reports the first failure as a
// ValidationError naming the JSON field.
func validateInput(in interface{}) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperror.Validation("", err.Error())
	}
	fe := verrs[0]
	return apperror.Validation(fe.Field(), fieldMessage(fe))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "email":
		return "Please enter a valid email"
	default:
		return fmt.Sprintf("%s has an invalid value", fe.Field())
	}
}
