// internal/utils/validator.go
package utils

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("username", validateUsername)
	validate.RegisterValidation("role", validateRole)
	validate.RegisterValidation("payment_method", validatePaymentMethod)
	validate.RegisterValidation("sale_status", validateSaleStatus)
	validate.RegisterValidation("vehicle_status", validateVehicleStatus)
	validate.RegisterValidation("seriousness", validateSeriousness)
	validate.RegisterValidation("service_status", validateServiceStatus)
	validate.RegisterValidation("condition", validateCondition)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validateUsername(fl validator.FieldLevel) bool {
	username := fl.Field().String()

	// Username should be alphanumeric and underscores, 3-50 characters
	if len(username) < 3 || len(username) > 50 {
		return false
	}

	matched, _ := regexp.MatchString("^[a-zA-Z0-9_]+$", username)
	return matched
}

func validateRole(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "Admin", "Finance", "BuyerRep", "SalesRep", "ServiceRep", "PR":
		return true
	}
	return false
}

func validatePaymentMethod(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "Cash", "Credit", "Loan":
		return true
	}
	return false
}

func validateSaleStatus(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "Under Contract", "Under Writing", "Sold":
		return true
	}
	return false
}

func validateVehicleStatus(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "Available", "In Service", "Under Writing", "Under Contract", "Sold":
		return true
	}
	return false
}

func validateSeriousness(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "High", "Medium", "Low":
		return true
	}
	return false
}

func validateServiceStatus(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "In Service", "Completed":
		return true
	}
	return false
}

func validateCondition(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "Normal", "Damaged":
		return true
	}
	return false
}

// Validation tags for common fields
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "gt":
		return e.Field() + " must be greater than " + e.Param()
	case "username":
		return "Username must be 3-50 characters and contain only letters, numbers, and underscores"
	case "role":
		return "Role must be one of Admin, Finance, BuyerRep, SalesRep, ServiceRep, PR"
	case "payment_method":
		return "Payment method must be one of Cash, Credit, Loan"
	case "sale_status":
		return "Status must be one of Under Contract, Under Writing, Sold"
	case "vehicle_status":
		return "Status must be one of Available, In Service, Under Writing, Under Contract, Sold"
	case "seriousness":
		return "Seriousness must be one of High, Medium, Low"
	case "service_status":
		return "Status must be In Service or Completed"
	case "condition":
		return "Condition must be Normal or Damaged"
	default:
		return e.Field() + " is invalid"
	}
}
