// internal/handlers/errors.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/kucukkal/dealer-backend/internal/utils"
)

// respondError translates a service error onto the HTTP envelope.
// Validator errors become the field-by-field 400 payload; classified
// domain errors map through their kind; anything else is a 500.
func respondError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		utils.ValidationErrorResponse(c, utils.GetValidationErrors(verrs))
		return
	}
	utils.DomainErrorResponse(c, err)
}
