// Package validator validates incoming Generation Requests, using
// go-playground/validator/v10 the way the teacher's handler.go already
// expects (ValidateRequest, *ValidationErrors with a .Errors field of
// human-readable messages).
package validator

import (
	"fmt"
	"strings"

	playground "github.com/go-playground/validator/v10"

	"github.com/AliZeynalov/ai-router-facade/internal/models"
)

var validate = playground.New()

// ValidationErrors collects one message per failed field, in the shape
// handler.go serializes as the "details" array on a 400 response.
type ValidationErrors struct {
	Errors []string
}

func (e *ValidationErrors) Error() string {
	return strings.Join(e.Errors, "; ")
}

// ValidateRequest checks the Generation Request invariants from
// spec.md §3: non-empty prompt, max-tokens positive, temperature in
// [0, 2].
func ValidateRequest(req *models.GenerationRequest) error {
	if err := validate.Struct(req); err != nil {
		verrs, ok := err.(playground.ValidationErrors)
		if !ok {
			return err
		}
		out := &ValidationErrors{}
		for _, fe := range verrs {
			out.Errors = append(out.Errors, describeFieldError(fe))
		}
		return out
	}
	return nil
}

func describeFieldError(fe playground.FieldError) string {
	switch fe.Field() {
	case "Prompt":
		return "prompt must not be empty"
	case "MaxTokens":
		return "maxTokens must be a positive integer"
	case "Temperature":
		return "temperature must be between 0 and 2"
	default:
		return fmt.Sprintf("%s failed validation: %s", fe.Field(), fe.Tag())
	}
}
