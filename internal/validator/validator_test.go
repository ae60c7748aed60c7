package validator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AliZeynalov/ai-router-facade/internal/models"
	"github.com/AliZeynalov/ai-router-facade/internal/validator"
)

func TestValidateRequestAcceptsMinimalValidRequest(t *testing.T) {
	req := &models.GenerationRequest{Prompt: "hello"}
	assert.NoError(t, validator.ValidateRequest(req))
}

func TestValidateRequestRejectsEmptyPrompt(t *testing.T) {
	req := &models.GenerationRequest{Prompt: ""}
	err := validator.ValidateRequest(req)
	require.Error(t, err)

	verrs, ok := err.(*validator.ValidationErrors)
	require.True(t, ok)
	require.Len(t, verrs.Errors, 1)
	assert.Contains(t, verrs.Errors[0], "prompt")
}

func TestValidateRequestRejectsNonPositiveMaxTokens(t *testing.T) {
	req := &models.GenerationRequest{Prompt: "hi", MaxTokens: -5}
	err := validator.ValidateRequest(req)
	require.Error(t, err)
}

func TestValidateRequestRejectsOutOfRangeTemperature(t *testing.T) {
	req := &models.GenerationRequest{Prompt: "hi", Temperature: 2.5}
	err := validator.ValidateRequest(req)
	require.Error(t, err)

	verrs, ok := err.(*validator.ValidationErrors)
	require.True(t, ok)
	assert.Contains(t, verrs.Errors[0], "temperature")
}

func TestValidateRequestAcceptsBoundaryTemperature(t *testing.T) {
	req := &models.GenerationRequest{Prompt: "hi", Temperature: 2.0}
	assert.NoError(t, validator.ValidateRequest(req))

	req = &models.GenerationRequest{Prompt: "hi", Temperature: 0}
	assert.NoError(t, validator.ValidateRequest(req))
}
