package errors

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propensity/internal/scoring"
)

func testRequest(t *testing.T) *http.Request {
	t.Helper()
	return httptest.NewRequest(http.MethodGet, "/api/v1/leads", nil)
}

func TestErrorToProblem(t *testing.T) {
	h := NewErrorHandler(nil, false)

	tests := []struct {
		name        string
		err         error
		status      int
		problemType string
	}{
		{
			name:        "api error carries its status",
			err:         ErrScoreNotFound,
			status:      http.StatusNotFound,
			problemType: TypeScoreNotFound,
		},
		{
			name:        "validation error",
			err:         ErrValidation("min_score", "must be an integer"),
			status:      http.StatusBadRequest,
			problemType: TypeValidation,
		},
		{
			name:        "insufficient data maps to 422",
			err:         fmt.Errorf("aggregate: %w", scoring.ErrInsufficientData),
			status:      http.StatusUnprocessableEntity,
			problemType: TypeInsufficientData,
		},
		{
			name:        "context deadline maps to 504",
			err:         context.DeadlineExceeded,
			status:      http.StatusGatewayTimeout,
			problemType: TypeTimeout,
		},
		{
			name:        "unknown error stays opaque",
			err:         fmt.Errorf("connection reset"),
			status:      http.StatusInternalServerError,
			problemType: TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problem := h.ErrorToProblem(tt.err, testRequest(t))
			assert.Equal(t, tt.status, problem.Status)
			assert.Equal(t, tt.problemType, problem.Type)
			assert.Equal(t, "/api/v1/leads", problem.Instance)
		})
	}
}

func TestProblemDetailsMarshalIncludesExtensions(t *testing.T) {
	problem := NewProblemDetails(http.StatusBadRequest, TypeValidation, "Bad Request", "min_score invalid", "/api/v1/leads").
		WithExtension("trace_id", "abc-123")

	data, err := problem.MarshalJSON()
	require.NoError(t, err)

	body := string(data)
	assert.Contains(t, body, `"type":"/errors/validation"`)
	assert.Contains(t, body, `"trace_id":"abc-123"`)
	assert.Contains(t, body, `"status":400`)
}

func TestAPIErrorMessage(t *testing.T) {
	err := ErrValidation("date", "required")
	assert.Equal(t, "Request validation failed", err.Error())
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)

	detail, ok := err.Details.(ValidationError)
	require.True(t, ok)
	assert.Equal(t, "date", detail.Field)
}
