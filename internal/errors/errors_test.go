package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError(t *testing.T) {
	cause := stderrors.New("window count is zero")
	err := NewComputationError("volatility for AAPL", cause).WithContext("symbol", "AAPL")

	assert.Equal(t, "[COMPUTATION] volatility for AAPL: window count is zero", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "AAPL", err.Context["symbol"])

	wrapped := fmt.Errorf("value chain: %w", err)
	assert.Equal(t, ErrTypeComputation, TypeOf(wrapped))
	assert.True(t, IsType(wrapped, ErrTypeComputation))
	assert.False(t, IsType(cause, ErrTypeComputation))

	assert.Equal(t, "[NOT_FOUND] prices for MSFT not found", NewNotFoundError("prices for MSFT").Error())
}

func TestHelperTypes(t *testing.T) {
	cases := map[ErrorType]*AppError{
		ErrTypeParsing:    NewParsingError("bad row", nil),
		ErrTypeStorage:    NewStorageError("write", nil),
		ErrTypeValidation: NewAppValidationError("bad"),
		ErrTypeConfig:     NewConfigError("load", nil),
		ErrTypeNotFound:   NewNotFoundError("x"),
	}
	for want, err := range cases {
		assert.Equal(t, want, err.Type)
	}
}

func TestFromAppError(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, FromAppError(NewAppValidationError("x")).StatusCode)
	assert.Equal(t, http.StatusNotFound, FromAppError(NewNotFoundError("x")).StatusCode)
	assert.Equal(t, http.StatusUnprocessableEntity, FromAppError(NewComputationError("x", nil)).StatusCode)
	assert.Equal(t, http.StatusInternalServerError, FromAppError(NewStorageError("x", nil)).StatusCode)
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, ErrServiceUnavailable)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "SERVICE_UNAVAILABLE", body.Error.ErrorCode)
}

type sample struct {
	Name   string  `json:"name" validate:"required"`
	Rate   float64 `json:"rate" validate:"gte=0,lte=1"`
	Method string  `yaml:"method" validate:"oneof=ewma average"`
}

func TestValidateStruct(t *testing.T) {
	require.NoError(t, ValidateStruct("sample", sample{Name: "a", Rate: 0.5, Method: "ewma"}))

	err := ValidateStruct("sample", sample{Rate: 2, Method: "median"})
	require.Error(t, err)
	assert.True(t, IsType(err, ErrTypeValidation))

	var list ValidationErrors
	require.ErrorAs(t, err, &list)
	require.Len(t, list.Errors, 3)
	assert.Equal(t, "sample.name", list.Errors[0].Field)
	assert.Equal(t, "is required", list.Errors[0].Message)
	assert.Equal(t, "sample.method", list.Errors[2].Field)
	assert.Contains(t, err.Error(), "must be one of [ewma average]")
}
