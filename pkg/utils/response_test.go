package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "safety-tracker/pkg/errors"
)

func newContext() (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestErrorResponse_HttpErrorWithDetails(t *testing.T) {
	c, rec := newContext()
	err := apperrors.NewUnauthorizedError("Admin access required.", "/api/auth/admin/login")

	require.NoError(t, ErrorResponse(c, err, zap.NewNop()))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["status"])
	assert.Equal(t, "Admin access required.", body["message"])
	assert.Equal(t, "/api/auth/admin/login", body["body"].(map[string]interface{})["redirect"])
}

func TestErrorResponse_Sentinels(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("wrap: %w", apperrors.ErrNotFound), http.StatusNotFound},
		{apperrors.ErrConflict, http.StatusConflict},
		{apperrors.ErrEquipmentRetired, http.StatusConflict},
		{apperrors.ErrTooManyAttempts, http.StatusTooManyRequests},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		c, rec := newContext()
		require.NoError(t, ErrorResponse(c, tc.err, zap.NewNop()))
		assert.Equal(t, tc.code, rec.Code, tc.err.Error())
	}
}

func TestErrorResponse_HidesInternalErrors(t *testing.T) {
	c, rec := newContext()
	require.NoError(t, ErrorResponse(c, errors.New("pq: connection refused"), zap.NewNop()))
	assert.Equal(t, internalErrorMessage, decode(t, rec)["message"])
}

func TestErrorResponse_ValidationErrors(t *testing.T) {
	type payload struct {
		Name string `validate:"required"`
	}
	err := validator.New().Struct(payload{})
	c, rec := newContext()

	require.NoError(t, ErrorResponse(c, err, zap.NewNop()))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["message"], "Name")
}

func TestParseIDParam(t *testing.T) {
	c, _ := newContext()
	c.SetParamNames("id")
	c.SetParamValues("42")
	id, err := ParseIDParam(c, "id")
	require.NoError(t, err)
	assert.EqualValues(t, 42, id)

	c.SetParamValues("abc")
	_, err = ParseIDParam(c, "id")
	assert.Equal(t, http.StatusBadRequest, apperrors.StatusCode(err))
}
