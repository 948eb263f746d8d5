package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"ridebook/internal/auth"
	"ridebook/internal/repository"
	"ridebook/internal/service"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{&service.FieldError{Field: "pickupDate", Reason: "bad"}, http.StatusBadRequest, CodeValidation},
		{service.ErrUnauthorized, http.StatusUnauthorized, CodeUnauthorized},
		{fmt.Errorf("%w: expired", auth.ErrInvalidToken), http.StatusUnauthorized, CodeUnauthorized},
		{fmt.Errorf("%w: not yours", service.ErrForbidden), http.StatusForbidden, CodeForbidden},
		{fmt.Errorf("customer x: %w", repository.ErrNotFound), http.StatusNotFound, CodeNotFound},
		{service.ErrConflict, http.StatusConflict, CodeConflict},
		{fmt.Errorf("%w: Completed to Cancelled", service.ErrInvalidTransition), http.StatusConflict, CodeInvalidTransition},
		{fmt.Errorf("%w: dial tcp", service.ErrUnavailable), http.StatusServiceUnavailable, CodeUnavailable},
		{auth.ErrProviderUnavailable, http.StatusServiceUnavailable, CodeUnavailable},
		{errors.New("boom"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		status, code := mapError(tt.err)
		assert.Equal(t, tt.wantStatus, status, tt.err.Error())
		assert.Equal(t, tt.wantCode, code, tt.err.Error())
	}
}
