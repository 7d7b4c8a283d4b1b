package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFactoriesCarryStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, NewValidation("bad").HTTPStatus)
	assert.Equal(t, http.StatusNotFound, NewNotFound("lot", "42").HTTPStatus)
	assert.Equal(t, http.StatusUnprocessableEntity, NewLotNotResolved("Smecta", "").HTTPStatus)
	assert.Equal(t, http.StatusConflict, NewConcurrentModification("lot", "42").HTTPStatus)
	assert.Equal(t, http.StatusConflict, NewConflict("dup").HTTPStatus)
	assert.Equal(t, http.StatusInternalServerError, NewInternal(errors.New("boom")).HTTPStatus)
}

func TestWithDetailAndCause(t *testing.T) {
	cause := errors.New("row locked")
	err := NewValidation("bad quantity").
		WithDetail("field", "quantite").
		WithCause(cause)

	assert.Equal(t, "quantite", err.Details["field"])
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "row locked")
}

func TestIsCodeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("apply line: %w", NewLotNotResolved("Smecta", "SM774"))

	assert.True(t, IsCode(err, CodeLotNotResolved))
	assert.False(t, IsCode(err, CodeNotFound))
	assert.False(t, IsCode(errors.New("plain"), CodeLotNotResolved))

	appErr, ok := AsAppError(err)
	assert.True(t, ok)
	assert.Equal(t, "SM774", appErr.Details["numeroLot"])
}

func TestGetHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, GetHTTPStatus(NewNotFound("sale", "s1")))
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(errors.New("plain")))
}
