package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusMapping(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(Validation("bad input")))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NotFound("no such order")))
	assert.Equal(t, http.StatusConflict, HTTPStatus(Conflict("already settled")))
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(Unauthorized("invalid credentials")))
	assert.Equal(t, http.StatusForbidden, HTTPStatus(Forbidden("not your order")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("disk on fire")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(nil))
}

func TestKindSurvivesWrapping(t *testing.T) {
	base := NotFound("transaction %s not found", "txn_1")
	wrapped := fmt.Errorf("settle order: %w", base)

	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsConflict(wrapped))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("pq: connection refused")
	err := Wrap(KindInternal, "load event", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "load event: pq: connection refused", err.Error())
}
