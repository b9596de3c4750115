package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCodeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("apply: %w", NewTerminalStateError("Resolved"))

	assert.True(t, HasCode(err, CodeTerminalState))
	assert.False(t, HasCode(err, CodeForbidden))
	assert.False(t, HasCode(errors.New("plain"), CodeTerminalState))
}

func TestToDomainError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{name: "domain error passes through", err: NewForbidden("nope"), code: CodeForbidden, status: http.StatusForbidden},
		{name: "no rows becomes not found", err: pgx.ErrNoRows, code: CodeNotFound, status: http.StatusNotFound},
		{name: "unknown becomes internal", err: errors.New("boom"), code: CodeInternal, status: http.StatusInternalServerError},
		{name: "persistence keeps cause", err: NewPersistenceError(errors.New("conn reset")), code: CodePersistence, status: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			de := ToDomainError(tt.err)
			require.NotNil(t, de)
			assert.Equal(t, tt.code, de.Code)
			assert.Equal(t, tt.status, de.HTTPStatus)
		})
	}

	assert.Nil(t, ToDomainError(nil))
}

func TestDeliveryErrorUnwraps(t *testing.T) {
	cause := errors.New("timeout")
	err := NewDeliveryError("telegram", "123", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "notification delivery failed")
}
