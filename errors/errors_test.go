package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	tts := map[string]struct {
		enrichers []ErrorEnricher
		code      int
		message   string
	}{
		"default code": {
			code:    DefaultCode,
			message: "oops",
		},
		"not found": {
			enrichers: []ErrorEnricher{NotFound()},
			code:      http.StatusNotFound,
			message:   "oops",
		},
		"last code wins": {
			enrichers: []ErrorEnricher{Forbidden(), Conflict()},
			code:      http.StatusConflict,
			message:   "oops",
		},
		"code forwarded from the cause": {
			enrichers: []ErrorEnricher{WithCause(New("expired", Gone()))},
			code:      http.StatusGone,
			message:   "oops: expired",
		},
		"own code kept over the cause's": {
			enrichers: []ErrorEnricher{BadRequest(), WithCause(New("expired", Gone()))},
			code:      http.StatusBadRequest,
			message:   "oops: expired",
		},
		"plain cause": {
			enrichers: []ErrorEnricher{WithCause(errors.New("disk full"))},
			code:      DefaultCode,
			message:   "oops: disk full",
		},
	}

	for name, tt := range tts {
		t.Run(name, func(t *testing.T) {
			err := New("oops", tt.enrichers...)
			assert.Equal(t, tt.message, err.Error())
			AssertCode(t, err, tt.code)
		})
	}
}

func TestWithCode(t *testing.T) {
	tts := map[string]struct {
		err      error
		expected error
	}{
		"plain error": {
			err:      errors.New("simple error"),
			expected: &myError{msg: "simple error", code: http.StatusNotFound},
		},
		"coded error": {
			err:      &myError{msg: "custom error", code: http.StatusOK},
			expected: &myError{msg: "custom error", code: http.StatusNotFound},
		},
		"cause is kept": {
			err:      &myError{msg: "keep cause", code: http.StatusOK, cause: errors.New("I am the cause")},
			expected: &myError{msg: "keep cause", code: http.StatusNotFound, cause: errors.New("I am the cause")},
		},
		"nil": {},
	}

	for name, tt := range tts {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.expected, WithCode(http.StatusNotFound)(tt.err))
		})
	}
}

func TestWithCause(t *testing.T) {
	tts := map[string]struct {
		err      error
		cause    error
		expected error
	}{
		"plain error and cause": {
			err:      errors.New("simple error"),
			cause:    errors.New("I am the cause"),
			expected: &myError{msg: "simple error", code: DefaultCode, cause: errors.New("I am the cause")},
		},
		"plain error, coded cause": {
			err:      errors.New("simple error"),
			cause:    &myError{msg: "forward code", code: http.StatusConflict},
			expected: &myError{msg: "simple error", code: http.StatusConflict, cause: &myError{msg: "forward code", code: http.StatusConflict}},
		},
		"coded error keeps its code": {
			err:      &myError{msg: "custom error", code: http.StatusForbidden},
			cause:    &myError{msg: "custom cause", code: http.StatusConflict},
			expected: &myError{msg: "custom error", code: http.StatusForbidden, cause: &myError{msg: "custom cause", code: http.StatusConflict}},
		},
		"cause is replaced": {
			err:      &myError{msg: "change cause", code: http.StatusBadRequest, cause: errors.New("old cause")},
			cause:    errors.New("new cause"),
			expected: &myError{msg: "change cause", code: http.StatusBadRequest, cause: errors.New("new cause")},
		},
		"nil": {
			cause: errors.New("The cause is ignored if the wrapper is nil"),
		},
	}

	for name, tt := range tts {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.expected, WithCause(tt.cause)(tt.err))
		})
	}
}

func TestIsThroughCause(t *testing.T) {
	sentinel := New("duplicate", Conflict())

	wrapped := New("could not insert", WithCause(sentinel))
	assert.True(t, Is(wrapped, sentinel))
	assert.Equal(t, http.StatusConflict, Code(wrapped))

	std := fmt.Errorf("from a repository: %w", sentinel)
	assert.True(t, Is(std, sentinel))
	assert.Equal(t, http.StatusConflict, Code(std))

	var coded Error
	if assert.True(t, As(std, &coded)) {
		assert.Equal(t, "duplicate", coded.Message())
		assert.Nil(t, coded.Cause())
	}

	assert.Equal(t, DefaultCode, Code(errors.New("plain")))
	assert.False(t, Is(errors.New("duplicate"), sentinel))
}
