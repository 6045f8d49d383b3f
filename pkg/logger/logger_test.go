package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPairs(t *testing.T) {
	err := errors.New("boom")

	assert.Equal(t, []interface{}{"a", 1}, pairs([]interface{}{"a", 1}))
	assert.Equal(t, []interface{}{"error", err}, pairs([]interface{}{err}))
	assert.Equal(t, []interface{}{"a", 1, "value", "x"}, pairs([]interface{}{"a", 1, "x"}))
	assert.Empty(t, pairs(nil))
}

func TestLoggingBeforeInitDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		Info("hello", "k", "v")
		With("stage", "test").Warn("careful")
	})
}
