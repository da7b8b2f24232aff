package wflerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewProducesGeneralKind(t *testing.T) {
	err := New("boom", 3, 7)
	assert.Equal(t, General, err.Kind)
	assert.Equal(t, "Runtime error at line 3, column 7: boom", err.Error())
}

func TestWithKindAddsDiagnosticPrefix(t *testing.T) {
	err := WithKind("nope", 1, 1, FileNotFound)
	assert.Equal(t, "Runtime error at line 1, column 1: [File not found] nope", err.Error())
}

func TestIsMatchesByKindOnly(t *testing.T) {
	a := WithKind("first", 1, 1, Timeout)
	b := WithKind("second", 9, 9, Timeout)
	assert.True(t, errors.Is(a, b))

	c := New("general", 1, 1)
	assert.False(t, errors.Is(a, c))
}

func TestErrorsIsMatchesSentinels(t *testing.T) {
	err := WithKind("dropped", 2, 2, EnvDropped)
	assert.True(t, errors.Is(err, ErrEnvDropped))
	assert.False(t, errors.Is(err, ErrTimeout))
}

func TestKindString(t *testing.T) {
	tests := []struct {
		k    Kind
		want string
	}{
		{General, "General"},
		{EnvDropped, "EnvDropped"},
		{Timeout, "Timeout"},
		{FileNotFound, "FileNotFound"},
		{PermissionDenied, "PermissionDenied"},
		{Kind(99), "Unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.k.String())
	}
}
