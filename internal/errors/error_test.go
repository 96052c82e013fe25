package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "given nil should return empty kind", err: nil, expected: ""},
		{name: "given wrapped item not found should return not_found", err: fmt.Errorf("itemId=p1 with error=%w", ErrCartItemNotFound), expected: "not_found"},
		{name: "given cart not found should return not_found", err: ErrCartNotFound, expected: "not_found"},
		{name: "given validation should return validation", err: fmt.Errorf("name is required with error=%w", ErrValidation), expected: "validation"},
		{name: "given conflict should return version_conflict", err: ErrVersionConflict, expected: "version_conflict"},
		{name: "given persistence failure joined with driver error should return persistence_failure", err: fmt.Errorf("failed with error=%w: %w", ErrPersistenceFailure, errors.New("driver")), expected: "persistence_failure"},
		{name: "given network failure should return network_failure", err: ErrNetworkFailure, expected: "network_failure"},
		{name: "given invalid input should return invalid_input", err: ErrInvalidInput, expected: "invalid_input"},
		{name: "given unrelated error should return unknown", err: errors.New("boom"), expected: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Kind(tt.err))
		})
	}
}
