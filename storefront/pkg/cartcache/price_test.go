package cartcache

import (
	"testing"

	"github.com/stretchr/testify/assert"

	commonErrors "github.com/Alturino/wintercollection/internal/errors"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		expected    string
		expectedErr error
	}{
		{name: "given plain number should parse", text: "34.99", expected: "34.99"},
		{name: "given currency symbol should strip it", text: "$34.99", expected: "34.99"},
		{name: "given thousands separator should strip it", text: "$1,299.00", expected: "1299"},
		{name: "given euro symbol and spaces should parse", text: " € 12.50 ", expected: "12.5"},
		{name: "given grouped thousands without fraction should parse", text: "£12,345", expected: "12345"},
		{name: "given zero should parse", text: "0", expected: "0"},
		{name: "given surrounding text should fail", text: "Now only 12.50 USD", expectedErr: commonErrors.ErrInvalidInput},
		{name: "given letters between digits should fail", text: "12abc34", expectedErr: commonErrors.ErrInvalidInput},
		{name: "given exponent notation should fail", text: "1e3", expectedErr: commonErrors.ErrInvalidInput},
		{name: "given comma as decimal separator should fail", text: "€1.299,00", expectedErr: commonErrors.ErrInvalidInput},
		{name: "given misplaced thousands separator should fail", text: "12,34.00", expectedErr: commonErrors.ErrInvalidInput},
		{name: "given currency symbol only should fail", text: "$", expectedErr: commonErrors.ErrInvalidInput},
		{name: "given empty text should fail", text: "", expectedErr: commonErrors.ErrInvalidInput},
		{name: "given text without digits should fail", text: "free", expectedErr: commonErrors.ErrInvalidInput},
		{name: "given two decimal points should fail", text: "1.2.3", expectedErr: commonErrors.ErrInvalidInput},
		{name: "given negative price should fail", text: "-5.00", expectedErr: commonErrors.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual, err := ParsePrice(tt.text)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, actual.String())
		})
	}
}
