package cartcache

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	commonErrors "github.com/Alturino/wintercollection/internal/errors"
)

// displayPrice accepts an optional currency symbol, a whole part that is either
// plain digits or comma grouped thousands, and an optional fraction.
var displayPrice = regexp.MustCompile(`^\s*[$€£]?\s*(\d{1,3}(?:,\d{3})+|\d+)(\.\d+)?\s*$`)

// ParsePrice normalizes display text such as "$1,299.00" into a decimal. Any
// other shape fails with ErrInvalidInput.
func ParsePrice(text string) (decimal.Decimal, error) {
	match := displayPrice.FindStringSubmatch(text)
	if match == nil {
		return decimal.Zero, fmt.Errorf("price=%q is not a display price with error=%w", text, commonErrors.ErrInvalidInput)
	}
	price, err := decimal.NewFromString(strings.ReplaceAll(match[1], ",", "") + match[2])
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed parsing price=%q with error=%w", text, commonErrors.ErrInvalidInput)
	}
	return price, nil
}
