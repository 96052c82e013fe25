package validate

import (
	"reflect"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// Get returns the shared validator. decimal.Decimal fields are validated as
// float64 so numeric rules such as gte=0 apply to prices.
func Get() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterCustomTypeFunc(DecimalValue, decimal.Decimal{})
	})
	return validate
}

func DecimalValue(v reflect.Value) interface{} {
	d, ok := v.Interface().(decimal.Decimal)
	if !ok {
		return nil
	}
	return d.InexactFloat64()
}
