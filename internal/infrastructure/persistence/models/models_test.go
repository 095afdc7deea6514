package models

import (
	"reflect"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

func TestDecimalColumnsAreUnscaled(t *testing.T) {
	decimalType := reflect.TypeOf(decimal.Decimal{})
	cache := &sync.Map{}

	for _, model := range []any{&ItemModel{}, &PartyModel{}, &InvoiceModel{}, &InvoiceLineModel{}, &PaymentModel{}} {
		s, err := schema.Parse(model, cache, schema.NamingStrategy{})
		require.NoError(t, err)

		for _, field := range s.Fields {
			ft := field.FieldType
			if ft.Kind() == reflect.Ptr {
				ft = ft.Elem()
			}
			if ft != decimalType {
				continue
			}
			assert.Equal(t, schema.DataType("numeric"), field.DataType, "%s.%s", s.Table, field.DBName)
		}
	}
}
