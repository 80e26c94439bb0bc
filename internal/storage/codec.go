package storage

import (
	"fmt"
	"reflect"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
)

var (
	api      = sonic.ConfigStd
	validate = validator.New(validator.WithRequiredStructEnabled())
	timeType = reflect.TypeOf(time.Time{})
)

// Normalizer is implemented by collection types that apply defaults after
// decoding.
type Normalizer interface {
	Normalize()
}

func decode(data []byte, v any) error {
	if len(data) > 0 {
		if err := api.Unmarshal(data, v); err != nil {
			return err
		}
	}
	if n, ok := v.(Normalizer); ok {
		n.Normalize()
	}
	return nil
}

func encode(v any) ([]byte, error) {
	if err := validateRecords(reflect.ValueOf(v)); err != nil {
		return nil, err
	}
	return api.Marshal(v)
}

// validateRecords walks maps and slices and validates every struct record
// it finds.
func validateRecords(v reflect.Value) error {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return validateRecords(v.Elem())
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			if err := validateRecords(iter.Value()); err != nil {
				return fmt.Errorf("key %v: %w", iter.Key(), err)
			}
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if err := validateRecords(v.Index(i)); err != nil {
				return err
			}
		}
	case reflect.Struct:
		if v.Type() == timeType {
			return nil
		}
		return validate.Struct(v.Interface())
	}
	return nil
}
