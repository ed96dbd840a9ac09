package binder

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// lookupFunc returns the raw value for a parameter name.
type lookupFunc func(name string) (string, bool)

// bindStruct fills the tagged fields of the struct v points to. A tag may
// list alternatives separated by "|"; the first present one wins.
func bindStruct(v any, tag string, lookup lookupFunc, bindErr error) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w: target must be a non-nil pointer to struct", bindErr)
	}
	rv = rv.Elem()
	rt := rv.Type()

	for i := range rv.NumField() {
		sf := rt.Field(i)
		name := sf.Tag.Get(tag)
		if name == "" || name == "-" || !sf.IsExported() {
			continue
		}

		var (
			raw   string
			found bool
		)
		for alt := range strings.SplitSeq(name, "|") {
			if raw, found = lookup(alt); found {
				break
			}
		}
		if !found {
			continue
		}

		if err := setField(rv.Field(i), raw); err != nil {
			return fmt.Errorf("%w: field %s: %v", bindErr, sf.Name, err)
		}
	}
	return nil
}

func setField(f reflect.Value, raw string) error {
	switch f.Kind() {
	case reflect.String:
		f.SetString(raw)
	case reflect.Int, reflect.Int64, reflect.Int32:
		if raw == "" {
			return nil
		}
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return err
		}
		f.SetInt(n)
	case reflect.Float64, reflect.Float32:
		if raw == "" {
			return nil
		}
		n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return err
		}
		f.SetFloat(n)
	case reflect.Bool:
		if raw == "" {
			return nil
		}
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		f.SetBool(b)
	case reflect.Pointer:
		if f.IsNil() {
			f.Set(reflect.New(f.Type().Elem()))
		}
		return setField(f.Elem(), raw)
	default:
		return fmt.Errorf("unsupported kind %s", f.Kind())
	}
	return nil
}
