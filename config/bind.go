// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"encoding"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cast"
)

var (
	timeType     = reflect.TypeFor[time.Time]()
	durationType = reflect.TypeFor[time.Duration]()
)

// bind decodes values into a fresh copy of the binding, fills defaults,
// validates it and only then publishes it to the caller's struct.
func (c *Config) bind(values map[string]any) error {
	target := reflect.ValueOf(c.binding).Elem()
	tmp := reflect.New(target.Type())

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          c.tagName,
		Squash:           true,
		WeaklyTypedInput: true,
		Result:           tmp.Interface(),
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			textUnmarshalerHook(),
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.StringToURLHookFunc(),
		),
	})
	if err != nil {
		return NewError("binding", "bind", err)
	}
	if err = dec.Decode(values); err != nil {
		return NewError("binding", "bind", err)
	}

	if err = setDefaults(tmp.Elem()); err != nil {
		return NewError("binding", "defaults", err)
	}

	if err = c.structs.Struct(tmp.Interface()); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return NewFieldError("binding", verrs[0].Namespace(), "validate", err)
		}
		return NewError("binding", "validate", err)
	}

	if v, ok := tmp.Interface().(Validator); ok {
		if err = v.Validate(); err != nil {
			return NewError("binding", "validate", err)
		}
	}

	c.mu.Lock()
	target.Set(tmp.Elem())
	c.mu.Unlock()

	return nil
}

// newStructValidator reports field names using the binding tag, so
// errors read "Document.server.addr" rather than Go field names.
func newStructValidator(tag string) *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// textUnmarshalerHook converts scalars into time.Time and any type
// implementing encoding.TextUnmarshaler. Numbers are accepted as well as
// strings, since YAML reads an unquoted 2 as an integer.
func textUnmarshalerHook() mapstructure.DecodeHookFuncType {
	return func(from, to reflect.Type, data any) (any, error) {
		if to == timeType {
			if from == timeType {
				return data, nil
			}
			return cast.ToTimeE(data)
		}

		ptr := reflect.New(to)
		u, ok := ptr.Interface().(encoding.TextUnmarshaler)
		if !ok || !isScalar(from) {
			return data, nil
		}

		s, err := cast.ToStringE(data)
		if err != nil {
			return nil, err
		}
		if err = u.UnmarshalText([]byte(s)); err != nil {
			return nil, err
		}
		return ptr.Elem().Interface(), nil
	}
}

func isScalar(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// setDefaults fills zero fields from their `default` tag, descending into
// nested structs and slices of structs.
func setDefaults(val reflect.Value) error {
	typ := val.Type()

	for i := range val.NumField() {
		field := val.Field(i)
		sf := typ.Field(i)
		if !field.CanSet() {
			continue
		}

		switch {
		case field.Kind() == reflect.Struct && field.Type() != timeType && !implementsText(field):
			if err := setDefaults(field); err != nil {
				return err
			}
			continue
		case field.Kind() == reflect.Slice && field.Type().Elem().Kind() == reflect.Struct:
			for j := range field.Len() {
				if err := setDefaults(field.Index(j)); err != nil {
					return err
				}
			}
		}

		def, ok := sf.Tag.Lookup("default")
		if !ok || !field.IsZero() {
			continue
		}
		if err := setDefaultValue(field, def); err != nil {
			return fmt.Errorf("default for %s: %w", sf.Name, err)
		}
	}

	return nil
}

func implementsText(v reflect.Value) bool {
	_, ok := v.Addr().Interface().(encoding.TextUnmarshaler)
	return ok
}

func setDefaultValue(field reflect.Value, def string) error {
	if u, ok := field.Addr().Interface().(encoding.TextUnmarshaler); ok && field.Type() != timeType {
		return u.UnmarshalText([]byte(def))
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(def)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == durationType {
			d, err := time.ParseDuration(def)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
			return nil
		}
		n, err := cast.ToInt64E(def)
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := cast.ToUint64E(def)
		if err != nil {
			return err
		}
		field.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := cast.ToFloat64E(def)
		if err != nil {
			return err
		}
		field.SetFloat(f)
	case reflect.Bool:
		b, err := cast.ToBoolE(def)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type %s", field.Type())
		}
		parts := strings.Split(def, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		field.Set(reflect.ValueOf(parts).Convert(field.Type()))
	case reflect.Struct:
		if field.Type() != timeType {
			return fmt.Errorf("unsupported type %s", field.Type())
		}
		t, err := cast.ToTimeE(def)
		if err != nil {
			return err
		}
		field.Set(reflect.ValueOf(t))
	default:
		return fmt.Errorf("unsupported type %s", field.Type())
	}

	return nil
}
