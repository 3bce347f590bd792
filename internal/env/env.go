// Package env fills configuration structs from environment variables.
package env

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"time"
)

// Validator is implemented by config structs that check their own values.
type Validator interface {
	Validate() error
}

// ErrInvalidValue is returned when a variable cannot be parsed into its field.
type ErrInvalidValue struct {
	Field  string // dotted path from the root struct, e.g. Database.DSN
	EnvVar string
	Value  string
	Err    error
}

func (e ErrInvalidValue) Error() string {
	return fmt.Sprintf("invalid value for %s=%q (field: %s): %v", e.EnvVar, e.Value, e.Field, e.Err)
}

func (e ErrInvalidValue) Unwrap() error {
	return e.Err
}

// ErrNotStructPointer is returned when Load is not given a pointer to a struct.
type ErrNotStructPointer struct {
	Type string
}

func (e ErrNotStructPointer) Error() string {
	return fmt.Sprintf("env.Load: argument must be a pointer to struct, got %s", e.Type)
}

// ErrUnsupportedType is returned for a tagged field of a kind Load cannot parse.
type ErrUnsupportedType struct {
	Kind string
}

func (e ErrUnsupportedType) Error() string {
	return fmt.Sprintf("unsupported type: %s", e.Kind)
}

var (
	durationType = reflect.TypeFor[time.Duration]()
	timeType     = reflect.TypeFor[time.Time]()
)

// Load sets every field tagged env:"NAME" from the variable NAME. When NAME is
// unset the field takes its default:"..." tag, or keeps its current value if
// there is none. A variable set to the empty string counts as set.
//
// Fields may be strings, bools, signed and unsigned integers, floats or
// time.Duration. Nested structs are walked, and each one implementing Validator
// is validated once its own fields are loaded, innermost first. The root is
// validated last.
func Load(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return ErrNotStructPointer{Type: fmt.Sprintf("%T", v)}
	}
	if err := load(rv.Elem(), ""); err != nil {
		return err
	}
	if val, ok := v.(Validator); ok {
		return val.Validate()
	}
	return nil
}

func load(sv reflect.Value, prefix string) error {
	st := sv.Type()
	for i := range st.NumField() {
		sf := st.Field(i)
		fv := sv.Field(i)
		if !sf.IsExported() {
			continue
		}
		path := prefix + sf.Name

		if fv.Kind() == reflect.Struct && fv.Type() != timeType {
			if err := load(fv, path+"."); err != nil {
				return err
			}
			if val, ok := fv.Addr().Interface().(Validator); ok {
				if err := val.Validate(); err != nil {
					return err
				}
			}
			continue
		}

		name, tagged := sf.Tag.Lookup("env")
		if !tagged || name == "" {
			continue
		}
		raw, set := os.LookupEnv(name)
		if !set {
			if raw, set = sf.Tag.Lookup("default"); !set {
				continue
			}
		}
		if err := assign(fv, raw); err != nil {
			return ErrInvalidValue{Field: path, EnvVar: name, Value: raw, Err: err}
		}
	}
	return nil
}

func assign(fv reflect.Value, raw string) error {
	if fv.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		fv.SetInt(int64(d))
		return nil
	}

	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		fv.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, fv.Type().Bits())
		if err != nil {
			return err
		}
		fv.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, fv.Type().Bits())
		if err != nil {
			return err
		}
		fv.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, fv.Type().Bits())
		if err != nil {
			return err
		}
		fv.SetFloat(f)
	default:
		return ErrUnsupportedType{Kind: fv.Kind().String()}
	}
	return nil
}
