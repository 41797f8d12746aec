package bindings

import (
	"context"
	"encoding"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/cast"
	"golang.org/x/text/language"
)

var (
	tablePtrType     = reflect.TypeOf((*Table)(nil))
	tableType        = reflect.TypeOf(Table{})
	durationType     = reflect.TypeOf(time.Duration(0))
	textUnmarshalerT = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// ConversionError reports a step argument that could not be converted to the
// declared parameter type.
type ConversionError struct {
	Value  any
	Target reflect.Type
	Err    error
}

func (e *ConversionError) Error() string {
	v := fmt.Sprintf("%q", e.Value)
	if _, ok := e.Value.(*Table); ok {
		v = "<table>"
	}
	if e.Err != nil {
		return fmt.Sprintf("cannot convert %s to %s: %v", v, e.Target, e.Err)
	}
	return fmt.Sprintf("cannot convert %s to %s", v, e.Target)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// Converter turns captured step arguments into the parameter types of the
// bound method, trying registered transformations before the built-ins.
type Converter struct {
	reg *Registry
}

// NewConverter returns a converter using the transformations of reg. A nil
// registry only uses the built-in conversions.
func NewConverter(reg *Registry) *Converter {
	return &Converter{reg: reg}
}

// CanConvert reports whether value can become target without running any
// user code. A transformation whose pattern accepts value counts as a yes.
func (c *Converter) CanConvert(value any, target reflect.Type, culture string) bool {
	if c.transformationFor(value, target) != nil {
		return true
	}
	_, err := convertBuiltin(value, target, culture)
	return err == nil
}

// Convert converts value to target.
func (c *Converter) Convert(ctx context.Context, value any, target reflect.Type, culture string) (any, error) {
	if t := c.transformationFor(value, target); t != nil {
		return c.transform(ctx, t, value, culture)
	}
	return convertBuiltin(value, target, culture)
}

func (c *Converter) transformationFor(value any, target reflect.Type) *TransformationBinding {
	if c.reg == nil || !c.reg.IsBuilt() {
		return nil
	}
	transforms, _ := c.reg.Transformations()
	for _, t := range transforms {
		if t.Target() != target {
			continue
		}
		switch v := value.(type) {
		case *Table:
			if t.takesTable() {
				return t
			}
		case string:
			if t.takesTable() {
				continue
			}
			if groups, ok := t.groups(v); ok && len(groups) <= len(t.Method.Params()) {
				return t
			}
		}
	}
	return nil
}

func (c *Converter) transform(ctx context.Context, t *TransformationBinding, value any, culture string) (any, error) {
	params := t.Method.Params()
	var args []any
	switch v := value.(type) {
	case *Table:
		if params[0].Type == tableType {
			args = []any{*v}
		} else {
			args = []any{v}
		}
	case string:
		groups, _ := t.groups(v)
		args = make([]any, len(groups))
		for i, g := range groups {
			a, err := convertBuiltin(g, params[i].Type, culture)
			if err != nil {
				return nil, &ConversionError{Value: value, Target: t.Target(), Err: err}
			}
			args[i] = a
		}
	}
	out, err := t.Method.Call(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("transformation %s: %w", t.Method.Name(), err)
	}
	return out, nil
}

func convertBuiltin(value any, target reflect.Type, culture string) (any, error) {
	if value == nil {
		return reflect.Zero(target).Interface(), nil
	}
	if reflect.TypeOf(value).AssignableTo(target) {
		return value, nil
	}

	if table, ok := value.(*Table); ok {
		if target == tableType {
			return *table, nil
		}
		return nil, &ConversionError{Value: value, Target: target}
	}

	s, ok := value.(string)
	if !ok {
		return nil, &ConversionError{Value: value, Target: target}
	}
	v, err := convertString(s, target, culture)
	if err != nil {
		return nil, &ConversionError{Value: s, Target: target, Err: err}
	}
	return v.Interface(), nil
}

func convertString(s string, target reflect.Type, culture string) (reflect.Value, error) {
	if target == durationType {
		d, err := cast.ToDurationE(s)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(d), nil
	}
	if reflect.PointerTo(target).Implements(textUnmarshalerT) {
		ptr := reflect.New(target)
		if err := ptr.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
			return reflect.Value{}, err
		}
		return ptr.Elem(), nil
	}

	out := reflect.New(target).Elem()
	switch target.Kind() {
	case reflect.String:
		out.SetString(s)
	case reflect.Bool:
		b, err := cast.ToBoolE(strings.TrimSpace(s))
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := cast.ToInt64E(strings.TrimSpace(s))
		if err != nil {
			return reflect.Value{}, err
		}
		if out.OverflowInt(n) {
			return reflect.Value{}, fmt.Errorf("%d overflows %s", n, target)
		}
		out.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if strings.HasPrefix(strings.TrimSpace(s), "-") {
			return reflect.Value{}, fmt.Errorf("negative value for %s", target)
		}
		n, err := cast.ToUint64E(strings.TrimSpace(s))
		if err != nil {
			return reflect.Value{}, err
		}
		if out.OverflowUint(n) {
			return reflect.Value{}, fmt.Errorf("%d overflows %s", n, target)
		}
		out.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := cast.ToFloat64E(normalizeDecimal(strings.TrimSpace(s), culture))
		if err != nil {
			return reflect.Value{}, err
		}
		if out.OverflowFloat(f) {
			return reflect.Value{}, fmt.Errorf("%g overflows %s", f, target)
		}
		out.SetFloat(f)
	case reflect.Pointer:
		elem, err := convertString(s, target.Elem(), culture)
		if err != nil {
			return reflect.Value{}, err
		}
		ptr := reflect.New(target.Elem())
		ptr.Elem().Set(elem)
		return ptr, nil
	default:
		return reflect.Value{}, fmt.Errorf("no conversion to %s", target)
	}
	return out, nil
}

// Base languages writing decimals with a comma.
var decimalCommaLanguages = map[string]bool{
	"bg": true, "cs": true, "da": true, "de": true, "el": true, "es": true,
	"fi": true, "fr": true, "hr": true, "hu": true, "id": true, "it": true,
	"lt": true, "nb": true, "nl": true, "pl": true, "pt": true, "ro": true,
	"ru": true, "sk": true, "sl": true, "sr": true, "sv": true, "tr": true,
	"uk": true,
}

// normalizeDecimal rewrites "1.234,5" as "1234.5" for cultures using a
// decimal comma. Other cultures are returned unchanged.
func normalizeDecimal(s, culture string) string {
	if culture == "" {
		return s
	}
	tag, err := language.Parse(culture)
	if err != nil {
		return s
	}
	base, _ := tag.Base()
	if !decimalCommaLanguages[base.String()] {
		return s
	}
	s = strings.ReplaceAll(s, ".", "")
	return strings.ReplaceAll(s, ",", ".")
}
