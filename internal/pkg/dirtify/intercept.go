package dirtify

import (
	"fmt"
	"reflect"
)

// lookup fetches key from container c. Unknown, unexported or out-of-range keys
// are reported as absent.
func lookup(c reflect.Value, key any) (reflect.Value, bool) {
	switch c.Kind() {
	case reflect.Map:
		mk, err := mapKey(c.Type().Key(), key)
		if err != nil || c.IsNil() {
			return reflect.Value{}, false
		}
		val := c.MapIndex(mk)
		return val, val.IsValid()

	case reflect.Struct:
		name, ok := key.(string)
		if !ok {
			return reflect.Value{}, false
		}
		sf, ok := c.Type().FieldByName(name)
		if !ok || !sf.IsExported() {
			return reflect.Value{}, false
		}
		f, err := c.FieldByIndexErr(sf.Index)
		if err != nil {
			return reflect.Value{}, false
		}
		return f, true

	case reflect.Slice, reflect.Array:
		i, ok := key.(int)
		if !ok || i < 0 || i >= c.Len() {
			return reflect.Value{}, false
		}
		return c.Index(i), true
	}
	return reflect.Value{}, false
}

// wrap turns a raw value read from the target into what Get returns.
func (v *View) wrap(raw reflect.Value) any {
	for raw.Kind() == reflect.Interface {
		if raw.IsNil() {
			return nil
		}
		raw = raw.Elem()
	}
	if !raw.IsValid() {
		return nil
	}

	if raw.CanAddr() {
		switch raw.Kind() {
		case reflect.Struct, reflect.Array:
			return &View{target: raw.Addr(), state: v.state, addressed: true}
		case reflect.Slice:
			if !raw.IsNil() {
				return &View{target: raw.Addr(), state: v.state, addressed: true}
			}
		}
	}

	if objectLike(raw) {
		return &View{target: raw, state: v.state}
	}
	return raw.Interface()
}

// record marks key dirty when the old slot is missing or holds a different value.
func (v *View) record(key any, old, value reflect.Value) {
	if !old.IsValid() || !identical(old.Interface(), value.Interface()) {
		v.state.mark(key)
	}
}

func (v *View) setEntry(c reflect.Value, key, value any) error {
	mk, err := mapKey(c.Type().Key(), key)
	if err != nil {
		return err
	}
	nv, err := assignable(c.Type().Elem(), value)
	if err != nil {
		return fmt.Errorf("set %v: %w", key, err)
	}

	if c.IsNil() {
		c.Set(reflect.MakeMap(c.Type()))
	}

	v.record(key, c.MapIndex(mk), nv)
	c.SetMapIndex(mk, nv)
	return nil
}

func (v *View) setField(c reflect.Value, key, value any) error {
	name, ok := key.(string)
	if !ok {
		return fmt.Errorf("%w: %T on %s", ErrUnsupportedKey, key, c.Type())
	}

	sf, ok := c.Type().FieldByName(name)
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownField, c.Type(), name)
	}
	if !sf.IsExported() {
		return fmt.Errorf("%w: %s.%s", ErrUnexportedField, c.Type(), name)
	}

	f, err := c.FieldByIndexErr(sf.Index)
	if err != nil {
		return fmt.Errorf("%w: %s.%s: %v", ErrUnknownField, c.Type(), name, err)
	}
	if !f.CanSet() {
		return fmt.Errorf("%w: %s.%s", ErrUnexportedField, c.Type(), name)
	}

	nv, err := assignable(sf.Type, value)
	if err != nil {
		return fmt.Errorf("set %s: %w", name, err)
	}

	v.record(name, f, nv)
	f.Set(nv)
	return nil
}

func (v *View) setElem(c reflect.Value, key, value any) error {
	i, ok := key.(int)
	if !ok {
		return fmt.Errorf("%w: %T on %s", ErrUnsupportedKey, key, c.Type())
	}

	nv, err := assignable(c.Type().Elem(), value)
	if err != nil {
		return fmt.Errorf("set %d: %w", i, err)
	}

	switch {
	case i >= 0 && i < c.Len():
		e := c.Index(i)
		v.record(i, e, nv)
		e.Set(nv)
	case i == c.Len() && c.Kind() == reflect.Slice && c.CanSet():
		// Writing one past the end of an addressable slice appends.
		v.state.mark(i)
		c.Set(reflect.Append(c, nv))
	default:
		return fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, i, c.Len())
	}
	return nil
}

// mapKey converts key into a value usable with maps keyed by kt.
func mapKey(kt reflect.Type, key any) (reflect.Value, error) {
	k := reflect.ValueOf(key)
	if !k.IsValid() || !k.Comparable() {
		return reflect.Value{}, fmt.Errorf("%w: %v", ErrUnsupportedKey, key)
	}

	switch {
	case k.Type().AssignableTo(kt):
		return k, nil
	case k.Kind() == reflect.String && kt.Kind() == reflect.String:
		return k.Convert(kt), nil
	case isInt(k.Kind()) && isInt(kt.Kind()):
		return k.Convert(kt), nil
	}
	return reflect.Value{}, fmt.Errorf("%w: %T for map key %s", ErrUnsupportedKey, key, kt)
}

// assignable checks that value can be stored in a slot of type t.
func assignable(t reflect.Type, value any) (reflect.Value, error) {
	if value == nil {
		switch t.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, fmt.Errorf("%w: nil into %s", ErrTypeMismatch, t)
	}

	rv := reflect.ValueOf(value)
	if !rv.Type().AssignableTo(t) {
		return reflect.Value{}, fmt.Errorf("%w: %s into %s", ErrTypeMismatch, rv.Type(), t)
	}
	return rv, nil
}

func isInt(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}
