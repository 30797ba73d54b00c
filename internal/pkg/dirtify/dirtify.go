package dirtify

import (
	"cmp"
	"fmt"
	"reflect"
	"slices"
	"sync"
)

// state is the tracking record shared by every view derived from one Dirtify call.
type state struct {
	mu     sync.Mutex
	dirty  bool
	fields Fields
}

// mark records a change of key. Callers must hold mu.
func (s *state) mark(key any) {
	s.dirty = true
	s.fields[key] = true
}

// View is a change-tracking facade over an object-like value.
type View struct {
	target reflect.Value
	state  *state

	// addressed is set when target is the address of a value living inside
	// another container rather than a pointer the caller handed in.
	addressed bool
}

// Dirtify wraps value in a *View with a fresh tracking state. Values that are
// not object-like, nil included, are returned unchanged.
func Dirtify(value any) any {
	if v, ok := New(value); ok {
		return v
	}
	return value
}

// New is the typed form of Dirtify. It reports false when target is not object-like.
func New(target any) (*View, bool) {
	target = Unwrap(target)

	rv := reflect.ValueOf(target)
	if !objectLike(rv) {
		return nil, false
	}

	return &View{
		target: rv,
		state:  &state{fields: Fields{}},
	}, true
}

// Unwrap returns the value behind a *View, or value itself.
func Unwrap(value any) any {
	v, ok := value.(*View)
	if !ok || v == nil {
		return value
	}
	if v.addressed {
		return v.target.Elem().Interface()
	}
	return v.target.Interface()
}

// Dirty reports whether any write through a view sharing this state changed a value.
func (v *View) Dirty() bool {
	v.state.mu.Lock()
	defer v.state.mu.Unlock()

	return v.state.dirty
}

// DirtyFields returns a snapshot of the keys changed so far.
func (v *View) DirtyFields() Fields {
	v.state.mu.Lock()
	defer v.state.mu.Unlock()

	return v.state.fields.Clone()
}

// Get returns the value stored under key, or nil when the target has no such key.
// Object-like values come back as views sharing this view's tracking state.
func (v *View) Get(key any) any {
	value, _ := v.Lookup(key)
	return value
}

// Lookup is like Get and also reports whether the key was found.
func (v *View) Lookup(key any) (any, bool) {
	switch key {
	case DirtyKey:
		return v.Dirty(), true
	case DirtyFieldsKey:
		return v.DirtyFields(), true
	}

	v.state.mu.Lock()
	defer v.state.mu.Unlock()

	raw, ok := lookup(v.container(), key)
	if !ok {
		return nil, false
	}
	return v.wrap(raw), true
}

// At returns the nested view stored under key, or nil when the value there is
// missing or not object-like.
func (v *View) At(key any) *View {
	nested, _ := v.Get(key).(*View)
	return nested
}

// Has reports whether the target holds key. Virtual properties are not part of the target.
func (v *View) Has(key any) bool {
	v.state.mu.Lock()
	defer v.state.mu.Unlock()

	_, ok := lookup(v.container(), key)
	return ok
}

// Set writes value under key. Writes to the virtual properties are ignored.
func (v *View) Set(key, value any) error {
	if isVirtual(key) {
		return nil
	}
	value = Unwrap(value)

	v.state.mu.Lock()
	defer v.state.mu.Unlock()

	c := v.container()
	switch c.Kind() {
	case reflect.Map:
		return v.setEntry(c, key, value)
	case reflect.Struct:
		return v.setField(c, key, value)
	default:
		return v.setElem(c, key, value)
	}
}

// Delete removes key from a map target. Removing a present key counts as a change.
func (v *View) Delete(key any) error {
	if isVirtual(key) {
		return nil
	}

	v.state.mu.Lock()
	defer v.state.mu.Unlock()

	c := v.container()
	if c.Kind() != reflect.Map {
		return fmt.Errorf("%w: %s", ErrNotDeletable, c.Type())
	}

	mk, err := mapKey(c.Type().Key(), key)
	if err != nil {
		return err
	}
	if c.IsNil() || !c.MapIndex(mk).IsValid() {
		return nil
	}

	v.state.mark(key)
	c.SetMapIndex(mk, reflect.Value{})
	return nil
}

// Keys lists the keys of the target: map keys, exported field names, or indexes.
func (v *View) Keys() []any {
	v.state.mu.Lock()
	defer v.state.mu.Unlock()

	c := v.container()
	switch c.Kind() {
	case reflect.Map:
		keys := make([]any, 0, c.Len())
		for _, k := range c.MapKeys() {
			keys = append(keys, k.Interface())
		}
		slices.SortFunc(keys, func(a, b any) int {
			return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
		})
		return keys
	case reflect.Struct:
		var keys []any
		for _, sf := range reflect.VisibleFields(c.Type()) {
			if sf.IsExported() && !sf.Anonymous {
				keys = append(keys, sf.Name)
			}
		}
		return keys
	default:
		keys := make([]any, c.Len())
		for i := range keys {
			keys[i] = i
		}
		return keys
	}
}

// Len returns the number of keys in the target.
func (v *View) Len() int {
	return len(v.Keys())
}

// Target returns the wrapped value. Changes made to it directly are not tracked.
func (v *View) Target() any {
	return v.target.Interface()
}

// container returns the value holding the properties: the pointee for pointers.
func (v *View) container() reflect.Value {
	if v.target.Kind() == reflect.Pointer {
		return v.target.Elem()
	}
	return v.target
}
