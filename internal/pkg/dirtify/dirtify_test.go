package dirtify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPerson() map[string]any {
	return map[string]any{
		"name": "Alice",
		"age":  30,
		"address": map[string]any{
			"street": "123 Main St",
			"city":   "Wonderland",
		},
	}
}

func mustView(t *testing.T, target any) *View {
	t.Helper()
	v, ok := Dirtify(target).(*View)
	require.True(t, ok, "expected %T to be wrapped", target)
	return v
}

func TestDirtify_InitiallyClean(t *testing.T) {
	v := mustView(t, newPerson())

	assert.False(t, v.Dirty())
	assert.Empty(t, v.DirtyFields())
	assert.Equal(t, false, v.Get(DirtyKey))
	assert.Equal(t, Fields{}, v.Get(DirtyFieldsKey))
}

func TestDirtify_SetChangesValue(t *testing.T) {
	v := mustView(t, newPerson())

	require.NoError(t, v.Set("name", "Bob"))

	assert.True(t, v.Dirty())
	assert.Equal(t, Fields{"name": true}, v.DirtyFields())
	assert.Equal(t, "Bob", v.Get("name"))
}

func TestDirtify_SetSameValueIsNoop(t *testing.T) {
	v := mustView(t, newPerson())

	require.NoError(t, v.Set("name", "Alice"))
	require.NoError(t, v.Set("age", 30))

	assert.False(t, v.Dirty())
	assert.Empty(t, v.DirtyFields())
}

func TestDirtify_MultipleFields(t *testing.T) {
	v := mustView(t, newPerson())

	require.NoError(t, v.Set("name", "Bob"))
	require.NoError(t, v.Set("age", 31))

	assert.True(t, v.Dirty())
	assert.Equal(t, Fields{"name": true, "age": true}, v.DirtyFields())
}

func TestDirtify_NewField(t *testing.T) {
	v := mustView(t, newPerson())

	require.NoError(t, v.Set("newProp", "newValue"))

	assert.True(t, v.Dirty())
	assert.Equal(t, Fields{"newProp": true}, v.DirtyFields())
}

func TestDirtify_NewFieldWithNilValue(t *testing.T) {
	v := mustView(t, map[string]any{})

	require.NoError(t, v.Set("maybe", nil))

	assert.True(t, v.Dirty())
	assert.True(t, v.Has("maybe"))
	assert.Nil(t, v.Get("maybe"))
}

func TestDirtify_NestedWriteRecordsLeafKey(t *testing.T) {
	v := mustView(t, newPerson())

	address := v.At("address")
	require.NotNil(t, address)
	require.NoError(t, address.Set("street", "456 Oak St"))

	assert.True(t, v.Dirty())
	// The leaf key is recorded, not "address" and not a path.
	assert.Equal(t, Fields{"street": true}, v.DirtyFields())

	assert.True(t, v.At("address").Dirty())
	assert.Equal(t, Fields{"street": true}, v.At("address").DirtyFields())
}

func TestDirtify_NestedViewsShareState(t *testing.T) {
	v := mustView(t, newPerson())
	require.NoError(t, v.At("address").Set("street", "456 Oak St"))

	nested := v.At("address")
	assert.True(t, nested.Dirty())
	assert.Equal(t, Fields{"street": true}, nested.DirtyFields())

	require.NoError(t, nested.Set("city", "New City"))

	assert.Equal(t, Fields{"street": true, "city": true}, v.DirtyFields())
	assert.Equal(t, Fields{"street": true, "city": true}, nested.DirtyFields())
	assert.Equal(t, v.Dirty(), nested.Dirty())
}

func TestDirtify_NestedAccessAfterParentModification(t *testing.T) {
	v := mustView(t, newPerson())

	require.NoError(t, v.Set("name", "Bob"))
	assert.Equal(t, "Wonderland", v.At("address").Get("city"))

	require.NoError(t, v.At("address").Set("city", "New City"))

	assert.True(t, v.Dirty())
	assert.Equal(t, Fields{"name": true, "city": true}, v.DirtyFields())
	assert.Equal(t, "New City", v.At("address").Get("city"))
}

func TestDirtify_ReadsAreLive(t *testing.T) {
	doc := newPerson()
	v := mustView(t, doc)

	doc["name"] = "Changed behind the view"

	assert.Equal(t, "Changed behind the view", v.Get("name"))
	assert.False(t, v.Dirty(), "direct writes to the target are not tracked")
}

func TestDirtify_WritesReachTarget(t *testing.T) {
	doc := newPerson()
	v := mustView(t, doc)

	require.NoError(t, v.At("address").Set("street", "456 Oak St"))

	address := doc["address"].(map[string]any)
	assert.Equal(t, "456 Oak St", address["street"])
}

func TestDirtify_NestedViewsAreNotCached(t *testing.T) {
	v := mustView(t, newPerson())

	first := v.At("address")
	second := v.At("address")

	assert.NotSame(t, first, second)
	assert.Same(t, first.state, second.state)
}

func TestDirtify_SeparateInstances(t *testing.T) {
	v1 := mustView(t, map[string]any{"a": 1})
	v2 := mustView(t, map[string]any{"b": 2})

	assert.False(t, v1.Dirty())
	assert.False(t, v2.Dirty())

	require.NoError(t, v1.Set("a", 10))
	assert.True(t, v1.Dirty())
	assert.Equal(t, Fields{"a": true}, v1.DirtyFields())
	assert.False(t, v2.Dirty())
	assert.Empty(t, v2.DirtyFields())

	require.NoError(t, v2.Set("b", 20))
	assert.Equal(t, Fields{"a": true}, v1.DirtyFields())
	assert.True(t, v2.Dirty())
	assert.Equal(t, Fields{"b": true}, v2.DirtyFields())
}

func TestDirtify_SameTargetTwiceGetsIndependentStates(t *testing.T) {
	doc := newPerson()
	v1 := mustView(t, doc)
	v2 := mustView(t, doc)

	require.NoError(t, v1.Set("name", "Bob"))

	assert.True(t, v1.Dirty())
	assert.False(t, v2.Dirty())
	assert.Equal(t, "Bob", v2.Get("name"))
}

func TestDirtify_DirtyFieldsIsSnapshot(t *testing.T) {
	v := mustView(t, newPerson())
	require.NoError(t, v.Set("name", "Bob"))

	fields := v.DirtyFields()
	fields["age"] = true
	delete(fields, "name")

	assert.Equal(t, Fields{"name": true}, v.DirtyFields())

	viaGet := v.Get(DirtyFieldsKey).(Fields)
	viaGet["other"] = true
	assert.Equal(t, Fields{"name": true}, v.DirtyFields())
}

func TestDirtify_VirtualPropertyWritesAreIgnored(t *testing.T) {
	v := mustView(t, newPerson())

	require.NoError(t, v.Set(DirtyKey, true))
	assert.False(t, v.Dirty())

	require.NoError(t, v.Set("name", "Changed"))
	assert.True(t, v.Dirty())

	require.NoError(t, v.Set(DirtyKey, false))
	assert.True(t, v.Dirty())
}

func TestDirtify_VirtualFieldsWritesAreIgnored(t *testing.T) {
	doc := newPerson()
	v := mustView(t, doc)

	require.NoError(t, v.Set(DirtyFieldsKey, Fields{"someField": true}))
	assert.Empty(t, v.DirtyFields())
	assert.NotContains(t, doc, DirtyFieldsKey)

	require.NoError(t, v.Set("name", "Changed"))
	assert.Equal(t, Fields{"name": true}, v.DirtyFields())

	require.NoError(t, v.Set(DirtyFieldsKey, Fields{}))
	require.NoError(t, v.Delete(DirtyFieldsKey))
	assert.Equal(t, Fields{"name": true}, v.DirtyFields())
}

func TestDirtify_VirtualPropertiesShadowTarget(t *testing.T) {
	v := mustView(t, map[string]any{"dirty": "stored"})

	assert.Equal(t, false, v.Get(DirtyKey))
	assert.True(t, v.Has(DirtyKey), "Has reports the target, not the virtual property")
}

func TestDirtify_PrimitivesPassThrough(t *testing.T) {
	var nilMap map[string]any
	var nilPtr *struct{ A int }

	tests := []struct {
		name  string
		value any
	}{
		{"nil", nil},
		{"int", 123},
		{"string", "test"},
		{"bool", true},
		{"float", 1.5},
		{"struct value", struct{ A int }{A: 1}},
		{"nil map", nilMap},
		{"nil pointer", nilPtr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Dirtify(tt.value)
			assert.Equal(t, tt.value, got)

			_, ok := New(tt.value)
			assert.False(t, ok)
		})
	}
}

func TestDirtify_SymbolKeys(t *testing.T) {
	sym := NewSymbol("symProp")
	doc := map[any]any{"name": "Alice", sym: "symbolValue"}
	v := mustView(t, doc)

	assert.False(t, v.Dirty())

	require.NoError(t, v.Set(sym, "newSymbolValue"))

	assert.True(t, v.Dirty())
	assert.True(t, v.DirtyFields()[sym])
	assert.Equal(t, "newSymbolValue", v.Get(sym))
}

func TestDirtify_SymbolsAreUniqueByIdentity(t *testing.T) {
	a := NewSymbol("same")
	b := NewSymbol("same")
	v := mustView(t, map[any]any{a: 1})

	require.NoError(t, v.Set(b, 1))

	assert.Equal(t, Fields{b: true}, v.DirtyFields())
	assert.False(t, v.DirtyFields().Has(a))
	assert.Equal(t, "Symbol(same)", a.String())
}

func TestDirtify_StateNeverReturnsToClean(t *testing.T) {
	v := mustView(t, newPerson())

	require.NoError(t, v.Set("name", "Bob"))
	require.NoError(t, v.Set("name", "Alice"))

	assert.True(t, v.Dirty())
	assert.Equal(t, Fields{"name": true}, v.DirtyFields())
}

func TestDirtify_ReassignSameNestedObjectIsNoop(t *testing.T) {
	v := mustView(t, newPerson())

	require.NoError(t, v.Set("address", v.Get("address")))

	assert.False(t, v.Dirty())
}

func TestDirtify_ReplaceNestedObjectWithEqualCopy(t *testing.T) {
	v := mustView(t, newPerson())

	// No deep comparison: a fresh map with the same contents is a change.
	require.NoError(t, v.Set("address", map[string]any{
		"street": "123 Main St",
		"city":   "Wonderland",
	}))

	assert.Equal(t, Fields{"address": true}, v.DirtyFields())
}

func TestDirtify_Delete(t *testing.T) {
	doc := newPerson()
	v := mustView(t, doc)

	require.NoError(t, v.Delete("missing"))
	assert.False(t, v.Dirty())

	require.NoError(t, v.Delete("age"))
	assert.True(t, v.Dirty())
	assert.Equal(t, Fields{"age": true}, v.DirtyFields())
	assert.NotContains(t, doc, "age")
	assert.False(t, v.Has("age"))
}

func TestDirtify_Keys(t *testing.T) {
	v := mustView(t, newPerson())

	assert.Equal(t, []any{"address", "age", "name"}, v.Keys())
	assert.Equal(t, 3, v.Len())
}

func TestDirtify_NestedDirtifyOfViewStartsFreshState(t *testing.T) {
	v := mustView(t, newPerson())
	require.NoError(t, v.Set("name", "Bob"))

	again := mustView(t, v)

	assert.False(t, again.Dirty())
	assert.Equal(t, "Bob", again.Get("name"))
}

func TestUnwrap(t *testing.T) {
	doc := newPerson()
	v := mustView(t, doc)

	unwrapped, ok := Unwrap(v).(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Alice", unwrapped["name"])
	assert.Equal(t, 42, Unwrap(42))
	assert.Nil(t, Unwrap(nil))
}
