// Package dirtify wraps structured values in change-tracking views.
//
// A view behaves like the value it wraps for reads and writes, and additionally
// reports whether anything was modified since wrapping and which keys were
// modified. The wrapped value is never copied: every access goes through to the
// live target.
//
// # Views and Tracking State
//
// [Dirtify] allocates one tracking state per call. Reading an object-like value
// out of a view wraps it on the fly in a new [View] bound to the same state, so
// a write at any depth of the graph shows up on the root:
//
//	doc := map[string]any{
//	    "name":    "Alice",
//	    "address": map[string]any{"street": "123 Main"},
//	}
//	v := dirtify.Dirtify(doc).(*dirtify.View)
//
//	v.At("address").Set("street", "456 Oak")
//	v.Dirty()       // true
//	v.DirtyFields() // Fields{"street": true}
//
// Dirty fields record the leaf key that changed, never the path to it. A write
// to address.street records "street"; callers cannot tell which nested object a
// field name belongs to when the same name appears at several places.
//
// # Object-like Values
//
// Non-nil maps, slices, and pointers to structs, slices, arrays or maps are
// object-like. Everything else passes through [Dirtify] unchanged. Struct and
// array values reached through an addressable location (a struct field behind a
// pointer, a slice element) are wrapped through their address so writes stay
// live.
//
// # Virtual Properties
//
// The keys [DirtyKey] and [DirtyFieldsKey] are intercepted before the target is
// consulted. Reading them returns the dirty flag and a snapshot of the dirty
// fields. Writing or deleting them is silently absorbed.
//
// # Change Detection
//
// A write marks the state dirty when the key did not exist or the new value is
// not identical to the old one. Identity follows strict inequality: comparable
// values use ==, maps and slices compare by reference, and there is no deep
// comparison. The state never returns to clean.
//
// # Concurrency
//
// All views sharing a state serialise their accesses on one mutex. Mutating the
// target directly, bypassing the views, is not tracked and not synchronised.
package dirtify
