package shared

import "fmt"

// TypeMismatchError reports a conversion or adoption whose runtime type
// check failed. Nothing was constructed and no ownership changed hands; the
// source handle or exclusive owner is exactly as it was.
type TypeMismatchError struct {
	// From is the source handle's declared type.
	From string

	// To is the requested handle type.
	To string
}

// Error implements the error interface.
func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("sharedptr: cannot convert handle of %s to %s", e.From, e.To)
}

// Cast converts a handle of one type into a handle of another, sharing the
// same control block. The result is a new owner: the strong count rises
// exactly as it does for Clone, and both handles release independently.
//
// Three conversions are supported, checked at runtime in this order:
//
//   - identity: *From is already a *To
//   - upcast: *From satisfies interface To; the pointer is boxed into a
//     fresh interface cell, so the result is an aliasing handle whose
//     object pointer differs from the adopted address
//   - downcast: From is an interface whose dynamic value is a *To (or
//     satisfies interface To); the original pointer is recovered, address
//     identity intact
//
// A failed check returns *TypeMismatchError and constructs nothing. Casting
// an empty handle yields an empty handle and no error — emptiness has no
// type to mismatch.
//
// Dereference through an upcast handle dispatches to the concrete type's
// methods; the object is never duplicated and the release action bound at
// adoption still runs exactly once.
func Cast[To any, From any](p *Ptr[From]) (Ptr[To], error) {
	if p.ctrl == nil {
		return Ptr[To]{}, nil
	}
	obj, ok := convertPtr[To](p.obj)
	if !ok {
		return Ptr[To]{}, &TypeMismatchError{From: typeName[From](), To: typeName[To]()}
	}
	p.ctrl.IncStrong()
	clones.Add(1)
	return Ptr[To]{obj: obj, ctrl: p.ctrl}, nil
}

// MustCast is Cast for conversions the caller knows are valid; it panics
// with the TypeMismatchError instead of returning it.
func MustCast[To any, From any](p *Ptr[From]) Ptr[To] {
	out, err := Cast[To](p)
	if err != nil {
		panic(err)
	}
	return out
}

// Alias builds a handle that dereferences to obj while keeping owner's
// object alive — aliasing construction. The classic use is a handle to a
// field of a shared struct:
//
//	cfg := shared.Make(Config{Limits: Limits{MaxConns: 64}})
//	lim := shared.Alias(&cfg, &cfg.Get().Limits)
//	cfg.Release() // Config stays alive: lim still owns the block
//
// The result takes a full ownership share of owner's control block; what it
// reads and what it keeps alive are deliberately decoupled. An empty owner
// or nil obj yields the empty handle with no share taken, preserving the
// strict "object and control pointers are nil together" invariant.
func Alias[T any, O any](owner *Ptr[O], obj *T) Ptr[T] {
	if owner.ctrl == nil || obj == nil {
		return Ptr[T]{}
	}
	owner.ctrl.IncStrong()
	clones.Add(1)
	return Ptr[T]{obj: obj, ctrl: owner.ctrl}
}

// convertPtr attempts the pointer conversion behind Cast and AdoptUnique.
// Callers guarantee obj != nil. The boxed-upcast cases allocate the one
// interface cell the aliasing handle dereferences through.
func convertPtr[To any, From any](obj *From) (*To, bool) {
	// Identity or directly assignable pointer.
	if o, ok := any(obj).(*To); ok {
		return o, true
	}
	// Upcast: the typed pointer satisfies interface To.
	if v, ok := any(obj).(To); ok {
		boxed := v
		return &boxed, true
	}
	// Downcast: From is an interface holding a *To.
	if v, ok := any(*obj).(*To); ok {
		return v, true
	}
	// Sidecast: interface to interface, dynamic value carried over.
	if v, ok := any(*obj).(To); ok {
		boxed := v
		return &boxed, true
	}
	return nil, false
}
