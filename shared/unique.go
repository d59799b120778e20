package shared

import (
	"unsafe"

	"github.com/kolkov/sharedptr/internal/shared/ctrlblock"
	"github.com/kolkov/sharedptr/internal/shared/leakcheck"
)

// Unique is a move-only exclusive owner of a T: the staging area an object
// sits in before it is shared, and the rollback target when sharing fails.
//
// The zero value is empty. A Unique never has a control block; it is one
// pointer, one deleter, and the rule that Free runs the deleter at most
// once.
type Unique[T any] struct {
	obj *T
	del DeleterFunc[T]
}

// NewUnique takes exclusive ownership of obj with an optional release
// action. A nil obj yields an empty Unique and the deleter is never
// invoked.
func NewUnique[T any](obj *T, del DeleterFunc[T]) Unique[T] {
	if obj == nil {
		return Unique[T]{}
	}
	return Unique[T]{obj: obj, del: del}
}

// Get returns the owned pointer, or nil when empty. Ownership does not
// move.
func (u *Unique[T]) Get() *T {
	return u.obj
}

// Valid reports whether the Unique owns anything.
func (u *Unique[T]) Valid() bool {
	return u.obj != nil
}

// Detach relinquishes ownership without running the deleter and returns
// the pointer. The caller is now responsible for releasing the object.
func (u *Unique[T]) Detach() *T {
	obj := u.obj
	u.obj, u.del = nil, nil
	return obj
}

// Free runs the deleter now and empties the Unique. Idempotent: a second
// Free is a no-op, never a double release.
func (u *Unique[T]) Free() {
	if u.obj == nil {
		return
	}
	obj, del := u.obj, u.del
	u.obj, u.del = nil, nil
	if del != nil {
		del(obj)
	}
}

// Move transfers ownership out of u, leaving it empty.
func (u *Unique[T]) Move() Unique[T] {
	moved := Unique[T]{obj: u.obj, del: u.del}
	u.obj, u.del = nil, nil
	return moved
}

// FromUnique adopts a Unique's object into a shared handle of the same
// type. Ownership moves exactly once: afterwards u is empty and the deleter
// it carried travels into the control block. An empty u yields the empty
// handle.
func FromUnique[T any](u *Unique[T]) Ptr[T] {
	if u.obj == nil {
		return Ptr[T]{}
	}
	obj, del := u.obj, u.del
	u.obj, u.del = nil, nil
	return adopt(obj, del)
}

// AdoptUnique adopts a Unique's object into a shared handle of a different
// (convertible) type.
//
// The runtime type check runs BEFORE any ownership transfer. On mismatch
// the Unique is returned to the caller untouched — still valid, still able
// to Free exactly once — and the error says what failed; this is the
// explicit result/error rendition of rollback-on-failure. On success u is
// emptied and its deleter travels, type-erased, into the control block, so
// the eventual final release still runs the From-typed deleter the object
// was created with.
func AdoptUnique[To any, From any](u *Unique[From]) (Ptr[To], error) {
	if u.obj == nil {
		return Ptr[To]{}, nil
	}
	converted, ok := convertPtr[To](u.obj)
	if !ok {
		return Ptr[To]{}, &TypeMismatchError{From: typeName[From](), To: typeName[To]()}
	}

	obj, del := u.obj, u.del
	u.obj, u.del = nil, nil

	// Same adoption path as NewWithDeleter, except the registered type and
	// destroy closure stay From-typed while the handle is To-typed.
	destroy := func() {
		if del != nil {
			del(obj)
		}
		objectsDestroyed.Add(1)
	}
	ctrl := ctrlblock.New(destroy)
	blocksAllocated.Add(1)
	leakcheck.Register(ctrl, typeName[From](), uintptr(unsafe.Pointer(obj)))
	return Ptr[To]{obj: converted, ctrl: ctrl}, nil
}
