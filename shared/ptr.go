package shared

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/kolkov/sharedptr/internal/shared/ctrlblock"
	"github.com/kolkov/sharedptr/internal/shared/leakcheck"
)

// DeleterFunc releases an owned object. It is invoked exactly once, on the
// goroutine whose release drops the final owner, and never invoked for an
// object that was never adopted (nil pointers, failed conversions).
type DeleterFunc[T any] func(*T)

// Ptr is a shared-ownership handle to a T.
//
// The zero value is the empty handle: Valid reports false, UseCount is 0,
// Release is a no-op. A non-empty handle always references a control block
// with at least one strong owner.
//
// Handles are small values (two words). Copy them only through Clone (new
// owning reference), Move/MoveFrom (ownership transfer), or Assign (counted
// assignment); plain `=` on a live handle produces an uncounted alias and
// breaks the release bookkeeping.
type Ptr[T any] struct {
	// obj is what the handle dereferences to. Under aliasing it may point
	// into, or entirely away from, the object the control block manages.
	obj *T

	// ctrl is what the handle keeps alive. Shared with every other handle
	// adopted from the same object.
	ctrl *ctrlblock.Block
}

// New adopts obj into a fresh control block with a single owner.
//
// A nil obj yields the empty handle and no control block. The default
// release action is simply dropping the block's reference so the collector
// can have the object; use NewWithDeleter when releasing means real work.
func New[T any](obj *T) Ptr[T] {
	return NewWithDeleter[T](obj, nil)
}

// NewWithDeleter adopts obj with a caller-supplied release action.
//
// The deleter travels type-erased inside the control block, so handles
// produced by later conversions release the object through the deleter it
// was adopted with — a base-typed handle still runs the derived-aware
// deleter. A nil obj yields the empty handle and the deleter is never
// invoked.
func NewWithDeleter[T any](obj *T, del DeleterFunc[T]) Ptr[T] {
	if obj == nil {
		return Ptr[T]{}
	}
	return adopt(obj, del)
}

// Make allocates a T holding v and adopts it. Sugar for the common
// "construct and immediately share" shape:
//
//	p := shared.Make(Config{Workers: 8})
func Make[T any](v T) Ptr[T] {
	obj := new(T)
	*obj = v
	return adopt(obj, nil)
}

// adopt builds the control block for obj. Callers guarantee obj != nil.
//
// The destroy closure is the type-erased destruction routine: it captures
// the typed pointer and deleter, runs once on the final release, and is
// dropped by the block afterwards so a retired block pins nothing.
func adopt[T any](obj *T, del DeleterFunc[T]) Ptr[T] {
	destroy := func() {
		if del != nil {
			del(obj)
		}
		objectsDestroyed.Add(1)
	}
	ctrl := ctrlblock.New(destroy)
	blocksAllocated.Add(1)
	leakcheck.Register(ctrl, typeName[T](), uintptr(unsafe.Pointer(obj)))
	return Ptr[T]{obj: obj, ctrl: ctrl}
}

// Clone returns a new owning handle to the same object.
//
// This is copy construction: the strong count goes up by one and both
// handles must be released independently. Clone of an empty handle is the
// empty handle.
func (p *Ptr[T]) Clone() Ptr[T] {
	if p.ctrl == nil {
		return Ptr[T]{}
	}
	p.ctrl.IncStrong()
	clones.Add(1)
	return Ptr[T]{obj: p.obj, ctrl: p.ctrl}
}

// Assign replaces p's claim with a new claim on src's object, releasing the
// old claim afterwards — copy assignment.
//
// The temp-and-swap order makes self-assignment (p.Assign(p)) safe: the new
// claim is attached before the old one is dropped, so the source can never
// be destroyed out from under the operation.
func (p *Ptr[T]) Assign(src *Ptr[T]) {
	tmp := src.Clone()
	p.Swap(&tmp)
	tmp.Release()
}

// Move transfers ownership out of p without touching any counter — move
// construction. Afterwards p is empty and safe to release or reuse.
func (p *Ptr[T]) Move() Ptr[T] {
	moved := Ptr[T]{obj: p.obj, ctrl: p.ctrl}
	p.obj, p.ctrl = nil, nil
	return moved
}

// MoveFrom steals src's claim into p, releasing p's previous claim — move
// assignment. src is empty afterwards. Self-move (p.MoveFrom(p)) is a no-op.
func (p *Ptr[T]) MoveFrom(src *Ptr[T]) {
	if p == src {
		return
	}
	tmp := src.Move()
	p.Swap(&tmp)
	tmp.Release()
}

// Release drops p's claim and empties the handle. If p held the final
// claim, the destruction routine runs here, on the calling goroutine,
// before Release returns. Releasing an empty handle is a no-op, which makes
// `defer p.Release()` safe after moves.
func (p *Ptr[T]) Release() {
	if p.ctrl == nil {
		return
	}
	ctrl := p.ctrl
	p.obj, p.ctrl = nil, nil
	releases.Add(1)
	if ctrl.DecStrong() {
		blocksRetired.Add(1)
		leakcheck.Unregister(ctrl)
	}
}

// Reset replaces p's claim with sole ownership of a freshly adopted obj.
// Equivalent to building New(obj) and swapping it into place; the previous
// object is released only after the new one is attached. A nil obj is
// equivalent to Release.
func (p *Ptr[T]) Reset(obj *T) {
	p.ResetWithDeleter(obj, nil)
}

// ResetWithDeleter is Reset with a caller-supplied release action for the
// new object.
func (p *Ptr[T]) ResetWithDeleter(obj *T, del DeleterFunc[T]) {
	tmp := NewWithDeleter(obj, del)
	p.Swap(&tmp)
	tmp.Release()
}

// Swap exchanges the contents of two handles. No counter is touched: both
// claims simply change hands. Self-swap is a no-op.
func (p *Ptr[T]) Swap(other *Ptr[T]) {
	p.obj, other.obj = other.obj, p.obj
	p.ctrl, other.ctrl = other.ctrl, p.ctrl
}

// Get returns the raw object pointer, or nil for an empty handle. The
// pointer is valid only while at least one owner is live; callers keep a
// handle for as long as they keep the pointer.
func (p *Ptr[T]) Get() *T {
	return p.obj
}

// MustGet returns the raw object pointer and panics on an empty handle.
// The always-on rendition of the debug dereference assert.
func (p *Ptr[T]) MustGet() *T {
	if p.obj == nil {
		panic("sharedptr: dereference of empty handle")
	}
	return p.obj
}

// UseCount returns the current number of strong owners, 0 for an empty
// handle. Under concurrent ownership changes the value is a snapshot,
// already stale when returned; it is exact when the caller knows no other
// goroutine is cloning or releasing.
func (p *Ptr[T]) UseCount() int64 {
	if p.ctrl == nil {
		return 0
	}
	return p.ctrl.StrongCount()
}

// Valid reports whether the handle owns anything.
func (p *Ptr[T]) Valid() bool {
	return p.ctrl != nil
}

// Equal reports whether two handles dereference to the same address.
// Address identity, not value equality: two handles to distinct but equal
// objects are not Equal.
func (p *Ptr[T]) Equal(other *Ptr[T]) bool {
	return p.obj == other.obj
}

// Compare orders handles by object address: -1, 0, or +1. The order is
// total and arbitrary — useful for keys and canonical lock order, and
// meaningless as a statement about the objects' values.
func (p *Ptr[T]) Compare(other *Ptr[T]) int {
	a := uintptr(unsafe.Pointer(p.obj))
	b := uintptr(unsafe.Pointer(other.obj))
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// String returns a compact diagnostic form, e.g.
// "Ptr[main.Conn](0xc000012345 strong=2)" or "Ptr[main.Conn](empty)".
func (p *Ptr[T]) String() string {
	if p.ctrl == nil {
		return fmt.Sprintf("Ptr[%s](empty)", typeName[T]())
	}
	return fmt.Sprintf("Ptr[%s](%p %s)", typeName[T](), p.obj, p.ctrl)
}

// typeName reports T's name for diagnostics and error messages.
func typeName[T any]() string {
	return reflect.TypeOf((*T)(nil)).Elem().String()
}
