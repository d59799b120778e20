package shared

import (
	"errors"
	"testing"
)

// shape is the polymorphic base for conversion tests.
type shape interface {
	Area() int
}

type square struct {
	side   int
	closed int
}

func (s *square) Area() int { return s.side * s.side }

type circle struct {
	radius int
}

func (c *circle) Area() int { return 3 * c.radius * c.radius }

func TestCastUpcastSharesCount(t *testing.T) {
	sq := &square{side: 4}
	p := NewWithDeleter(sq, func(s *square) { s.closed++ })

	base, err := Cast[shape](&p)
	if err != nil {
		t.Fatalf("Cast to interface failed: %v", err)
	}
	if got := p.UseCount(); got != 2 {
		t.Errorf("UseCount() after upcast = %d, want 2 (shared, not duplicated)", got)
	}

	// Dereference through the base handle dispatches to the concrete type.
	if got := (*base.Get()).Area(); got != 16 {
		t.Errorf("Area() through base handle = %d, want 16", got)
	}

	// The release action bound at adoption runs exactly once, whichever
	// handle goes last.
	p.Release()
	if sq.closed != 0 {
		t.Fatalf("deleter ran %d times with base handle alive, want 0", sq.closed)
	}
	base.Release()
	if sq.closed != 1 {
		t.Errorf("deleter ran %d times, want 1", sq.closed)
	}
}

func TestCastDowncastRecoversPointer(t *testing.T) {
	sq := &square{side: 5}
	p := New(sq)
	base := MustCast[shape](&p)

	back, err := Cast[square](&base)
	if err != nil {
		t.Fatalf("downcast failed: %v", err)
	}
	if got := back.Get(); got != sq {
		t.Errorf("downcast Get() = %p, want original %p (address identity)", got, sq)
	}
	if got := p.UseCount(); got != 3 {
		t.Errorf("UseCount() = %d, want 3", got)
	}

	p.Release()
	base.Release()
	back.Release()
}

func TestCastMismatch(t *testing.T) {
	p := New(&square{side: 6})
	base := MustCast[shape](&p)

	before := base.UseCount()
	wrong, err := Cast[circle](&base)

	var tmErr *TypeMismatchError
	if !errors.As(err, &tmErr) {
		t.Fatalf("Cast error = %v, want *TypeMismatchError", err)
	}
	if wrong.Valid() {
		t.Error("failed cast produced a valid handle")
	}
	// Failure constructs nothing and the source is untouched.
	if got := base.UseCount(); got != before {
		t.Errorf("UseCount() after failed cast = %d, want %d", got, before)
	}
	if tmErr.To == "" || tmErr.From == "" {
		t.Errorf("TypeMismatchError missing type names: %+v", tmErr)
	}

	base.Release()
	p.Release()
}

func TestCastEmpty(t *testing.T) {
	var p Ptr[square]
	base, err := Cast[shape](&p)
	if err != nil {
		t.Fatalf("Cast of empty handle errored: %v", err)
	}
	if base.Valid() {
		t.Error("Cast of empty handle is Valid, want empty")
	}
}

func TestMustCastPanicsOnMismatch(t *testing.T) {
	p := New(&square{side: 7})
	base := MustCast[shape](&p)
	defer func() {
		if recover() == nil {
			t.Error("MustCast on a mismatch did not panic")
		}
		base.Release()
		p.Release()
	}()
	MustCast[circle](&base)
}

func TestCastErrorMessage(t *testing.T) {
	err := &TypeMismatchError{From: "shared.shape", To: "*shared.circle"}
	want := "sharedptr: cannot convert handle of shared.shape to *shared.circle"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

type document struct {
	header [64]byte
	body   []byte
	closed int
}

func TestAliasKeepsOwnerAlive(t *testing.T) {
	doc := &document{body: []byte("payload")}
	p := NewWithDeleter(doc, func(d *document) { d.closed++ })

	// The alias dereferences to the field but owns the whole document.
	body := Alias(&p, &doc.body)
	if got := body.Get(); got != &doc.body {
		t.Errorf("alias Get() = %p, want %p", got, &doc.body)
	}
	if got := p.UseCount(); got != 2 {
		t.Errorf("UseCount() after alias = %d, want 2", got)
	}

	p.Release()
	if doc.closed != 0 {
		t.Fatalf("owner destroyed with alias alive: deleter ran %d times", doc.closed)
	}
	if got := string(*body.Get()); got != "payload" {
		t.Errorf("field through alias = %q, want %q", got, "payload")
	}

	body.Release()
	if doc.closed != 1 {
		t.Errorf("deleter ran %d times, want 1", doc.closed)
	}
}

func TestAliasEmptyCases(t *testing.T) {
	var empty Ptr[document]
	field := 42

	if a := Alias(&empty, &field); a.Valid() {
		t.Error("Alias with empty owner is Valid, want empty")
	}

	doc := &document{}
	p := New(doc)
	if a := Alias[int](&p, nil); a.Valid() {
		t.Error("Alias with nil target is Valid, want empty")
	}
	if got := p.UseCount(); got != 1 {
		t.Errorf("UseCount() after rejected alias = %d, want 1 (no share taken)", got)
	}
	p.Release()
}

func BenchmarkCastUpcast(b *testing.B) {
	p := New(&square{side: 8})
	defer p.Release()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		base := MustCast[shape](&p)
		base.Release()
	}
}
