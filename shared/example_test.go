package shared_test

import (
	"fmt"
	"sync"

	"github.com/kolkov/sharedptr/shared"
)

type conn struct {
	addr string
}

func (c *conn) close() { fmt.Println("closing", c.addr) }

// Example demonstrates shared ownership with a deterministic release action:
// the connection closes exactly once, when the last owner releases it.
func Example() {
	p := shared.NewWithDeleter(&conn{addr: "10.0.0.1:5432"}, func(c *conn) {
		c.close()
	})

	q := p.Clone()
	fmt.Println("owners:", p.UseCount())

	p.Release()
	fmt.Println("owners:", q.UseCount())

	q.Release() // last owner: close runs here

	// Output:
	// owners: 2
	// owners: 1
	// closing 10.0.0.1:5432
}

// Example_goroutines shows the one-handle-per-goroutine contract: every
// goroutine gets its own Clone and releases it when done.
func Example_goroutines() {
	p := shared.NewWithDeleter(&conn{addr: "10.0.0.2:6379"}, func(c *conn) {
		c.close()
	})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		h := p.Clone()
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer h.Release()
			_ = h.Get().addr
		}()
	}

	p.Release() // the workers may outlive the adopting goroutine
	wg.Wait()   // the final worker release closes the conn before Done
	fmt.Println("all workers done")

	// Output:
	// closing 10.0.0.2:6379
	// all workers done
}

type frame struct {
	header [16]byte
	body   []byte
}

// ExampleAlias builds a handle to a field that keeps the whole containing
// object alive.
func ExampleAlias() {
	f := &frame{body: []byte("hello")}
	p := shared.NewWithDeleter(f, func(*frame) { fmt.Println("frame released") })

	body := shared.Alias(&p, &f.body)
	p.Release() // the frame stays alive: body still owns it

	fmt.Printf("%s\n", *body.Get())
	body.Release()

	// Output:
	// hello
	// frame released
}

// ExampleFromUnique moves an exclusively owned object into shared
// ownership; the exclusive owner is emptied and its deleter travels along.
func ExampleFromUnique() {
	u := shared.NewUnique(&conn{addr: "10.0.0.3:9000"}, func(c *conn) {
		c.close()
	})

	p := shared.FromUnique(&u)
	fmt.Println("unique still valid:", u.Valid())

	p.Release()

	// Output:
	// unique still valid: false
	// closing 10.0.0.3:9000
}
