package winops

import "sync"

// RefPool allocates opaque WindowRefs and remembers which pid each
// belongs to, independent of how a platform resolver stores the
// underlying AX element — kept portable so non-darwin builds and tests
// can exercise ref allocation without the cgo-typed element store.
type RefPool struct {
	mu   sync.Mutex
	next WindowRef
	pids map[WindowRef]int32
}

// NewRefPool constructs an empty RefPool. Refs start at 1 so the zero
// value of WindowRef is never a live allocation.
func NewRefPool() *RefPool {
	return &RefPool{next: 1, pids: make(map[WindowRef]int32)}
}

// Alloc reserves a fresh WindowRef for pid.
func (p *RefPool) Alloc(pid int32) WindowRef {
	p.mu.Lock()
	defer p.mu.Unlock()
	ref := p.next
	p.next++
	p.pids[ref] = pid
	return ref
}

// PID returns the pid ref was allocated for, if it is still live.
func (p *RefPool) PID(ref WindowRef) (int32, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pid, ok := p.pids[ref]
	return pid, ok
}

// Release forgets ref.
func (p *RefPool) Release(ref WindowRef) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.pids, ref)
}
