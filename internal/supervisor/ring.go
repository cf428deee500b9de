// Package supervisor owns the worker pool, the cross-connection
// duplicate-suppression ring, and the rotation watchdog.
package supervisor

import (
	"sync/atomic"

	"github.com/holiman/uint256"
)

// ringSize is the fixed slot count of the duplicate-suppression ring.
// No eviction occurs except the wrap-around that overwrites the oldest
// slot.
const ringSize = 128

// ringSlot is one (order-id, count) pair.
type ringSlot struct {
	id    uint64
	count uint32
}

// DuplicateRing is the process-wide, cross-connection duplicate
// suppression cache: a fixed 128-slot ring protected by a spin lock
// rather than a blocking mutex, because the critical section it guards
// (query + register of one record) must never suspend the calling OS
// thread on the order-reply hot path.
type DuplicateRing struct {
	lock  int32
	slots [ringSize]ringSlot
	write int
}

// NewDuplicateRing returns an empty ring.
func NewDuplicateRing() *DuplicateRing {
	return &DuplicateRing{}
}

func (r *DuplicateRing) acquire() {
	for !atomic.CompareAndSwapInt32(&r.lock, 0, 1) {
		// busy-wait: the critical section below is a handful of
		// instructions, never I/O, so spinning beats parking the thread.
	}
}

func (r *DuplicateRing) release() {
	atomic.StoreInt32(&r.lock, 0)
}

// QueryAndRegister looks up id. If it is already present, it returns the
// count observed before this call (> 0) and leaves the slot's count
// incremented for the next caller. If absent, it registers id with
// count 1 and returns 0 for "first time seen". The whole
// query-then-register sequence runs under the spin lock so two workers
// racing on the same id never both see count == 0.
func (r *DuplicateRing) QueryAndRegister(id uint64) uint32 {
	r.acquire()
	defer r.release()

	for i := range r.slots {
		if r.slots[i].id == id && r.slots[i].count > 0 {
			prev := r.slots[i].count
			r.slots[i].count++
			return prev
		}
	}

	slot := &r.slots[r.write]
	slot.id = id
	slot.count = 1
	r.write = (r.write + 1) % ringSize
	return 0
}

// OrderID derives the numeric order id assigned to a record: the
// decimal integer formed by the raw ordId bytes, multiplied by 10 when
// the state field's second byte is 'c' (cancelled
// events occupy a separate namespace from live ones for the same
// order). ok is false when ordId is missing or not a clean decimal
// string — the caller should drop the record rather than derive a
// bogus id.
func OrderID(ordID []byte, state []byte) (id *uint256.Int, ok bool) {
	if len(ordID) == 0 {
		return nil, false
	}
	id = new(uint256.Int)
	ten := uint256.NewInt(10)
	digit := new(uint256.Int)
	for _, b := range ordID {
		if b < '0' || b > '9' {
			return nil, false
		}
		digit.SetUint64(uint64(b - '0'))
		id.Mul(id, ten)
		id.Add(id, digit)
	}
	if len(state) >= 2 && state[1] == 'c' {
		id.Mul(id, ten)
	}
	return id, true
}
