// Package concurrency provides the fair reader-writer lock used to guard a
// library's entities and index instance. Go's sync.RWMutex makes no FIFO
// guarantee: a steady stream of readers can starve a pending writer
// indefinitely. FairRWMutex instead queues readers and writers in arrival
// order on a ticket counter, guaranteeing that a writer waiting behind N
// already-queued operations acquires the lock within N releases.
package concurrency

import "sync"

// FairRWMutex is a reader-writer lock with FIFO fairness: once a writer has
// requested the lock, no reader or writer that arrives later is granted the
// lock ahead of it. Readers that arrive before a waiting writer may still be
// coalesced (served together), matching the "burst-coalescing" allowance.
type FairRWMutex struct {
	mu   sync.Mutex
	cond *sync.Cond

	// ticket is incremented for every RLock/Lock call and recorded as the
	// caller's position in the queue.
	nextTicket   uint64
	nextToServe  uint64
	activeReader int // count of readers currently holding the lock
	writerActive bool
}

// NewFairRWMutex returns a ready-to-use FairRWMutex.
func NewFairRWMutex() *FairRWMutex {
	m := &FairRWMutex{}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// takeTicket records the caller's arrival order and returns it.
func (m *FairRWMutex) takeTicket() uint64 {
	t := m.nextTicket
	m.nextTicket++
	return t
}

// RLock acquires the lock for reading. It blocks until no writer holds or is
// next in line ahead of this call's ticket.
func (m *FairRWMutex) RLock() {
	m.mu.Lock()
	defer m.mu.Unlock()

	ticket := m.takeTicket()
	for ticket != m.nextToServe || m.writerActive {
		m.cond.Wait()
	}
	// Admit this reader and every other reader immediately behind it
	// (burst-coalescing) so a steady read load does not serialize one
	// reader at a time while no writer is waiting.
	m.activeReader++
	m.nextToServe++
	m.cond.Broadcast()
}

// RUnlock releases a previously acquired read lock.
func (m *FairRWMutex) RUnlock() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.activeReader--
	if m.activeReader == 0 {
		m.cond.Broadcast()
	}
}

// Lock acquires the lock for writing. It blocks until this call's ticket is
// next in line and no reader or writer currently holds the lock.
func (m *FairRWMutex) Lock() {
	m.mu.Lock()
	defer m.mu.Unlock()

	ticket := m.takeTicket()
	for ticket != m.nextToServe || m.activeReader > 0 || m.writerActive {
		m.cond.Wait()
	}
	m.writerActive = true
	m.nextToServe++
}

// Unlock releases a previously acquired write lock.
func (m *FairRWMutex) Unlock() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.writerActive = false
	m.cond.Broadcast()
}
