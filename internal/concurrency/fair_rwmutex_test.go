package concurrency

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFairRWMutex_MultipleReadersConcurrent(t *testing.T) {
	m := NewFairRWMutex()
	var active int32
	var maxActive int32
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RLock()
			defer m.RUnlock()
			n := atomic.AddInt32(&active, 1)
			for {
				cur := atomic.LoadInt32(&maxActive)
				if n <= cur || atomic.CompareAndSwapInt32(&maxActive, cur, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&active, -1)
		}()
	}
	wg.Wait()
	assert.Greater(t, maxActive, int32(1), "readers should run concurrently")
}

func TestFairRWMutex_WriterExcludesReaders(t *testing.T) {
	m := NewFairRWMutex()
	var active int32

	m.Lock()
	done := make(chan struct{})
	go func() {
		m.RLock()
		defer m.RUnlock()
		atomic.AddInt32(&active, 1)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	assert.EqualValues(t, 0, atomic.LoadInt32(&active), "reader must not proceed while writer holds the lock")
	m.Unlock()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reader never acquired lock after writer released")
	}
}

func TestFairRWMutex_WriterLiveness(t *testing.T) {
	m := NewFairRWMutex()
	stop := make(chan struct{})
	var readersDone sync.WaitGroup

	// Keep a steady stream of readers arriving.
	for i := 0; i < 4; i++ {
		readersDone.Add(1)
		go func() {
			defer readersDone.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				m.RLock()
				time.Sleep(time.Millisecond)
				m.RUnlock()
			}
		}()
	}

	writerDone := make(chan struct{})
	go func() {
		m.Lock()
		defer m.Unlock()
		close(writerDone)
	}()

	select {
	case <-writerDone:
	case <-time.After(2 * time.Second):
		t.Fatal("writer starved under steady reader arrivals")
	}
	close(stop)
	readersDone.Wait()
}
