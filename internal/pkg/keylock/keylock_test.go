package keylock

import (
	"sync"
	"testing"
)

func TestLockSerialisesSameKey(t *testing.T) {
	m := New()
	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := m.Lock("k")
			counter++
			unlock()
		}()
	}
	wg.Wait()
	if counter != 100 {
		t.Fatalf("expected 100 increments, got %d", counter)
	}
	if len(m.locks) != 0 {
		t.Fatalf("expected idle keys to be forgotten, got %d", len(m.locks))
	}
}

func TestLockKeysAreIndependent(t *testing.T) {
	m := New()
	unlockA := m.Lock("a")
	done := make(chan struct{})
	go func() {
		unlockB := m.Lock("b")
		unlockB()
		close(done)
	}()
	<-done
	unlockA()
}
