package lvm

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestKeyedMutex_SameKeySerializes(t *testing.T) {
	k := newKeyedMutex()

	var active, maxActive int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock("pool/tank1")
			defer unlock()

			n := atomic.AddInt32(&active, 1)
			for {
				m := atomic.LoadInt32(&maxActive)
				if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&active, -1)
		}()
	}
	wg.Wait()

	if maxActive != 1 {
		t.Errorf("max concurrent holders = %d, want 1", maxActive)
	}
	if k.held() != 0 {
		t.Errorf("held() = %d after all unlocks, want 0", k.held())
	}
}

func TestKeyedMutex_DifferentKeysIndependent(t *testing.T) {
	k := newKeyedMutex()

	unlockA := k.Lock("pool/tank1")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := k.Lock("pool/tank2")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different key blocked")
	}
}

func TestKeyedMutex_Held(t *testing.T) {
	k := newKeyedMutex()

	unlockPool := k.Lock(poolKey("tank1"))
	unlockVolume := k.Lock(volumeKey("vol-1"))
	if k.held() != 2 {
		t.Errorf("held() = %d, want 2", k.held())
	}
	unlockVolume()
	unlockPool()
	if k.held() != 0 {
		t.Errorf("held() = %d, want 0", k.held())
	}
}
