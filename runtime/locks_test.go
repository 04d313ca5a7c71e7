package runtime

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestKeyedMutex_SerializesPerKey(t *testing.T) {
	req := require.New(t)
	km := NewKeyedMutex()

	const n = 100
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("same-key")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	req.Equal(n, counter)
}

func TestKeyedMutex_IndependentKeysDoNotBlock(t *testing.T) {
	req := require.New(t)
	km := NewKeyedMutex()

	unlockA := km.Lock("a")
	defer unlockA()

	// Another key is acquirable while "a" is held.
	done := make(chan struct{})
	go func() {
		unlockB := km.Lock("b")
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("lock on an independent key should not block")
	}
}

func TestKeyedMutex_EvictsReleasedKeys(t *testing.T) {
	req := require.New(t)
	km := NewKeyedMutex()

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			unlock := km.Lock(fmt.Sprintf("key-%d", i))
			unlock()
		}(i)
	}
	wg.Wait()

	km.mu.Lock()
	defer km.mu.Unlock()
	req.Empty(km.locks, "released keys must not accumulate")
}
