package service

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestKeyedMutex_SerializesPerKey(t *testing.T) {
	locks := NewKeyedMutex()
	id := uuid.New()

	const workers = 50
	var (
		wg      sync.WaitGroup
		counter int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock(id)
			defer unlock()
			v := counter
			counter = v + 1
		}()
	}
	wg.Wait()

	assert.Equal(t, workers, counter)
	assert.Zero(t, locks.size())
}

func TestKeyedMutex_ReleasesEntries(t *testing.T) {
	locks := NewKeyedMutex()

	held := uuid.New()
	unlockHeld := locks.Lock(held)
	for i := 0; i < 1000; i++ {
		locks.Lock(uuid.New())()
	}
	assert.Equal(t, 1, locks.size())

	unlockHeld()
	assert.Zero(t, locks.size())
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	locks := NewKeyedMutex()
	unlockA := locks.Lock(uuid.New())
	defer unlockA()

	done := make(chan struct{})
	go func() {
		locks.Lock(uuid.New())()
		close(done)
	}()
	<-done
}
