package keylock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLockSerializesSameKey(t *testing.T) {
	kl := New()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			kl.Lock("1:1")
			counter++
			kl.Unlock("1:1")
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
}

func TestDifferentKeysDoNotContend(t *testing.T) {
	kl := New()
	kl.Lock("1:1")

	done := make(chan struct{})
	go func() {
		kl.Lock("2:1")
		kl.Unlock("2:1")
		close(done)
	}()

	// a different enrollment must not block behind the held lock
	<-done
	kl.Unlock("1:1")
}

func TestEnrollmentKey(t *testing.T) {
	assert.Equal(t, "7:42", EnrollmentKey(7, 42))
	assert.NotEqual(t, EnrollmentKey(71, 2), EnrollmentKey(7, 12))
}
