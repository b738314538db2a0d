// Package keylock provides per-key mutual exclusion. The statistics
// aggregator uses it to serialize the read-modify-write rollup cycle per
// (student, question bank) so retried finalize calls cannot interleave and
// lose counter updates.
package keylock

import (
	"fmt"
	"sync"
	"time"
)

type entry struct {
	mu       sync.Mutex
	lastUsed time.Time
	holders  int
}

// KeyLock is a map of lazily created mutexes. Idle entries are reclaimed by
// a janitor goroutine so long-running processes do not accumulate one mutex
// per enrollment forever.
type KeyLock struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func New() *KeyLock {
	kl := &KeyLock{entries: make(map[string]*entry)}

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			kl.mu.Lock()
			for key, e := range kl.entries {
				if e.holders == 0 && time.Since(e.lastUsed) > 5*time.Minute {
					delete(kl.entries, key)
				}
			}
			kl.mu.Unlock()
		}
	}()

	return kl
}

// Lock acquires the mutex for key, creating it on first use.
func (kl *KeyLock) Lock(key string) {
	kl.mu.Lock()
	e, ok := kl.entries[key]
	if !ok {
		e = &entry{}
		kl.entries[key] = e
	}
	e.holders++
	e.lastUsed = time.Now()
	kl.mu.Unlock()

	e.mu.Lock()
}

// Unlock releases the mutex for key.
func (kl *KeyLock) Unlock(key string) {
	kl.mu.Lock()
	e, ok := kl.entries[key]
	if ok {
		e.holders--
		e.lastUsed = time.Now()
	}
	kl.mu.Unlock()

	if ok {
		e.mu.Unlock()
	}
}

// EnrollmentKey builds the canonical lock key for a (student, qbank) pair.
func EnrollmentKey(userID, qbankID uint) string {
	return fmt.Sprintf("%d:%d", userID, qbankID)
}
