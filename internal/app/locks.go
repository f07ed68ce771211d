/**
 * @description
 * This file implements the lock coordinator for the transfer engine: one mutex
 * per distinct account number, handed out lazily, with pairwise acquisition in
 * a global lexicographic order so two opposite-direction transfers over the
 * same pair of accounts can never deadlock.
 *
 * @notes
 * - Tokens are never evicted. The map grows with the set of account numbers
 *   ever touched, which is bounded and stable; this is a known trade-off.
 * - sync.Mutex is not reentrant, so equal keys collapse to a single token and
 *   the second lock of a pair is nil in that case.
 */

package app

import "sync"

// lockArena owns one coordination token per account number. It is created once
// per process and injected into the Service rather than held as global state.
type lockArena struct {
	mu     sync.Mutex
	tokens map[string]*sync.Mutex
}

func newLockArena() *lockArena {
	return &lockArena{tokens: make(map[string]*sync.Mutex)}
}

// token returns the mutex for one account number, creating it on first use.
func (a *lockArena) token(accountNumber string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()

	if m, ok := a.tokens[accountNumber]; ok {
		return m
	}
	m := &sync.Mutex{}
	a.tokens[accountNumber] = m
	return m
}

// pair returns the tokens for both legs ordered by account number, so every
// caller acquires any given pair in the same global order. When both numbers
// map to the same token, second is nil and only first must be locked.
func (a *lockArena) pair(x, y string) (first, second *sync.Mutex) {
	if x == y {
		return a.token(x), nil
	}
	if y < x {
		x, y = y, x
	}
	return a.token(x), a.token(y)
}
